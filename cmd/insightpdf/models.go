package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List configured model providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := cfg.ProviderNames()
			sort.Strings(names)

			for _, name := range names {
				p := cfg.Providers[name]
				keyState := "no key"
				if p.APIKey != "" {
					keyState = "key set"
				}
				line := fmt.Sprintf("%-8s %-24s %s (%s)", name, p.Model, p.BaseURL, keyState)
				if name == cfg.DefaultModel {
					color.Green("* %s", line)
				} else {
					fmt.Printf("  %s\n", line)
				}
			}
			return nil
		},
	}
}
