package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/insightpdf/insightpdf/internal/domain"
)

var pdfMagic = []byte("%PDF")

// ValidateBytes checks that raw looks like a parseable PDF.
func ValidateBytes(raw []byte) error {
	if len(raw) == 0 {
		return domain.InvalidDocumentError("uploaded file is empty", nil)
	}
	if !bytes.HasPrefix(raw, pdfMagic) {
		return domain.InvalidDocumentError("file is not a valid PDF", nil)
	}
	return nil
}

// ValidateSize rejects uploads larger than maxBytes. A non-positive limit
// disables the check.
func ValidateSize(size int64, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return domain.InvalidDocumentError(
			fmt.Sprintf("file size %d exceeds limit of %d bytes", size, maxBytes), nil)
	}
	return nil
}

// ValidateFilename checks the extension of an uploaded or local file name.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.InvalidDocumentError("file name cannot be empty", nil)
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".pdf" {
		return domain.InvalidDocumentError(
			fmt.Sprintf("unsupported file extension %q, only .pdf is accepted", ext), nil)
	}
	return nil
}
