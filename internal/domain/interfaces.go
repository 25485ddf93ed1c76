package domain

import "context"

// PageSource is a finite, non-restartable sequence of rendered pages.
// Next returns nil when the sequence is exhausted. Implementations render
// lazily; callers must Close on every exit path.
type PageSource interface {
	// TotalPages reports the page count without rendering anything.
	TotalPages() int

	// Next renders and returns the next page in ascending index order,
	// or nil once all pages have been consumed.
	Next(ctx context.Context) (*Page, error)

	// Close releases the underlying document resources.
	Close() error
}

// ModelClient sends one page image to the configured multimodal endpoint
// and returns the raw response text.
type ModelClient interface {
	Analyze(ctx context.Context, page *Page, cfg ModelConfig, prompt string) (string, error)
}

// Normalizer parses one page's raw model output into question records.
// A malformed response yields zero records and a failure note, never an error
// that would abort the run.
type Normalizer interface {
	Normalize(raw string, document string, pageIndex int) ([]QuestionRecord, *FailureNote)
}

// Exporter serializes a ProcessingResult into a downloadable byte stream.
type Exporter interface {
	// Export writes one row per QuestionRecord. Failure notes are not part
	// of the tabular output. The export is atomic: any serialization error
	// fails the whole export with no partial bytes.
	Export(result *ProcessingResult) ([]byte, error)

	// ContentType returns the MIME type of the produced stream.
	ContentType() string

	// Extension returns the file extension without the dot.
	Extension() string
}
