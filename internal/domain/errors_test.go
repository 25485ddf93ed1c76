package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ModelUnavailableError("provider unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ModelUnavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct pipeline error", EmptyDocumentError("no pages"), ErrEmptyDocument},
		{"wrapped pipeline error", fmt.Errorf("run failed: %w", InvalidDocumentError("bad magic", nil)), ErrInvalidDocument},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(InvalidDocumentError("not a PDF", nil)))
	assert.True(t, IsFatal(EmptyDocumentError("zero pages")))

	assert.False(t, IsFatal(ModelUnavailableError("down", nil)))
	assert.False(t, IsFatal(ModelAuthError("bad key", nil)))
	assert.False(t, IsFatal(ModelTimeoutError("slow", nil)))
	assert.False(t, IsFatal(MalformedResponseError("not json", nil)))
	assert.False(t, IsFatal(ExportError("bad cell", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
}
