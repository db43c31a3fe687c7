package uploads

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnsupportedType indicates the file's MIME type is not an accepted resume format.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge indicates the file exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
)

// MaxResumeBytes bounds an accepted resume upload.
const MaxResumeBytes = 10 << 20

// Store persists uploaded resumes. Save returns the generated filename.
type Store interface {
	Save(ctx context.Context, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, filename string) error
}
