// Package uploads saves resume files into a directory under random names.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/minnehack/registration-api/internal/ports/out/uploads"
)

var extByMediaType = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: uploads.MaxResumeBytes}, nil
}

// Save stores r as {uuid}.{ext}. The whole upload is rejected if it exceeds the size limit.
func (s *Store) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	_ = ctx
	ext, err := extensionFor(contentType)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + "." + ext
	p := filepath.Join(s.dir, name)

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = uploads.ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(p)
		return "", err
	}
	return name, nil
}

func (s *Store) Delete(ctx context.Context, filename string) error {
	_ = ctx
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("invalid upload filename %q", filename)
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func extensionFor(contentType string) (string, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", uploads.ErrUnsupportedType
	}
	ext, ok := extByMediaType[strings.ToLower(mt)]
	if !ok {
		return "", uploads.ErrUnsupportedType
	}
	return ext, nil
}
