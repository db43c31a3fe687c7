package uploads

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minnehack/registration-api/internal/ports/out/uploads"
)

var uuidName = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(pdf|doc|docx)$`)

func TestStore_SaveByType(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	cases := map[string]string{
		"application/pdf":    ".pdf",
		"application/msword": ".doc",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
		"application/pdf; charset=binary":                                         ".pdf",
	}
	for ct, ext := range cases {
		name, err := s.Save(context.Background(), ct, strings.NewReader("resume"))
		require.NoError(t, err, ct)
		assert.True(t, uuidName.MatchString(name), name)
		assert.Equal(t, ext, filepath.Ext(name))

		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "resume", string(b))
	}
}

func TestStore_RejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	for _, ct := range []string{"image/png", "text/plain", "", "garbage;;"} {
		_, err := s.Save(context.Background(), ct, strings.NewReader("x"))
		assert.True(t, errors.Is(err, uploads.ErrUnsupportedType), "%q: %v", ct, err)
	}
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestStore_RejectsOversizeAndCleansUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	s.maxBytes = 8

	_, err = s.Save(context.Background(), "application/pdf", bytes.NewReader(make([]byte, 9)))
	assert.ErrorIs(t, err, uploads.ErrTooLarge)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	name, err := s.Save(context.Background(), "application/pdf", bytes.NewReader(make([]byte, 8)))
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	name, err := s.Save(context.Background(), "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(context.Background(), name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), name), "deleting a missing file is not an error")
	assert.Error(t, s.Delete(context.Background(), "../etc/passwd"))
}
