package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrManifestNotFound = errors.New("manifest not found")

// FileSource reads the manifest of a single project directory.
type FileSource struct {
	Dir      string
	FileName string
}

func (s *FileSource) Path() string {
	return filepath.Join(s.Dir, s.FileName)
}

// ReadManifest returns the full manifest text. A missing file is reported as
// ErrManifestNotFound.
func (s *FileSource) ReadManifest(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrManifestNotFound, s.Path())
	}
	if err != nil {
		return "", fmt.Errorf("failed to read manifest %s: %w", s.Path(), err)
	}
	return string(data), nil
}

// Hash returns the SHA-256 of the manifest text, hex encoded.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
