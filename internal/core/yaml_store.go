package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxYAMLFileSize caps fleet.yml and policy files. A fleet of a few hundred
// repositories is well under 100 KB.
const maxYAMLFileSize = 1 << 20 // 1 MB

// errFileTooLarge is returned by YAMLStore.Load for files over maxYAMLFileSize.
var errFileTooLarge = errors.New("file exceeds maximum size")

// YAMLStore reads one YAML document of type T.
type YAMLStore[T any] struct {
	rootDir      string
	filename     string
	allowMissing bool // missing file loads as the zero value
}

// NewYAMLStore creates a store for filename inside rootDir.
func NewYAMLStore[T any](rootDir, filename string, allowMissing bool) *YAMLStore[T] {
	return &YAMLStore[T]{
		rootDir:      rootDir,
		filename:     filename,
		allowMissing: allowMissing,
	}
}

// Path returns the full file path
func (s *YAMLStore[T]) Path() string {
	return filepath.Join(s.rootDir, s.filename)
}

// Load decodes the file. At most maxYAMLFileSize+1 bytes are read.
func (s *YAMLStore[T]) Load() (T, error) {
	var result T

	f, err := os.Open(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return result, nil
		}
		return result, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxYAMLFileSize+1))
	if err != nil {
		return result, fmt.Errorf("read %s: %w", s.filename, err)
	}
	if len(data) > maxYAMLFileSize {
		return result, fmt.Errorf("%s: %w (%d byte limit)", s.filename, errFileTooLarge, maxYAMLFileSize)
	}

	if err := yaml.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid %s: %w", s.filename, err)
	}
	return result, nil
}
