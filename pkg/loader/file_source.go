package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var fileExtensions = []string{".json", ".yaml", ".yml"}

// FileSource reads datasets from <dir>/<key>.json, .yaml or .yml, in that
// order of preference.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Dir returns the directory the source reads from.
func (s *FileSource) Dir() string {
	return s.dir
}

// Fetch implements FetchFunc.
func (s *FileSource) Fetch(ctx context.Context, key string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, fmt.Errorf("loader: invalid dataset key %q", key)
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(s.dir, key+ext)
		payload, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", path, err)
		}
		return decodeFile(path, payload)
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, key, s.dir)
}

// KeyForPath maps a dataset file path back to its key. It reports false for
// files the source would not read.
func (s *FileSource) KeyForPath(path string) (string, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(s.dir) {
		return "", false
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	for _, known := range fileExtensions {
		if ext == known {
			return strings.TrimSuffix(base, ext), true
		}
	}
	return "", false
}

func decodeFile(path string, payload []byte) (Dataset, error) {
	data := Dataset{}
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("loader: decode %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(payload, &data); err != nil {
			return nil, fmt.Errorf("loader: decode %s: %w", path, err)
		}
	}
	return data, nil
}
