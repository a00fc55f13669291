package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load decodes the JSON file at path into a T.
func Load[T any](path string) (T, error) {
	var v T
	f, err := os.Open(path)
	if err != nil {
		return v, err
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(&v)
	return v, err
}

// Save writes v as indented JSON, creating parent directories as needed.
func Save[T any](path string, v T) error {
	if dir := filepath.Dir(filepath.Clean(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
