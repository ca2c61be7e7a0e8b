package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// FindDotenvFile searches the working directory and its parents for a .env
// file and returns the first hit.
func FindDotenvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadEnvDefaults loads environment variables from the nearest .env file,
// if any. Existing process variables are not overwritten. Returns the path
// that was loaded, or "" when no file was found.
func LoadEnvDefaults() (string, error) {
	path, ok := FindDotenvFile()
	if !ok {
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		return "", err
	}
	return path, nil
}
