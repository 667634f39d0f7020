// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a .env file and from a directory of
// plain-text key files. In the directory form each file is one secret: the
// filename is the key name and the trimmed file contents are the value.
//
// Supported key files: groq-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// GroqAPIKey is the key file name holding the Groq API key.
const GroqAPIKey = "groq-api-key"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that are already set keep their values. Files that
// do not exist are skipped; it returns the files that were loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("checking %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Lookup returns the first non-empty value among the candidates.
func Lookup(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return ""
}
