// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, entrez-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/fmri-topics/internal/logging"
	"github.com/pdiddy/fmri-topics/pkg/types"
)

const (
	// KeyNCBIAPIKey raises the bibliographic service's rate limit.
	KeyNCBIAPIKey = "ncbi-api-key"

	// KeyEntrezEmail is the operator contact sent with every request.
	KeyEntrezEmail = "entrez-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *logging.Logger) (map[string]string, error) {
	if log == nil {
		log = logging.Nop()
	}
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
			log.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills the retrieval credentials that cfg leaves empty.
func Apply(cfg *types.RetrievalConfig, secrets map[string]string) {
	if cfg.APIKey == "" {
		cfg.APIKey = secrets[KeyNCBIAPIKey]
	}
	if cfg.Email == "" {
		cfg.Email = secrets[KeyEntrezEmail]
	}
}
