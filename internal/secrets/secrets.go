// Package secrets resolves credentials that may live in mounted files or
// environment variables instead of the config file itself.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
)

const (
	// maxFileSize bounds secret file reads; tokens and passwords are small.
	maxFileSize = 64 * 1024

	// groupOtherPerms are the permission bits that trigger a warning.
	groupOtherPerms = 0o077
)

func getLogger() logger.Logger {
	return logger.Global().Module("secrets")
}

// Expand replaces ${VAR} and ${VAR:-fallback} references in s. A reference
// to an unset variable without a fallback is an error.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Category(errors.CategoryConfiguration).
			Component("secrets").
			Build()
	}
	return expanded, nil
}

// ReadFile returns the content of a mounted secret with trailing newlines
// removed. Files readable by group or other are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", configError("secret file path is empty", path)
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	switch {
	case os.IsNotExist(err):
		return "", configError("secret file not found", clean)
	case err != nil:
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("secrets").
			Context("path", clean).
			Build()
	case !info.Mode().IsRegular():
		return "", configError("secret path is not a regular file", clean)
	case info.Size() > maxFileSize:
		return "", configError("secret file is too large", clean)
	}

	if perm := info.Mode().Perm(); perm&groupOtherPerms != 0 {
		getLogger().Warn("secret file is readable by group or other",
			logger.String("path", clean),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("secrets").
			Context("path", clean).
			Build()
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", configError("secret file is empty", clean)
	}
	return secret, nil
}

// Resolve returns the secret for a setting that has both a file and a value
// form. The file wins; otherwise the value is expanded.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}

func configError(msg, path string) error {
	return errors.Newf("%s", msg).
		Category(errors.CategoryConfiguration).
		Component("secrets").
		Context("path", path).
		Build()
}
