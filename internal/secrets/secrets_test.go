package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcommunity/fieldmap/internal/errors"
)

func TestExpand(t *testing.T) {
	t.Setenv("FIELDMAP_TEST_TOKEN", "tok-1")
	t.Setenv("FIELDMAP_TEST_USER", "amy")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty", input: "", want: ""},
		{name: "literal", input: "plain", want: "plain"},
		{name: "variable", input: "${FIELDMAP_TEST_TOKEN}", want: "tok-1"},
		{name: "embedded", input: "Bearer ${FIELDMAP_TEST_TOKEN}", want: "Bearer tok-1"},
		{name: "two variables", input: "${FIELDMAP_TEST_USER}:${FIELDMAP_TEST_TOKEN}", want: "amy:tok-1"},
		{name: "fallback unused", input: "${FIELDMAP_TEST_TOKEN:-other}", want: "tok-1"},
		{name: "fallback used", input: "${FIELDMAP_TEST_UNSET:-other}", want: "other"},
		{name: "empty fallback", input: "${FIELDMAP_TEST_UNSET:-}", want: ""},
		{name: "missing", input: "${FIELDMAP_TEST_UNSET}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				assert.Contains(t, err.Error(), "FIELDMAP_TEST_UNSET")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	// Leading and inner whitespace is part of the secret.
	spaced := filepath.Join(dir, "spaced")
	require.NoError(t, os.WriteFile(spaced, []byte(" a b \r\n"), 0o600))
	got, err = ReadFile(spaced)
	require.NoError(t, err)
	assert.Equal(t, " a b ", got)

	// Permissive files are still read.
	open := filepath.Join(dir, "open")
	require.NoError(t, os.WriteFile(open, []byte("x"), 0o644))
	got, err = ReadFile(open)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))

	large := filepath.Join(dir, "large")
	require.NoError(t, os.WriteFile(large, make([]byte, maxFileSize+1), 0o600))

	for name, path := range map[string]string{
		"no path":   "",
		"missing":   filepath.Join(dir, "nope"),
		"directory": dir,
		"empty":     empty,
		"too large": large,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFile(path)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
		})
	}
}

func TestResolvePrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))

	got, err := Resolve(path, "from-value")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Resolve("", "from-value")
	require.NoError(t, err)
	assert.Equal(t, "from-value", got)

	got, err = Resolve("", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
