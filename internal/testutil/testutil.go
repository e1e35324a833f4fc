// Package testutil provides shared test helpers for creating config files and image fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file and all required directories for testing.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	dirs := []string{"images", "transcripts"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`images:
  directory: %s
outputs:
  transcript_directory: %s
`,
		filepath.Join(tmpDir, "images"),
		filepath.Join(tmpDir, "transcripts"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake Gemini API key for tests
// that require API key validation to pass.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)
	AppendConfig(t, cfgPath, "gemini:\n  api_key: fake-key-for-testing\n  model: gemini-1.5-flash\n")
	return cfgPath
}

// AppendConfig adds top-level sections to a config file created by SetupTestConfig.
func AppendConfig(t *testing.T, cfgPath, content string) {
	t.Helper()

	current, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	current = append(current, []byte(content)...)
	require.NoError(t, os.WriteFile(cfgPath, current, 0644))
}

// CreateImages writes placeholder image assets into dir.
func CreateImages(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("image:"+name), 0644))
	}
}
