package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagewise/pkg/logging"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(logging.DirEnv, t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pagewise v"+version+"\n", out)
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "browse", "search", "open", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestArgumentValidation(t *testing.T) {
	_, err := runRoot(t, "open")
	assert.Error(t, err)

	_, err = runRoot(t, "search")
	assert.Error(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runRoot(t, "--config", configPath, "--backend", "altavista", "search", "go")
	assert.ErrorContains(t, err, `invalid backend configuration: unknown driver "altavista"`)

	t.Setenv("SEARXNG_URL", "")
	_, err = runRoot(t, "--config", configPath, "--backend", "searxng", "open", "https://go.dev/")
	assert.ErrorContains(t, err, "base_url is required")
}
