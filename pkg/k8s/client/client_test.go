package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: local
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: local
  context:
    cluster: local
    user: dev
current-context: local
users:
- name: dev
  user:
    token: abc
`

func TestResolveKubeconfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv(EnvKubeconfig, "")
	assert.Equal(t, "/explicit", ResolveKubeconfig("/explicit"))
	assert.Empty(t, ResolveKubeconfig(""))

	t.Setenv(EnvKubeconfig, "/from/env")
	assert.Equal(t, "/from/env", ResolveKubeconfig(""))
}

func TestBuildKubeClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	cs, cfg, err := BuildKubeClient(path)
	require.NoError(t, err)
	assert.NotNil(t, cs)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
	assert.Equal(t, "abc", cfg.BearerToken)
}

func TestBuildKubeClient_MissingFile(t *testing.T) {
	_, _, err := BuildKubeClient(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
