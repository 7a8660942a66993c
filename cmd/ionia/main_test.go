package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrefix(t *testing.T) {
	got, err := normalizePrefix("https://i.ionia.pw/")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ionia.pw", got)

	got, err = normalizePrefix(" http://localhost:3030/p ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3030/p", got)

	for _, bad := range []string{"ftp://x", "i.ionia.pw", "https://", "https://x/?a=1", "https://x/#f"} {
		_, err := normalizePrefix(bad)
		assert.Error(t, err, bad)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAdminCommandsMemoryBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "memory://")

	out, err := run(t, "key", "add", "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1\n", out)

	out, err = run(t, "key", "add")
	require.NoError(t, err)
	assert.Len(t, out, generatedKeySize+1)

	// каждая команда открывает своё хранилище в памяти
	_, err = run(t, "key", "check", "k1")
	assert.ErrorIs(t, err, errKeyNotFound)

	out, err = run(t, "prefix", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "not set")

	out, err = run(t, "prefix", "set", "https://cdn.example.test/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test\n", out)

	_, err = run(t, "prefix", "set", "not a url")
	assert.Error(t, err)
}

func TestCommandsRequireDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "key", "check", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
