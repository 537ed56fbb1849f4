package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDocument(t *testing.T) {
	s := New(t.TempDir())

	var v map[string]string
	found, err := s.Load("missing", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestSaveWritesEnvelope(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Save(KeyInstalled, map[string]string{"a/b": "1.0"}))

	raw, err := os.ReadFile(filepath.Join(dir, Dir, KeyInstalled))
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, float64(1), env["version"])
	assert.Equal(t, float64(1), env["minor_version"])
	assert.Equal(t, KeyInstalled, env["key"])
	assert.Equal(t, map[string]interface{}{"a/b": "1.0"}, env["data"])

	var got map[string]string
	found, err := s.Load(KeyInstalled, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1.0", got["a/b"])
}

func TestSavePreservesSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Dir, KeyResources)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"minor_version":3,"key":"lovelace_resources","data":{"items":[]}}`), 0644))

	s := New(dir)
	require.NoError(t, s.Save(KeyResources, map[string]interface{}{"items": []string{}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, 3, env.MinorVersion)
}

func TestLoadCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Dir, KeyAccount)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	var v models.AccountConfig
	_, err := New(dir).Load(KeyAccount, &v)
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrStorage))
}
