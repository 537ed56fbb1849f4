package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/hass-box/hassbox-store/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	srv      *httptest.Server
	disabled string
	catalog  []map[string]interface{}
	assets   map[string][]byte
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	fs := &fakeStore{assets: make(map[string][]byte)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/integration/bindToken", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"certificate":"cert"}`))
	})
	mux.HandleFunc("/api/public/integration/checkValid", func(w http.ResponseWriter, r *http.Request) {
		if fs.disabled != "" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintf(w, `{"errcode":1,"errmsg":%q}`, fs.disabled)
			return
		}
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/public/integration/data", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Welcome to the store",
			"integration": map[string]interface{}{
				"id":             models.StoreIntegrationID,
				"type":           "integration",
				"name":           "HassBox Store",
				"version_simple": []map[string]string{{"name": Version, "assets_name": "hassbox_store.zip"}},
			},
			"data_source_url": fs.srv.URL + "/repo.json",
		})
	})
	mux.HandleFunc("/repo.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fs.catalog)
	})
	mux.HandleFunc("/integration/", func(w http.ResponseWriter, r *http.Request) {
		data, ok := fs.assets[strings.TrimPrefix(r.URL.Path, "/integration/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeStore) addPackage(id, typ, version, asset string, stars int, data []byte) {
	fs.catalog = append(fs.catalog, map[string]interface{}{
		"id":             id,
		"type":           typ,
		"name":           models.ShortID(id),
		"star_count":     stars,
		"forks_count":    0,
		"version_simple": []map[string]string{{"name": version, "assets_name": asset}},
	})
	fs.assets[id+"/"+version+"/"+asset] = data
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		w.Write([]byte(content))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func run(t *testing.T, store *fakeStore, configDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HASSBOX_API_BASE", store.srv.URL+"/api/public/")
	t.Setenv("HASSBOX_DOWNLOAD_BASE", store.srv.URL+"/integration")
	t.Setenv("HASSBOX_DOWNLOAD_TIMEOUT", "5s")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-dir", configDir, "--ha-version", "2024.6.0"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestStoreWorkflow(t *testing.T) {
	store := newFakeStore(t)
	store.addPackage("a/b", "card", "1.0", "b.js", 5, []byte("customElements.define('b-card')"))
	store.addPackage("x/foo", "integration", "2.0", "foo.zip", 9, zipOf(t, map[string]string{
		"custom_components/foo/manifest.json": `{"domain":"foo"}`,
	}))
	configDir := t.TempDir()

	_, err := run(t, store, configDir, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out, err := run(t, store, configDir, "login", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in.")

	out, err = run(t, store, configDir, "available")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "x/foo"), strings.Index(out, "a/b"), "most starred first")

	out, err = run(t, store, configDir, "install", "a/b", "x/foo")
	require.NoError(t, err)
	assert.Contains(t, out, "* b")
	assert.Contains(t, out, "* foo")

	assert.FileExists(t, filepath.Join(configDir, "www", "b", "b.js"))
	assert.FileExists(t, filepath.Join(configDir, "custom_components", "foo", "manifest.json"))

	out, err = run(t, store, configDir, "view")
	require.NoError(t, err)
	assert.Contains(t, out, "Integrations:\n  * foo")
	assert.Contains(t, out, "Cards:\n  * b")

	out, err = run(t, store, configDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to the store")
	assert.Contains(t, out, "2 packages installed")

	out, err = run(t, store, configDir, "update")
	require.NoError(t, err)
	assert.Contains(t, out, "Everything is up to date.")

	out, err = run(t, store, configDir, "remove", "a/b")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed successfully")
	assert.NoDirExists(t, filepath.Join(configDir, "www", "b"))

	docs := storage.New(configDir)
	var lovelace struct {
		Items []struct {
			URL string `json:"url"`
		} `json:"items"`
	}
	_, err = docs.Load(storage.KeyResources, &lovelace)
	require.NoError(t, err)
	for _, item := range lovelace.Items {
		assert.False(t, strings.HasPrefix(item.URL, "/local/b/b.js"), "resource %s left behind", item.URL)
	}

	var installed map[string]json.RawMessage
	_, err = docs.Load(storage.KeyInstalled, &installed)
	require.NoError(t, err)
	assert.NotContains(t, installed, "a/b")
	assert.Contains(t, installed, "x/foo")

	_, err = run(t, store, configDir, "remove", "a/b")
	require.NoError(t, err)

	out, err = run(t, store, configDir, "available")
	require.NoError(t, err)
	assert.Contains(t, out, "a/b")
}

func TestInstallReportsFailures(t *testing.T) {
	store := newFakeStore(t)
	store.addPackage("x/broken", "integration", "1.0", "broken.zip", 0, zipOf(t, map[string]string{"README.md": "no manifest"}))
	configDir := t.TempDir()

	_, err := run(t, store, configDir, "login", "secret")
	require.NoError(t, err)

	out, err := run(t, store, configDir, "install", "x/broken", "x/unknown")
	require.Error(t, err)
	assert.Contains(t, out, "Installed failed:")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "x/unknown")
	assert.Contains(t, err.Error(), "2 of 2 packages failed")
}

func TestDisabledAccount(t *testing.T) {
	store := newFakeStore(t)
	store.disabled = "subscription expired"
	configDir := t.TempDir()

	_, err := run(t, store, configDir, "login", "secret")
	require.NoError(t, err)

	_, err = run(t, store, configDir, "view")
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrDisabled))
	assert.Contains(t, err.Error(), "subscription expired")
}

func TestLoginArguments(t *testing.T) {
	store := newFakeStore(t)
	configDir := t.TempDir()

	_, err := run(t, store, configDir, "login")
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig))

	_, err = run(t, store, configDir, "login", "--qrcode", "secret")
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig))
}

func TestMissingHostVersion(t *testing.T) {
	store := newFakeStore(t)
	configDir := t.TempDir()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config-dir", configDir, "login", "secret"})
	t.Setenv("HASSBOX_API_BASE", store.srv.URL+"/api/public/")

	err := cmd.Execute()
	assert.True(t, models.IsErrorType(err, models.ErrInvalidConfig))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, ".HA_VERSION"), []byte("2024.6.0"), 0644))
	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config-dir", configDir, "login", "secret"})
	assert.NoError(t, cmd.Execute())
}
