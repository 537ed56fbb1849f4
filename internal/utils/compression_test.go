package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGzipFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "card.js")
	content := bytes.Repeat([]byte("customElements.define();"), 100)
	os.WriteFile(src, content, 0644)

	if err := GzipFile(src, src+".gz"); err != nil {
		t.Fatalf("GzipFile failed: %v", err)
	}

	compressed, err := os.ReadFile(src + ".gz")
	if err != nil {
		t.Fatalf("Failed to read sidecar: %v", err)
	}
	if len(compressed) >= len(content) {
		t.Errorf("sidecar is not smaller: %d >= %d", len(compressed), len(content))
	}

	data, err := GzipDecompress(compressed)
	if err != nil {
		t.Fatalf("GzipDecompress failed: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("sidecar does not decompress to the original")
	}
}
