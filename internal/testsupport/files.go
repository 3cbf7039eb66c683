package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with exactly size bytes of filler content, making
// the parent directory as needed. Sizes below one byte are clamped to one so
// the result always exists on disk. Intended for staging fake audio
// artifacts whose on-disk size matters more than their contents.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size < 1 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	chunk := bytes.Repeat([]byte{0xa4}, 64*1024)
	for written := int64(0); written < size; {
		end := int64(len(chunk))
		if size-written < end {
			end = size - written
		}
		n, err := f.Write(chunk[:end])
		if err != nil {
			f.Close()
			t.Fatalf("write %s: %v", path, err)
		}
		written += int64(n)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}
