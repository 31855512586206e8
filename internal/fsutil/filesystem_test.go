package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()

	if _, err := m.Create("out/table.csv"); err == nil {
		t.Fatal("Create without parent dir should fail")
	}
	if err := m.MkdirAll("out/sub", 0o755); err != nil {
		t.Fatal(err)
	}
	if !m.Exists("out") || !m.Exists("out/sub") {
		t.Error("MkdirAll should create parents")
	}

	w, err := m.Create("out/table.csv")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "a,b\n1,2\n"); err != nil {
		t.Fatal(err)
	}
	if m.Exists("out/table.csv") {
		t.Error("file visible before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := m.Open("out/./table.csv")
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
	info, err := f.Stat()
	if err != nil || info.Size() != 8 || info.Name() != "table.csv" {
		t.Errorf("Stat = %v, %v", info, err)
	}

	m.WriteFile("in/msd.dat", []byte("x"))
	got := m.Files()
	want := []string{"in/msd.dat", "out/table.csv"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Files() = %v, want %v", got, want)
	}

	if _, err := m.ReadFile("missing"); !os.IsNotExist(err) {
		t.Errorf("ReadFile(missing) err = %v", err)
	}
}

func TestOSFileSystemAtomicCreate(t *testing.T) {
	dir := t.TempDir()
	var fsys FileSystem = OSFileSystem{}
	target := filepath.Join(dir, "params.csv")

	w, err := fsys.Create(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "D0\n1e-5\n"); err != nil {
		t.Fatal(err)
	}
	if fsys.Exists(target) {
		t.Error("target visible before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := fsys.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "D0\n1e-5\n" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary file left behind: %v", entries)
	}
}
