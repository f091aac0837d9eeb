package util

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, ".env"), "ROARYVIZ_LOG_LEVEL=debug\n")
	writeFile(t, filepath.Join(base, "data", "db", "gene_table.db"), "sqlite")
	writeFile(t, filepath.Join(base, "data", "uploads", "a", "gene_presence_absence.csv"), "Gene\n")

	dst := filepath.Join(t.TempDir(), "backup.tar.gz")
	n, err := CreateArchive(dst, base, ".env", "data", "logs")
	if err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	if n != 3 {
		t.Errorf("archived %d files, want 3", n)
	}

	restore := t.TempDir()
	n, err = ExtractArchive(dst, restore)
	if err != nil {
		t.Fatalf("ExtractArchive: %v", err)
	}
	if n != 3 {
		t.Errorf("extracted %d files, want 3", n)
	}

	got, err := os.ReadFile(filepath.Join(restore, "data", "db", "gene_table.db"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "sqlite" {
		t.Errorf("restored content = %q", got)
	}
	if !DirExists(filepath.Join(restore, "data", "uploads", "a")) {
		t.Error("upload directory not restored")
	}
}

func TestExtractArchive_RejectsTraversal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	tw := tar.NewWriter(zw)
	body := []byte("x")
	if err := tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	tw.Write(body)
	tw.Close()
	zw.Close()
	f.Close()

	dest := t.TempDir()
	_, err = ExtractArchive(src, dest)
	if !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt")); err == nil {
		t.Error("file written outside destination")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if DirExists(dir) {
		t.Fatal("directory should not exist yet")
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	if !DirExists(dir) {
		t.Error("EnsureDir did not create the directory")
	}
}
