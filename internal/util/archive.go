package util

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shenwei356/xopen"
)

var ErrUnsafePath = errors.New("archive entry escapes destination")

// CreateArchive writes the named entries of baseDir, files or whole directories,
// into a tar file at dst. A dst ending in .gz is compressed. Missing entries
// are skipped. It returns the number of files written.
func CreateArchive(dst, baseDir string, entries ...string) (int, error) {

	out, err := xopen.Wopen(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	tw := tar.NewWriter(out)
	n := 0
	for _, entry := range entries {
		root := filepath.Join(baseDir, entry)
		if _, err := os.Lstat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			added, err := addToArchive(tw, baseDir, path, d)
			if added {
				n++
			}
			return err
		})
		if err != nil {
			tw.Close()
			out.Close()
			return n, err
		}
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}

func addToArchive(tw *tar.Writer, baseDir, path string, d fs.DirEntry) (bool, error) {

	info, err := d.Info()
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return false, err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return false, err
	}
	hdr.Name = filepath.ToSlash(rel)
	if d.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return false, err
	}
	if d.IsDir() {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return false, fmt.Errorf("archive %s: %w", rel, err)
	}
	return true, nil
}

// ExtractArchive unpacks a tar (or tar.gz) file made by CreateArchive into
// destDir. Entries that would land outside destDir are rejected.
func ExtractArchive(src, destDir string) (int, error) {

	in, err := xopen.Ropen(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, err
	}

	tr := tar.NewReader(in)
	n := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return n, fmt.Errorf("%w: %s", ErrUnsafePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return n, err
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return n, err
			}
			n++
		}
	}
}

func extractFile(r io.Reader, target string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
