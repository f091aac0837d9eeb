package db

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yumyai/roaryviz/internal/util"
	"github.com/yumyai/roaryviz/pkg/roary"
)

var (
	ErrUploadDirMissing = errors.New("upload folder does not exist")
	ErrTooLarge         = errors.New("file is too large")
	ErrNoUpload         = errors.New("no such upload")
)

// UploadStore is a folder which hosts uploads/[dataset id]/files.
type UploadStore struct {
	Dir string
}

// NewUploadStore uses dir as upload root. With create, a missing folder is made.
func NewUploadStore(dir string, create bool) (*UploadStore, error) {

	if create {
		if err := util.EnsureDir(dir); err != nil {
			return nil, err
		}
	}
	if !util.DirExists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrUploadDirMissing, dir)
	}

	return &UploadStore{Dir: dir}, nil
}

func (s *UploadStore) datasetDir(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNoUpload, id)
	}
	return filepath.Join(s.Dir, id), nil
}

// Save copies at most maxSize bytes of r into the dataset folder, keeping only the
// base name of filename. maxSize <= 0 disables the limit.
func (s *UploadStore) Save(id, filename string, r io.Reader, maxSize int64) (string, error) {

	dir, err := s.datasetDir(id)
	if err != nil {
		return "", err
	}
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return "", fmt.Errorf("invalid file name %q", filename)
	}
	if err := util.EnsureDir(dir); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, name)
	fh, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	n, err := io.Copy(fh, src)
	if err != nil {
		os.Remove(dst)
		return "", err
	}
	if maxSize > 0 && n > maxSize {
		os.Remove(dst)
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, maxSize)
	}

	return dst, nil
}

// Files lists the stored files of a dataset, sorted by name.
func (s *UploadStore) Files(id string) ([]string, error) {

	dir, err := s.datasetDir(id)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoUpload, id)
	}
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Find returns the first stored file of the given kind, or "" when there is none.
func (s *UploadStore) Find(id string, kind roary.Kind) (string, error) {

	files, err := s.Files(id)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if roary.DetectKind(f) == kind {
			return f, nil
		}
	}
	return "", nil
}

func (s *UploadStore) Remove(id string) error {
	dir, err := s.datasetDir(id)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

// RemoveOlderThan deletes dataset folders last modified before now-age and returns
// their ids.
func (s *UploadStore) RemoveOlderThan(age time.Duration, now time.Time) ([]string, error) {

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-age)
	var removed []string
	var errs error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.Dir, e.Name())); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		removed = append(removed, e.Name())
	}

	return removed, errs
}
