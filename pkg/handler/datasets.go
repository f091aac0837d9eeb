package handler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/roary"
)

const (
	SourceUpload    = "upload"
	SourceGeneTable = "genetable"
)

// Dataset is a loaded presence/absence matrix with what came along with it.
type Dataset struct {
	ID          string
	Name        string
	Source      string
	Files       []string
	Matrix      *model.Matrix
	Summary     []roary.SummaryRow
	GenomeNames map[string]string
	CreatedAt   time.Time
}

// DatasetStore keeps datasets in memory for a limited time. onEvict runs for every
// dataset that expires, is pushed out or removed; it must not call back into the
// store.
type DatasetStore struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, *Dataset]
	onEvict func(*Dataset)
}

func NewDatasetStore(maxDatasets int, ttl time.Duration, onEvict func(*Dataset)) *DatasetStore {
	s := &DatasetStore{onEvict: onEvict}
	s.lru = expirable.NewLRU[string, *Dataset](maxDatasets, func(_ string, ds *Dataset) {
		if s.onEvict != nil {
			s.onEvict(ds)
		}
	}, ttl)
	return s
}

// Add stores ds, replacing any dataset with the same ID.
func (s *DatasetStore) Add(ds *Dataset) {
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Add on an existing key does not report the old value as evicted.
	if old, ok := s.lru.Peek(ds.ID); ok && old != ds {
		s.lru.Remove(ds.ID)
	}
	s.lru.Add(ds.ID, ds)
}

func (s *DatasetStore) Get(id string) (*Dataset, error) {
	ds, ok := s.lru.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return ds, nil
}

func (s *DatasetStore) Remove(id string) bool {
	return s.lru.Remove(id)
}

func (s *DatasetStore) Len() int {
	return s.lru.Len()
}

// List returns the live datasets, newest first.
func (s *DatasetStore) List() []*Dataset {
	out := s.lru.Values()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
