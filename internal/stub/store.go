package stub

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relistr/mediakit/pkg/asset"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/scope"
)

// IncomingFile is one file received by the stub's upload endpoint.
type IncomingFile struct {
	Name        string
	ContentType string
	SizeBytes   int64
}

// Store keeps per-scope image collections in memory, applying the same
// ordering and single-primary rules the production backend enforces:
// contiguous sortOrder on create, first upload into an empty scope
// becomes primary, renumber and promote after delete.
type Store struct {
	mu     sync.Mutex
	nextID int64
	scopes map[string][]asset.Record
}

func NewStore() *Store {
	return &Store{nextID: 1, scopes: make(map[string][]asset.Record)}
}

// List returns the scope's records sorted by sortOrder.
func (s *Store) List(sc scope.Scope) []asset.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.scopes[sc.Key()]
	out := make([]asset.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// Create appends uploaded files to the scope, assigning server ids and
// the next contiguous sortOrder indices. Returns only the new records.
func (s *Store) Create(sc scope.Scope, files []IncomingFile) []asset.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sc.Key()
	existing := s.scopes[key]
	created := make([]asset.Record, 0, len(files))
	for i, file := range files {
		id := s.nextID
		s.nextID++
		record := asset.Record{
			ID: id,
			URLs: asset.VariantURLs{
				Original:  fmt.Sprintf("/uploads/%s/%d/%s", sc.EntityType, id, file.Name),
				Thumbnail: fmt.Sprintf("/uploads/%s/%d/thumb_%s", sc.EntityType, id, file.Name),
			},
			Metadata: asset.Metadata{
				Format:    file.ContentType,
				SizeBytes: file.SizeBytes,
			},
			IsPrimary:    len(existing) == 0 && i == 0,
			SortOrder:    len(existing) + i,
			FileName:     file.Name,
			OriginalName: file.Name,
		}
		created = append(created, record)
	}
	s.scopes[key] = append(existing, created...)
	return created
}

// Delete removes the record wherever it lives, renumbers the scope, and
// promotes the lowest sortOrder record when the primary was removed.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, idx, ok := s.locate(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not found", id))
	}

	records := s.scopes[key]
	removed := records[idx]
	records = append(records[:idx], records[idx+1:]...)
	for i := range records {
		records[i].SortOrder = i
	}
	if removed.IsPrimary && len(records) > 0 {
		records[0].IsPrimary = true
	}
	s.scopes[key] = records
	return nil
}

// Reorder rewrites sortOrder from the supplied pairs; every current id
// must be covered.
func (s *Store) Reorder(sc scope.Scope, orders map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.scopes[sc.Key()]
	if len(orders) != len(records) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("reorder requires all %d ids, got %d", len(records), len(orders)))
	}
	for _, record := range records {
		if _, ok := orders[record.ID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("id %d missing from reorder", record.ID))
		}
	}

	for i := range records {
		records[i].SortOrder = orders[records[i].ID]
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].SortOrder < records[j].SortOrder })
	s.scopes[sc.Key()] = records
	return nil
}

// SetPrimary flips the primary flag within the record's scope.
func (s *Store) SetPrimary(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, _, ok := s.locate(id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not found", id))
	}

	records := s.scopes[key]
	for i := range records {
		records[i].IsPrimary = records[i].ID == id
	}
	return nil
}

// locate must be called with the mutex held.
func (s *Store) locate(id int64) (string, int, bool) {
	for key, records := range s.scopes {
		for i, record := range records {
			if record.ID == id {
				return key, i, true
			}
		}
	}
	return "", 0, false
}
