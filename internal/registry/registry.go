package registry

import (
	"fmt"
	"sort"

	"github.com/relistr/mediakit/pkg/asset"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/scope"
)

// Registry is the in-memory ordered collection of asset records for one
// scope. It maintains three invariants after every successful mutation:
// sortOrder values are exactly 0..N-1, at most one record is primary, and
// ids are unique. The registry is not concurrency-safe; the owning
// session serializes access through its scope lock.
type Registry struct {
	scope    scope.Scope
	maxFiles int
	records  []asset.Record
}

func New(sc scope.Scope, maxFiles int) (*Registry, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if maxFiles < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max files must be at least 1")
	}
	return &Registry{scope: sc, maxFiles: maxFiles}, nil
}

func (r *Registry) Scope() scope.Scope {
	return r.scope
}

func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns the collection sorted by sortOrder. The slice is a copy;
// all mutation goes through the registry's methods.
func (r *Registry) Records() []asset.Record {
	out := make([]asset.Record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Registry) Get(id int64) (asset.Record, bool) {
	for _, record := range r.records {
		if record.ID == id {
			return record, true
		}
	}
	return asset.Record{}, false
}

// Order returns the current ids in display order, the shape reorder and
// rollback work with.
func (r *Registry) Order() []int64 {
	ids := make([]int64, len(r.records))
	for i, record := range r.records {
		ids[i] = record.ID
	}
	return ids
}

// Primary returns the current primary record, if any.
func (r *Registry) Primary() (asset.Record, bool) {
	for _, record := range r.records {
		if record.IsPrimary {
			return record, true
		}
	}
	return asset.Record{}, false
}

// Hydrate replaces the whole collection with records fetched from the
// backend. Input is sorted by sortOrder and renumbered so the contiguity
// invariant holds even when the server has gaps; if the server reports
// more than one primary, the first in display order wins.
func (r *Registry) Hydrate(records []asset.Record) error {
	if err := checkUniqueIDs(records); err != nil {
		return err
	}

	next := make([]asset.Record, len(records))
	copy(next, records)
	sort.SliceStable(next, func(i, j int) bool { return next[i].SortOrder < next[j].SortOrder })

	seenPrimary := false
	for i := range next {
		next[i].SortOrder = i
		if next[i].IsPrimary {
			if seenPrimary {
				next[i].IsPrimary = false
			}
			seenPrimary = true
		}
	}

	r.records = next
	return nil
}

// Append adds newly uploaded records to the end of the collection. The
// server assigns ids and creation order; sortOrder is normalized to the
// next contiguous indices. An incoming primary flag is honored only when
// the scope has no primary yet.
func (r *Registry) Append(records []asset.Record) error {
	if len(records) == 0 {
		return nil
	}
	if len(r.records)+len(records) > r.maxFiles {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("maximum %d files allowed", r.maxFiles))
	}
	if err := checkUniqueIDs(append(r.Records(), records...)); err != nil {
		return err
	}

	_, hasPrimary := r.Primary()
	base := len(r.records)
	for i, record := range records {
		record.SortOrder = base + i
		if record.IsPrimary {
			if hasPrimary {
				record.IsPrimary = false
			} else {
				hasPrimary = true
			}
		}
		r.records = append(r.records, record)
	}
	return nil
}

// Remove deletes the record with the given id and renumbers the rest.
// When the removed record was primary, the remaining record with the
// lowest sortOrder is promoted so a non-empty scope always has a primary.
func (r *Registry) Remove(id int64) (asset.Record, error) {
	idx := -1
	for i, record := range r.records {
		if record.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return asset.Record{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not found in scope", id))
	}

	removed := r.records[idx]
	r.records = append(r.records[:idx], r.records[idx+1:]...)
	for i := range r.records {
		r.records[i].SortOrder = i
	}
	if removed.IsPrimary && len(r.records) > 0 {
		r.records[0].IsPrimary = true
	}
	return removed, nil
}

// SetPrimary flips the primary flag to the given id in one transition;
// no intermediate state with zero or two primaries is ever observable.
func (r *Registry) SetPrimary(id int64) error {
	if _, ok := r.Get(id); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not found in scope", id))
	}
	for i := range r.records {
		r.records[i].IsPrimary = r.records[i].ID == id
	}
	return nil
}

// Reorder reassigns sortOrder to match the position of each id in the
// supplied sequence. The sequence must be an exact permutation of the
// current ids; missing or unknown ids reject the whole call.
func (r *Registry) Reorder(ids []int64) error {
	if len(ids) != len(r.records) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("reorder requires all %d ids, got %d", len(r.records), len(ids)))
	}

	position := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, dup := position[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate id %d in reorder", id))
		}
		position[id] = i
	}
	for _, record := range r.records {
		if _, ok := position[record.ID]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("id %d missing from reorder", record.ID))
		}
	}

	for i := range r.records {
		r.records[i].SortOrder = position[r.records[i].ID]
	}
	sort.SliceStable(r.records, func(i, j int) bool { return r.records[i].SortOrder < r.records[j].SortOrder })
	return nil
}

func checkUniqueIDs(records []asset.Record) error {
	seen := make(map[int64]struct{}, len(records))
	for _, record := range records {
		if _, dup := seen[record.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate image id %d", record.ID))
		}
		seen[record.ID] = struct{}{}
	}
	return nil
}
