package bamprovider

import (
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// fakeProvider is only for unittests. It yields the given records.
type fakeProvider struct {
	header *sam.Header
	recs   []*sam.Record
	// recs sorted by (refid, pos). Unmapped records with no reference are
	// omitted.
	sorted []*sam.Record
}

type fakeIterator struct {
	recs []*sam.Record
	rec  *sam.Record
	err  error

	// ref==nil yields every record.
	ref          *sam.Reference
	start, limit int
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and recs by NewIterator and NewRangeIterator calls. recs
// need not be sorted.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) Provider {
	p := &fakeProvider{header: header, recs: recs}
	for _, r := range recs {
		if r.Ref != nil {
			p.sorted = append(p.sorted, r)
		}
	}
	sort.SliceStable(p.sorted, func(i, j int) bool {
		ri, rj := p.sorted[i], p.sorted[j]
		if ri.Ref.ID() != rj.Ref.ID() {
			return ri.Ref.ID() < rj.Ref.ID()
		}
		return ri.Pos < rj.Pos
	})
	return p
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *fakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// MappedCounts implements the Provider interface.
func (b *fakeProvider) MappedCounts() (map[string]uint64, error) {
	counts := make(map[string]uint64, len(b.header.Refs()))
	for _, ref := range b.header.Refs() {
		counts[ref.Name()] = 0
	}
	for _, r := range b.recs {
		if IsMapped(r) {
			counts[r.Ref.Name()]++
		}
	}
	return counts, nil
}

// Close implements the Provider interface.
func (b *fakeProvider) Close() error {
	return nil
}

// NewRangeIterator implements the Provider interface.
func (b *fakeProvider) NewRangeIterator(refName string, start, limit int, _ ...RangeOpts) Iterator {
	ref := RefByName(b.header, refName)
	if ref == nil {
		return NewErrorIterator(errors.E(errors.NotExist,
			"bamprovider.NewRangeIterator: reference not found", refName))
	}
	if start >= limit {
		return &fakeIterator{ref: ref, start: start, limit: limit}
	}
	return &fakeIterator{recs: b.sorted, ref: ref, start: start, limit: limit}
}

// NewIterator implements the Provider interface.
func (b *fakeProvider) NewIterator() Iterator {
	return &fakeIterator{recs: b.recs}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return i.err
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return i.err
}

func (i *fakeIterator) Scan() bool {
	for {
		if len(i.recs) == 0 {
			return false
		}
		i.rec = i.recs[0]
		i.recs = i.recs[1:]
		if i.ref == nil {
			return true
		}
		if i.rec.Ref.ID() != i.ref.ID() {
			continue
		}
		start, limit := Footprint(i.rec)
		if start < i.limit && limit > i.start {
			return true
		}
	}
}

func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
