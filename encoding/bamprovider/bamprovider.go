package bamprovider

import (
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for an indexed BAM file. Path and Index may
// name any location understood by grailbio/base/file, S3 included.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of the *.bam.bai file. If "", Path + ".bai".
	Index string

	// err latches the first error seen by the provider or its iterators.
	err errors.Once

	headerOnce sync.Once
	header     *sam.Header
	headerErr  error

	pool iteratorPool
}

// iteratorPool recycles the open file handles, readers and decoded indexes
// of closed iterators.
type iteratorPool struct {
	mu     sync.Mutex
	idle   []*bamIterator
	active int
}

// take returns an idle iterator, or nil if there is none. Either way the
// caller owns one more active slot.
func (p *iteratorPool) take() *bamIterator {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active++
	n := len(p.idle)
	if n == 0 {
		return nil
	}
	iter := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return iter
}

// give releases an active slot. A non-nil iter is kept for reuse.
func (p *iteratorPool) give(iter *bamIterator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if iter != nil {
		p.idle = append(p.idle, iter)
	}
	if p.active--; p.active < 0 {
		vlog.Fatalf("bamprovider: negative active iterator count %d", p.active)
	}
}

// drain removes every idle iterator. It reports the number of iterators that
// are still in use.
func (p *iteratorPool) drain() (idle []*bamIterator, active int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idle, p.idle = p.idle, nil
	return idle, p.active
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	index    *bam.Index
	// Offset of the first record, just past the header.
	firstRecord bgzf.Offset

	// ref==nil means the whole file.
	ref          *sam.Reference
	start, limit int

	inUse bool
	err   error
	rec   *sam.Record
}

func (b *BAMProvider) indexPath() string {
	if b.Index != "" {
		return b.Index
	}
	return b.Path + ".bai"
}

// GetHeader implements the Provider interface. The header is read once.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.headerOnce.Do(func() {
		b.header, b.headerErr = b.readHeader()
		b.err.Set(b.headerErr)
	})
	return b.header, b.headerErr
}

func (b *BAMProvider) readHeader() (*sam.Header, error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, b.Path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return nil, errors.E(err, "bamprovider: read header", b.Path)
	}
	defer r.Close() // nolint: errcheck
	return r.Header(), nil
}

// MappedCounts implements the Provider interface. The counts come from the
// index metadata; no record is read.
func (b *BAMProvider) MappedCounts() (map[string]uint64, error) {
	header, err := b.GetHeader()
	if err != nil {
		return nil, err
	}
	iter := b.acquire()
	defer b.release(iter)
	if iter.err != nil {
		return nil, iter.err
	}
	counts := make(map[string]uint64, len(header.Refs()))
	for _, ref := range header.Refs() {
		mapped, _ := refStats(iter.index, ref)
		counts[ref.Name()] = mapped
	}
	return counts, nil
}

// refStats returns the mapped and total record counts the index holds for
// ref. An index built on the fly has no entry past the last reference with a
// record; such a reference counts as empty.
func refStats(idx *bam.Index, ref *sam.Reference) (mapped, total uint64) {
	if ref.ID() < 0 || ref.ID() >= idx.NumRefs() {
		return 0, 0
	}
	stats, ok := idx.ReferenceStats(ref.ID())
	if !ok {
		return 0, 0
	}
	return stats.Mapped, stats.Mapped + stats.Unmapped
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	idle, active := b.pool.drain()
	if active > 0 {
		vlog.Fatalf("bamprovider: %d iterators still active for %s", active, b.Path)
	}
	for _, iter := range idle {
		iter.closeFiles()
	}
	return b.err.Err()
}

// acquire returns an iterator that is ready to be positioned. On failure the
// returned iterator carries the error in its err field.
func (b *BAMProvider) acquire() *bamIterator {
	iter := b.pool.take()
	if iter == nil {
		iter = b.open()
	}
	iter.inUse = true
	iter.err = iter.openErr()
	iter.rec = nil
	return iter
}

// openErr is the error of a freshly opened iterator; a recycled one has none.
func (i *bamIterator) openErr() error {
	if i.reader == nil {
		return i.err
	}
	return nil
}

// release returns iter to the pool. A failed iterator is closed instead of
// being recycled, since its reader may be in an arbitrary state.
func (b *BAMProvider) release(iter *bamIterator) {
	if !iter.inUse {
		vlog.Fatalf("bamprovider: iterator for %s released twice", b.Path)
	}
	iter.inUse = false
	if iter.Err() != nil || iter.reader == nil {
		iter.closeFiles()
		iter = nil
	}
	b.pool.give(iter)
}

func (b *BAMProvider) open() *bamIterator {
	ctx := vcontext.Background()
	iter := &bamIterator{provider: b}
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	if iter.index, iter.err = readIndex(b.indexPath()); iter.err != nil {
		return iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		iter.err = errors.E(iter.err, "bamprovider: open", b.Path)
		return iter
	}
	iter.firstRecord = iter.reader.LastChunk().End
	return iter
}

func readIndex(path string) (idx *bam.Index, err error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	if idx, err = bam.ReadIndex(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "bamprovider: read index", path)
	}
	return idx, nil
}

// NewRangeIterator implements the Provider interface.
func (b *BAMProvider) NewRangeIterator(refName string, start, limit int, optList ...RangeOpts) Iterator {
	header, err := b.GetHeader()
	if err != nil {
		return NewErrorIterator(err)
	}
	ref := RefByName(header, refName)
	if ref == nil {
		return NewErrorIterator(errors.E(errors.NotExist,
			"bamprovider.NewRangeIterator: reference not found", refName, b.Path))
	}
	iter := b.acquire()
	if iter.err == nil {
		iter.seekRange(ref, start, limit, mergeRangeOpts(optList).Slack)
	}
	return iter
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	iter := b.acquire()
	if iter.err == nil {
		iter.ref = nil
		iter.err = iter.reader.Seek(iter.firstRecord)
	}
	return iter
}

// seekRange positions the iterator at the first index chunk that may hold a
// record overlapping [start, limit) on ref. The index lookup starts slack
// bases before start. A range that cannot hold any record leaves the iterator
// at io.EOF.
func (i *bamIterator) seekRange(ref *sam.Reference, start, limit, slack int) {
	if start < 0 {
		start = 0
	}
	i.ref, i.start, i.limit = ref, start, limit
	if start >= limit {
		i.err = io.EOF
		return
	}
	if _, total := refStats(i.index, ref); total == 0 {
		i.err = io.EOF
		return
	}
	lookup := start - slack
	if lookup < 0 {
		lookup = 0
	}
	chunks, err := i.index.Chunks(ref, lookup, limit)
	switch {
	case err == index.ErrInvalid, err == nil && len(chunks) == 0:
		i.err = io.EOF
	case err != nil:
		i.err = err
	default:
		i.err = i.reader.Seek(chunks[0].Begin)
	}
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	err := i.Err()
	i.provider.release(i)
	return err
}

// Scan implements the Iterator interface. In range mode it stops at the first
// record past the range, which relies on the file being coordinate sorted.
func (i *bamIterator) Scan() bool {
	if !i.inUse {
		vlog.Fatalf("bamprovider: scan of a closed iterator for %s", i.provider.Path)
	}
	for i.err == nil {
		if i.rec, i.err = i.reader.Read(); i.err != nil {
			break
		}
		if i.ref == nil {
			return true
		}
		switch i.position(i.rec) {
		case before:
			continue
		case inside:
			return true
		case after:
			i.err = io.EOF
		}
	}
	return false
}

type relation int

const (
	before relation = iota
	inside
	after
)

// position locates rec relative to the iterator range.
func (i *bamIterator) position(rec *sam.Record) relation {
	if rec.Ref == nil || rec.Ref.ID() > i.ref.ID() {
		return after
	}
	if rec.Ref.ID() < i.ref.ID() {
		return before
	}
	start, limit := Footprint(rec)
	switch {
	case start >= i.limit:
		return after
	case limit <= i.start:
		return before
	}
	return inside
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.rec
}

// closeFiles releases the reader and the file handle, and reports any error
// to the provider.
func (i *bamIterator) closeFiles() {
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.Err() == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.Err() == nil {
			i.err = err
		}
		i.in = nil
	}
	i.provider.err.Set(i.Err())
}
