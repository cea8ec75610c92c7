package bamprovider

import (
	"github.com/grailbio/hts/sam"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. If Index=="", it
	// defaults to path + ".bai".
	Index string
}

// Provider allows reading an indexed BAM file in parallel. Thread safe.
type Provider interface {
	// GetHeader returns the header for the provided BAM data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// MappedCounts returns the number of mapped reads per reference, keyed
	// by reference name, as recorded in the index. This is the equivalent
	// of "samtools idxstats". The unplaced bucket is not included.
	//
	// REQUIRES: Close has not been called.
	MappedCounts() (map[string]uint64, error)

	// NewRangeIterator returns an iterator over the records on reference
	// "ref" whose footprint [Pos, Pos+Seq.Length) intersects the half-open
	// range [start, limit). Records are yielded in coordinate order. An
	// empty range yields nothing.
	//
	// The index locates records by their aligned span, which ends before
	// the footprint when a read is soft clipped. A record whose footprint
	// reaches more than RangeOpts.Slack bases past its aligned span may be
	// missed.
	//
	// REQUIRES: Close has not been called.
	NewRangeIterator(ref string, start, limit int, opts ...RangeOpts) Iterator

	// NewIterator returns an iterator over every record in the file, in
	// file order.
	//
	// REQUIRES: Close has not been called.
	NewIterator() Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by the provider have been closed.
	Close() error
}

// Iterator iterates over sam.Records. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// RangeOpts defines options for NewRangeIterator.
type RangeOpts struct {
	// Slack widens the index lookup to the left of the range. The longest
	// SEQ length of the file is always enough. 0 trusts the aligned span.
	Slack int
}

func mergeRangeOpts(optList []RangeOpts) RangeOpts {
	opts := RangeOpts{}
	for _, o := range optList {
		if o.Slack > opts.Slack {
			opts.Slack = o.Slack
		}
	}
	return opts
}

func mergeOpts(optList []ProviderOpts) ProviderOpts {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
	}
	return opts
}

// NewProvider creates a Provider for the BAM file at "path".
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := mergeOpts(optList)
	return &BAMProvider{Path: path, Index: opts.Index}
}
