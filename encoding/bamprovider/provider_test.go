package bamprovider_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqci/encoding/bamprovider"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(name string, ref *sam.Reference, pos, length int, flags sam.Flags) *sam.Record {
	seq := bytes.Repeat([]byte{'A'}, length)
	r := &sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		MapQ:  60,
		Flags: flags,
		Seq:   sam.NewSeq(seq),
		Qual:  bytes.Repeat([]byte{30}, length),
	}
	if ref != nil {
		r.Cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, length)}
	} else {
		r.Pos = -1
		r.MatePos = -1
	}
	return r
}

type testData struct {
	header *sam.Header
	recs   []*sam.Record
}

func newTestData(t *testing.T) testData {
	chr1, err := sam.NewReference("chr1", "", "", 100000, nil, nil)
	require.NoError(t, err)
	chr2, err := sam.NewReference("chr2", "", "", 50000, nil, nil)
	require.NoError(t, err)
	chr3, err := sam.NewReference("chr3", "", "", 1000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2, chr3})
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	return testData{
		header: header,
		recs: []*sam.Record{
			newRecord("r0", chr1, 10, 76, sam.Paired|sam.Read1),
			newRecord("r1", chr1, 80, 76, sam.Paired|sam.Read2|sam.Reverse),
			newRecord("r2", chr1, 200, 50, 0),
			newRecord("r3", chr1, 40000, 100, sam.Reverse),
			newRecord("r4", chr2, 5, 76, 0),
			newRecord("r5", nil, 0, 76, sam.Unmapped),
		},
	}
}

// writeBAM writes the records to a BAM file and builds its index.
func writeBAM(t *testing.T, dir string, d testData) string {
	ctx := vcontext.Background()
	path := filepath.Join(dir, "test.bam")
	out, err := file.Create(ctx, path)
	require.NoError(t, err)
	w, err := bam.NewWriter(out.Writer(ctx), d.header, 1)
	require.NoError(t, err)
	for _, r := range d.recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
	require.NoError(t, out.Close(ctx))

	in, err := file.Open(ctx, path)
	require.NoError(t, err)
	r, err := bam.NewReader(in.Reader(ctx), 1)
	require.NoError(t, err)
	var idx bam.Index
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		require.NoError(t, idx.Add(rec, r.LastChunk()))
	}
	require.NoError(t, r.Close())
	require.NoError(t, in.Close(ctx))

	idxOut, err := file.Create(ctx, path+".bai")
	require.NoError(t, err)
	require.NoError(t, bam.WriteIndex(idxOut.Writer(ctx), &idx))
	require.NoError(t, idxOut.Close(ctx))
	return path
}

func names(t *testing.T, iter bamprovider.Iterator) []string {
	n := []string{}
	for iter.Scan() {
		n = append(n, iter.Record().Name)
	}
	require.NoError(t, iter.Err())
	require.NoError(t, iter.Close())
	return n
}

func testProvider(t *testing.T, p bamprovider.Provider) {
	header, err := p.GetHeader()
	require.NoError(t, err)
	require.Equal(t, 3, len(header.Refs()))

	counts, err := p.MappedCounts()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), counts["chr1"])
	assert.Equal(t, uint64(1), counts["chr2"])
	assert.Equal(t, uint64(0), counts["chr3"])

	tests := []struct {
		ref          string
		start, limit int
		want         []string
	}{
		{"chr1", 0, 1000, []string{"r0", "r1", "r2"}},
		// r0 covers [10,86), so it overlaps a range that starts after its
		// alignment position.
		{"chr1", 85, 90, []string{"r0", "r1"}},
		{"chr1", 86, 90, []string{"r1"}},
		{"chr1", 250, 40000, []string{}},
		{"chr1", 250, 40001, []string{"r3"}},
		{"chr2", 0, 50000, []string{"r4"}},
		{"chr3", 0, 1000, []string{}},
		{"chr1", 100, 100, []string{}},
	}
	// Repeat to exercise iterator reuse.
	for i := 0; i < 3; i++ {
		for _, test := range tests {
			got := names(t, p.NewRangeIterator(test.ref, test.start, test.limit))
			assert.Equal(t, test.want, got, "ref=%s [%d,%d)", test.ref, test.start, test.limit)
		}
		assert.Equal(t, []string{"r0", "r1", "r2", "r3", "r4", "r5"}, names(t, p.NewIterator()))
	}

	iter := p.NewRangeIterator("chrX", 0, 10)
	assert.False(t, iter.Scan())
	err = iter.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(errors.NotExist, err), "err=%v", err)
}

func TestBAMProvider(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	d := newTestData(t)
	p := bamprovider.NewProvider(writeBAM(t, tmpdir, d))
	testProvider(t, p)
	require.NoError(t, p.Close())
}

func TestBAMProviderExplicitIndex(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	d := newTestData(t)
	path := writeBAM(t, tmpdir, d)
	p := bamprovider.NewProvider(path, bamprovider.ProviderOpts{Index: path + ".bai"})
	counts, err := p.MappedCounts()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), counts["chr1"])
	require.NoError(t, p.Close())
}

func TestBAMProviderMissingFile(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	p := bamprovider.NewProvider(filepath.Join(tmpdir, "nonexistent.bam"))
	_, err := p.GetHeader()
	require.Error(t, err)
	assert.Error(t, p.Close())
}

func TestFakeProvider(t *testing.T) {
	d := newTestData(t)
	testProvider(t, bamprovider.NewFakeProvider(d.header, d.recs))
}

func TestFakeProviderUnsorted(t *testing.T) {
	d := newTestData(t)
	recs := make([]*sam.Record, len(d.recs))
	for i := range d.recs {
		recs[len(recs)-1-i] = d.recs[i]
	}
	p := bamprovider.NewFakeProvider(d.header, recs)
	assert.Equal(t, []string{"r0", "r1", "r2"}, names(t, p.NewRangeIterator("chr1", 0, 1000)))
	got := names(t, p.NewIterator())
	assert.Equal(t, []string{"r5", "r4", "r3", "r2", "r1", "r0"}, got)
}

func TestBAMProviderSoftClip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	d := newTestData(t)
	chr1 := d.header.Refs()[0]
	// Aligned to [1000,1020), but the SEQ footprint is [1000,1100).
	clipped := newRecord("clipped", chr1, 1000, 100, 0)
	clipped.Cigar = []sam.CigarOp{
		sam.NewCigarOp(sam.CigarMatch, 20),
		sam.NewCigarOp(sam.CigarSoftClipped, 80),
	}
	d.recs = []*sam.Record{d.recs[0], d.recs[1], d.recs[2], clipped, d.recs[3], d.recs[4], d.recs[5]}
	p := bamprovider.NewProvider(writeBAM(t, tmpdir, d))
	slack := bamprovider.RangeOpts{Slack: 100}
	assert.Equal(t, []string{"clipped"}, names(t, p.NewRangeIterator("chr1", 1050, 1060, slack)))
	assert.Equal(t, []string{}, names(t, p.NewRangeIterator("chr1", 1100, 1200, slack)))
	assert.Equal(t, []string{"r2", "clipped"}, names(t, p.NewRangeIterator("chr1", 240, 1001)))
	require.NoError(t, p.Close())

	fake := bamprovider.NewFakeProvider(d.header, d.recs)
	assert.Equal(t, []string{"clipped"}, names(t, fake.NewRangeIterator("chr1", 1050, 1060)))
	assert.Equal(t, []string{}, names(t, fake.NewRangeIterator("chr1", 1050, 1050)))
}
