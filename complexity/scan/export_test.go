// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package scan_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqci/complexity"
	"github.com/grailbio/seqci/complexity/scan"
	"github.com/grailbio/seqci/encoding/bamprovider"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, f := range []scan.Format{scan.FormatCSV, scan.FormatTSV, scan.FormatTSVBgz, scan.FormatCSVGz} {
		got, err := scan.ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := scan.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, scan.FormatCSV, got)
	_, err = scan.ParseFormat("parquet")
	assert.True(t, errors.Is(errors.Invalid, err), "err=%v", err)
}

func scanForExport(t *testing.T, metric string) (*scan.Calculator, *scan.Results) {
	header := newHeader(t, map[string]int{"chr1": 900, "chr2": 450}, "chr1", "chr2")
	r := rand.New(rand.NewSource(4))
	recs := append(randomRecords(r, header.Refs()[0], 8, 40, 60),
		randomRecords(r, header.Refs()[1], 8, 40, 60)...)
	c, err := scan.New(bamprovider.NewFakeProvider(header, recs), refsOf(header), scan.Opts{
		Metric: metric, Strand: "FR", BlockSize: 200, ReadLength: 60, Log: testLogger{t}})
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))
	return c, c.Results()
}

func TestExportRoundTrip(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	for _, metric := range []string{"lci", "sci", "ngsci"} {
		c, results := scanForExport(t, metric)
		m := c.Metric()
		// Rows are grouped by reference, then strand, in ascending positions.
		var want []scan.ExportRow
		for _, chrom := range results.Chroms() {
			for _, s := range results.Strands() {
				for _, rec := range results.Get(chrom, s) {
					want = append(want, scan.ExportRow{Chrom: chrom, Pos: int(rec.Pos), Strand: s, Values: m.Values(rec.Score)})
				}
			}
		}
		require.Equal(t, 2*(900+450), len(want))
		for _, format := range []scan.Format{scan.FormatCSV, scan.FormatTSV, scan.FormatTSVBgz, scan.FormatCSVGz} {
			path := filepath.Join(tmpdir, metric+"."+format.String())
			require.NoError(t, scan.Export(ctx, path, format, m, results))
			got, err := scan.ReadExport(ctx, path, format, m)
			require.NoError(t, err, "%s %v", metric, format)
			assert.Equal(t, want, got, "%s %v", metric, format)
		}
	}
}

func readText(t *testing.T, path string, gzipped bool) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	if gzipped {
		r, err := gzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		data, err = ioutil.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
	}
	return string(data)
}

func TestExportText(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	header := newHeader(t, map[string]int{"chr1": 4}, "chr1")
	recs := []*sam.Record{
		newRecord(header.Refs()[0], 0, 76, 0),
		newRecord(header.Refs()[0], 1, 76, 0),
	}
	c, err := scan.New(bamprovider.NewFakeProvider(header, recs), refsOf(header),
		scan.Opts{Metric: "lci", ReadLength: 76, Log: testLogger{t}})
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	m, err := complexity.NewMetric("lci", 76)
	require.NoError(t, err)
	score, err := m.Score([]complexity.Read{{Start: 0, Stop: 76}, {Start: 1, Stop: 77}})
	require.NoError(t, err)
	pair := strconv.FormatFloat(score.Index, 'f', -1, 64)

	path := filepath.Join(tmpdir, "lci.csv")
	require.NoError(t, scan.Export(ctx, path, scan.FormatCSV, c.Metric(), c.Results()))
	assert.Equal(t, "Chrom,Base,Strand,LCI\n"+
		"chr1,0,.,0\n"+
		"chr1,1,.,"+pair+"\n"+
		"chr1,2,.,"+pair+"\n"+
		"chr1,3,.,"+pair+"\n", readText(t, path, false))

	path = filepath.Join(tmpdir, "lci.tsv.gz")
	require.NoError(t, scan.Export(ctx, path, scan.FormatTSVBgz, c.Metric(), c.Results()))
	assert.True(t, strings.HasPrefix(readText(t, path, true), "Chrom\tBase\tStrand\tLCI\nchr1\t0\t.\t0\n"))
}

func TestExportErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	lci, err := complexity.NewMetric("lci", 76)
	require.NoError(t, err)
	err = scan.Export(ctx, filepath.Join(tmpdir, "none.csv"), scan.FormatCSV, lci, nil)
	assert.True(t, errors.Is(errors.Precondition, err), "err=%v", err)

	c, results := scanForExport(t, "sci")
	path := filepath.Join(tmpdir, "sci.tsv")
	require.NoError(t, scan.Export(ctx, path, scan.FormatTSV, c.Metric(), results))
	_, err = scan.ReadExport(ctx, path, scan.FormatTSV, lci)
	assert.True(t, errors.Is(errors.Invalid, err), "err=%v", err)

	// A tab-separated file read as CSV has a single header column.
	_, err = scan.ReadExport(ctx, path, scan.FormatCSV, c.Metric())
	assert.True(t, errors.Is(errors.Invalid, err), "err=%v", err)

	_, err = scan.ReadExport(ctx, filepath.Join(tmpdir, "missing.csv"), scan.FormatCSV, lci)
	assert.Error(t, err)
}
