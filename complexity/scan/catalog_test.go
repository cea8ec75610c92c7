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
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/seqci/complexity/scan"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogFasta = ">chr2 second\nACGTACGTAC\nGT\n>chrUn\nAAAA\n>chr1\nACGTACGTAC\nACGTACGTAC\nACG\n"

func writeFile(t *testing.T, path, data string) {
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))
}

func TestLoadReferencesFromHeader(t *testing.T) {
	header := newHeader(t, map[string]int{"chr1": 23, "chr2": 12}, "chr1", "chr2")
	refs, err := scan.LoadReferences(context.Background(), "", header)
	require.NoError(t, err)
	assert.Equal(t, []scan.Reference{{"chr1", 23}, {"chr2", 12}}, refs)
}

func TestLoadReferencesFromFasta(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()
	header := newHeader(t, map[string]int{"chr1": 23, "chr2": 12, "chr3": 5}, "chr1", "chr2", "chr3")
	// FASTA order is kept. chrUn is not in the header and chr3 is not in the
	// FASTA file.
	want := []scan.Reference{{"chr2", 12}, {"chr1", 23}}

	path := filepath.Join(tmpdir, "ref.fa")
	writeFile(t, path, catalogFasta)
	refs, err := scan.LoadReferences(ctx, path, header)
	require.NoError(t, err)
	assert.Equal(t, want, refs)

	gzPath := filepath.Join(tmpdir, "ref.fa.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(catalogFasta))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	refs, err = scan.LoadReferences(ctx, gzPath, header)
	require.NoError(t, err)
	assert.Equal(t, want, refs)
}

func TestLoadReferencesFromIndex(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()
	header := newHeader(t, map[string]int{"chr1": 100, "chr2": 50}, "chr1", "chr2")

	// The index wins over the FASTA contents.
	path := filepath.Join(tmpdir, "ref.fa")
	writeFile(t, path, catalogFasta)
	writeFile(t, path+".fai", "chr1\t100\t6\t60\t61\nchr2\t50\t200\t60\t61\n")
	refs, err := scan.LoadReferences(ctx, path, header)
	require.NoError(t, err)
	assert.Equal(t, []scan.Reference{{"chr1", 100}, {"chr2", 50}}, refs)

	// The FASTA file itself need not exist.
	require.NoError(t, os.Remove(path))
	refs, err = scan.LoadReferences(ctx, path, header)
	require.NoError(t, err)
	assert.Equal(t, []scan.Reference{{"chr1", 100}, {"chr2", 50}}, refs)
}

func TestLoadReferencesErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	header := newHeader(t, map[string]int{"chr1": 24, "chr2": 12}, "chr1", "chr2")
	path := filepath.Join(tmpdir, "ref.fa")
	writeFile(t, path, catalogFasta)
	_, err := scan.LoadReferences(ctx, path, header)
	require.Error(t, err)
	assert.True(t, errors.Is(errors.Invalid, err), "err=%v", err)
	assert.Contains(t, err.Error(), "chr1")

	missing := filepath.Join(tmpdir, "missing.fa")
	_, err = scan.LoadReferences(ctx, missing, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)

	bad := filepath.Join(tmpdir, "bad.fa")
	writeFile(t, bad, ">chr1\nACGT\n>chr1\nACGT\n")
	_, err = scan.LoadReferences(ctx, bad, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sequence chr1")
}

func TestFilterReferences(t *testing.T) {
	refs := []scan.Reference{{"chr1", 10}, {"chr2", 20}, {"chr3", 30}}
	got, err := scan.FilterReferences(refs, nil)
	require.NoError(t, err)
	assert.Equal(t, refs, got)

	got, err = scan.FilterReferences(refs, []string{"chr3", "chr1"})
	require.NoError(t, err)
	assert.Equal(t, []scan.Reference{{"chr1", 10}, {"chr3", 30}}, got)

	_, err = scan.FilterReferences(refs, []string{"chr1", "chrM"})
	require.Error(t, err)
	assert.True(t, errors.Is(errors.NotExist, err), "err=%v", err)
	assert.Contains(t, err.Error(), "chrM")
}
