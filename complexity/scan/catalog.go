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
package scan

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqci/encoding/fasta"
)

// Reference is one sequence to be scanned.
type Reference struct {
	Name   string
	Length int
}

// LoadReferences builds the list of references to scan.
//
// If fapath is empty, the references of the BAM header are used. Otherwise
// the sequence lengths come from fapath+".fai" when it exists, or from
// streaming fapath itself (compressed files are detected automatically). FASTA
// order is kept, and sequences absent from the BAM header are dropped. A
// length that disagrees with the header is an errors.Invalid error.
func LoadReferences(ctx context.Context, fapath string, header *sam.Header) ([]Reference, error) {
	if fapath == "" {
		refs := make([]Reference, 0, len(header.Refs()))
		for _, r := range header.Refs() {
			refs = append(refs, Reference{Name: r.Name(), Length: r.Len()})
		}
		return refs, nil
	}
	entries, err := loadFastaEntries(ctx, fapath)
	if err != nil {
		return nil, err
	}
	headerLens := make(map[string]int, len(header.Refs()))
	for _, r := range header.Refs() {
		headerLens[r.Name()] = r.Len()
	}
	var (
		refs            []Reference
		nMissingFromBAM int
	)
	for _, e := range entries {
		n, ok := headerLens[e.Name]
		if !ok {
			nMissingFromBAM++
			continue
		}
		if int64(n) != e.Length {
			return nil, errors.E(errors.Invalid,
				fmt.Sprintf("scan.LoadReferences: inconsistent lengths for contig %s (%d in BAM header, %d in %s)",
					e.Name, n, e.Length, fapath))
		}
		refs = append(refs, Reference{Name: e.Name, Length: n})
	}
	if nMissingFromBAM != 0 {
		log.Printf("scan.LoadReferences: %d reference(s) present in %s but missing from the BAM header", nMissingFromBAM, fapath)
	}
	if nMissingFromFa := len(header.Refs()) - len(refs); nMissingFromFa != 0 {
		log.Printf("scan.LoadReferences: %d reference(s) present in the BAM header but missing from %s", nMissingFromFa, fapath)
	}
	return refs, nil
}

func loadFastaEntries(ctx context.Context, fapath string) ([]fasta.Entry, error) {
	faipath := fapath + ".fai"
	if _, err := file.Stat(ctx, faipath); err == nil {
		log.Debug.Printf("scan.LoadReferences: reading %s", faipath)
		return readFile(ctx, faipath, false, fasta.ReadIndex)
	}
	log.Debug.Printf("scan.LoadReferences: %s not readable, scanning %s", faipath, fapath)
	return readFile(ctx, fapath, true, fasta.Scan)
}

func readFile(ctx context.Context, path string, decompress bool, parse func(io.Reader) ([]fasta.Entry, error)) (entries []fasta.Entry, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "scan.LoadReferences", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if decompress {
		rc, _ := compress.NewReader(r)
		defer func() {
			if e := rc.Close(); e != nil && err == nil {
				err = e
			}
		}()
		r = rc
	}
	if entries, err = parse(r); err != nil {
		return nil, errors.E(err, path)
	}
	return entries, nil
}

// FilterReferences keeps the references named in chroms, in the order of refs.
// A name that matches no reference is an errors.NotExist error. An empty chroms
// keeps everything.
func FilterReferences(refs []Reference, chroms []string) ([]Reference, error) {
	if len(chroms) == 0 {
		return refs, nil
	}
	want := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		want[c] = true
	}
	var out []Reference
	for _, r := range refs {
		if want[r.Name] {
			out = append(out, r)
			delete(want, r.Name)
		}
	}
	for _, c := range chroms {
		if want[c] {
			return nil, errors.E(errors.NotExist, fmt.Sprintf("scan: reference %s not found", c))
		}
	}
	return out, nil
}
