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
	"encoding/binary"
	"math"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/seqci/complexity"
)

// ScoreRecord is the score of one position.
type ScoreRecord struct {
	Pos complexity.PosType
	complexity.Score
}

// Results holds the output of a run: for every reference and strand key, one
// ScoreRecord per position of the reference, in position order. It is
// read-only once returned by Calculator.Results.
type Results struct {
	chroms  []string
	strands []complexity.StrandType
	// seqs[chrom][i] is the sequence of strands[i].
	seqs map[string][][]ScoreRecord
}

func newResults(chroms []string, strands []complexity.StrandType) *Results {
	return &Results{
		chroms:  chroms,
		strands: strands,
		seqs:    make(map[string][][]ScoreRecord, len(chroms)),
	}
}

// Chroms returns the reference names, in catalog order.
func (r *Results) Chroms() []string { return r.chroms }

// Strands returns the strand keys present for every reference.
func (r *Results) Strands() []complexity.StrandType { return r.strands }

// Get returns the score sequence of one (reference, strand) key, or nil if
// the key is absent.
func (r *Results) Get(chrom string, strand complexity.StrandType) []ScoreRecord {
	seqs, ok := r.seqs[chrom]
	if !ok {
		return nil
	}
	for i, s := range r.strands {
		if s == strand {
			return seqs[i]
		}
	}
	return nil
}

// Len returns the total number of records across all keys.
func (r *Results) Len() int {
	n := 0
	for _, seqs := range r.seqs {
		for _, seq := range seqs {
			n += len(seq)
		}
	}
	return n
}

// Fingerprint returns a hash of every record, visited in export order. Two
// runs over the same input produce the same fingerprint regardless of the
// parallelism they ran with.
func (r *Results) Fingerprint() uint64 {
	h := seahash.New()
	var buf [8 * 5]byte
	for _, chrom := range r.chroms {
		h.Write([]byte(chrom)) // nolint: errcheck
		for i, strand := range r.strands {
			h.Write([]byte{byte(strand)}) // nolint: errcheck
			for _, rec := range r.seqs[chrom][i] {
				binary.LittleEndian.PutUint64(buf[0:], uint64(rec.Pos))
				binary.LittleEndian.PutUint64(buf[8:], uint64(rec.Depth))
				binary.LittleEndian.PutUint64(buf[16:], uint64(rec.Unique))
				binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(rec.Overlap))
				binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(rec.Index))
				h.Write(buf[:]) // nolint: errcheck
			}
		}
	}
	return h.Sum64()
}
