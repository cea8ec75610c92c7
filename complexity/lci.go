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
package complexity

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

type lci struct {
	readLength float64
}

func newLCI(readLength int) *lci {
	return &lci{readLength: float64(readLength)}
}

func (m *lci) Name() string          { return VariantLCI.String() }
func (m *lci) Columns() []string     { return []string{"LCI"} }
func (m *lci) DefaultBlockSize() int { return VariantLCI.DefaultBlockSize() }

func (m *lci) Values(s Score) []float64 { return []float64{s.Index} }

func (m *lci) Covers(r Read, pos int) bool { return coversInclusive(r, pos) }

// Score computes unique * avgOverlap / readLength, where avgOverlap is the
// mean over reads of the read's mean overlap with every other read.
func (m *lci) Score(reads []Read) (Score, error) {
	if len(reads) == 0 {
		return Score{}, nil
	}
	depth := len(reads)
	reads = Dedup(reads)
	u := len(reads)
	var avgOverlap float64
	if u > 1 {
		// Each unordered pair contributes to the means of both of its reads.
		avgOverlap = 2 * float64(pairSum(reads, Overlap)) / (float64(u) * float64(u-1))
	}
	index := float64(u) * avgOverlap / m.readLength
	if index < 0 {
		return Score{}, errors.E(errors.Integrity,
			fmt.Sprintf("lci: negative index %v for reads %v", index, reads))
	}
	return Score{
		Depth:  int32(depth),
		Unique: int32(u),
		Index:  round4(index),
	}, nil
}
