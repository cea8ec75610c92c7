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

// Score is the value reported for one (position, strand) pair. Depth and
// Unique are always set. A metric whose columns do not include Overlap leaves
// it at zero.
type Score struct {
	// Depth is the number of reads covering the position.
	Depth int32
	// Unique is the number of distinct read starts among them.
	Unique int32
	// Overlap is the metric's normalized pairwise quantity.
	Overlap float64
	// Index is the complexity index itself.
	Index float64
}

// Metric reduces the reads covering one base to a Score. Implementations are
// immutable and safe for concurrent use.
type Metric interface {
	// Name is the metric's CLI spelling: "lci", "sci" or "ngsci".
	Name() string
	// Columns is the export header that follows Chrom,Base,Strand.
	Columns() []string
	// Values returns the exported fields of s, in Columns order.
	Values(s Score) []float64
	// DefaultBlockSize is the scan block size used when none is configured.
	DefaultBlockSize() int
	// Covers reports whether r counts as covering pos.
	Covers(r Read, pos int) bool
	// Score computes the score of one group of covering reads. The group
	// may be reordered. An empty group yields a zero Score.
	Score(reads []Read) (Score, error)
}

// Variant enumerates the metric implementations.
type Variant int

const (
	// VariantLCI is the library complexity index.
	VariantLCI Variant = iota
	// VariantSCI is the sequencing complexity index.
	VariantSCI
	// VariantNGSCI is the next-generation sequencing complexity index.
	VariantNGSCI
)

var variantNames = [...]string{"lci", "sci", "ngsci"}

// String returns the variant's CLI spelling.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// DefaultBlockSize returns the block size the variant is scanned with by
// default.
func (v Variant) DefaultBlockSize() int {
	if v == VariantLCI {
		return 1000
	}
	return 1600
}

// ParseVariant parses "lci", "sci" or "ngsci".
func ParseVariant(name string) (Variant, error) {
	for i, n := range variantNames {
		if n == name {
			return Variant(i), nil
		}
	}
	return 0, errors.E(errors.Invalid,
		fmt.Sprintf("unknown metric '%s'; it must be one of %v", name, variantNames))
}

// NewMetric creates the named metric, normalized for reads of the given
// length. readLength must be at least 2.
func NewMetric(name string, readLength int) (Metric, error) {
	v, err := ParseVariant(name)
	if err != nil {
		return nil, err
	}
	return NewVariantMetric(v, readLength)
}

// NewVariantMetric is NewMetric for a parsed variant.
func NewVariantMetric(v Variant, readLength int) (Metric, error) {
	if readLength < 2 {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("read length %d is too short to normalize the %v metric", readLength, v))
	}
	switch v {
	case VariantLCI:
		return newLCI(readLength), nil
	case VariantSCI:
		return newSCI(readLength), nil
	case VariantNGSCI:
		return newNGSCI(readLength), nil
	}
	return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown metric variant %d", int(v)))
}

// coversInclusive treats a read as covering [Start, Stop].
func coversInclusive(r Read, pos int) bool {
	return r.Start <= pos && pos <= r.Stop
}

// coversHalfOpen treats a read as covering [Start, Stop).
func coversHalfOpen(r Read, pos int) bool {
	return r.Start <= pos && pos <= r.Stop-1
}
