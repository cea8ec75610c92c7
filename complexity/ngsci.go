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

type ngsci struct {
	readLength  float64
	denominator float64
}

func newNGSCI(readLength int) *ngsci {
	l := float64(readLength)
	return &ngsci{readLength: l, denominator: l * 3 * maxSummedDissimilarity(readLength) / (l - 1)}
}

// maxSummedDissimilarity returns sum_{r=1..L} (L^2/2 - L*r + L/2 + r^2 - r).
func maxSummedDissimilarity(readLength int) float64 {
	l := float64(readLength)
	var sum float64
	for i := 1; i <= readLength; i++ {
		r := float64(i)
		sum += l*l/2 - l*r + l/2 + r*r - r
	}
	return sum
}

func (m *ngsci) Name() string          { return VariantNGSCI.String() }
func (m *ngsci) DefaultBlockSize() int { return VariantNGSCI.DefaultBlockSize() }

func (m *ngsci) Columns() []string {
	return []string{"Depth", "Unique_Reads", "Overlap", "NGS-CI"}
}

func (m *ngsci) Values(s Score) []float64 {
	return []float64{float64(s.Depth), float64(s.Unique), s.Overlap, s.Index}
}

func (m *ngsci) Covers(r Read, pos int) bool { return coversHalfOpen(r, pos) }

// Score reports Overlap = S/L and Index = u*S/D, where S is the summed
// pairwise dissimilarity.
func (m *ngsci) Score(reads []Read) (Score, error) {
	if len(reads) == 0 {
		return Score{}, nil
	}
	depth := len(reads)
	reads = Dedup(reads)
	u := float64(len(reads))
	s := float64(pairSum(reads, Dissimilarity))
	return Score{
		Depth:   int32(depth),
		Unique:  int32(len(reads)),
		Overlap: round4(s / m.readLength),
		Index:   round4(u * s / m.denominator),
	}, nil
}
