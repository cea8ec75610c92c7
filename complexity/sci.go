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

type sci struct {
	readLength  float64
	denominator float64
}

func newSCI(readLength int) *sci {
	l := float64(readLength)
	return &sci{readLength: l, denominator: l * l * (l - 1) * (l - 1)}
}

func (m *sci) Name() string          { return VariantSCI.String() }
func (m *sci) DefaultBlockSize() int { return VariantSCI.DefaultBlockSize() }

func (m *sci) Columns() []string {
	return []string{"Depth", "Unique_Reads", "Overlap", "SCI"}
}

func (m *sci) Values(s Score) []float64 {
	return []float64{float64(s.Depth), float64(s.Unique), s.Overlap, s.Index}
}

func (m *sci) Covers(r Read, pos int) bool { return coversHalfOpen(r, pos) }

// Score normalizes the summed pairwise overlap S by D = L^2 (L-1)^2:
// Overlap = L*S/D and Index = 300*u*S/(2D).
func (m *sci) Score(reads []Read) (Score, error) {
	if len(reads) == 0 {
		return Score{}, nil
	}
	depth := len(reads)
	reads = Dedup(reads)
	u := float64(len(reads))
	s := float64(pairSum(reads, Overlap))
	return Score{
		Depth:   int32(depth),
		Unique:  int32(len(reads)),
		Overlap: round4(m.readLength * s / m.denominator),
		Index:   round4(300 * u * s / (2 * m.denominator)),
	}, nil
}
