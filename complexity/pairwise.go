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
	"math"
	"sort"
)

// Overlap returns the number of bases shared by two reads, measured from the
// later start to the earlier read's stop. A read contained in the other one
// is not special-cased, so the result can exceed the shorter read's length
// and is negative for disjoint reads.
func Overlap(r1, r2 Read) int {
	if r1.Start > r2.Start {
		return r2.Stop - r1.Start
	}
	return r1.Stop - r2.Start
}

// Dissimilarity returns the number of bases covered by exactly one of the
// two reads when one contains the other, and the start offset otherwise.
func Dissimilarity(r1, r2 Read) int {
	if r1.Start > r2.Start {
		if r1.Stop < r2.Stop { // r1 inside r2
			return (r1.Start - r2.Start) + (r2.Stop - r1.Stop)
		}
		return r1.Start - r2.Start
	}
	if r1.Stop > r2.Stop { // r2 inside r1
		return (r2.Start - r1.Start) + (r1.Stop - r2.Stop)
	}
	return r2.Start - r1.Start
}

// Dedup keeps one read per start position, the longest one. The result is
// sorted by start. reads is reordered in place and the result aliases it.
func Dedup(reads []Read) []Read {
	if len(reads) <= 1 {
		return reads
	}
	sort.SliceStable(reads, func(i, j int) bool {
		if reads[i].Start != reads[j].Start {
			return reads[i].Start < reads[j].Start
		}
		return reads[i].Len() > reads[j].Len()
	})
	n := 1
	for i := 1; i < len(reads); i++ {
		if reads[i].Start != reads[n-1].Start {
			reads[n] = reads[i]
			n++
		}
	}
	return reads[:n]
}

// pairSum sums fn over every unordered pair of reads.
func pairSum(reads []Read, fn func(r1, r2 Read) int) int64 {
	var sum int64
	for i := 0; i < len(reads); i++ {
		for j := i + 1; j < len(reads); j++ {
			sum += int64(fn(reads[i], reads[j]))
		}
	}
	return sum
}

// round4 rounds to four decimal places, half away from zero.
func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
