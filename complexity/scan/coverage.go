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
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/seqci/complexity"
)

// activeRead is a read in the coverage sweep, ordered by stop position. seq
// breaks ties; llrb.Tree replaces equal keys on insert.
type activeRead struct {
	read complexity.Read
	seq  int
}

func (a *activeRead) Compare(c llrb.Comparable) int {
	b := c.(*activeRead)
	if a.read.Stop != b.read.Stop {
		return a.read.Stop - b.read.Stop
	}
	return a.seq - b.seq
}

// coverageSweep yields, for ascending positions, the reads that cover each
// position according to covers.
//
// Reads enter the active set once the sweep reaches their start, and leave it
// once the read with the smallest stop no longer covers the current position.
// covers must be monotone: a read that stops covering never covers again.
type coverageSweep struct {
	reads  []complexity.Read // sorted by start
	next   int
	active llrb.Tree
	covers func(r complexity.Read, pos int) bool
	buf    []complexity.Read
}

func newCoverageSweep(reads []complexity.Read, covers func(complexity.Read, int) bool) *coverageSweep {
	sort.SliceStable(reads, func(i, j int) bool { return reads[i].Start < reads[j].Start })
	return &coverageSweep{reads: reads, covers: covers}
}

// advance moves the sweep to pos and returns the covering reads. The result
// is only valid until the next call. pos must not decrease across calls.
func (s *coverageSweep) advance(pos int) []complexity.Read {
	for s.next < len(s.reads) && s.reads[s.next].Start <= pos {
		s.active.Insert(&activeRead{read: s.reads[s.next], seq: s.next})
		s.next++
	}
	for s.active.Len() > 0 {
		min := s.active.Min().(*activeRead)
		if s.covers(min.read, pos) {
			break
		}
		s.active.DeleteMin()
	}
	s.buf = s.buf[:0]
	s.active.Do(func(c llrb.Comparable) bool {
		s.buf = append(s.buf, c.(*activeRead).read)
		return false
	})
	return s.buf
}
