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
	"math/rand"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

func newHeader(t *testing.T, lens map[string]int, order ...string) *sam.Header {
	refs := make([]*sam.Reference, len(order))
	for i, name := range order {
		ref, err := sam.NewReference(name, "", "", lens[name], nil, nil)
		require.NoError(t, err)
		refs[i] = ref
	}
	header, err := sam.NewHeader(nil, refs)
	require.NoError(t, err)
	return header
}

func newRecord(ref *sam.Reference, pos, length int, flags sam.Flags) *sam.Record {
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = "ACGT"[i%4]
	}
	r := &sam.Record{
		Name:  "r",
		Ref:   ref,
		Pos:   pos,
		MapQ:  60,
		Flags: flags,
		Seq:   sam.NewSeq(seq),
	}
	if ref == nil {
		r.Pos = -1
	}
	return r
}

// randomRecords generates paired-end style records on ref: roughly one read
// start every "spacing" bases, with lengths in [minLen, maxLen]. Some starts
// are repeated to create duplicates.
func randomRecords(r *rand.Rand, ref *sam.Reference, spacing, minLen, maxLen int) []*sam.Record {
	var recs []*sam.Record
	flagChoices := []sam.Flags{
		sam.Paired | sam.Read1,
		sam.Paired | sam.Read1 | sam.Reverse,
		sam.Paired | sam.Read2,
		sam.Paired | sam.Read2 | sam.Reverse,
	}
	for pos := r.Intn(spacing); pos < ref.Len(); pos += 1 + r.Intn(2*spacing) {
		n := 1
		if r.Intn(4) == 0 {
			n += r.Intn(3)
		}
		for i := 0; i < n; i++ {
			length := minLen + r.Intn(maxLen-minLen+1)
			if pos+length > ref.Len() {
				length = ref.Len() - pos
			}
			recs = append(recs, newRecord(ref, pos, length, flagChoices[r.Intn(len(flagChoices))]))
		}
	}
	return recs
}
