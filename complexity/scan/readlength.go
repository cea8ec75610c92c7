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
	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqci/encoding/bamprovider"
)

// minReadLengthSamples is the number of usable records that must be seen
// before read length estimation may stop.
const minReadLengthSamples = 100

// EstimateReadLength returns the longest SEQ among the first records of the
// store, in file order. Records are consumed batchSize at a time, and
// sampling stops after the first full batch at which minReadLengthSamples
// mapped records with a nonempty SEQ have been seen.
//
// A store whose index reports no mapped reads yields an errors.NotExist
// error.
func EstimateReadLength(p bamprovider.Provider, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, errors.E(errors.Invalid, "EstimateReadLength: batch size must be positive")
	}
	counts, err := p.MappedCounts()
	if err != nil {
		return 0, err
	}
	var mapped uint64
	for ref, n := range counts {
		if ref != "*" {
			mapped += n
		}
	}
	if mapped == 0 {
		return 0, errors.E(errors.NotExist, "BAM file is empty! Check samtools idxstats.")
	}

	iter := p.NewIterator()
	var (
		maxLen, usable, nRead int
	)
	for iter.Scan() {
		rec := iter.Record()
		if bamprovider.IsMapped(rec) && rec.Seq.Length > 0 {
			usable++
			if rec.Seq.Length > maxLen {
				maxLen = rec.Seq.Length
			}
		}
		sam.PutInFreePool(rec)
		nRead++
		if nRead%batchSize == 0 && usable >= minReadLengthSamples {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	if usable == 0 {
		return 0, errors.E(errors.NotExist, "EstimateReadLength: no mapped record with a sequence")
	}
	return maxLen, nil
}
