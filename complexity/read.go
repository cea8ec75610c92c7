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

// Read is the alignment footprint of one record: the half-open reference
// range [Start, Stop) and the strand key assigned by the library chemistry.
// Stop > Start always holds for a Read built by NewRead.
type Read struct {
	Start  int
	Stop   int
	Strand StrandType
}

// NewRead creates a read. It returns an errors.Integrity error if the range
// is empty or the strand is undefined.
func NewRead(start, stop int, strand StrandType) (Read, error) {
	if stop <= start {
		return Read{}, errors.E(errors.Integrity,
			fmt.Sprintf("complexity.NewRead: empty read range [%d,%d)", start, stop))
	}
	if !strand.Valid() {
		return Read{}, errors.E(errors.Integrity,
			fmt.Sprintf("complexity.NewRead: invalid strand %d", int(strand)))
	}
	return Read{Start: start, Stop: stop, Strand: strand}, nil
}

// Len returns the number of reference bases spanned by the read.
func (r Read) Len() int { return r.Stop - r.Start }

func (r Read) String() string {
	return fmt.Sprintf("[%d,%d)%v", r.Start, r.Stop, r.Strand)
}
