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
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Chemistry is the library strandedness protocol. It decides which strand
// key a record is counted under.
type Chemistry int

const (
	// ChemistryNone puts every read under StrandNone.
	ChemistryNone Chemistry = iota
	// ChemistryF keys each read by its own alignment orientation.
	ChemistryF
	// ChemistryFR keys read 1 by its orientation and every other read by
	// the opposite of its orientation.
	ChemistryFR
	// ChemistryRF is the mirror image of ChemistryFR.
	ChemistryRF
)

var chemistryNames = [...]string{"none", "F", "FR", "RF"}

// ParseChemistry parses a chemistry name. "" and "none" mean unstranded; "F",
// "FR" and "RF" are accepted in any case. Anything else is an errors.Invalid
// error.
func ParseChemistry(s string) (Chemistry, error) {
	switch strings.ToUpper(s) {
	case "", "NONE":
		return ChemistryNone, nil
	case "F":
		return ChemistryF, nil
	case "FR":
		return ChemistryFR, nil
	case "RF":
		return ChemistryRF, nil
	}
	return ChemistryNone, errors.E(errors.Invalid,
		fmt.Sprintf("strand option '%s' is invalid; it must be one of [FR, RF, F]", s))
}

// String returns the spelling accepted by ParseChemistry.
func (c Chemistry) String() string {
	if c < 0 || int(c) >= len(chemistryNames) {
		return fmt.Sprintf("Chemistry(%d)", int(c))
	}
	return chemistryNames[c]
}

// Stranded returns true unless c is ChemistryNone.
func (c Chemistry) Stranded() bool { return c != ChemistryNone }

// Strands lists the strand keys that a scan with this chemistry reports.
func (c Chemistry) Strands() []StrandType {
	if c.Stranded() {
		return []StrandType{StrandFwd, StrandRev}
	}
	return []StrandType{StrandNone}
}

// Strand returns the key of a record that is (or is not) read 1, aligned
// reverse (or forward).
func (c Chemistry) Strand(firstInPair, reverse bool) StrandType {
	orient := StrandFwd
	if reverse {
		orient = StrandRev
	}
	switch c {
	case ChemistryF:
		return orient
	case ChemistryFR:
		if firstInPair {
			return orient
		}
		return flip(orient)
	case ChemistryRF:
		if firstInPair {
			return flip(orient)
		}
		return orient
	}
	return StrandNone
}

func flip(s StrandType) StrandType {
	if s == StrandFwd {
		return StrandRev
	}
	return StrandFwd
}

// Resolve converts a record to a Read. It returns false for unmapped records,
// which carry no footprint. A mapped record with an empty SEQ is an
// errors.Integrity error.
func (c Chemistry) Resolve(r *sam.Record) (Read, bool, error) {
	if r.Ref == nil || r.Flags&sam.Unmapped != 0 {
		return Read{}, false, nil
	}
	strand := c.Strand(r.Flags&sam.Read1 != 0, r.Flags&sam.Reverse != 0)
	read, err := NewRead(r.Pos, r.Pos+r.Seq.Length, strand)
	if err != nil {
		return Read{}, false, errors.E(err, "read", r.Name)
	}
	return read, true, nil
}
