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
)

// PosType is the integer type used to represent genomic positions.
type PosType = int32

// StrandType describes which strand of the original fragment a read belongs
// to, after the library chemistry is taken into account.
type StrandType int

const (
	// StrandNone means that the library is not stranded. All reads share one
	// key.
	StrandNone StrandType = iota
	// StrandFwd means that the read belongs to the forward strand.
	StrandFwd
	// StrandRev means that the read belongs to the reverse strand.
	StrandRev
)

// StrandTypeToASCIITable is the StrandType -> ASCII mapping.
var StrandTypeToASCIITable = [...]byte{'.', '+', '-'}

// String renders the strand as '.', '+', or '-'.
func (s StrandType) String() string {
	if s < 0 || int(s) >= len(StrandTypeToASCIITable) {
		return fmt.Sprintf("StrandType(%d)", int(s))
	}
	return string(StrandTypeToASCIITable[s])
}

// Valid returns true if s is one of the defined strand values.
func (s StrandType) Valid() bool {
	return s >= StrandNone && s <= StrandRev
}

// ParseStrand inverts StrandType.String.
func ParseStrand(s string) (StrandType, error) {
	if len(s) == 1 {
		for i, c := range StrandTypeToASCIITable {
			if s[0] == c {
				return StrandType(i), nil
			}
		}
	}
	return StrandNone, fmt.Errorf("complexity.ParseStrand: invalid strand '%s'", s)
}
