package bamprovider

import (
	"github.com/grailbio/hts/sam"
)

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// Footprint returns the half-open range [Pos, Pos+Seq.Length) that a record
// occupies for the purpose of range fetches.
func Footprint(r *sam.Record) (start, limit int) {
	return r.Pos, r.Pos + r.Seq.Length
}

// IsMapped returns true if the record is placed on a reference.
func IsMapped(r *sam.Record) bool {
	return r.Ref != nil && r.Flags&sam.Unmapped == 0
}
