// Package bamprovider provides utilities for reading an indexed BAM file
// concurrently.
//
// The Provider is an interface for fetching the alignments that overlap a
// reference range, or every alignment in file order. Each caller gets its own
// Iterator, so fetches issued from different goroutines are independent.
package bamprovider
