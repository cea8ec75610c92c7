// Package fasta reads the sequence table of FASTA files.
// See http://www.htslib.org/doc/faidx.html.  Briefly, FASTA files consist of a
// number of named sequences that may be interrupted by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
//
// Only the layout of each sequence (name, length, and where its bases live in
// the file) is extracted. Bases are never held in memory, so a whole-genome
// reference can be scanned in constant space.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Entry describes one sequence. It corresponds to one line of a *.fai index.
type Entry struct {
	// Name is the sequence name.
	Name string
	// Length is the number of bases.
	Length int64
	// Offset is the byte offset of the first base.
	Offset int64
	// LineBases is the number of bases per line.
	LineBases int64
	// LineWidth is the number of bytes per line, including the newline.
	LineWidth int64
}

// Scan reads FASTA data and returns one Entry per sequence, in the order of
// appearance in the file.
func Scan(in io.Reader) ([]Entry, error) {
	var (
		r       = bufio.NewReader(in)
		entries []Entry
		seen    = map[string]bool{}
		cur     *Entry
		cumByte int64
	)
	for {
		fullLine, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "couldn't read FASTA data")
		}
		eof := err == io.EOF
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>': // Start a new sequence.
			name := strings.Split(string(line[1:]), " ")[0]
			if name == "" {
				return nil, errors.Errorf("malformed FASTA file: empty sequence name at byte %d", cumByte)
			}
			if seen[name] {
				return nil, errors.Errorf("malformed FASTA file: duplicate sequence %s", name)
			}
			seen[name] = true
			entries = append(entries, Entry{Name: name, Offset: cumByte})
			cur = &entries[len(entries)-1]
		default:
			if cur == nil {
				return nil, errors.Errorf("malformed FASTA file: sequence data before the first '>' line")
			}
			if cur.LineWidth == 0 {
				cur.LineWidth = int64(len(fullLine))
				cur.LineBases = int64(len(line))
			}
			cur.Length += int64(len(line))
		}
		if eof {
			break
		}
	}
	if cumByte == 0 {
		return nil, errors.New("empty FASTA file")
	}
	return entries, nil
}
