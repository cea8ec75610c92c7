package fasta

import (
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex generates an index (*.fai) from FASTA.  The index can be later
// passed to ReadIndex() to get the sequence table without rescanning the
// FASTA file.
//
// The index format is defined by "samtool faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) error {
	entries, err := Scan(in)
	if err != nil {
		return err
	}
	return WriteIndex(out, entries)
}

// WriteIndex writes the entries in *.fai format.
func WriteIndex(out io.Writer, entries []Entry) error {
	w := tsv.NewWriter(out)
	for _, e := range entries {
		w.WriteString(e.Name)
		w.WriteInt64(e.Length)
		w.WriteInt64(e.Offset)
		w.WriteInt64(e.LineBases)
		w.WriteInt64(e.LineWidth)
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ReadIndex parses a *.fai file. Entries are returned in file order.
func ReadIndex(in io.Reader) ([]Entry, error) {
	r := tsv.NewReader(in)
	var entries []Entry
	for {
		var e Entry
		err := r.Read(&e)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.E(errors.Invalid, "fasta.ReadIndex: invalid index line", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
