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
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/seqci/complexity"
	"github.com/klauspost/compress/gzip"
)

// Format is an export file layout.
type Format int

const (
	// FormatCSV is comma-separated text.
	FormatCSV Format = iota
	// FormatTSV is tab-separated text.
	FormatTSV
	// FormatTSVBgz is tab-separated text, bgzf-compressed.
	FormatTSVBgz
	// FormatCSVGz is comma-separated text, gzip-compressed.
	FormatCSVGz
)

var formatNames = [...]string{"csv", "tsv", "tsv-bgz", "csv-gz"}

// ParseFormat parses "csv", "tsv", "tsv-bgz" or "csv-gz". "" means csv.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatCSV, nil
	}
	for i, n := range formatNames {
		if n == s {
			return Format(i), nil
		}
	}
	return FormatCSV, errors.E(errors.Invalid,
		fmt.Sprintf("unrecognized format '%s'; it must be one of %v", s, formatNames))
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

func (f Format) comma() rune {
	if f == FormatTSV || f == FormatTSVBgz {
		return '\t'
	}
	return ','
}

// exportParallelism is the number of bgzf compression goroutines.
const exportParallelism = 4

type rowWriter interface {
	write(fields []string) error
	flush() error
}

type csvRowWriter struct{ w *csv.Writer }

func (w csvRowWriter) write(fields []string) error { return w.w.Write(fields) }
func (w csvRowWriter) flush() error {
	w.w.Flush()
	return w.w.Error()
}

type tsvRowWriter struct{ w *tsv.Writer }

func (w tsvRowWriter) write(fields []string) error {
	for _, f := range fields {
		w.w.WriteString(f)
	}
	return w.w.EndLine()
}
func (w tsvRowWriter) flush() error { return w.w.Flush() }

// Header returns the export header of a metric.
func Header(m complexity.Metric) []string {
	return append([]string{"Chrom", "Base", "Strand"}, m.Columns()...)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Export writes the results to path. Rows are grouped by reference, in
// catalog order, then by strand; positions ascend within a group and are
// 0-based.
func Export(ctx context.Context, path string, format Format, m complexity.Metric, results *Results) (err error) {
	if results == nil {
		return errors.E(errors.Precondition, "scan.Export: no results")
	}
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)

	var w io.Writer = out.Writer(ctx)
	switch format {
	case FormatTSVBgz:
		bw := bgzf.NewWriter(w, exportParallelism)
		defer func() {
			if e := bw.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = bw
	case FormatCSVGz:
		gw := gzip.NewWriter(w)
		defer func() {
			if e := gw.Close(); e != nil && err == nil {
				err = e
			}
		}()
		w = gw
	}
	var rw rowWriter
	if format.comma() == '\t' {
		rw = tsvRowWriter{tsv.NewWriter(w)}
	} else {
		rw = csvRowWriter{csv.NewWriter(w)}
	}
	if err = writeRows(rw, m, results); err != nil {
		return
	}
	return rw.flush()
}

func writeRows(rw rowWriter, m complexity.Metric, results *Results) error {
	if err := rw.write(Header(m)); err != nil {
		return err
	}
	fields := make([]string, 0, 3+len(m.Columns()))
	for _, chrom := range results.Chroms() {
		for _, strand := range results.Strands() {
			strandStr := strand.String()
			for _, rec := range results.Get(chrom, strand) {
				fields = append(fields[:0], chrom, strconv.Itoa(int(rec.Pos)), strandStr)
				for _, v := range m.Values(rec.Score) {
					fields = append(fields, formatValue(v))
				}
				if err := rw.write(fields); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ExportRow is one parsed row of an exported file.
type ExportRow struct {
	Chrom  string
	Pos    int
	Strand complexity.StrandType
	// Values are the metric columns, in Metric.Columns order.
	Values []float64
}

// lciRow and statsRow are the columns of a row, matched by position.
type lciRow struct {
	Chrom  string
	Base   int64
	Strand string
	Index  float64
}

type statsRow struct {
	Chrom       string
	Base        int64
	Strand      string
	Depth       int64
	UniqueReads int64
	Overlap     float64
	Index       float64
}

// ReadExport parses a file written by Export.
func ReadExport(ctx context.Context, path string, format Format, m complexity.Metric) (rows []ExportRow, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, in, &err)

	var r io.Reader = in.Reader(ctx)
	if format == FormatTSVBgz || format == FormatCSVGz {
		var gr *gzip.Reader
		if gr, err = gzip.NewReader(r); err != nil {
			return nil, errors.E(err, "scan.ReadExport", path)
		}
		defer func() {
			if e := gr.Close(); e != nil && err == nil {
				err = e
			}
		}()
		r = gr
	}
	tr := tsv.NewReader(r)
	tr.Comma = format.comma()
	header, err := tr.Reader.Read()
	if err != nil {
		return nil, errors.E(errors.Invalid, "scan.ReadExport: missing header", path, err)
	}
	want := Header(m)
	if fmt.Sprint(header) != fmt.Sprint(want) {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("scan.ReadExport: %s: header %v does not match metric %s (%v)", path, header, m.Name(), want))
	}
	for {
		var row ExportRow
		var strand string
		if len(m.Columns()) == 1 {
			var v lciRow
			if err = tr.Read(&v); err == nil {
				row = ExportRow{Chrom: v.Chrom, Pos: int(v.Base), Values: []float64{v.Index}}
				strand = v.Strand
			}
		} else {
			var v statsRow
			if err = tr.Read(&v); err == nil {
				row = ExportRow{Chrom: v.Chrom, Pos: int(v.Base),
					Values: []float64{float64(v.Depth), float64(v.UniqueReads), v.Overlap, v.Index}}
				strand = v.Strand
			}
		}
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, errors.E(errors.Invalid, "scan.ReadExport", path, err)
		}
		if row.Strand, err = complexity.ParseStrand(strand); err != nil {
			return nil, errors.E(errors.Invalid, "scan.ReadExport", path, err)
		}
		rows = append(rows, row)
	}
}
