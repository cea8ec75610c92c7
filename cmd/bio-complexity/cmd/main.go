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
package cmd

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqci/complexity"
	"github.com/grailbio/seqci/complexity/scan"
	"github.com/grailbio/seqci/encoding/bamprovider"
	"github.com/grailbio/seqci/encoding/fasta"
	"v.io/x/lib/cmdline"
)

type scanFlags struct {
	reference   *string
	index       *string
	strand      *string
	threads     *int
	blockSize   *int
	sampleSize  *int
	readLength  *int
	flagExclude *int
	chroms      *string
	out         *string
	format      *string
}

func addScanFlags(cmd *cmdline.Command) scanFlags {
	return scanFlags{
		reference: cmd.Flags.String("reference", "", `FASTA reference. Its .fai index is used when present.
Only the sequences present in both the FASTA file and the BAM header are scanned, in FASTA order.
If empty, every reference of the BAM header is scanned.`),
		index:       cmd.Flags.String("index", "", "Input BAM index filename. By default set to input bampath + .bai"),
		strand:      cmd.Flags.String("strand", "", "Library chemistry: none, F, FR or RF. Stranded chemistries score each strand separately"),
		threads:     cmd.Flags.Int("threads", 0, "Number of blocks scored concurrently; 0 = runtime.NumCPU()"),
		blockSize:   cmd.Flags.Int("block-size", 0, "Block width in bases; 0 = 1000 for lci, 1600 otherwise"),
		sampleSize:  cmd.Flags.Int("sample-size", 0, "Batch size of read length estimation; 0 = block size"),
		readLength:  cmd.Flags.Int("read-length", 0, "Read length; 0 = estimate from the first reads of the BAM file"),
		flagExclude: cmd.Flags.Int("flag-exclude", 0, "Reads with a FLAG bit intersecting this value are skipped"),
		chroms:      cmd.Flags.String("chroms", "", "Comma-separated list of references to scan. Empty means all"),
		out:         cmd.Flags.String("out", "", "Output path. By default, bampath with the .bam extension replaced by .<metric>.<format>"),
		format:      cmd.Flags.String("format", "csv", "Output format; 'csv', 'tsv', 'tsv-bgz' and 'csv-gz' supported"),
	}
}

func (f scanFlags) opts(metric string) *scan.Opts {
	opts := scan.DefaultOpts
	opts.Metric = metric
	opts.Strand = *f.strand
	opts.Parallelism = *f.threads
	opts.BlockSize = *f.blockSize
	opts.SampleSize = *f.sampleSize
	opts.ReadLength = *f.readLength
	opts.FlagExclude = *f.flagExclude
	if *f.chroms != "" {
		opts.Chroms = strings.Split(*f.chroms, ",")
	}
	return &opts
}

func defaultOutPath(bampath, metric string, format scan.Format) string {
	base := strings.TrimSuffix(bampath, filepath.Ext(bampath))
	ext := map[scan.Format]string{
		scan.FormatCSV:    "csv",
		scan.FormatTSV:    "tsv",
		scan.FormatTSVBgz: "tsv.gz",
		scan.FormatCSVGz:  "csv.gz",
	}[format]
	return base + "." + metric + "." + ext
}

func newCmdScan(v complexity.Variant, short string) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     v.String(),
		Short:    short,
		ArgsName: "bampath",
	}
	flags := addScanFlags(cmd)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("%s takes one pathname argument, but got %v", v, argv)
		}
		format, err := scan.ParseFormat(*flags.format)
		if err != nil {
			return err
		}
		out := *flags.out
		if out == "" {
			out = defaultOutPath(argv[0], v.String(), format)
		}
		return scan.Compute(vcontext.Background(), argv[0], *flags.index, *flags.reference, out, format, flags.opts(v.String()))
	})
	return cmd
}

func newCmdReadLength() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "readlen",
		Short:    "Print the read length estimated from the first reads of a BAM file",
		ArgsName: "bampath",
	}
	index := cmd.Flags.String("index", "", "Input BAM index filename. By default set to input bampath + .bai")
	batchSize := cmd.Flags.Int("sample-size", 1000, "Number of records read per batch")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) (err error) {
		if len(argv) != 1 {
			return fmt.Errorf("readlen takes one pathname argument, but got %v", argv)
		}
		p := bamprovider.NewProvider(argv[0], bamprovider.ProviderOpts{Index: *index})
		defer func() {
			if e := p.Close(); e != nil && err == nil {
				err = e
			}
		}()
		n, err := scan.EstimateReadLength(p, *batchSize)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(env.Stdout, n)
		return err
	})
	return cmd
}

func newCmdFaidx() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "faidx",
		Short:    "Write the .fai index of a FASTA file",
		ArgsName: "fapath",
	}
	out := cmd.Flags.String("out", "", "Output path. By default set to fapath + .fai")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("faidx takes one pathname argument, but got %v", argv)
		}
		outPath := *out
		if outPath == "" {
			outPath = argv[0] + ".fai"
		}
		return faidx(argv[0], outPath)
	})
	return cmd
}

func faidx(fapath, outPath string) (err error) {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, fapath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	return fasta.GenerateIndex(out.Writer(ctx), in.Reader(ctx))
}

func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-complexity",
			Short:    "Per-base sequencing complexity of BAM files",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdScan(complexity.VariantLCI, "Compute the library complexity index"),
				newCmdScan(complexity.VariantSCI, "Compute the sequencing complexity index"),
				newCmdScan(complexity.VariantNGSCI, "Compute the NGS complexity index"),
				newCmdReadLength(),
				newCmdFaidx(),
			},
		})
}
