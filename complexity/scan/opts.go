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
	"fmt"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqci/complexity"
)

// Logger is the subset of a log.Level that the scanner writes to.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Opts configures one complexity run.
type Opts struct {
	// Metric is one of "lci", "sci" or "ngsci".
	Metric string
	// Strand is the library chemistry: "", "none", "F", "FR" or "RF".
	Strand string
	// Parallelism is the number of blocks scored concurrently. 0 means
	// runtime.NumCPU().
	Parallelism int
	// BlockSize is the block width in bases. 0 means the metric default.
	BlockSize int
	// SampleSize is the batch size of read length estimation. 0 means the
	// block size.
	SampleSize int
	// ReadLength, if positive, is used instead of the estimate.
	ReadLength int
	// FlagExclude drops records with a FLAG bit intersecting this value.
	FlagExclude int
	// Chroms, if nonempty, restricts the scan to these references.
	Chroms []string
	// Log receives progress messages. nil means log.Info.
	Log Logger
}

// DefaultOpts holds the default options.
var DefaultOpts = Opts{
	Metric:      "ngsci",
	Strand:      "",
	Parallelism: 0,
	BlockSize:   0,
	SampleSize:  0,
	ReadLength:  0,
	FlagExclude: 0,
}

// config is the validated form of Opts.
type config struct {
	variant     complexity.Variant
	chemistry   complexity.Chemistry
	parallelism int
	blockSize   int
	sampleSize  int
	readLength  int
	flagExclude int
	chroms      []string
	log         Logger
}

func (o *Opts) validate() (config, error) {
	var (
		c   config
		err error
	)
	if c.variant, err = complexity.ParseVariant(o.Metric); err != nil {
		return c, err
	}
	if c.chemistry, err = complexity.ParseChemistry(o.Strand); err != nil {
		return c, err
	}
	for _, v := range []struct {
		name string
		val  int
	}{
		{"parallelism", o.Parallelism},
		{"block size", o.BlockSize},
		{"sample size", o.SampleSize},
		{"read length", o.ReadLength},
		{"flag exclude", o.FlagExclude},
	} {
		if v.val < 0 {
			return c, errors.E(errors.Invalid, fmt.Sprintf("scan: negative %s %d", v.name, v.val))
		}
	}
	if c.parallelism = o.Parallelism; c.parallelism == 0 {
		c.parallelism = runtime.NumCPU()
	}
	if c.blockSize = o.BlockSize; c.blockSize == 0 {
		c.blockSize = c.variant.DefaultBlockSize()
	}
	if c.sampleSize = o.SampleSize; c.sampleSize == 0 {
		c.sampleSize = c.blockSize
	}
	c.readLength = o.ReadLength
	c.flagExclude = o.FlagExclude
	c.chroms = o.Chroms
	if c.log = o.Log; c.log == nil {
		c.log = log.Info
	}
	return c, nil
}
