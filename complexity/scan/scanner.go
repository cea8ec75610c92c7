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
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqci/complexity"
	"github.com/grailbio/seqci/encoding/bamprovider"
)

// Calculator computes a complexity metric for every base of a set of
// references. Create it with New, then call Run once.
type Calculator struct {
	provider   bamprovider.Provider
	refs       []Reference
	cfg        config
	readLength int
	metric     complexity.Metric

	mu      sync.Mutex
	ran     bool
	results *Results
}

// New validates opts and prepares a run over refs. Unless opts.ReadLength is
// set, it estimates the read length from the provider; the estimate is both
// the look-back buffer of each block and the metric's normalization constant.
func New(p bamprovider.Provider, refs []Reference, opts Opts) (*Calculator, error) {
	cfg, err := opts.validate()
	if err != nil {
		return nil, err
	}
	if refs, err = FilterReferences(refs, cfg.chroms); err != nil {
		return nil, err
	}
	readLength := cfg.readLength
	if readLength == 0 {
		if readLength, err = EstimateReadLength(p, cfg.sampleSize); err != nil {
			return nil, err
		}
		cfg.log.Printf("scan.New: estimated read length %d", readLength)
	}
	metric, err := complexity.NewVariantMetric(cfg.variant, readLength)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		provider:   p,
		refs:       refs,
		cfg:        cfg,
		readLength: readLength,
		metric:     metric,
	}, nil
}

// ReadLength returns the read length the run is normalized with.
func (c *Calculator) ReadLength() int { return c.readLength }

// BlockSize returns the block width.
func (c *Calculator) BlockSize() int { return c.cfg.blockSize }

// Metric returns the metric being computed.
func (c *Calculator) Metric() complexity.Metric { return c.metric }

// Chemistry returns the library chemistry.
func (c *Calculator) Chemistry() complexity.Chemistry { return c.cfg.chemistry }

// References returns the references that are scanned.
func (c *Calculator) References() []Reference { return c.refs }

// Results returns the output of Run, or nil if Run has not completed
// successfully.
func (c *Calculator) Results() *Results {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

type blockTask struct {
	ref   int
	block Block
}

// Run scores every block of every reference. Blocks are processed
// concurrently; the results are assembled in position order once all blocks
// finish. The first error aborts the run and no results are published. Run
// may only be called once.
func (c *Calculator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return errors.E(errors.Precondition, "scan.Run: calculator has already run")
	}
	c.ran = true
	c.mu.Unlock()

	var tasks []blockTask
	slots := make([][][][]ScoreRecord, len(c.refs))
	for ri, ref := range c.refs {
		blocks := Blocks(ref.Length, c.cfg.blockSize, c.readLength)
		slots[ri] = make([][][]ScoreRecord, len(blocks))
		for _, b := range blocks {
			tasks = append(tasks, blockTask{ri, b})
		}
	}
	c.cfg.log.Printf("scan.Run: %s over %d references, %d blocks of %d bases, read length %d, %d jobs",
		c.metric.Name(), len(c.refs), len(tasks), c.cfg.blockSize, c.readLength, c.cfg.parallelism)

	err := traverse.Limit(c.cfg.parallelism).Each(len(tasks), func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := tasks[i]
		recs, err := c.scoreBlock(c.refs[t.ref], t.block)
		if err != nil {
			return err
		}
		slots[t.ref][t.block.Index] = recs
		return nil
	})
	if err != nil {
		return err
	}

	strands := c.cfg.chemistry.Strands()
	chroms := make([]string, len(c.refs))
	for i, ref := range c.refs {
		chroms[i] = ref.Name
	}
	results := newResults(chroms, strands)
	for ri, ref := range c.refs {
		seqs := make([][]ScoreRecord, len(strands))
		for si := range strands {
			seq := make([]ScoreRecord, 0, ref.Length)
			for _, block := range slots[ri] {
				seq = append(seq, block[si]...)
			}
			seqs[si] = seq
		}
		results.seqs[ref.Name] = seqs
	}
	c.cfg.log.Printf("scan.Run: scored %d records, fingerprint %016x", results.Len(), results.Fingerprint())

	c.mu.Lock()
	c.results = results
	c.mu.Unlock()
	return nil
}

func (c *Calculator) strandIndex(s complexity.StrandType) int {
	if !c.cfg.chemistry.Stranded() {
		return 0
	}
	return int(s - complexity.StrandFwd)
}

// scoreBlock returns the score sequences of one block, indexed like
// Chemistry().Strands().
func (c *Calculator) scoreBlock(ref Reference, b Block) ([][]ScoreRecord, error) {
	reads, err := c.fetch(ref.Name, b.WindowStart, b.WindowStop)
	if err != nil {
		return nil, err
	}
	strands := c.cfg.chemistry.Strands()
	byStrand := make([][]complexity.Read, len(strands))
	for _, r := range reads {
		si := c.strandIndex(r.Strand)
		byStrand[si] = append(byStrand[si], r)
	}
	out := make([][]ScoreRecord, len(strands))
	var scratch []complexity.Read
	for si := range strands {
		sweep := newCoverageSweep(byStrand[si], c.metric.Covers)
		recs := make([]ScoreRecord, 0, b.WindowStop-b.EffectiveStart)
		for pos := b.EffectiveStart; pos < b.WindowStop; pos++ {
			scratch = append(scratch[:0], sweep.advance(pos)...)
			score, err := c.metric.Score(scratch)
			if err != nil {
				return nil, errors.E(err, fmt.Sprintf("%s:%d", ref.Name, pos))
			}
			recs = append(recs, ScoreRecord{Pos: complexity.PosType(pos), Score: score})
		}
		out[si] = recs
	}
	return out, nil
}

// fetch returns the reads overlapping [start, limit) that survive the flag
// filter. The index lookup reaches one more read length to the left, which
// finds any read whose SEQ is at most twice the read length, soft clips
// included.
func (c *Calculator) fetch(ref string, start, limit int) (reads []complexity.Read, err error) {
	iter := c.provider.NewRangeIterator(ref, start, limit, bamprovider.RangeOpts{Slack: c.readLength})
	defer func() {
		if e := iter.Close(); e != nil && err == nil {
			err = errors.E(e, fmt.Sprintf("fetch %s:%d-%d", ref, start, limit))
		}
	}()
	for iter.Scan() {
		rec := iter.Record()
		if int(rec.Flags)&c.cfg.flagExclude != 0 {
			sam.PutInFreePool(rec)
			continue
		}
		read, ok, err := c.cfg.chemistry.Resolve(rec)
		sam.PutInFreePool(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			reads = append(reads, read)
		}
	}
	return reads, nil
}
