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

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqci/encoding/bamprovider"
)

// Compute runs the metric named by opts over the BAM file at bampath and
// writes the results to outpath. fapath may be empty, in which case the
// references of the BAM header are scanned.
func Compute(ctx context.Context, bampath, indexpath, fapath, outpath string, format Format, opts *Opts) (err error) {
	provider := bamprovider.NewProvider(bampath, bamprovider.ProviderOpts{Index: indexpath})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	header, err := provider.GetHeader()
	if err != nil {
		return err
	}
	refs, err := LoadReferences(ctx, fapath, header)
	if err != nil {
		return err
	}
	c, err := New(provider, refs, *opts)
	if err != nil {
		return errors.E(err, bampath)
	}
	if err = c.Run(ctx); err != nil {
		return errors.E(err, bampath)
	}
	log.Printf("scan.Compute: writing %s", outpath)
	return Export(ctx, outpath, format, c.Metric(), c.Results())
}
