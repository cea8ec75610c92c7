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

// Package complexity scores how diverse the reads covering a reference base
// are. A library with many PCR duplicates has reads that start at the same
// few positions; all of the metrics here reward reads that start at distinct
// positions and penalize stacks of identical alignments.
//
// Three metrics are provided:
//
//   lci    library complexity index: unique start count times the average
//          pairwise overlap, normalized by the read length.
//   sci    sequencing complexity index: summed pairwise overlap, normalized by
//          the maximum attainable sum for the read length.
//   ngsci  next-generation complexity index: summed pairwise dissimilarity,
//          normalized the same way.
//
// The package only contains the per-base kernels. Package scan drives them
// over whole references.
package complexity
