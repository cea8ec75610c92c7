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

// Block is one unit of work: the index-th blockSize-wide slice of a
// reference. Reads are fetched from the window [WindowStart, WindowStop),
// which extends buffer bases to the left of the block, and scores are
// emitted for [EffectiveStart, WindowStop).
type Block struct {
	Index          int
	WindowStart    int
	WindowStop     int
	EffectiveStart int
}

// NumBlocks returns ceil(length/blockSize).
func NumBlocks(length, blockSize int) int {
	if length <= 0 {
		return 0
	}
	return (length + blockSize - 1) / blockSize
}

// NewBlock computes the geometry of the i-th block of a reference.
func NewBlock(i, length, blockSize, buffer int) Block {
	b := Block{
		Index:       i,
		WindowStart: i*blockSize - buffer,
		WindowStop:  (i + 1) * blockSize,
	}
	if b.WindowStart < 0 {
		b.WindowStart = 0
	}
	if b.WindowStop > length {
		b.WindowStop = length
	}
	// The left edge of the scored range is the block's own start. It equals
	// WindowStart+buffer unless the window was clamped at zero.
	b.EffectiveStart = i * blockSize
	return b
}

// Blocks lists every block of a reference, in order. The effective ranges of
// the blocks tile [0, length).
func Blocks(length, blockSize, buffer int) []Block {
	n := NumBlocks(length, blockSize)
	blocks := make([]Block, n)
	for i := range blocks {
		blocks[i] = NewBlock(i, length, blockSize, buffer)
	}
	return blocks
}
