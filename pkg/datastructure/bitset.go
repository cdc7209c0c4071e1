package datastructure

import "math/bits"

type Bitset struct {
	words []uint64
}

func NewBitset(size int) *Bitset {
	return &Bitset{words: make([]uint64, (size+63)/64)}
}

func (b *Bitset) grow(i int) {
	need := i/64 + 1
	if need > len(b.words) {
		grown := make([]uint64, need)
		copy(grown, b.words)
		b.words = grown
	}
}

func (b *Bitset) Add(i Index) {
	b.grow(int(i))
	b.words[i/64] |= 1 << (uint(i) % 64)
}

func (b *Bitset) Remove(i Index) {
	if int(i)/64 >= len(b.words) {
		return
	}
	b.words[i/64] &^= 1 << (uint(i) % 64)
}

func (b *Bitset) Contains(i Index) bool {
	if b == nil || i < 0 || int(i)/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

// Count jumlah bit yang di set.
func (b *Bitset) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

func (b *Bitset) Clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

func (b *Bitset) Clone() *Bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Bitset{words: words}
}
