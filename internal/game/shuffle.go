package game

import (
	"crypto/rand"
	"encoding/binary"
)

// zeroSeedState replaces a zero seed; xorshift never leaves the zero state.
const zeroSeedState uint32 = 0x9e3779b9

type xorshift32 struct {
	state uint32
}

func newXorshift32(seed uint32) *xorshift32 {
	if seed == 0 {
		seed = zeroSeedState
	}
	return &xorshift32{state: seed}
}

func (x *xorshift32) next() uint32 {
	s := x.state
	s ^= s << 13
	s ^= s >> 17
	s ^= s << 5
	x.state = s
	return s
}

// below returns a value in [0, bound) without modulo bias.
func (x *xorshift32) below(bound uint32) uint32 {
	threshold := -bound % bound
	for {
		if r := x.next(); r >= threshold {
			return r % bound
		}
	}
}

// Shuffle returns a permutation of [0, n) that depends only on seed and n.
func Shuffle(seed uint32, n int) []int {
	if n <= 0 {
		return []int{}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := newXorshift32(seed)
	for i := n - 1; i > 0; i-- {
		j := int(rng.below(uint32(i + 1)))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// NewSeed draws a seed from crypto/rand.
func NewSeed() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return zeroSeedState
	}
	return binary.BigEndian.Uint32(buf[:])
}

// NewJoinCode returns a six character room code without ambiguous glyphs.
func NewJoinCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}
