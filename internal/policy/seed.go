package policy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync/atomic"
)

// SeedSource hands out one seed per assignment.  The seed is stored with the
// decision; every random draw for that decision comes from NewRand(seed).
type SeedSource interface {
	Seed() int64
}

// CryptoSeeds draws seeds from crypto/rand.
type CryptoSeeds struct{}

func (CryptoSeeds) Seed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return int64(binary.BigEndian.Uint64(b[:]) >> 1)
}

// SequentialSeeds returns base, base+1, base+2, ... and is safe for
// concurrent use.  It makes a whole deployment reproducible.
type SequentialSeeds struct {
	next atomic.Int64
}

func NewSequentialSeeds(base int64) *SequentialSeeds {
	s := &SequentialSeeds{}
	s.next.Store(base)
	return s
}

func (s *SequentialSeeds) Seed() int64 { return s.next.Add(1) - 1 }

// FixedSeed always returns the same seed.
type FixedSeed int64

func (f FixedSeed) Seed() int64 { return int64(f) }

// NewRand returns the deterministic generator for a decision seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}
