package sequencer

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Entropy returns a seed for the scheduler's random source.
type Entropy func() uint64

// seedMix decorrelates the two PCG seed words.
const seedMix = 0x9E3779B97F4A7C15

// CryptoEntropy reads a seed from the operating system's entropy pool.
func CryptoEntropy() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:]) //nolint:errcheck // crypto/rand.Read never returns an error
	return binary.LittleEndian.Uint64(b[:])
}

// FixedEntropy returns an Entropy that always yields seed.
func FixedEntropy(seed uint64) Entropy {
	return func() uint64 { return seed }
}

// NewRandom returns a PCG-backed random source for the given seed.
// Equal seeds produce equal draw sequences.
func NewRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^seedMix))
}
