// Package seed holds the deterministic random streams shared by the sky
// layers, so a layout can be reproduced from a 32-bit seed.
package seed

import (
	"hash/fnv"
	"time"

	"github.com/litescript/ls-sky/internal/sky"
)

// EpochLength is the wall-clock window over which decorations stay put.
const EpochLength = 30 * time.Minute

// Mulberry32 returns a deterministic stream of floats in [0,1) for seed.
func Mulberry32(seed uint32) func() float64 {
	a := seed
	return func() float64 {
		a += 0x6D2B79F5
		t := a
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}

// String hashes a name into a seed.
func String(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// Named returns the stream for a layer or component name.
func Named(name string) func() float64 {
	return Mulberry32(String(name))
}

// Epoch returns the decoration epoch number containing t.
func Epoch(t time.Time) int64 {
	return t.UnixMilli() / EpochLength.Milliseconds()
}

// EpochSeed mixes an epoch and mode into a PRNG seed.
func EpochSeed(epoch int64, mode sky.Mode) uint32 {
	return uint32(epoch) ^ String(string(mode))
}
