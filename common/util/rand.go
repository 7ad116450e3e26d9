package util

import (
	"encoding/binary"
	"math/rand"

	"github.com/seehuhn/mt19937"
	"github.com/zeebo/blake3"
)

// NewRand returns a Mersenne Twister generator whose seed is derived from
// seed and labels. Distinct labels give independent streams for one run seed.
func NewRand(seed int64, labels ...uint64) *rand.Rand {
	hasher := blake3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	hasher.Write(buf[:])
	for _, label := range labels {
		binary.LittleEndian.PutUint64(buf[:], label)
		hasher.Write(buf[:])
	}
	sum := hasher.Sum(nil)

	src := mt19937.New()
	src.Seed(int64(binary.LittleEndian.Uint64(sum[:8])))
	return rand.New(src)
}
