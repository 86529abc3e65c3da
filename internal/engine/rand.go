package engine

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Rand is the randomness source injected into rule modules. Rule logic
// never calls a global random function: shuffles and CPU-opponent
// choices all draw from this interface, so tests can supply a fixed
// stream and replays come from stored snapshots, not re-derived rolls.
type Rand interface {
	// Float64 returns the next value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// Stream generates a deterministic byte stream with HMAC-SHA256 keyed
// on a seed pair. The same seeds and nonce always produce the same
// sequence, which is what tests rely on.
type Stream struct {
	serverSeed string
	clientSeed string
	nonce      uint64
	round      uint64
	pos        int
	buffer     [32]byte
}

// NewStream creates a deterministic source from the given seed pair.
func NewStream(serverSeed, clientSeed string, nonce uint64) *Stream {
	s := &Stream{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
	}
	s.fill()
	return s
}

// NewSystemRand creates an unseeded source backed by crypto/rand.
// Production sessions use this; reproducing history requires replaying
// stored snapshots.
func NewSystemRand() *Stream {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand failing means the platform is broken.
		panic(fmt.Sprintf("engine: crypto/rand unavailable: %v", err))
	}
	return NewStream(hex.EncodeToString(seed[:8]), hex.EncodeToString(seed[8:]), 0)
}

func (s *Stream) next() byte {
	if s.pos >= 32 {
		s.round++
		s.pos = 0
		s.fill()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

func (s *Stream) fill() {
	h := hmac.New(sha256.New, []byte(s.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", s.clientSeed, s.nonce, s.round)
	copy(s.buffer[:], h.Sum(nil))
}

// Float64 consumes exactly 4 bytes and maps them into [0, 1).
func (s *Stream) Float64() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		divider := math.Pow(256, float64(i+1))
		result += float64(s.next()) / divider
	}
	return result
}

// Intn returns a value in [0, n).
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("engine: Intn with non-positive bound")
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Shuffle performs a Fisher-Yates shuffle of n elements using swap.
func Shuffle(rng Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, rng.Intn(i+1))
	}
}
