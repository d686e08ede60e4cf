// Package entropy mixes a fixed secret token string into fresh random hex
// before it is handed to the mnemonic encoder.
package entropy

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
)

var (
	ErrEmptyInput    = errors.New("entropy: empty input")
	ErrSecretTooLong = errors.New("entropy: secret longer than random chunk")
)

// Source picks insertion positions. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a ChaCha8 stream keyed from crypto/rand.
func NewSource() (Source, error) {
	var seed [32]byte
	if _, err := io.ReadFull(crand.Reader, seed[:]); err != nil {
		return nil, fmt.Errorf("seed shuffle source: %w", err)
	}
	return NewSeededSource(seed), nil
}

// NewSeededSource returns a reproducible Source.
func NewSeededSource(seed [32]byte) Source {
	return rand.New(rand.NewChaCha8(seed))
}

// RandomChunk reads n bytes from r and returns them hex-encoded.
func RandomChunk(r io.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random chunk: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Permutation returns [0, n) shuffled with Fisher-Yates.
func Permutation(n int, src Source) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Combine splices every token of secret into random. The i-th secret token is
// inserted at the i-th entry of a fresh permutation of random's indices,
// shifting the tail right. The permutation is not retained, so the result
// cannot be split back into its sources.
func Combine(secret, random string, src Source) (string, error) {
	if secret == "" || random == "" {
		return "", ErrEmptyInput
	}
	if len(secret) > len(random) {
		return "", fmt.Errorf("%w: %d > %d", ErrSecretTooLong, len(secret), len(random))
	}

	positions := Permutation(len(random), src)

	out := make([]byte, len(random), len(random)+len(secret))
	copy(out, random)
	for i := 0; i < len(secret); i++ {
		pos := positions[i]
		out = append(out, 0)
		copy(out[pos+1:], out[pos:])
		out[pos] = secret[i]
	}
	return string(out), nil
}
