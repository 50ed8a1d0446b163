package idgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// maxAttempts bounds the collision retry loop. At the default 4-character
// suffix the ID space is ~1.7M, so 20 draws is plenty for the target scales.
const maxAttempts = 20

// NewID draws a random base-36 suffix of length n until PREFIX-SUFFIX does
// not collide. existsFn is called to check for collisions.
func NewID(prefix string, n int, existsFn func(string) bool) (string, error) {
	for range maxAttempts {
		id := fmt.Sprintf("%s-%s", prefix, suffix(n))
		if existsFn == nil || !existsFn(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique ID after %d attempts; consider raising id_len", maxAttempts)
}

func suffix(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return sb.String()
}
