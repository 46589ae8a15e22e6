package id

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Generator creates opaque ids for refresh runs and requests.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Stable derives a deterministic surrogate id from natural-key parts, so a
// record fetched twice gets the same id. Parts are compared case-insensitively.
func Stable(prefix string, parts ...string) string {
	h := sha1.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
	}
	sum := hex.EncodeToString(h.Sum(nil))[:16]
	if prefix == "" {
		return sum
	}
	return prefix + "_" + sum
}
