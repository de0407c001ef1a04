package auth

import (
	"encoding/base64"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"
)

// prehashPrefix marks digests whose bcrypt input is the BLAKE3 pre-hash of
// the password rather than the password itself. bcrypt only reads the
// first 72 bytes of its input; the pre-hash is 43 bytes for any plaintext.
const prehashPrefix = "$b3"

// PasswordHasher produces and checks salted one-way digests.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// BcryptHasher hashes with bcrypt at a fixed cost. The salt and cost are
// embedded in each digest, so digests made at other costs still verify.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a fresh digest for plain.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prehash(plain), h.cost)
	if err != nil {
		return "", err
	}
	return prehashPrefix + string(hashed), nil
}

// Verify reports whether digest was produced from plain. Digests without
// the pre-hash marker are treated as plain bcrypt, which is what the
// browser client wrote.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	if rest, ok := strings.CutPrefix(digest, prehashPrefix); ok {
		return bcrypt.CompareHashAndPassword([]byte(rest), prehash(plain)) == nil
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

func prehash(plain string) []byte {
	sum := blake3.Sum256([]byte(plain))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum[:])
	return out
}
