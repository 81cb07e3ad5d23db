package feed

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// decode32 decodes a base58 address and checks it is 32 bytes.
func decode32(addr string) ([]byte, bool) {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return nil, false
	}
	return raw, true
}

// ValidMint reports whether addr is a plausible token mint: valid
// base58 encoding 32 bytes. Mints may be program-derived, so no curve
// check applies.
func ValidMint(addr string) bool {
	_, ok := decode32(addr)
	return ok
}

// ValidWallet reports whether addr is a plausible wallet: 32 base58
// bytes that decode to a point on the ed25519 curve. Program-derived
// addresses are off-curve and cannot sign launches.
func ValidWallet(addr string) bool {
	raw, ok := decode32(addr)
	if !ok {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
