package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte account reference. The zero value is the zero
// address.
type Address [20]byte

// ParseAddress accepts 0x-prefixed hex, case-insensitive. Mixed-case
// input is additionally verified against its EIP-55 checksum so a
// mangled config value fails at startup instead of producing wrong
// reads forever.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return a, fmt.Errorf("address %q missing 0x prefix", s)
	}
	body := s[2:]
	if len(body) != 40 {
		return a, fmt.Errorf("address %q has length %d, want 42", s, len(s))
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return a, fmt.Errorf("address %q is not hex: %w", s, err)
	}
	copy(a[:], raw)

	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if s[2:] != checksumBody(a) {
			return a, fmt.Errorf("address %q fails EIP-55 checksum", s)
		}
	}
	return a, nil
}

// MustParseAddress is for fixed, known-good addresses.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the EIP-55 checksummed form.
func (a Address) String() string {
	return "0x" + checksumBody(a)
}

// Hex renders the all-lowercase form used for cache keys and database
// columns.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func checksumBody(a Address) string {
	lower := hex.EncodeToString(a[:])
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
