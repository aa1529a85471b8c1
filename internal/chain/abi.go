package chain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// Minimal ABI plumbing for the two badge contracts. Both ABIs are tiny
// and fixed (static types only), so hand-rolled packing beats pulling
// in a full ABI codec.

type word [32]byte

func selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var sel [4]byte
	copy(sel[:], h.Sum(nil)[:4])
	return sel
}

func addressWord(a Address) word {
	var w word
	copy(w[12:], a[:])
	return w
}

func uintWord(v uint64) word {
	var w word
	binary.BigEndian.PutUint64(w[24:], v)
	return w
}

// calldata is selector || packed 32-byte words. uint8 arguments pack
// into a full word like any other static type; only the signature
// string differs.
func calldata(signature string, args ...word) []byte {
	sel := selector(signature)
	out := make([]byte, 0, 4+32*len(args))
	out = append(out, sel[:]...)
	for _, w := range args {
		out = append(out, w[:]...)
	}
	return out
}

func decodeBool(ret []byte) (bool, error) {
	if len(ret) < 32 {
		return false, fmt.Errorf("bool return too short: %d bytes", len(ret))
	}
	for _, b := range ret[:31] {
		if b != 0 {
			return false, fmt.Errorf("malformed bool return")
		}
	}
	switch ret[31] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("malformed bool return byte %#x", ret[31])
	}
}

func decodeUint64(ret []byte) (uint64, error) {
	if len(ret) < 32 {
		return 0, fmt.Errorf("uint return too short: %d bytes", len(ret))
	}
	v := new(big.Int).SetBytes(ret[:32])
	if !v.IsUint64() {
		return 0, fmt.Errorf("uint return overflows uint64")
	}
	return v.Uint64(), nil
}
