// Package coursetoken maps durable course identifiers to the numeric
// token ids used by the badge contracts. The mapping is the join key
// between the relational course records and on-chain facts, so it must
// stay deterministic for the lifetime of the system. Changing either
// hash is a breaking migration and gets a new, disjoint offset range
// instead of a silent swap.
package coursetoken

// Courses that had badges minted before dynamic id derivation existed.
// These ids are burned into existing tokens; the table is closed.
var legacyTokenIDs = map[string]uint64{
	"introduccion-a-celo":        1,
	"desarrollo-con-celo":        2,
	"defi-en-celo":               3,
	"identidad-digital-en-celo":  4,
}

const (
	// Dynamic ids derived from database ids live in [100, 1000100).
	dbIDOffset = 100
	// Slug-derived fallback ids live in [1000, 1001000).
	slugOffset = 1000

	idRange = 1_000_000

	// Database ids are long; the last characters carry enough entropy
	// and keep the hash input fixed-length.
	dbIDSuffixLen = 8
)

// TokenID resolves the on-chain token id for a course. The legacy table
// wins over everything, then a database-id derivation, then a slug-hash
// fallback. Each branch writes into its own disjoint range.
func TokenID(slug, dbID string) uint64 {
	if id, ok := legacyTokenIDs[slug]; ok {
		return id
	}
	if dbID != "" {
		return FromDatabaseID(dbID)
	}
	return FromSlug(slug)
}

// IsLegacy reports whether the slug has a hand-assigned historical id.
func IsLegacy(slug string) bool {
	_, ok := legacyTokenIDs[slug]
	return ok
}

// FromDatabaseID derives a token id from the tail of a course database
// id with a 31-multiplier rolling hash, reduced into the db-id range.
func FromDatabaseID(dbID string) uint64 {
	suffix := dbID
	if len(suffix) > dbIDSuffixLen {
		suffix = suffix[len(suffix)-dbIDSuffixLen:]
	}
	var h int32
	for _, c := range []byte(suffix) {
		h = h*31 + int32(c)
	}
	return uint64(abs32(h)%idRange) + dbIDOffset
}

// FromSlug derives a token id from the slug itself using the shift-add
// rolling hash the first deployment shipped with. Kept bit-for-bit:
// ids produced by it are already on chain.
func FromSlug(slug string) uint64 {
	var h int32
	for _, c := range []byte(slug) {
		h = (h << 5) - h + int32(c)
	}
	return uint64(abs32(h)%idRange) + slugOffset
}

func abs32(v int32) int64 {
	// int64 widening handles math.MinInt32 cleanly.
	n := int64(v)
	if n < 0 {
		return -n
	}
	return n
}
