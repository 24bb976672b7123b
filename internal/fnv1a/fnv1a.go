// Package fnv1a implements the 64-bit FNV-1a hash, the default
// bucket-hash collaborator for /hashmap. Hash function choice is an
// out-of-scope "thin external collaborator" per spec.md §1, so this
// stays a small hand-rolled algorithm rather than a dependency — the
// same choice the teacher makes for its own StringHash/BytesHash in
// ctrie.go, just FNV-1a instead of hash/maphash.
package fnv1a

const (
	offset64 uint64 = 14695981039346656037
	prime64  uint64 = 1099511628211
)

// HashBytes returns the FNV-1a hash of b.
func HashBytes(b []byte) uint64 {
	h := offset64
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

// HashString returns the FNV-1a hash of s, byte by byte.
func HashString(s string) uint64 {
	h := offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
