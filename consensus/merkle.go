package consensus

// MerkleRoot computes the Merkle root over txids using pairwise
// double-SHA-256, duplicating the last element at each odd-length level
// (grounded on the teacher's merkleRootTagged pairwise-reduction shape
// in consensus/merkle.go, minus its domain-separation tags — the wire
// protocol this spec targets hashes raw concatenated txids).
func MerkleRoot(txids []Hash) Hash {
	if len(txids) == 0 {
		return ZeroHash
	}
	level := make([]Hash, len(txids))
	copy(level, txids)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, 0, len(level)/2)
		var buf [64]byte
		for i := 0; i < len(level); i += 2 {
			copy(buf[:32], level[i][:])
			copy(buf[32:], level[i+1][:])
			next = append(next, DoubleSHA256(buf[:]))
		}
		level = next
	}
	return level[0]
}
