package consensus

// This file implements only the one script template the spec requires
// identifying (spec.md §1: "the script-execution interpreter beyond
// what is needed to identify standard pay-to-address inputs and
// outputs"). There is no general opcode evaluator here.

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	opPushData20  = 0x14 // direct push of the next 20 bytes
)

// PayToAddressScript builds the standard output script paying the
// given 20-byte address hash:
// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG
func PayToAddressScript(hash160 [20]byte) []byte {
	out := make([]byte, 0, 25)
	out = append(out, opDup, opHash160, opPushData20)
	out = append(out, hash160[:]...)
	out = append(out, opEqualVerify, opCheckSig)
	return out
}

// ExtractPayToAddress recognizes a PayToAddressScript and returns the
// embedded address hash.
func ExtractPayToAddress(script []byte) (hash160 [20]byte, ok bool) {
	if len(script) != 25 {
		return hash160, false
	}
	if script[0] != opDup || script[1] != opHash160 || script[2] != opPushData20 {
		return hash160, false
	}
	if script[23] != opEqualVerify || script[24] != opCheckSig {
		return hash160, false
	}
	copy(hash160[:], script[3:23])
	return hash160, true
}

// SignatureScript builds the standard input script: <sig||sighash-type> <pubkey>.
func SignatureScript(derSig []byte, sighashType uint32, pubKey []byte) []byte {
	sigWithType := make([]byte, 0, len(derSig)+1)
	sigWithType = append(sigWithType, derSig...)
	sigWithType = append(sigWithType, byte(sighashType))

	out := make([]byte, 0, 1+len(sigWithType)+1+len(pubKey))
	out = appendPush(out, sigWithType)
	out = appendPush(out, pubKey)
	return out
}

// ExtractSignatureScript parses a SignatureScript back into its two
// pushes (signature-with-type, public key).
func ExtractSignatureScript(script []byte) (sigWithType, pubKey []byte, ok bool) {
	sigWithType, rest, ok := readPush(script)
	if !ok {
		return nil, nil, false
	}
	pubKey, rest, ok = readPush(rest)
	if !ok || len(rest) != 0 {
		return nil, nil, false
	}
	return sigWithType, pubKey, true
}

func appendPush(buf, data []byte) []byte {
	if len(data) >= 0x4c {
		// Outside the scope of the single pay-to-address template;
		// callers never hand this more than a DER sig or a pubkey.
		panic("consensus: push data too large for direct-push encoding")
	}
	buf = append(buf, byte(len(data)))
	return append(buf, data...)
}

func readPush(script []byte) (data, rest []byte, ok bool) {
	if len(script) < 1 {
		return nil, nil, false
	}
	n := int(script[0])
	if n >= 0x4c || len(script)-1 < n {
		return nil, nil, false
	}
	return script[1 : 1+n], script[1+n:], true
}
