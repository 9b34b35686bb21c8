package wallet

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignPersonalMessage signs message the way personal_sign does and returns
// the 0x-prefixed r || s || v signature. Used by tests and local tooling.
func SignPersonalMessage(key *secp256k1.PrivateKey, message string) string {
	compact := ecdsa.SignCompact(key, HashPersonalMessage(message), false)

	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0] // 27 + recid
	return "0x" + hex.EncodeToString(sig)
}

// NewTestKey returns a fresh private key and its address.
func NewTestKey() (*secp256k1.PrivateKey, string) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	return key, PubkeyToAddress(key.PubKey())
}
