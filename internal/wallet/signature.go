package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const (
	// PersonalMessagePrefix is the EIP-191 prefix used by personal_sign.
	PersonalMessagePrefix = "\x19Ethereum Signed Message:\n"

	SignatureLength = 65
)

// Verifier checks personal_sign signatures produced by EVM wallets.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify reports whether signature was produced over message by claimedAddress.
// Malformed input yields false.
func (v *Verifier) Verify(message, signature, claimedAddress string) bool {
	addr, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}
	return strings.EqualFold(addr, strings.TrimSpace(claimedAddress))
}

// RecoverAddress returns the lowercase address that signed message.
//
// The signature is the 65-byte r || s || v value returned by wallets, hex
// encoded with or without the 0x prefix. v may be 0/1 or 27/28.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := decodeHex(signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sig) != SignatureLength {
		return "", fmt.Errorf("invalid signature size: %d", len(sig))
	}

	recID := sig[64]
	if recID >= 27 {
		recID -= 27
	}
	if recID > 1 {
		return "", fmt.Errorf("invalid recovery id: %d", sig[64])
	}

	// decred compact format: header byte (27 + recid for uncompressed keys) || r || s
	compact := make([]byte, SignatureLength)
	compact[0] = 27 + recID
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, HashPersonalMessage(message))
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}
	return PubkeyToAddress(pub), nil
}

// HashPersonalMessage returns keccak256(prefix || len(message) || message).
func HashPersonalMessage(message string) []byte {
	return keccak256([]byte(fmt.Sprintf("%s%d%s", PersonalMessagePrefix, len(message), message)))
}

// PubkeyToAddress derives the lowercase EVM address for a public key.
func PubkeyToAddress(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	hash := keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(hash[12:])
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
