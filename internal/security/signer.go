// Package security provides optional cryptographic signing of response
// payloads, so downstream consumers can verify a snapshot was produced by
// this engine and not altered in transit.
package security

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Signer signs payload bytes with a secp256k1 key. When no key is supplied
// an ephemeral one is generated at startup; consumers read the public key
// from the response headers.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	publicKey  string
}

// NewSigner creates a signer from a hex-encoded private key, or generates an
// ephemeral key when keyHex is empty.
func NewSigner(keyHex string) (*Signer, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)
	if keyHex == "" {
		key, err = crypto.GenerateKey()
	} else {
		key, err = crypto.HexToECDSA(keyHex)
	}
	if err != nil {
		return nil, fmt.Errorf("loading signing key: %w", err)
	}

	publicKey := hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey))
	logrus.WithField("public_key", publicKey[:16]+"...").Info("Response signing enabled")

	return &Signer{privateKey: key, publicKey: publicKey}, nil
}

// PublicKey returns the hex-encoded uncompressed public key.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// Sign hashes the payload with Keccak256 and returns the base64 signature.
func (s *Signer) Sign(payload []byte) (string, error) {
	hash := crypto.Keccak256(payload)
	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64 signature against the payload and this signer's
// public key.
func (s *Signer) Verify(payload []byte, signature string) bool {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) < 64 {
		return false
	}
	hash := crypto.Keccak256(payload)
	// crypto.Sign appends a recovery id byte; VerifySignature wants the
	// bare 64-byte signature.
	return crypto.VerifySignature(crypto.CompressPubkey(&s.privateKey.PublicKey), hash, sig[:64])
}
