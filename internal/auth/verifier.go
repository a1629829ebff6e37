// Package auth verifies that a request claiming a client identity was signed
// by that client's key.
//
// The Verifier is a seam: the server wires Ed25519Verifier in production and
// AcceptAll only when configured for insecure development mode.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrUnauthorized is returned when a signature does not verify against the
// client's public key.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks a signature over a message against a client's stored
// public key material.
type Verifier interface {
	Verify(publicKey string, message, signature []byte) error
}

// AcceptAll accepts every signature. Development only.
type AcceptAll struct{}

// Verify always succeeds.
func (AcceptAll) Verify(string, []byte, []byte) error { return nil }

// Ed25519Verifier verifies Ed25519 signatures. The stored public key may be
// either an OpenSSH authorized-key line ("ssh-ed25519 AAAA... comment") or a
// base64-encoded raw 32-byte key.
type Ed25519Verifier struct{}

// Verify checks the signature.
func (Ed25519Verifier) Verify(publicKey string, message, signature []byte) error {
	key, err := parsePublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("signature is %d bytes, want %d: %w", len(signature), ed25519.SignatureSize, ErrUnauthorized)
	}
	if !ed25519.Verify(key, message, signature) {
		return ErrUnauthorized
	}
	return nil
}

func parsePublicKey(raw string) (ed25519.PublicKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty public key")
	}

	if strings.HasPrefix(raw, "ssh-ed25519 ") {
		sshKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(raw))
		if err != nil {
			return nil, err
		}
		cryptoKey, ok := sshKey.(ssh.CryptoPublicKey)
		if !ok {
			return nil, fmt.Errorf("ssh key type %s is not usable", sshKey.Type())
		}
		edKey, ok := cryptoKey.CryptoPublicKey().(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ssh key type %s is not ed25519", sshKey.Type())
		}
		return edKey, nil
	}

	keyBytes, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("public key is neither an ssh-ed25519 line nor base64: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key is %d bytes, want %d", len(keyBytes), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}
