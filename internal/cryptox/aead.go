// Package cryptox implements transparent field-level encryption: UTF-8
// strings are sealed with an AEAD under the master key and encoded as
// self-describing envelopes that carry their own algorithm id and nonce.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dmitrijs2005/todovault/internal/common"
)

// Algorithm names an AEAD construction. The name is written into every
// envelope, so existing values must never be renamed.
type Algorithm string

const (
	AES256GCM         Algorithm = "aes-256-gcm"
	XChaCha20Poly1305 Algorithm = "xchacha20-poly1305"
)

// Algorithms lists every construction this package can open.
var Algorithms = []Algorithm{AES256GCM, XChaCha20Poly1305}

// ParseAlgorithm resolves a configured algorithm name (case-insensitive).
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Algorithms {
		if alg == known {
			return alg, nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, name)
}

func newAEAD(alg Algorithm, key []byte) (cipher.AEAD, error) {
	switch alg {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case XChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, alg)
	}
}
