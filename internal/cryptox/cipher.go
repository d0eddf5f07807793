package cryptox

import (
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/keys"
)

// Kind tells how Open interpreted a stored value.
type Kind int

const (
	// KindLegacy is a value stored before encryption was enabled; it is
	// returned unchanged.
	KindLegacy Kind = iota + 1
	// KindEnvelope is an encrypted envelope that authenticated successfully.
	KindEnvelope
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Opened is the tagged result of Open.
type Opened struct {
	Kind      Kind
	Plaintext string
}

// Cipher seals values with its active algorithm and opens envelopes written
// under any supported algorithm. It holds no mutable state and is safe for
// concurrent use.
type Cipher struct {
	active Algorithm
	aeads  map[Algorithm]cipher.AEAD
}

// New builds a Cipher from the master key. alg selects the algorithm used
// for new envelopes.
func New(key *keys.Key, alg Algorithm) (*Cipher, error) {
	material := key.Material()
	defer common.WipeByteArray(material)

	c := &Cipher{active: alg, aeads: make(map[Algorithm]cipher.AEAD, len(Algorithms))}
	for _, a := range Algorithms {
		aead, err := newAEAD(a, material)
		if err != nil {
			return nil, fmt.Errorf("init %s: %w", a, err)
		}
		c.aeads[a] = aead
	}

	if _, ok := c.aeads[alg]; !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, alg)
	}
	return c, nil
}

func (c *Cipher) Algorithm() Algorithm {
	return c.active
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// envelope string. Two calls with the same input never return the same
// envelope.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead := c.aeads[c.active]

	nonce, err := common.GenerateRandBytes(aead.NonceSize())
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Envelope{Algorithm: c.active, Payload: sealed}.String(), nil
}

// EncryptOptional encrypts *plaintext, passing nil through so that absent
// optional fields stay absent.
func (c *Cipher) EncryptOptional(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := c.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Open decodes a stored value. Values without the envelope prefix come back
// unchanged as KindLegacy. Envelopes that fail to parse or authenticate
// return an error wrapping common.ErrDecryptionFailed; no plaintext is ever
// guessed in that case.
func (c *Cipher) Open(value string) (Opened, error) {
	env, recognized, err := ParseEnvelope(value)
	if !recognized {
		return Opened{Kind: KindLegacy, Plaintext: value}, nil
	}
	if err != nil {
		return Opened{}, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}

	aead, ok := c.aeads[env.Algorithm]
	if !ok {
		return Opened{}, fmt.Errorf("%w: %w: %q", common.ErrDecryptionFailed, common.ErrUnsupportedAlgorithm, env.Algorithm)
	}

	ns := aead.NonceSize()
	if len(env.Payload) < ns+aead.Overhead() {
		return Opened{}, fmt.Errorf("%w: %w: payload too short", common.ErrDecryptionFailed, errMalformedEnvelope)
	}

	plaintext, err := aead.Open(nil, env.Payload[:ns], env.Payload[ns:], nil)
	if err != nil {
		return Opened{}, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}

	return Opened{Kind: KindEnvelope, Plaintext: string(plaintext)}, nil
}

// Decrypt is Open without the tag.
func (c *Cipher) Decrypt(value string) (string, error) {
	o, err := c.Open(value)
	if err != nil {
		return "", err
	}
	return o.Plaintext, nil
}

// DecryptOptional is Decrypt with nil pass-through.
func (c *Cipher) DecryptOptional(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	out, err := c.Decrypt(*value)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SelfTestReport is the outcome of a round trip through the cipher.
type SelfTestReport struct {
	Original  string
	Encrypted string
	Decrypted string
	Success   bool
}

// SelfTest encrypts text, decrypts the result and reports whether the
// round trip preserved it.
func (c *Cipher) SelfTest(text string) (*SelfTestReport, error) {
	encrypted, err := c.Encrypt(text)
	if err != nil {
		return nil, err
	}
	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		return nil, err
	}
	return &SelfTestReport{
		Original:  text,
		Encrypted: encrypted,
		Decrypted: decrypted,
		Success:   decrypted == text,
	}, nil
}
