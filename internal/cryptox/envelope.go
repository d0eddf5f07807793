package cryptox

import (
	"encoding/base64"
	"errors"
	"strings"
)

// EnvelopePrefix marks a stored value as an encrypted envelope. Values
// without it are legacy plaintext.
const EnvelopePrefix = "enc:v1:"

var errMalformedEnvelope = errors.New("malformed envelope")

// Envelope is the decoded form of
//
//	enc:v1:<algorithm>:<base64(nonce || ciphertext || tag)>
type Envelope struct {
	Algorithm Algorithm
	Payload   []byte
}

func (e Envelope) String() string {
	return EnvelopePrefix + string(e.Algorithm) + ":" + base64.StdEncoding.EncodeToString(e.Payload)
}

// IsEnvelope reports whether value carries the envelope prefix.
func IsEnvelope(value string) bool {
	return strings.HasPrefix(value, EnvelopePrefix)
}

// ParseEnvelope decodes value. recognized is false for legacy plaintext, in
// which case err is always nil. A recognized value that cannot be decoded
// yields recognized=true and a non-nil error.
func ParseEnvelope(value string) (env Envelope, recognized bool, err error) {
	if !IsEnvelope(value) {
		return Envelope{}, false, nil
	}

	alg, data, ok := strings.Cut(strings.TrimPrefix(value, EnvelopePrefix), ":")
	if !ok || alg == "" || data == "" {
		return Envelope{}, true, errMalformedEnvelope
	}

	payload, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Envelope{}, true, errors.Join(errMalformedEnvelope, err)
	}

	return Envelope{Algorithm: Algorithm(alg), Payload: payload}, true, nil
}
