package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_StringAndParse(t *testing.T) {
	env := Envelope{Algorithm: AES256GCM, Payload: []byte{0, 1, 2, 250, 251, 252}}

	s := env.String()
	assert.Equal(t, "enc:v1:aes-256-gcm:AAEC+vv8", s)

	parsed, recognized, err := ParseEnvelope(s)
	require.NoError(t, err)
	assert.True(t, recognized)
	assert.Equal(t, env, parsed)
}

func TestParseEnvelope_Legacy(t *testing.T) {
	_, recognized, err := ParseEnvelope("just a todo")
	assert.NoError(t, err)
	assert.False(t, recognized)
}

func TestParseEnvelope_Malformed(t *testing.T) {
	for _, s := range []string{"enc:v1:", "enc:v1::AAAA", "enc:v1:aes-256-gcm", "enc:v1:aes-256-gcm:%%%"} {
		_, recognized, err := ParseEnvelope(s)
		assert.True(t, recognized, s)
		assert.Error(t, err, s)
	}
}
