package keys

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
)

func TestNewKey_Length(t *testing.T) {
	_, err := NewKey(make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))

	k, err := NewKey(bytes.Repeat([]byte{7}, Size))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{7}, Size), k.Material())
}

func TestKey_MaterialIsACopy(t *testing.T) {
	k, err := Generate()
	require.NoError(t, err)

	m := k.Material()
	original := append([]byte(nil), m...)
	common.WipeByteArray(m)

	assert.Equal(t, original, k.Material())
}

func TestGenerate_Distinct(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a.Material(), b.Material())
}

func TestKey_Redacted(t *testing.T) {
	k, err := Generate()
	require.NoError(t, err)

	assert.Equal(t, "[REDACTED]", k.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", k))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", k))
	assert.Equal(t, "[REDACTED]", k.LogValue().String())
}
