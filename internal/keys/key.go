// Package keys owns the service's single symmetric master key: where it is
// persisted, how it is generated on first use, and how it is handed to the
// field cipher. Raw key bytes never leave this package except through
// (*Key).Material, which only the cipher calls.
package keys

import (
	"fmt"
	"log/slog"

	"github.com/dmitrijs2005/todovault/internal/common"
)

// Size is the master key length in bytes (256 bits).
const Size = 32

const redacted = "[REDACTED]"

// Key is an immutable 256-bit secret.
type Key struct {
	material [Size]byte
}

// NewKey copies b into a Key. b must be exactly Size bytes long.
func NewKey(b []byte) (*Key, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: expected %d key bytes, got %d", common.ErrKeyUnavailable, Size, len(b))
	}
	k := &Key{}
	copy(k.material[:], b)
	return k, nil
}

// Generate returns a fresh key read from the system CSPRNG.
func Generate() (*Key, error) {
	b, err := common.GenerateRandBytes(Size)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	defer common.WipeByteArray(b)
	return NewKey(b)
}

// Material returns a copy of the key bytes. Callers should wipe the copy
// once the cipher has been constructed.
func (k *Key) Material() []byte {
	out := make([]byte, Size)
	copy(out, k.material[:])
	return out
}

func (k *Key) String() string   { return redacted }
func (k *Key) GoString() string { return redacted }

// LogValue keeps the key out of structured logs.
func (k *Key) LogValue() slog.Value { return slog.StringValue(redacted) }
