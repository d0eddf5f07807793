package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/keys"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/config"
	"github.com/dmitrijs2005/todovault/internal/server/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreDriver = config.DriverMemory
	c.KeyFile = filepath.Join(t.TempDir(), "keys", "encryption.key")
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_GeneratesKeyAndServesCRUD(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	app, err := NewApp(ctx, c, logging.Nop())
	require.NoError(t, err)

	info, err := os.Stat(c.KeyFile)
	require.NoError(t, err)
	assert.Equal(t, int64(keys.Size), info.Size())
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	v, err := app.Service().Create(ctx, services.CreateTaskInput{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", v.Text)
	require.NoError(t, app.Close(ctx))
}

func TestNewApp_ReusesKeyAcrossRestarts(t *testing.T) {
	c := testConfig(t)
	ctx := context.Background()

	_, err := NewApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	first, err := os.ReadFile(c.KeyFile)
	require.NoError(t, err)

	_, err = NewApp(ctx, c, logging.Nop())
	require.NoError(t, err)
	second, err := os.ReadFile(c.KeyFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewApp_CorruptKeyIsFatal(t *testing.T) {
	c := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.KeyFile), 0o700))
	require.NoError(t, os.WriteFile(c.KeyFile, []byte("short"), 0o600))

	_, err := NewApp(context.Background(), c, logging.Nop())
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.Algorithm = "rot13"

	_, err := NewApp(context.Background(), c, logging.Nop())
	assert.True(t, errors.Is(err, common.ErrUnsupportedAlgorithm))
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig(t)
	app, err := NewApp(context.Background(), c, logging.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestNewKeyStore(t *testing.T) {
	c := testConfig(t)

	s, err := NewKeyStore(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, c.KeyFile, s.Location())

	orig := newS3Client
	t.Cleanup(func() { newS3Client = orig })
	var got keys.S3Options
	newS3Client = func(ctx context.Context, o keys.S3Options) (keys.ObjectAPI, error) {
		got = o
		return nil, nil
	}

	c.KeyStore = config.KeyStoreS3
	c.S3Bucket = "vault"
	c.S3KeyObject = "todovault/encryption.key"
	s, err = NewKeyStore(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "s3://vault/todovault/encryption.key", s.Location())
	assert.Equal(t, c.S3Region, got.Region)
	assert.Equal(t, c.S3RootUser, got.AccessKey)
}
