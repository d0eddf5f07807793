package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/todovault/internal/keys"
	"github.com/dmitrijs2005/todovault/internal/server/config"
)

// newS3Client is a seam for tests.
var newS3Client = func(ctx context.Context, o keys.S3Options) (keys.ObjectAPI, error) {
	return keys.NewS3Client(ctx, o)
}

// NewKeyStore builds the key store selected by cfg.KeyStore.
func NewKeyStore(ctx context.Context, cfg *config.Config) (keys.Store, error) {
	switch cfg.KeyStore {
	case config.KeyStoreFile:
		return keys.NewFileStore(cfg.KeyFile), nil
	case config.KeyStoreS3:
		client, err := newS3Client(ctx, keys.S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return keys.NewS3Store(client, cfg.S3Bucket, cfg.S3KeyObject), nil
	default:
		return nil, fmt.Errorf("unknown key store %q", cfg.KeyStore)
	}
}
