// Package ctl implements todovaultctl, the operator CLI: key lifecycle,
// one-off encrypt/decrypt of field values and the legacy plaintext migration.
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/todovault/internal/cryptox"
	"github.com/dmitrijs2005/todovault/internal/keys"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server"
	"github.com/dmitrijs2005/todovault/internal/server/config"
)

type options struct {
	configPath string
	keyStore   string
	keyFile    string
	algorithm  string
	store      string
	dsn        string
	mongoURI   string
	sqlitePath string
	verbose    bool
}

// env is what every subcommand works with, built from the persistent flags.
type env struct {
	cfg    *config.Config
	logger logging.Logger
	out    io.Writer
}

func (o *options) load(cmd *cobra.Command) (*env, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if o.configPath != "" {
		if err := cfg.ApplyJSONFile(o.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("key-store", &cfg.KeyStore, o.keyStore)
	override("key-file", &cfg.KeyFile, o.keyFile)
	override("algorithm", &cfg.Algorithm, o.algorithm)
	override("store", &cfg.StoreDriver, o.store)
	override("dsn", &cfg.DatabaseDSN, o.dsn)
	override("mongo-uri", &cfg.MongoURI, o.mongoURI)
	override("sqlite-path", &cfg.SQLitePath, o.sqlitePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "error"
	if o.verbose {
		level = "debug"
	}
	return &env{
		cfg:    cfg,
		logger: logging.NewJSONLogger(cmd.ErrOrStderr(), level),
		out:    cmd.OutOrStdout(),
	}, nil
}

func (e *env) keyManager(ctx context.Context) (*keys.Manager, error) {
	store, err := server.NewKeyStore(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	return keys.NewManager(store, e.logger), nil
}

func (e *env) cipher(ctx context.Context) (*cryptox.Cipher, *keys.Manager, error) {
	km, err := e.keyManager(ctx)
	if err != nil {
		return nil, nil, err
	}
	key, err := km.Obtain(ctx)
	if err != nil {
		return nil, nil, err
	}
	alg, err := cryptox.ParseAlgorithm(e.cfg.Algorithm)
	if err != nil {
		return nil, nil, err
	}
	c, err := cryptox.New(key, alg)
	if err != nil {
		return nil, nil, err
	}
	return c, km, nil
}

func (e *env) success(format string, args ...any) {
	fmt.Fprintln(e.out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

func (e *env) info(format string, args ...any) {
	fmt.Fprintln(e.out, color.CyanString("→")+" "+fmt.Sprintf(format, args...))
}

func (e *env) warn(format string, args ...any) {
	fmt.Fprintln(e.out, color.YellowString("!")+" "+fmt.Sprintf(format, args...))
}

// NewRootCmd builds the todovaultctl command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "todovaultctl",
		Short: "Operate the todovault encryption key and task store",
		Long: `todovaultctl manages the master key used to encrypt task fields at rest,
encrypts or decrypts single field values, and migrates legacy plaintext
records to encrypted envelopes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "JSON config file (same format as the server)")
	pf.StringVar(&o.keyStore, "key-store", "", "key store: file or s3")
	pf.StringVar(&o.keyFile, "key-file", "", "key file path")
	pf.StringVar(&o.algorithm, "algorithm", "", "cipher algorithm for new envelopes")
	pf.StringVar(&o.store, "store", "", "store driver: postgres, mongo, sqlite, memory")
	pf.StringVar(&o.dsn, "dsn", "", "PostgreSQL DSN")
	pf.StringVar(&o.mongoURI, "mongo-uri", "", "Mongo URI")
	pf.StringVar(&o.sqlitePath, "sqlite-path", "", "SQLite file")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(newKeyCmd(o), newEncryptCmd(o), newDecryptCmd(o), newMigrateCmd(o))
	return root
}
