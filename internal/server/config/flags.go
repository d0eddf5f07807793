package config

import (
	"flag"
	"strings"
	"time"

	"github.com/dmitrijs2005/todovault/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-s", "-d", "-m", "-n", "-l", "-k", "-f", "-x", "-t", "-o", "-v", "-u", "-p", "-b", "-r", "-e", "-j"}

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5001")
//	-g string   gRPC health bind address
//	-s string   store driver: postgres, mongo, sqlite, memory
//	-d string   PostgreSQL DSN
//	-m string   Mongo URI
//	-n string   Mongo database
//	-l string   SQLite file
//	-k string   key store: file, s3
//	-f string   key file path
//	-x string   cipher algorithm for new envelopes
//	-t int      request timeout, seconds
//	-o string   comma-separated CORS origins
//	-v string   log level
//	-u -p -b -r -e -j   S3 user, password, bucket, region, endpoint, key object
//
// Arguments the server does not own (such as -c) are dropped by
// flagx.FilterArgs before parsing.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.StoreDriver, "s", config.StoreDriver, "store driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "Mongo URI")
	fs.StringVar(&config.MongoDatabase, "n", config.MongoDatabase, "Mongo database")
	fs.StringVar(&config.SQLitePath, "l", config.SQLitePath, "SQLite file")
	fs.StringVar(&config.KeyStore, "k", config.KeyStore, "key store")
	fs.StringVar(&config.KeyFile, "f", config.KeyFile, "key file")
	fs.StringVar(&config.Algorithm, "x", config.Algorithm, "cipher algorithm")
	timeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3KeyObject, "j", config.S3KeyObject, "S3 object holding the key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*timeout) * time.Second
	config.AllowedOrigins = flagx.SplitList(*origins)
}
