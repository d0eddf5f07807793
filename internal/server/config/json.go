package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/todovault/internal/flagx"
	"github.com/dmitrijs2005/todovault/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration so
// both "5s" and integer nanoseconds are accepted. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	StoreDriver      string         `json:"store_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	MongoURI         string         `json:"mongo_uri"`
	MongoDatabase    string         `json:"mongo_database"`
	SQLitePath       string         `json:"sqlite_path"`
	KeyStore         string         `json:"key_store"`
	KeyFile          string         `json:"key_file"`
	Algorithm        string         `json:"algorithm"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
	AllowedOrigins   []string       `json:"allowed_origins"`
	LogLevel         string         `json:"log_level"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	S3KeyObject      string         `json:"s3_key_object"`
}

// ApplyJSONFile overlays the settings found in the JSON file at path.
func (c *Config) ApplyJSONFile(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	j := &JsonConfig{}
	if err := json.Unmarshal(file, j); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.EndpointAddrHTTP, j.EndpointAddrHTTP)
	setString(&c.EndpointAddrGRPC, j.EndpointAddrGRPC)
	setString(&c.StoreDriver, j.StoreDriver)
	setString(&c.DatabaseDSN, j.DatabaseDSN)
	setString(&c.MongoURI, j.MongoURI)
	setString(&c.MongoDatabase, j.MongoDatabase)
	setString(&c.SQLitePath, j.SQLitePath)
	setString(&c.KeyStore, j.KeyStore)
	setString(&c.KeyFile, j.KeyFile)
	setString(&c.Algorithm, j.Algorithm)
	setString(&c.LogLevel, j.LogLevel)
	setString(&c.S3RootUser, j.S3RootUser)
	setString(&c.S3RootPassword, j.S3RootPassword)
	setString(&c.S3Bucket, j.S3Bucket)
	setString(&c.S3Region, j.S3Region)
	setString(&c.S3BaseEndpoint, j.S3BaseEndpoint)
	setString(&c.S3KeyObject, j.S3KeyObject)
	if j.RequestTimeout.Duration > 0 {
		c.RequestTimeout = j.RequestTimeout.Duration
	}
	if j.ShutdownTimeout.Duration > 0 {
		c.ShutdownTimeout = j.ShutdownTimeout.Duration
	}
	if j.AllowedOrigins != nil {
		c.AllowedOrigins = j.AllowedOrigins
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson loads the file named by -c or -config, if any. An unreadable
// file or invalid JSON panics, the same as a bad flag.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}
	if err := config.ApplyJSONFile(path); err != nil {
		panic(err)
	}
}
