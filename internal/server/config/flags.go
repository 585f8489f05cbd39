package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/remotefiles/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-m int      max upload size, MB
//	-r string   remote storage backend (S3, MinIO, Memory)
//	-x string   global key prefix
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-u string   S3 access key
//	-p string   S3 secret key
//
// Only these flags are read from args; the rest are left to other parsers.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-m", "-r", "-x", "-b", "-g", "-e", "-u", "-p"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	fs.Int64Var(&config.MaxUploadMB, "m", config.MaxUploadMB, "max upload size (in MB)")

	fs.StringVar(&config.RemoteStorage, "r", config.RemoteStorage, "remote storage backend")
	fs.StringVar(&config.GlobalPrefix, "x", config.GlobalPrefix, "global key prefix")
	fs.StringVar(&config.S3.Bucket, "b", config.S3.Bucket, "S3 bucket")
	fs.StringVar(&config.S3.Region, "g", config.S3.Region, "S3 region")
	fs.StringVar(&config.S3.BaseEndpoint, "e", config.S3.BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3.AccessKey, "u", config.S3.AccessKey, "S3 access key")
	fs.StringVar(&config.S3.SecretKey, "p", config.S3.SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
	return nil
}
