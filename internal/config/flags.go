package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-l string   local fingerprint database path
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-r string   resumable upload endpoint
//	-k string   service key for resumable uploads
//	-s string   token signing secret
//	-t int      access token validity, seconds
//	-o string   site origin used in share links
//	-a string   HTTP bind address (empty disables)
//	-m string   Redis address for the signed URL cache
//	-i string   user id
//	-v string   log level
//
// os.Args is filtered with flagx.FilterArgs first so -c/-config and -env
// handled elsewhere do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-d", "-l", "-u", "-p", "-b", "-g", "-e", "-r", "-k", "-s", "-t", "-o", "-a", "-m", "-i", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LocalDBPath, "l", config.LocalDBPath, "local fingerprint database path")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.ResumableEndpoint, "r", config.ResumableEndpoint, "resumable upload endpoint")
	fs.StringVar(&config.ServiceKey, "k", config.ServiceKey, "service key")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access token validity (in seconds)")

	fs.StringVar(&config.SiteOrigin, "o", config.SiteOrigin, "site origin")
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP bind address")
	fs.StringVar(&config.RedisAddr, "m", config.RedisAddr, "redis address")
	fs.StringVar(&config.UserID, "i", config.UserID, "user id")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Second
}
