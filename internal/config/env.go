package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/skydrive/internal/flagx"
)

const defaultEnvFile = ".env"

// Environment variables recognised by parseEnv.
const (
	EnvDatabaseDSN        = "SKYDRIVE_DATABASE_DSN"
	EnvLocalDBPath        = "SKYDRIVE_LOCAL_DB_PATH"
	EnvS3RootUser         = "SKYDRIVE_S3_ROOT_USER"
	EnvS3RootPassword     = "SKYDRIVE_S3_ROOT_PASSWORD"
	EnvS3Bucket           = "SKYDRIVE_S3_BUCKET"
	EnvS3Region           = "SKYDRIVE_S3_REGION"
	EnvS3BaseEndpoint     = "SKYDRIVE_S3_BASE_ENDPOINT"
	EnvPublicBaseURL      = "SKYDRIVE_PUBLIC_BASE_URL"
	EnvResumableEndpoint  = "SKYDRIVE_RESUMABLE_ENDPOINT"
	EnvServiceKey         = "SKYDRIVE_SERVICE_KEY"
	EnvSecretKey          = "SKYDRIVE_SECRET_KEY"
	EnvAccessTokenTTL     = "SKYDRIVE_ACCESS_TOKEN_VALIDITY_DURATION"
	EnvSiteOrigin         = "SKYDRIVE_SITE_ORIGIN"
	EnvHTTPAddr           = "SKYDRIVE_HTTP_ADDR"
	EnvRedisAddr          = "SKYDRIVE_REDIS_ADDR"
	EnvUserID             = "SKYDRIVE_USER_ID"
	EnvUserEmail          = "SKYDRIVE_USER_EMAIL"
	EnvLogLevel           = "SKYDRIVE_LOG_LEVEL"
	EnvResumableThreshold = "SKYDRIVE_RESUMABLE_THRESHOLD"
	EnvChunkSize          = "SKYDRIVE_CHUNK_SIZE"
	EnvStandardTimeout    = "SKYDRIVE_STANDARD_TIMEOUT"
)

// parseEnv overlays Config with SKYDRIVE_* environment variables.
//
// A dotenv file is loaded first: the path given with -env, or ".env" in the
// working directory. Variables already present in the environment are not
// overridden by the file. A missing default file is ignored; a missing file
// named explicitly with -env, or an unparsable value, panics.
func parseEnv(config *Config) {
	path := flagx.EnvFileFlags()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	lookupString(EnvDatabaseDSN, &config.DatabaseDSN)
	lookupString(EnvLocalDBPath, &config.LocalDBPath)
	lookupString(EnvS3RootUser, &config.S3RootUser)
	lookupString(EnvS3RootPassword, &config.S3RootPassword)
	lookupString(EnvS3Bucket, &config.S3Bucket)
	lookupString(EnvS3Region, &config.S3Region)
	lookupString(EnvS3BaseEndpoint, &config.S3BaseEndpoint)
	lookupString(EnvPublicBaseURL, &config.PublicBaseURL)
	lookupString(EnvResumableEndpoint, &config.ResumableEndpoint)
	lookupString(EnvServiceKey, &config.ServiceKey)
	lookupString(EnvSecretKey, &config.SecretKey)
	lookupString(EnvSiteOrigin, &config.SiteOrigin)
	lookupString(EnvHTTPAddr, &config.HTTPAddr)
	lookupString(EnvRedisAddr, &config.RedisAddr)
	lookupString(EnvUserID, &config.UserID)
	lookupString(EnvUserEmail, &config.UserEmail)
	lookupString(EnvLogLevel, &config.LogLevel)

	lookupDuration(EnvAccessTokenTTL, &config.AccessTokenValidityDuration)
	lookupDuration(EnvStandardTimeout, &config.StandardTimeout)

	lookupInt64(EnvResumableThreshold, &config.ResumableThreshold)
	lookupInt64(EnvChunkSize, &config.ChunkSize)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func lookupDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func lookupInt64(key string, dst *int64) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(err)
	}
	*dst = n
}
