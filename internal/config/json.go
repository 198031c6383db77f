package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/skydrive/internal/flagx"
	"github.com/dmitrijs2005/skydrive/internal/timex"
)

// JsonConfig is the on-disk shape of a configuration file. Durations use
// timex.Duration so both "1s" strings and integer nanoseconds are accepted.
// Fields left out of the file keep the values already in Config.
type JsonConfig struct {
	DatabaseDSN                 string         `json:"database_dsn"`
	LocalDBPath                 string         `json:"local_db_path"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	PublicBaseURL               string         `json:"public_base_url"`
	ResumableEndpoint           string         `json:"resumable_endpoint"`
	ServiceKey                  string         `json:"service_key"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	SiteOrigin                  string         `json:"site_origin"`
	HTTPAddr                    string         `json:"http_addr"`
	RedisAddr                   string         `json:"redis_addr"`
	UserID                      string         `json:"user_id"`
	UserEmail                   string         `json:"user_email"`
	LogLevel                    string         `json:"log_level"`

	ResumableThreshold int64          `json:"resumable_threshold"`
	ChunkSize          int64          `json:"chunk_size"`
	StorageQuota       int64          `json:"storage_quota"`
	StandardTimeout    timex.Duration `json:"standard_timeout"`
	ProgressTick       timex.Duration `json:"progress_tick"`
	TaskLinger         timex.Duration `json:"task_linger"`
	SignedURLTTL       timex.Duration `json:"signed_url_ttl"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Without either flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LocalDBPath, c.LocalDBPath)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.ResumableEndpoint, c.ResumableEndpoint)
	setString(&config.ServiceKey, c.ServiceKey)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SiteOrigin, c.SiteOrigin)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.UserID, c.UserID)
	setString(&config.UserEmail, c.UserEmail)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.StandardTimeout.Duration > 0 {
		config.StandardTimeout = c.StandardTimeout.Duration
	}
	if c.ProgressTick.Duration > 0 {
		config.ProgressTick = c.ProgressTick.Duration
	}
	if c.TaskLinger.Duration > 0 {
		config.TaskLinger = c.TaskLinger.Duration
	}
	if c.SignedURLTTL.Duration > 0 {
		config.SignedURLTTL = c.SignedURLTTL.Duration
	}
	if c.ResumableThreshold > 0 {
		config.ResumableThreshold = c.ResumableThreshold
	}
	if c.ChunkSize > 0 {
		config.ChunkSize = c.ChunkSize
	}
	if c.StorageQuota > 0 {
		config.StorageQuota = c.StorageQuota
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
