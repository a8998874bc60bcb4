package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ldbvault/internal/flagx"
	"github.com/dmitrijs2005/ldbvault/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Duration fields accept strings
// such as "15m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	MasterPassword               string         `json:"master_password"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	MasterTokenValidityDuration  timex.Duration `json:"master_token_validity_duration"`
	MaxFailedAttempts            int            `json:"max_failed_attempts"`
	LockoutWindow                timex.Duration `json:"lockout_window"`
	AttemptRetention             timex.Duration `json:"attempt_retention"`
	SweepInterval                timex.Duration `json:"sweep_interval"`
	CacheTTL                     timex.Duration `json:"cache_ttl"`
	CacheSize                    int            `json:"cache_size"`
	RemoteTimeout                timex.Duration `json:"remote_timeout"`
	BackupStorage                string         `json:"backup_storage"`
	BackupDir                    string         `json:"backup_dir"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	LogBackend                   string         `json:"log_backend"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
	CORSOrigins                  []string       `json:"cors_origins"`
	TrustedProxies               []string       `json:"trusted_proxies"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		EndpointAddrHTTP:             c.EndpointAddrHTTP,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		MasterPassword:               c.MasterPassword,
		SessionTokenValidityDuration: timex.Duration{Duration: c.SessionTokenValidityDuration},
		MasterTokenValidityDuration:  timex.Duration{Duration: c.MasterTokenValidityDuration},
		MaxFailedAttempts:            c.MaxFailedAttempts,
		LockoutWindow:                timex.Duration{Duration: c.LockoutWindow},
		AttemptRetention:             timex.Duration{Duration: c.AttemptRetention},
		SweepInterval:                timex.Duration{Duration: c.SweepInterval},
		CacheTTL:                     timex.Duration{Duration: c.CacheTTL},
		CacheSize:                    c.CacheSize,
		RemoteTimeout:                timex.Duration{Duration: c.RemoteTimeout},
		BackupStorage:                c.BackupStorage,
		BackupDir:                    c.BackupDir,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
		LogBackend:                   c.LogBackend,
		LogLevel:                     c.LogLevel,
		LogFormat:                    c.LogFormat,
		CORSOrigins:                  c.CORSOrigins,
		TrustedProxies:               c.TrustedProxies,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.MasterPassword = j.MasterPassword
	c.SessionTokenValidityDuration = j.SessionTokenValidityDuration.Duration
	c.MasterTokenValidityDuration = j.MasterTokenValidityDuration.Duration
	c.MaxFailedAttempts = j.MaxFailedAttempts
	c.LockoutWindow = j.LockoutWindow.Duration
	c.AttemptRetention = j.AttemptRetention.Duration
	c.SweepInterval = j.SweepInterval.Duration
	c.CacheTTL = j.CacheTTL.Duration
	c.CacheSize = j.CacheSize
	c.RemoteTimeout = j.RemoteTimeout.Duration
	c.BackupStorage = j.BackupStorage
	c.BackupDir = j.BackupDir
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.LogBackend = j.LogBackend
	c.LogLevel = j.LogLevel
	c.LogFormat = j.LogFormat
	c.CORSOrigins = j.CORSOrigins
	c.TrustedProxies = j.TrustedProxies
}

// parseJson overlays values from the JSON file named by -c, -config or --config.
// Keys absent from the file keep their current values. An unreadable file
// or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	c.apply(config)
}
