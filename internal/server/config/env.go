package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "LDB"

// parseEnv overlays values from LDB_* environment variables, e.g.
// LDB_DATABASE_DSN or LDB_LOCKOUT_WINDOW=30m. Unset variables leave the
// field alone. Malformed values panic, same as malformed flags.
func parseEnv(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)

	lookup := func(key string) (string, bool) {
		_ = v.BindEnv(key)
		if !v.IsSet(key) {
			return "", false
		}
		return v.GetString(key), true
	}

	strs := map[string]*string{
		"endpoint_addr_grpc": &config.EndpointAddrGRPC,
		"endpoint_addr_http": &config.EndpointAddrHTTP,
		"database_dsn":       &config.DatabaseDSN,
		"secret_key":         &config.SecretKey,
		"master_password":    &config.MasterPassword,
		"backup_storage":     &config.BackupStorage,
		"backup_dir":         &config.BackupDir,
		"s3_root_user":       &config.S3RootUser,
		"s3_root_password":   &config.S3RootPassword,
		"s3_bucket":          &config.S3Bucket,
		"s3_region":          &config.S3Region,
		"s3_base_endpoint":   &config.S3BaseEndpoint,
		"log_backend":        &config.LogBackend,
		"log_level":          &config.LogLevel,
		"log_format":         &config.LogFormat,
	}
	for key, dst := range strs {
		if s, ok := lookup(key); ok {
			*dst = s
		}
	}

	durations := map[string]*time.Duration{
		"session_token_validity_duration": &config.SessionTokenValidityDuration,
		"master_token_validity_duration":  &config.MasterTokenValidityDuration,
		"lockout_window":                  &config.LockoutWindow,
		"attempt_retention":               &config.AttemptRetention,
		"sweep_interval":                  &config.SweepInterval,
		"cache_ttl":                       &config.CacheTTL,
		"remote_timeout":                  &config.RemoteTimeout,
	}
	for key, dst := range durations {
		if s, ok := lookup(key); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				panic(fmt.Errorf("env %s_%s: %w", EnvPrefix, strings.ToUpper(key), err))
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"max_failed_attempts": &config.MaxFailedAttempts,
		"cache_size":          &config.CacheSize,
	}
	for key, dst := range ints {
		if s, ok := lookup(key); ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				panic(fmt.Errorf("env %s_%s: %w", EnvPrefix, strings.ToUpper(key), err))
			}
			*dst = n
		}
	}

	if s, ok := lookup("cors_origins"); ok {
		config.CORSOrigins = splitList(s)
	}
	if s, ok := lookup("trusted_proxies"); ok {
		config.TrustedProxies = splitList(s)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
