package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, empty for the in-memory store
//	-s string   token signing secret
//	-m string   master password
//	-t int      session token validity, minutes
//	-n int      failed attempts before lockout
//	-l int      lockout window, minutes
//	-o string   backup storage (dir|s3)
//	-f string   backup directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-v string   log level
//	-r string   trusted proxies, comma separated IPs or CIDRs
//
// os.Args is filtered with flagx.FilterArgs first so unrelated flags such as
// -c do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-w", "-d", "-s", "-m", "-t", "-n", "-l", "-o", "-f", "-u", "-p", "-b", "-g", "-e", "-v", "-r",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.MasterPassword, "m", config.MasterPassword, "master password")

	sessionValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	fs.IntVar(&config.MaxFailedAttempts, "n", config.MaxFailedAttempts, "failed attempts before lockout")
	lockoutWindow := fs.Int("l", int(config.LockoutWindow.Minutes()), "lockout window (in minutes)")

	fs.StringVar(&config.BackupStorage, "o", config.BackupStorage, "backup storage (dir|s3)")
	fs.StringVar(&config.BackupDir, "f", config.BackupDir, "backup directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	proxies := fs.String("r", strings.Join(config.TrustedProxies, ","), "trusted proxies (comma separated)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTokenValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.LockoutWindow = time.Duration(*lockoutWindow) * time.Minute
	config.TrustedProxies = splitList(*proxies)
}
