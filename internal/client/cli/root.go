// Package cli implements the ldbctl command tree.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/client"
	"github.com/dmitrijs2005/ldbvault/internal/client/prompt"
	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by ldbctl,
// e.g. LDBCTL_ADDR or LDBCTL_MASTER_TOKEN.
const EnvPrefix = "LDBCTL"

// vaultClient is the subset of client.Client used by the commands.
type vaultClient interface {
	ListServers(ctx context.Context) ([]client.Server, error)
	Authenticate(ctx context.Context, serverID int64, password string) (*client.Session, error)
	VerifySession(ctx context.Context) (*client.Session, error)
	CheckServer(ctx context.Context) error
	IssueMasterToken(ctx context.Context, password string) (string, time.Time, error)
	RegisterServer(ctx context.Context, name, host, password, apiKey string) (*client.Server, error)
	UpdateServerCredentials(ctx context.Context, serverID int64, password, apiKey string) error
	DeleteServer(ctx context.Context, serverID int64) error
	ExportBackup(ctx context.Context) (string, int, error)
	ImportBackup(ctx context.Context, key string) ([]string, []string, error)
	SetSessionToken(token string)
	SetMasterToken(token string)
	Close() error
}

var newClient = func(addr string) (vaultClient, error) {
	return client.New(addr)
}

// Terminal password prompts, replaced in tests.
var (
	askPassword    = prompt.Password
	askNewPassword = prompt.NewPassword
)

type app struct {
	v      *viper.Viper
	in     *bufio.Reader
	out    io.Writer
	client vaultClient
}

// NewRootCmd builds ldbctl. in and out replace stdin and stdout for
// non-password prompts and results.
func NewRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "ldbctl",
		Short:         "Manage LoRaDB servers stored in ldbvault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("addr", "localhost:50051", "vault gRPC address")
	pf.String("token", "", "session token")
	pf.String("master-token", "", "master token for admin commands")
	pf.Duration("timeout", 30*time.Second, "request timeout")

	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.hashPasswordCmd(),
		a.loginCmd(),
		a.sessionCmd(),
		a.checkCmd(),
		a.masterTokenCmd(),
		a.serversCmd(),
		a.backupCmd(),
	)
	return root
}

// connect dials the vault and applies tokens from flags or environment.
func (a *app) connect(cmd *cobra.Command, args []string) error {
	c, err := newClient(a.v.GetString("addr"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.SetSessionToken(a.v.GetString("token"))
	c.SetMasterToken(a.v.GetString("master-token"))
	a.client = c
	return nil
}

func (a *app) disconnect(cmd *cobra.Command, args []string) error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.v.GetDuration("timeout"))
}

// describe rewrites errors into messages fit for a terminal.
func describe(err error) error {
	var (
		locked *common.LockedError
		creds  *common.CredentialsError
		valid  *common.ValidationError
	)
	switch {
	case errors.As(err, &locked):
		return fmt.Errorf("too many failed attempts, try again in %d minute(s)", locked.MinutesRemaining)
	case errors.As(err, &creds):
		return fmt.Errorf("wrong password, %d attempt(s) left", creds.AttemptsRemaining)
	case errors.As(err, &valid):
		return fmt.Errorf("invalid %s: %s", valid.Field, valid.Reason)
	case errors.Is(err, common.ErrTokenExpired):
		return errors.New("token expired, log in again")
	case errors.Is(err, client.ErrUnavailable):
		return errors.New("vault server unavailable")
	}
	return err
}
