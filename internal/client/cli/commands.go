package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/client/prompt"
	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid server id %q", s)
	}
	return id, nil
}

func (a *app) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash of a password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askNewPassword("Password", a.out)
			if err != nil {
				return err
			}
			h, err := cryptox.HashPassword(pw)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, h)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "login <server-id>",
		Short:             "Authenticate to a server and print a session token",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.connect,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pw, err := askPassword("Password", a.out)
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			s, err := a.client.Authenticate(ctx, id, pw)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Logged in to %s (%s), expires %s\n", s.Server.Name, s.Server.Host, s.ExpiresAt.Local().Format(time.RFC1123))
			fmt.Fprintln(a.out, s.Token)
			return nil
		},
	}
}

func (a *app) sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "session",
		Short:             "Show the session behind --token",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			s, err := a.client.VerifySession(ctx)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "session %s for server %d (%s), expires %s\n", s.ID, s.Server.ID, s.Server.Name, s.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "check",
		Short:             "Probe the remote service of the session's server",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.client.CheckServer(ctx); err != nil {
				return describe(err)
			}
			fmt.Fprintln(a.out, "OK")
			return nil
		},
	}
}

func (a *app) masterTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "master-token",
		Short:             "Exchange the master password for a master token",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := askPassword("Master password", a.out)
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			token, exp, err := a.client.IssueMasterToken(ctx, pw)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "expires %s\n", exp.Local().Format(time.RFC1123))
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
}

// ensureMaster prompts for the master password when no master token was given.
func (a *app) ensureMaster(cmd *cobra.Command, args []string) error {
	if err := a.connect(cmd, args); err != nil {
		return err
	}
	if a.v.GetString("master-token") != "" {
		return nil
	}

	pw, err := askPassword("Master password", a.out)
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	if _, _, err := a.client.IssueMasterToken(ctx, pw); err != nil {
		return describe(err)
	}
	return nil
}

func (a *app) serversCmd() *cobra.Command {
	servers := &cobra.Command{
		Use:   "servers",
		Short: "List and manage registered servers",
	}

	list := &cobra.Command{
		Use:               "list",
		Short:             "List registered servers",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			list, err := a.client.ListServers(ctx)
			if err != nil {
				return describe(err)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No servers registered.")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tHOST\tCREATED")
			for _, s := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.Host, s.CreatedAt.Format(time.DateOnly))
			}
			return w.Flush()
		},
	}

	var name, host, apiKey string
	add := &cobra.Command{
		Use:               "add",
		Short:             "Register a server",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.ensureMaster,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if name == "" {
				if name, err = prompt.Text(a.in, "Name", a.out); err != nil {
					return err
				}
			}
			if host == "" {
				if host, err = prompt.Text(a.in, "Host URL", a.out); err != nil {
					return err
				}
			}
			if apiKey == "" {
				if apiKey, err = askPassword("API key", a.out); err != nil {
					return err
				}
			}
			pw, err := askNewPassword("Server password", a.out)
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			s, err := a.client.RegisterServer(ctx, name, host, pw, apiKey)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Registered %s with id %d\n", s.Name, s.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "server name")
	add.Flags().StringVar(&host, "host", "", "server URL, http or https")
	add.Flags().StringVar(&apiKey, "api-key", "", "remote API key (prompted when empty)")

	var newKey string
	update := &cobra.Command{
		Use:               "update <id>",
		Short:             "Change a server's password and optionally its API key",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.ensureMaster,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pw, err := askNewPassword("New password", a.out)
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.client.UpdateServerCredentials(ctx, id, pw, newKey); err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Updated server %d\n", id)
			return nil
		},
	}
	update.Flags().StringVar(&newKey, "api-key", "", "new remote API key (kept when empty)")

	del := &cobra.Command{
		Use:               "delete <id>",
		Short:             "Delete a server and its failed-attempt history",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.ensureMaster,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.client.DeleteServer(ctx, id); err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Deleted server %d\n", id)
			return nil
		},
	}

	servers.AddCommand(list, add, update, del)
	return servers
}

func (a *app) backupCmd() *cobra.Command {
	backup := &cobra.Command{
		Use:   "backup",
		Short: "Export or import server backups",
	}

	export := &cobra.Command{
		Use:               "export",
		Short:             "Write all servers to the backup store",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.ensureMaster,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			key, n, err := a.client.ExportBackup(ctx)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Exported %d server(s) to %s\n", n, key)
			return nil
		},
	}

	imp := &cobra.Command{
		Use:               "import <key>",
		Short:             "Restore servers from a backup in the store",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: a.ensureMaster,
		PostRunE:          a.disconnect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			imported, skipped, err := a.client.ImportBackup(ctx, args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "Imported %d server(s), skipped %d\n", len(imported), len(skipped))
			for _, name := range skipped {
				fmt.Fprintf(a.out, "  skipped %s (already exists)\n", name)
			}
			return nil
		},
	}

	backup.AddCommand(export, imp)
	return backup
}
