// Command hivectl runs one-off maintenance tasks against the CyberCrime Hive
// database: migrations, token sweeps, manual feedback links, metric exports
// and admin accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/export"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/services"
)

// test seams
var (
	loadConfig = func(ctx context.Context) (*config.Config, error) {
		return config.Load(ctx, false)
	}
	newRuntime   = server.NewRuntime
	readPassword = func(w io.Writer) ([]byte, error) {
		fmt.Fprint(w, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		return pw, err
	}
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hivectl",
		Short:         "Maintenance tasks for CyberCrime Hive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// read by config.Load straight from os.Args; declared so cobra accepts it
	var configPath string
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (JSON or YAML)")

	root.AddCommand(
		newMigrateCommand(),
		newCleanupCommand(),
		newIssueCommand(),
		newExportCommand(),
		newCreateAdminCommand(),
	)
	return root
}

// withRuntime loads configuration, builds the runtime and hands it to fn.
func withRuntime(cmd *cobra.Command, migrate bool, fn func(ctx context.Context, rt *server.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewJSON(cmd.ErrOrStderr(), cfg.LogLevel)

	rt, err := newRuntime(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn(ctx, "close runtime", "error", cerr)
		}
	}()

	return fn(ctx, rt)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, true, func(context.Context, *server.Runtime) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Deactivate expired feedback tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, false, func(ctx context.Context, rt *server.Runtime) error {
				n, err := rt.Services.Tokens.CleanupExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deactivated %d expired token(s)\n", n)
				return nil
			})
		},
	}
}

func newIssueCommand() *cobra.Command {
	var (
		reportID int64
		userID   int64
		hours    int
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a feedback link for a resolved report and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hours < 0 {
				return errors.New("--hours must not be negative")
			}
			return withRuntime(cmd, false, func(ctx context.Context, rt *server.Runtime) error {
				tok, err := rt.Services.Tokens.Issue(ctx, services.IssueRequest{
					ReportID:        reportID,
					UserID:          userID,
					ExpiryHours:     hours,
					IssuerUserAgent: "hivectl",
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, tok.FeedbackURL)
				fmt.Fprintf(out, "expires at %s\n", tok.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&reportID, "report", 0, "report id")
	cmd.Flags().Int64Var(&userID, "user", 0, "id of the report owner")
	cmd.Flags().IntVar(&hours, "hours", 0, "link lifetime in hours (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newExportCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export feedback metrics as CSV",
		Long:  "Export feedback metrics as CSV to object storage, or to stdout with --stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, false, func(ctx context.Context, rt *server.Runtime) error {
				out := cmd.OutOrStdout()
				if toStdout {
					exp := rt.Exporter
					if exp == nil {
						exp = export.NewExporter(nil, rt.Services.Metrics, logging.Nop())
					}
					rows, err := exp.Collect(ctx)
					if err != nil {
						return err
					}
					return export.WriteCSV(out, rows)
				}

				if rt.Exporter == nil {
					return export.ErrDisabled
				}
				key, url, err := rt.Exporter.Export(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "stored %s\n%s\n", key, url)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write CSV to stdout instead of object storage")
	return cmd
}

func newCreateAdminCommand() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			defer clear(pw)

			return withRuntime(cmd, false, func(ctx context.Context, rt *server.Runtime) error {
				u, err := rt.Services.Admins.CreateAdmin(ctx, email, name, string(pw))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
