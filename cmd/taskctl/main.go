package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oksasatya/go-task-rbac/config"
	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	"github.com/oksasatya/go-task-rbac/internal/infrastructure/firebase"
	pginfra "github.com/oksasatya/go-task-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-rbac/pkg/helpers"
)

// cliActor is recorded as the actor of role changes made from the command line.
var cliActor = entity.Identity{UID: "taskctl", Role: entity.RoleAdmin}

var jsonOut bool

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Administer the task service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "output JSON")
	root.AddCommand(setRoleCmd(cfg), claimsCmd(cfg), migrateCmd(cfg))
	return root
}

func setRoleCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <uid> <user|admin>",
		Short: "Assign a role to a user (custom claim and profile)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := entity.ParseRole(args[1]); !ok {
				return fmt.Errorf("invalid role %q: want user or admin", args[1])
			}
			ctx := cmd.Context()
			claims, err := newClaimStore(ctx, cfg)
			if err != nil {
				return err
			}
			pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			svc := roleService(claims, pool, helpers.NewLogger("taskctl", cfg.Env))
			p, err := svc.AssignRole(ctx, cliActor, args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), p)
			}
			renderProfile(cmd.OutOrStdout(), p)
			fmt.Fprintln(cmd.OutOrStdout(), "The user must sign out and back in for the new role to reach their token.")
			return nil
		},
	}
}

func claimsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "claims <uid>",
		Short: "Show an account's email and custom claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := newClaimStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			acct, err := claims.GetAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), acct)
			}
			renderAccount(cmd.OutOrStdout(), acct)
			return nil
		},
	}
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := helpers.NewLogger("taskctl", cfg.Env)
			return pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger)
		},
	}
}

func newClaimStore(ctx context.Context, cfg *config.Config) (*firebase.ClaimStore, error) {
	return firebase.NewClaimStore(ctx, firebase.Credentials{
		File:        cfg.FirebaseCredentialsJSON,
		ProjectID:   cfg.FirebaseProjectID,
		ClientEmail: cfg.FirebaseClientEmail,
		PrivateKey:  cfg.FirebasePrivateKeyPEM(),
	})
}

func roleService(claims *firebase.ClaimStore, pool *pgxpool.Pool, logger *logrus.Logger) *application.RoleService {
	return application.NewRoleService(
		claims,
		pginfra.NewUserProfileRepository(pool),
		pginfra.NewAuditRepository(pool),
		logger,
	)
}

func renderProfile(w io.Writer, p *entity.UserProfile) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"UID", "Role", "Updated"})
	tw.AppendRow(table.Row{p.UID, p.Role, p.UpdatedAt.Format("2006-01-02 15:04:05")})
	tw.Render()
}

func renderAccount(w io.Writer, a *entity.Account) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle(fmt.Sprintf("%s <%s>", a.UID, a.Email))
	tw.AppendHeader(table.Row{"Claim", "Value"})
	keys := make([]string, 0, len(a.CustomClaims))
	for k := range a.CustomClaims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, fmt.Sprint(a.CustomClaims[k])})
	}
	if len(keys) == 0 {
		tw.AppendRow(table.Row{"(none)", ""})
	}
	tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
