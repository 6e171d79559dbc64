// adminctl runs one-off maintenance tasks against the admin database:
// creating operators and plain accounts, revoking sessions, seeding the
// default categories and migrating the legacy category field.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Skotchmaster/resto_admin/internal/config"
	"github.com/Skotchmaster/resto_admin/internal/db"
	"github.com/Skotchmaster/resto_admin/internal/logging"
	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/internal/service"
	"github.com/Skotchmaster/resto_admin/internal/transport"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

const usage = `usage: adminctl <command> [flags]

commands:
  create-operator     create an operator account, or promote an existing one
  create-account      create a sign-in account without operator rights
  revoke-sessions     sign an account out of every session
  list-operators      print every operator
  seed-categories     add the default menu categories that are missing
  migrate-categories  copy the legacy "nama" category field into "name"
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	cmd, args := args[0], args[1:]

	fs := pflag.NewFlagSet("adminctl "+cmd, pflag.ContinueOnError)
	fs.SetOutput(out)
	dsn := fs.String("database-url", config.EnvDefault("DATABASE_URL", ""), "postgres DSN, or sqlite:<path>")
	verbose := fs.BoolP("verbose", "v", false, "log at debug level to stderr")

	var req transport.RegisterOperatorRequest
	var role string
	switch cmd {
	case "create-operator", "create-account":
		fs.StringVar(&req.Email, "email", "", "account email (required)")
		fs.StringVar(&req.Password, "password", "", "initial password, at least 6 characters (required)")
		fs.StringVar(&req.DisplayName, "name", "", "display name")
		if cmd == "create-operator" {
			fs.StringVar(&role, "role", string(domain.RoleAdmin), "admin or superadmin")
		}
	case "revoke-sessions":
		fs.StringVar(&req.Email, "email", "", "account email (required)")
	}

	switch cmd {
	case "create-operator", "create-account", "revoke-sessions", "list-operators", "seed-categories", "migrate-categories":
	case "-h", "--help", "help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("--database-url or DATABASE_URL is required")
	}

	l := logging.Discard()
	if *verbose {
		l = logging.NewWriter(os.Stderr, "debug")
	}
	ctx = logging.IntoContext(ctx, l)

	gdb, err := db.Open(ctx, *dsn)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	if err := db.Migrate(ctx, gdb); err != nil {
		return err
	}

	r := &repo.GormRepo{DB: gdb}
	catalog := &service.CatalogService{Repo: r}
	auth := &service.AuthService{Repo: r}

	switch cmd {
	case "create-operator":
		req.Role = domain.Role(role)
		op, err := auth.CreateOperator(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "operator %s <%s> role=%s\n", op.UID, op.Email, op.Role)

	case "create-account":
		acc, err := auth.RegisterAccount(ctx, "adminctl", req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "account %s <%s>\n", acc.ID, acc.Email)

	case "revoke-sessions":
		if err := auth.RevokeSessions(ctx, "adminctl", req.Email); err != nil {
			return err
		}
		fmt.Fprintf(out, "revoked sessions of <%s>\n", strings.TrimSpace(req.Email))

	case "list-operators":
		ops, err := r.ListOperators(ctx)
		if err != nil {
			return err
		}
		for _, op := range ops {
			last := "never"
			if op.LastLogin != nil {
				last = op.LastLogin.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(out, "%s\t%s\t%s\tlast_login=%s\n", op.UID, op.Email, op.Role, last)
		}

	case "seed-categories":
		added, err := catalog.SeedCategories(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "added %d categories\n", added)

	case "migrate-categories":
		moved, err := catalog.MigrateCategoryNames(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "migrated %d categories\n", moved)
	}
	return nil
}
