package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"donationhub/internal/adapter/repo"
	"donationhub/internal/auth"
	"donationhub/internal/domain"
	"donationhub/internal/infra"
)

// env is what the commands need from the outside world.
type env struct {
	loadConfig func() (*infra.Config, error)
	openStore  func(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*domain.Store, error)
	migrate    func(ctx context.Context, databaseURL string, logger infra.Logger) error
}

func defaultEnv() env {
	return env{
		loadConfig: infra.LoadConfig,
		openStore:  repo.Open,
		migrate:    infra.Migrate,
	}
}

func newRootCmd(e env) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "donatectl",
		Short:         "Operator tasks for the donation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	root.AddCommand(newMigrateCmd(e, withTimeout), newAccountCmd(e, withTimeout))
	return root
}

type ctxFactory func(cmd *cobra.Command) (context.Context, context.CancelFunc)

func newMigrateCmd(e env, withTimeout ctxFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreDriver != infra.StoreDriverPostgres {
				return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			logger := cliLogger(cfg, "migrate")
			if err := e.migrate(ctx, cfg.DatabaseURL, logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newAccountCmd(e env, withTimeout ctxFactory) *cobra.Command {
	account := &cobra.Command{
		Use:   "account",
		Short: "Create accounts and reset passwords",
	}
	account.AddCommand(newAccountCreateCmd(e, withTimeout), newSetPasswordCmd(e, withTimeout))
	return account
}

type createFlags struct {
	kind      string
	email     string
	password  string
	mobile    string
	firstName string
	lastName  string
	name      string
	regNumber string
	address   string
	items     []string
}

func newAccountCreateCmd(e env, withTimeout ctxFactory) *cobra.Command {
	var f createFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a donor or NGO account",
		Long: `Register an account exactly as the signup endpoints would.

Donors need --first-name and --last-name; NGOs need --name,
--registration-number and --address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuth(cmd, e, withTimeout, "account-create", func(ctx context.Context, svc *auth.Service, _ domain.AccountRepository) error {
				var (
					sess *auth.Session
					err  error
				)
				switch domain.AccountKind(strings.ToLower(f.kind)) {
				case domain.AccountKindDonor:
					sess, err = svc.SignupDonor(ctx, auth.DonorSignup{
						FirstName: f.firstName,
						LastName:  f.lastName,
						Email:     f.email,
						Password:  f.password,
						Mobile:    f.mobile,
					})
				case domain.AccountKindNGO:
					sess, err = svc.SignupNGO(ctx, auth.NGOSignup{
						Name:               f.name,
						RegistrationNumber: f.regNumber,
						Email:              f.email,
						Password:           f.password,
						Mobile:             f.mobile,
						Address:            f.address,
						ItemsAccepted:      f.items,
					})
				default:
					return fmt.Errorf("--kind must be %q or %q", domain.AccountKindDonor, domain.AccountKindNGO)
				}
				if err != nil {
					return err
				}
				printAccount(cmd.OutOrStdout(), sess.Account)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.kind, "kind", "donor", "Account kind (donor, ngo)")
	fl.StringVar(&f.email, "email", "", "Login email")
	fl.StringVar(&f.password, "password", "", "Initial password")
	fl.StringVar(&f.mobile, "mobile", "", "Contact number")
	fl.StringVar(&f.firstName, "first-name", "", "Donor first name")
	fl.StringVar(&f.lastName, "last-name", "", "Donor last name")
	fl.StringVar(&f.name, "name", "", "NGO name")
	fl.StringVar(&f.regNumber, "registration-number", "", "NGO registration number")
	fl.StringVar(&f.address, "address", "", "NGO address")
	fl.StringSliceVar(&f.items, "items", nil, "Item categories the NGO accepts")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetPasswordCmd(e env, withTimeout ctxFactory) *cobra.Command {
	var id, email, password string
	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace an account's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, email = strings.TrimSpace(id), strings.TrimSpace(email)
			if id == "" && email == "" {
				return errors.New("either --id or --email must be provided")
			}
			return withAuth(cmd, e, withTimeout, "set-password", func(ctx context.Context, svc *auth.Service, accounts domain.AccountRepository) error {
				var (
					acc *domain.Account
					err error
				)
				if id != "" {
					acc, err = accounts.GetByID(ctx, id)
				} else {
					acc, err = accounts.GetByEmail(ctx, email)
				}
				if err != nil {
					return fmt.Errorf("load account: %w", err)
				}
				if err := svc.SetPassword(ctx, acc.ID, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s (%s)\n", acc.Email, acc.Kind)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Account ID")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func withAuth(cmd *cobra.Command, e env, withTimeout ctxFactory, name string, fn func(context.Context, *auth.Service, domain.AccountRepository) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(cmd)
	defer cancel()

	logger := cliLogger(cfg, name)
	store, err := e.openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}()

	svc := auth.NewService(store.Accounts, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), logger)
	return fn(ctx, svc, store.Accounts)
}

func cliLogger(cfg *infra.Config, name string) infra.Logger {
	return infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", name).Logger()
}

func printAccount(w io.Writer, acc domain.Account) {
	display := acc.Name
	if acc.Kind == domain.AccountKindDonor {
		display = strings.TrimSpace(acc.FirstName + " " + acc.LastName)
	}
	fmt.Fprintf(w, "created %s %s\n", acc.Kind, acc.ID)
	fmt.Fprintf(w, "email=%s\n", acc.Email)
	fmt.Fprintf(w, "name=%s\n", display)
}
