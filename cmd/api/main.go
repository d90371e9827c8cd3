package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/anime-awards/backend/internal/auth"
	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/config"
	"github.com/emilythestrangee/anime-awards/backend/internal/database"
	"github.com/emilythestrangee/anime-awards/backend/internal/handlers"
	"github.com/emilythestrangee/anime-awards/backend/internal/logging"
	"github.com/emilythestrangee/anime-awards/backend/internal/metrics"
	"github.com/emilythestrangee/anime-awards/backend/internal/seed"
	"github.com/emilythestrangee/anime-awards/backend/internal/server"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     database.Service
}

func main() {
	var envFile string
	var a app

	root := &cobra.Command{
		Use:           "anime-awards",
		Short:         "Anime awards voting backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			db, err := database.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			a = app{cfg: cfg, logger: logger, db: db}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				if err := a.db.Close(); err != nil {
					a.logger.Warn("closing database", zap.Error(err))
				}
			}
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "optional dotenv file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.db.Migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed <file.yaml>",
			Short: "Load categories, nominees and rules from a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.seed(cmd.Context(), args[0])
			},
		},
		grantCommand(&a),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.db.Migrate(ctx); err != nil {
		return err
	}

	store := database.NewStore(a.db.GetDB())
	m := metrics.New()
	svc, err := awards.NewService(store,
		awards.WithLogger(a.logger),
		awards.WithMetrics(m),
		awards.WithWeights(awards.Weights{Public: a.cfg.PublicWeight, Jury: a.cfg.JuryWeight}),
		awards.WithTimeout(a.cfg.RecomputeTimeout),
	)
	if err != nil {
		return err
	}

	tokens := auth.NewTokens(a.cfg.JWTSecret, a.cfg.JWTTTL)
	h := handlers.NewHandler(handlers.Deps{
		Awards:  svc,
		Catalog: store,
		Users:   store,
		Tokens:  tokens,
		Google:  auth.NewGoogleVerifier(a.cfg.GoogleTokenInfoURL, a.cfg.GoogleClientID, nil),
		Logger:  a.logger,
	})
	srv := server.New(h, tokens, store, a.db, m, a.logger, server.Options{
		Addr:              a.cfg.Addr(),
		CORSOrigins:       a.cfg.CORSOrigins,
		VoteRatePerMinute: a.cfg.VoteRatePerMinute,
	}).HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) seed(ctx context.Context, path string) error {
	file, err := seed.Load(path)
	if err != nil {
		return err
	}
	if err := a.db.Migrate(ctx); err != nil {
		return err
	}
	report, err := seed.Apply(ctx, database.NewStore(a.db.GetDB()), file, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("seed applied",
		zap.String("file", path),
		zap.Int("categories_created", report.CategoriesCreated),
		zap.Int("categories_updated", report.CategoriesUpdated),
		zap.Int("nominees_created", report.NomineesCreated),
		zap.Bool("rules_written", report.RulesWritten),
	)
	return nil
}

// grantCommand sets capabilities on an existing account. It is how the
// first admin gets promoted.
func grantCommand(a *app) *cobra.Command {
	var admin, jury bool
	cmd := &cobra.Command{
		Use:   "grant <email>",
		Short: "Grant or revoke admin and jury capabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("admin") && !flags.Changed("jury") {
				return errors.New("nothing to change: pass --admin and/or --jury")
			}
			var isAdmin, isJury *bool
			if flags.Changed("admin") {
				isAdmin = &admin
			}
			if flags.Changed("jury") {
				isJury = &jury
			}

			ctx := cmd.Context()
			store := database.NewStore(a.db.GetDB())
			user, err := store.UserByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			user, err = store.SetRoles(ctx, user.ID, isAdmin, isJury)
			if err != nil {
				return err
			}
			a.logger.Info("roles updated",
				zap.Int("user_id", user.ID),
				zap.Bool("is_admin", user.IsAdmin),
				zap.Bool("is_jury", user.IsJury),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "admin capability")
	cmd.Flags().BoolVar(&jury, "jury", false, "jury capability")
	return cmd
}
