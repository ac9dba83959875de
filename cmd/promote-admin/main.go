package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"solbol.backend/internal/config"
	"solbol.backend/internal/domain/entities"
	domainrepo "solbol.backend/internal/domain/repositories"
	"solbol.backend/internal/infrastructure/repositories"
)

var openPromoteDB = func(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{TranslateError: true})
}

type promoteDeps struct {
	loadEnv func() error
	loadCfg func() (*config.Config, error)
	prepare func(cfg *config.Config) (domainrepo.UserRepository, io.Closer, error)
	now     func() time.Time
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultPromoteDeps() promoteDeps {
	return promoteDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (domainrepo.UserRepository, io.Closer, error) {
			db, err := openPromoteDB(cfg.Database.URL())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}
			return repositories.NewUserRepository(db), sqlDB, nil
		},
		now: time.Now,
		out: os.Stdout,
	}
}

func parseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("--email is required")
	}
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return email, nil
}

func runPromoteAdmin(args []string, deps promoteDeps) error {
	def := defaultPromoteDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.now == nil {
		deps.now = def.now
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("promote-admin", flag.ContinueOnError)
	emailFlag := fs.String("email", "", "email of an existing profile (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	email, err := parseEmail(*emailFlag)
	if err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := deps.loadCfg()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	users, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	ctx := context.Background()
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", email, err)
	}

	if user.Role == entities.UserRoleAdmin {
		_, _ = fmt.Fprintf(deps.out, "%s is already an admin\n", email)
		return nil
	}

	if err := users.UpdateRole(ctx, user.ID, entities.UserRoleAdmin); err != nil {
		return fmt.Errorf("failed to promote %s: %w", email, err)
	}
	// Admins skip KYC review.
	if user.Status == entities.UserStatusPendingKYC {
		approvedAt := deps.now().UTC()
		if err := users.UpdateStatus(ctx, user.ID, entities.UserStatusActive, &approvedAt); err != nil {
			return fmt.Errorf("failed to activate %s: %w", email, err)
		}
	}

	_, _ = fmt.Fprintln(deps.out, "Promoted profile to admin")
	_, _ = fmt.Fprintf(deps.out, "user_id=%s\n", user.ID)
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", email)
	return nil
}

func main() {
	if err := runPromoteAdmin(os.Args[1:], defaultPromoteDeps()); err != nil {
		log.Fatal(err)
	}
}
