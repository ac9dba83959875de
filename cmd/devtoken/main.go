package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"solbol.backend/internal/config"
	"solbol.backend/pkg/jwt"
)

type devtokenDeps struct {
	loadEnv func() error
	loadCfg func() (*config.Config, error)
	out     io.Writer
}

func defaultDevtokenDeps() devtokenDeps {
	return devtokenDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		out:     os.Stdout,
	}
}

type tokenRequest struct {
	userID   uuid.UUID
	email    string
	role     string
	secret   string
	audience string
	ttl      time.Duration
}

func parseTokenRequest(args []string) (*tokenRequest, error) {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	userIDFlag := fs.String("user-id", "", "profile id to put in sub (required)")
	emailFlag := fs.String("email", "", "email claim (required)")
	roleFlag := fs.String("role", "authenticated", "role claim")
	secretFlag := fs.String("secret", "", "HS256 secret, defaults to AUTH_JWT_SECRET")
	audienceFlag := fs.String("audience", "", "aud claim, defaults to AUTH_JWT_AUDIENCE")
	ttlFlag := fs.Duration("ttl", 0, "token lifetime, defaults to AUTH_ACCESS_EXPIRY")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *userIDFlag == "" {
		return nil, fmt.Errorf("--user-id is required")
	}
	userID, err := uuid.Parse(*userIDFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --user-id: %w", err)
	}
	email := strings.TrimSpace(*emailFlag)
	if email == "" {
		return nil, fmt.Errorf("--email is required")
	}
	if *ttlFlag < 0 {
		return nil, fmt.Errorf("--ttl must be positive")
	}

	return &tokenRequest{
		userID:   userID,
		email:    strings.ToLower(email),
		role:     *roleFlag,
		secret:   *secretFlag,
		audience: *audienceFlag,
		ttl:      *ttlFlag,
	}, nil
}

// fillFromConfig takes the secret, audience and lifetime the server
// verifies with, unless they were given on the command line.
func (r *tokenRequest) fillFromConfig(cfg config.AuthConfig) {
	if r.secret == "" {
		r.secret = cfg.JWTSecret
	}
	if r.audience == "" {
		r.audience = cfg.Audience
	}
	if r.ttl == 0 {
		r.ttl = cfg.AccessExpiry
	}
}

func runDevtoken(args []string, deps devtokenDeps) error {
	def := defaultDevtokenDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.out == nil {
		deps.out = def.out
	}

	req, err := parseTokenRequest(args)
	if err != nil {
		return err
	}

	if req.secret == "" || req.audience == "" || req.ttl == 0 {
		if err := deps.loadEnv(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
		cfg, err := deps.loadCfg()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		req.fillFromConfig(cfg.Auth)
	}
	if req.secret == "" {
		return fmt.Errorf("no signing secret: pass --secret or set AUTH_JWT_SECRET")
	}
	if req.ttl == 0 {
		req.ttl = time.Hour
	}

	svc := jwt.NewJWTService(req.secret, req.ttl, req.ttl, jwt.WithAudience(req.audience))
	pair, err := svc.GenerateTokenPair(req.userID, req.email, req.role)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, _ = fmt.Fprintf(deps.out, "user_id=%s\n", req.userID)
	_, _ = fmt.Fprintf(deps.out, "expires_in=%d\n", pair.ExpiresIn)
	_, _ = fmt.Fprintf(deps.out, "ACCESS_TOKEN=%s\n", pair.AccessToken)
	return nil
}

func main() {
	if err := runDevtoken(os.Args[1:], defaultDevtokenDeps()); err != nil {
		log.Fatal(err)
	}
}
