package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/livelist"
	"solbol.backend/pkg/logger"
)

type watchOptions struct {
	api     string
	token   string
	admin   bool
	limit   int
	clear   bool
	backoff time.Duration
}

// parseWatchOptions reads flags, falling back to ORDERWATCH_* variables.
func parseWatchOptions(args []string) (*watchOptions, error) {
	v := viper.New()
	v.SetEnvPrefix("ORDERWATCH")
	v.AutomaticEnv()
	v.SetDefault("API", "http://localhost:8080")
	v.SetDefault("LIMIT", 50)

	fs := flag.NewFlagSet("orderwatch", flag.ContinueOnError)
	api := fs.String("api", v.GetString("API"), "API base URL")
	token := fs.String("token", v.GetString("TOKEN"), "access token")
	admin := fs.Bool("admin", v.GetBool("ADMIN"), "watch every order (admin token required)")
	limit := fs.Int("limit", v.GetInt("LIMIT"), "rows to keep")
	noClear := fs.Bool("no-clear", false, "append instead of redrawing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *token == "" {
		return nil, fmt.Errorf("--token or ORDERWATCH_TOKEN is required")
	}
	if *limit <= 0 || *limit > 100 {
		return nil, fmt.Errorf("--limit must be between 1 and 100")
	}

	return &watchOptions{
		api:     strings.TrimRight(*api, "/"),
		token:   *token,
		admin:   *admin,
		limit:   *limit,
		clear:   !*noClear,
		backoff: 2 * time.Second,
	}, nil
}

func runOrderwatch(ctx context.Context, opts *watchOptions, out io.Writer, client *http.Client) error {
	src := &apiSource{
		baseURL: opts.api,
		token:   opts.token,
		admin:   opts.admin,
		limit:   opts.limit,
		client:  client,
	}

	list := livelist.New(
		func(o *entities.Order) string { return o.ID.String() },
		livelist.WithLimit[*entities.Order](opts.limit),
		livelist.WithBackoff[*entities.Order](opts.backoff),
		livelist.WithOnChange(func(orders []*entities.Order) {
			renderOrders(out, orders, opts.clear)
		}),
		livelist.WithOnError[*entities.Order](func(err error) {
			logger.Warn(ctx, "Order stream interrupted, reconnecting", zap.Error(err))
		}),
	)

	err := list.Run(ctx, src)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func main() {
	opts, err := parseWatchOptions(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger.Init("development")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runOrderwatch(ctx, opts, os.Stdout, &http.Client{}); err != nil {
		log.Fatal(err)
	}
}
