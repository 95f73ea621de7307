// Whoami serves the viewer attached to each request.
//
// The viewer comes from the DEV_USER_* settings; leave DEV_USER_ID empty to
// serve every request anonymously.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/sethvargo/go-envconfig"
	"go.uber.org/fx"

	"github.com/jdholdren/viewer/internal/logger"
	"github.com/jdholdren/viewer/internal/viewer"
	"github.com/jdholdren/viewer/internal/whoami"
)

type config struct {
	Port       int    `env:"PORT, default=4444"`
	CorsOrigin string `env:"CORS_ORIGIN, default=http://localhost:3000"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`

	DevUserID          string `env:"DEV_USER_ID"`
	DevUserEmail       string `env:"DEV_USER_EMAIL"`
	DevUserDisplayName string `env:"DEV_USER_DISPLAY_NAME"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	slog.SetDefault(logger.New(cfg.LoggerFormat, os.Stdout))

	auth := whoami.NewDevAuthenticator(cfg.DevUserID, cfg.DevUserEmail, cfg.DevUserDisplayName)
	if auth.User == nil {
		slog.Info("no dev user configured, all requests are anonymous")
	}

	fx.New(
		fx.Supply(
			whoami.ServerConfig{
				Port:       cfg.Port,
				CorsOrigin: cfg.CorsOrigin,
			},
			fx.Annotate(auth, fx.As(new(viewer.Authenticator))),
		),
		whoami.Module,
		fx.Invoke(func(whoami.Server) {}), // Start the server
	).Run()
}
