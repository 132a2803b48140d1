// Package main is the entry point for the polyrun execution server.
//
// Polyrun runs untrusted user code (Python, JavaScript, Ruby, Go, Java, C,
// C++) in ephemeral Docker containers with hard resource limits, streaming
// output line by line as it is produced. The server exposes the engine over
// MCP (stdio or HTTP) or over a web API with WebSocket streaming, selected
// by configuration.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/polyrun/polyrun/config"
	"github.com/polyrun/polyrun/container"
	"github.com/polyrun/polyrun/httpserver"
	"github.com/polyrun/polyrun/language"
	"github.com/polyrun/polyrun/logger"
	"github.com/polyrun/polyrun/mcpserver"
	"github.com/polyrun/polyrun/runner"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Container engine client
			container.NewDockerClient,

			// Language registry
			language.NewRegistry,

			// Execution engine
			runner.ConfigFrom,
			runner.New,
			func(r *runner.Runner) runner.Executor { return r },

			// Transports
			mcpserver.New,
			httpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config, mcpSrv *mcpserver.MCPServer, webSrv *httpserver.Server, client container.Client) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := mcpSrv.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := mcpSrv.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				case "web":
					go func() {
						if err := webSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							panic(err)
						}
					}()
					lc.Append(fx.Hook{
						OnStop: func(ctx context.Context) error {
							return webSrv.Shutdown(ctx)
						},
					})
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}

				lc.Append(fx.Hook{
					OnStop: func(_ context.Context) error {
						return client.Close()
					},
				})
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
