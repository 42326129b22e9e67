package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/rango/internal/server"
	"github.com/desertthunder/rango/internal/shared"
	"github.com/desertthunder/rango/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve starts the web server and blocks until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	handler, err := r.handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          r.logger.StandardLog(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("http://%s/", srv.Addr)
	r.writePlain("Serving %s at %s (Ctrl+C to stop)\n", r.config.Site.Title, url)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	timeout := time.Duration(r.config.Server.ShutdownTimeout) * time.Second
	return server.Serve(ctx, srv, timeout, shared.WithLogger(r.logger, "component", "server"))
}

// handler assembles the site, its middleware stack and the metrics endpoint.
func (r *Runner) handler() (http.Handler, error) {
	svc, err := r.services()
	if err != nil {
		return nil, err
	}

	var throttle *server.Throttle
	if r.config.Auth.LoginsPerMinute > 0 {
		throttle = server.NewThrottle(r.config.Auth.LoginsPerMinute, r.config.Auth.LoginBurst)
	}

	app, err := web.New(web.Options{
		Site:      r.config.Site,
		Session:   r.config.Session,
		Directory: svc.directory,
		Auth:      svc.auth,
		Throttle:  throttle,
		Logger:    shared.WithLogger(r.logger, "component", "web"),
	})
	if err != nil {
		return nil, err
	}

	metrics := server.NewMetrics()
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger), metrics.Middleware())

	app.Mount(router)
	router.Handle(http.MethodGet, "/metrics", metrics.Handler())

	return router, nil
}
