package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/soundmatch/internal/server"
	"github.com/urfave/cli/v3"
)

// newServer builds the HTTP API over the runner's components.
func (r *Runner) newServer() *server.Server {
	return server.New(server.Options{
		Search:      r.search,
		Recommender: r.recommender,
		Identifier:  r.identifier,
		History:     r.history,
		Gatherer:    r.gatherer,
		Logger:      r.logger,
		ResultLimit: r.config.Search.ResultLimit,
	})
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return r.newServer().ListenAndServe(ctx, addr)
}
