package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/api"
	"github.com/zigzig/talent-matcher/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recruiter HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, needs{scorer: true, extractor: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	log := svc.logger
	log.Info("starting the talent-matcher", zap.String("version", version), zap.String("storage", svc.config.Storage.Driver))

	if svc.config.Rematch.Enabled {
		sched := scheduler.New(svc.stores.jobs, svc.orchestrator, svc.config.Rematch.Spec, svc.config.Rematch.RunOnStart, log.Named("rematch"))
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	handler := api.NewHandler(svc.jobs, svc.orchestrator, svc.reviewer, svc.stores.checks, svc.config.HTTP.ComputeTimeout, log.Named("api"))
	router := api.NewRouter(handler, *svc.config.HTTP, log.Named("http"))

	return api.Serve(ctx, router, svc.config.HTTP.Addr, log)
}
