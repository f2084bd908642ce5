package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"visualverify/internal/daemon"
	"visualverify/internal/logging"
	"visualverify/internal/queue"
	"visualverify/internal/verification"
	"visualverify/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the verification daemon and HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				logger.Error("open queue store", logging.Error(err))
				return err
			}

			verifier := verification.NewVerifier(cfg, store, logger)
			if health := verifier.HealthCheck(signalCtx); health.Detail != "" {
				logging.WarnWithContext(logger, "verifier degraded", "verifier_degraded",
					logging.String("detail", health.Detail),
					logging.String(logging.FieldImpact, "verdicts will be UNVERIFIED"),
					logging.String(logging.FieldErrorHint, "set serpapi_key, bing_api_key, or feeds in the config"),
				)
			}

			mgr := workflow.NewManager(cfg, store, logger)
			mgr.ConfigureStage(verification.StageName, verifier)

			d, err := daemon.New(cfg, store, logger, mgr)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visualverify listening on http://%s\n", d.Address())

			<-signalCtx.Done()
			logger.Info("visualverify daemon shutting down")
			return nil
		},
	}
}
