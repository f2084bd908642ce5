package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"visualverify/internal/api"
	"visualverify/internal/config"
	"visualverify/internal/evidence"
	"visualverify/internal/fetch"
	"visualverify/internal/queue"
	"visualverify/internal/verification"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var claim string
	var asJSON bool
	var noProviders bool

	cmd := &cobra.Command{
		Use:   "verify <image-url|file>",
		Short: "Verify an image against a claim and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger := ctx.cliLogger(cmd)
				req, err := buildRequest(cfg, args[0], claim)
				if err != nil {
					return err
				}

				collector := evidence.NewFromConfig(cfg, logger)
				if noProviders {
					collector = evidence.NewCollector(logger, nil)
				} else if len(cfg.ActiveProviders()) == 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "warn: no evidence providers configured; the verdict will be UNVERIFIED")
				}
				verifier := verification.NewVerifierWithDependencies(cfg.Cache, store, fetch.NewFromConfig(cfg), collector, logger)

				outcome, err := verifier.Check(cmd.Context(), req, nil)
				if err != nil {
					return err
				}

				job := &queue.Job{ImageURL: req.ImageURL, Claim: req.Claim}
				if job.ImageURL == "" {
					job.ImageURL = args[0]
				}
				if outcome.Cached != nil {
					job.SetCached(*outcome.Cached)
				} else if err := job.SetResult(outcome.Result); err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.FromJob(job))
				}
				out := cmd.OutOrStdout()
				return renderJobResult(out, job, shouldColorize(out))
			})
		},
	}

	cmd.Flags().StringVar(&claim, "claim", "", "Claim made about the image")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&noProviders, "no-providers", false, "Skip evidence providers and use only the cache and local analysis")
	return cmd
}

// buildRequest treats an existing local path as an inline image and anything else as a URL.
func buildRequest(cfg *config.Config, target, claim string) (verification.Request, error) {
	target = strings.TrimSpace(target)
	req := verification.Request{Claim: strings.TrimSpace(claim)}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		if cfg.Fetch.MaxBytes > 0 && info.Size() > cfg.Fetch.MaxBytes {
			return req, fmt.Errorf("image %s is larger than %d bytes", target, cfg.Fetch.MaxBytes)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return req, fmt.Errorf("read image: %w", err)
		}
		req.Image = data
		return req, nil
	}
	if _, err := fetch.ValidateURL(target); err != nil {
		return req, fmt.Errorf("%s is neither a readable file nor an http(s) URL", target)
	}
	req.ImageURL = target
	return req, nil
}
