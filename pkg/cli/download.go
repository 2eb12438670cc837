package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/cli/config"
	"github.com/m-mizutani/icloudpull/pkg/controller/console"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/usecase"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdDownload() *cli.Command {
	var (
		configPath string
		icloudCfg  config.ICloud
		destCfg    config.Destination
		notifyCfg  config.Notify
	)

	flags := []cli.Flag{config.FileFlag(&configPath)}
	flags = append(flags, icloudCfg.Flags()...)
	flags = append(flags, destCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Sign in to iCloud and download all photos into a folder",
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if configPath == "" {
				return ctx, nil
			}
			file, err := config.LoadFile(configPath)
			if err != nil {
				return nil, err
			}
			file.Apply(c.IsSet, &icloudCfg, &destCfg)
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.From(ctx)
			surface := console.NewSurface(os.Stdin, os.Stdout)

			if err := collectInputs(ctx, surface, &icloudCfg, &destCfg); err != nil {
				return err
			}

			dest, closer, err := destCfg.Open(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := closer.Close(); err != nil {
					logger.Warn("failed to close destination", slog.Any("error", err))
				}
			}()

			var runnerOpts []usecase.RunnerOption
			if notifier := notifyCfg.Notifier(); notifier != nil {
				runnerOpts = append(runnerOpts, usecase.WithNotifier(notifier))
			}

			runner := usecase.NewRunner(
				usecase.NewGate(icloudCfg.NewClient(), surface),
				usecase.NewDriver(
					usecase.WithLimit(destCfg.Limit),
					usecase.WithDryRun(destCfg.DryRun),
				),
				runnerOpts...,
			)

			report, err := surface.Consume(ctx, runner.Start(ctx, icloudCfg.Credential(), dest))
			return exitError(report, err)
		},
	}
}

// collectInputs prompts for values not given by flag, env or config file
func collectInputs(ctx context.Context, surface *console.Surface, icloudCfg *config.ICloud, destCfg *config.Destination) error {
	if icloudCfg.AppleID == "" {
		id, err := surface.ReadLine(ctx, "Apple ID: ")
		if err != nil {
			return err
		}
		icloudCfg.AppleID = id
	}

	if icloudCfg.Password == "" {
		password, err := surface.ReadSecret(ctx, "Password: ")
		if err != nil {
			return err
		}
		icloudCfg.Password = password.Unsafe()
	}

	if destCfg.Dest == "" && icloudCfg.Credential().Validate() == nil {
		dest, err := surface.ReadLine(ctx, "Destination folder: ")
		if err != nil {
			return err
		}
		destCfg.Dest = dest
	}

	return nil
}

// exitError maps the outcome of a run to the command result. Early exits
// without work are not failures; item failures are.
func exitError(report *model.Report, err error) error {
	if err != nil {
		if console.IsBenign(err) {
			return nil
		}
		return err
	}

	if report != nil && report.HasErrors() {
		return goerr.New("some photos failed to download",
			goerr.V("run_id", report.RunID),
			goerr.V("failed", len(report.Errors)),
		)
	}
	return nil
}
