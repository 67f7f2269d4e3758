package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/basel-ax/museframe/internal/api"
	"github.com/basel-ax/museframe/internal/logger"
	"github.com/basel-ax/museframe/internal/scheduler"
	"github.com/basel-ax/museframe/internal/service"
)

var refreshOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widget page and refresh the frame on schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Sugar()

		// Create context with cancellation
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Handle graceful shutdown
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		go func() {
			select {
			case sig := <-sigChan:
				log.Infof("Received signal: %v, initiating shutdown...", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := scheduler.New(logger.Named("scheduler"))
		err = sched.Add("refresh", cfg.RefreshSchedule, func(ctx context.Context) error {
			_, err := a.refresher.Refresh(ctx)
			return err
		})
		if err != nil {
			return err
		}

		server := api.NewServer(cfg.ListenAddr, a.widget, a.refresher, logger.Named("api"))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			sched.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return server.Run(gctx)
		})
		if refreshOnStart {
			g.Go(func() error {
				_, err := a.refresher.Refresh(gctx)
				switch {
				case errors.Is(err, service.ErrNothingToShow):
					log.Warn("initial refresh found nothing to show")
				case err != nil && !errors.Is(err, context.Canceled):
					log.Errorw("initial refresh failed", "error", err)
				}
				return nil
			})
		}

		err = g.Wait()
		log.Info("Shutting down gracefully...")
		return err
	},
}

func init() {
	serveCmd.Flags().BoolVar(&refreshOnStart, "refresh-on-start", true, "Refresh the frame once at startup, alongside the server")
	rootCmd.AddCommand(serveCmd)
}
