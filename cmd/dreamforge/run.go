package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/app"
	"github.com/dreamforge-ai/dreamforge/internal/config"
	"github.com/dreamforge-ai/dreamforge/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dreamforge server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()

		application, err := app.NewApp(cfg,
			app.WithDBInitialization(),
			app.WithBlobStore(),
			app.WithUpstream(),
			app.WithEnhancer(),
			app.WithServices(),
		)
		if err != nil {
			return fmt.Errorf("error initializing app: %w", err)
		}
		defer application.Close()

		srv, err := server.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}
		srv.SetupRoutes(application)

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-signals
			application.Logger.Info("shutting down")
			if err := srv.Stop(context.Background()); err != nil {
				application.Logger.Error("error stopping server", zap.Error(err))
			}
		}()

		application.Logger.Info("starting server",
			zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
		if err := srv.Start(); err != nil {
			application.Logger.Info("server stopped", zap.Error(err))
		}

		return nil
	},
}

func init() {
	runCmd.Flags().Int("port", config.DefaultPort, "Port to run the server on")
	runCmd.Flags().String("host", config.DefaultHost, "Host to run the server on")
	runCmd.Flags().String("environment", "dev", "Environment configuration; affects default behavior")

	viper.BindPFlag("port", runCmd.Flags().Lookup("port"))
	viper.BindPFlag("host", runCmd.Flags().Lookup("host"))
	viper.BindPFlag("environment", runCmd.Flags().Lookup("environment"))
}
