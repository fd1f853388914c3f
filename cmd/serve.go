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

	"github.com/spigell/resume-screener/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
}

func init() {
	// RunE is set here rather than in the literal to avoid an initialization
	// cycle: serve -> getConfig -> listenFlagChanged -> serveCmd.
	serveCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	}

	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :5000)")
	serveCmd.Flags().String("uploads-dir", "", "directory for the original uploaded files")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	viper.BindPFlag("uploads-dir", serveCmd.Flags().Lookup("uploads-dir"))
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	logger.Info("starting the resume-screener", zap.String("version", version))

	st, err := openStore(ctx, config.Store, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	matcher, err := newMatcher(ctx, config.Oracle, logger)
	if err != nil {
		return err
	}

	server.SetMode(viper.GetBool("debug"))
	srv := server.New(server.Config{
		Listen:      config.Listen,
		UploadsDir:  config.UploadsDir,
		CORSOrigins: config.CORSOrigins,
	}, st, matcher, logger)

	return srv.Run(ctx)
}
