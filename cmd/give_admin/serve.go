package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"give-stripe-extended/internal/app"
	"give-stripe-extended/internal/config"
	"give-stripe-extended/internal/settings"
	"give-stripe-extended/internal/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API locally",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().String("settings", "", "JSON settings file used instead of the table's settings item")
	return cmd
}

func loadSettingsFile(path string) (*settings.Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s settings.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return settings.NewStatic(s), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	settingsPath, _ := cmd.Flags().GetString("settings")

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	var opts []app.Option
	if settingsPath != "" {
		static, err := loadSettingsFile(settingsPath)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithSettings(static))
	}

	logger := utils.NewLogger()
	a := app.New(cfg, awsCfg, logger, opts...)
	srv := &http.Server{Addr: addr, Handler: a.Router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("local_server_started", map[string]interface{}{"addr": addr, "staticSettings": settingsPath != ""})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
