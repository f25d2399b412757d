package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yourname/healthday/internal/api"
	"github.com/yourname/healthday/internal/auth"
	"github.com/yourname/healthday/internal/ingest"
	"github.com/yourname/healthday/internal/service"
)

const sessionMaxAge = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when MQTT_BROKER is set, telemetry ingest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	view, err := service.NewDayView(e.gateway, e.loc, service.Today(e.loc), e.logger)
	if err != nil {
		return err
	}
	defer view.Close()

	provider, err := auth.NewProvider(e.cfg, e.logger)
	if err != nil {
		return err
	}
	if e.cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	app := api.NewServer(e.logger, e.gateway, view, service.NewEditSessions(sessionMaxAge), e.loc, e.editOpts...)
	srv := &http.Server{
		Addr:              e.cfg.HTTPAddr,
		Handler:           api.NewRouter(app, provider, e.cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if e.cfg.MQTTBroker != "" {
		sub := ingest.NewSubscriber(e.cfg.MQTTBroker, e.cfg.MQTTTopic, e.gateway, e.logger)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Infof("Server running on %s", e.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	e.logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
