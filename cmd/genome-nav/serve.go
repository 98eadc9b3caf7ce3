package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Example: `  genome-nav serve --port 9000
  curl 'localhost:9000/sequence?genome=hg38&chrom=chr17&start=43044295&end=43044394'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := server.New(a.svc, a.cfg.MachineOptions())
			srv.SetLogger(a.logger.Named("server"))
			srv.SetSessionTTL(a.cfg.Server.SessionTTL)
			defer srv.Close()

			sweepCtx, stopSweep := context.WithCancel(cmd.Context())
			defer stopSweep()
			go srv.ExpireIdle(sweepCtx, time.Minute)

			httpSrv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("listening", zap.String("addr", httpSrv.Addr))
				errc <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 8080, "HTTP service port")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}
