package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/generator"
	"github.com/diwise/iot-sample-payload/internal/pkg/infrastructure/metrics"
	"github.com/diwise/iot-sample-payload/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/api/payloads"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serviceName string = "iot-sample-payload"

type serveOptions struct {
	listenAddress string
	servicePort   string
	controlPort   string
	configPath    string
	policiesPath  string
}

func newServeCommand(ctx context.Context) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sample payloads over HTTP for the configured tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listenAddress, "listen", env.GetVariableOrDefault(ctx, "LISTEN_ADDRESS", ""), "address to listen on, all interfaces when empty")
	cmd.Flags().StringVar(&opts.servicePort, "port", env.GetVariableOrDefault(ctx, "SERVICE_PORT", "8080"), "port of the payload api")
	cmd.Flags().StringVar(&opts.controlPort, "control-port", env.GetVariableOrDefault(ctx, "CONTROL_PORT", ""), "port of the metrics endpoint, disabled when empty")
	cmd.Flags().StringVar(&opts.configPath, "config", env.GetVariableOrDefault(ctx, "CONFIG_FILE", "/opt/diwise/config/tenants.yaml"), "tenant configuration file")
	cmd.Flags().StringVar(&opts.policiesPath, "policies", env.GetVariableOrDefault(ctx, "POLICIES_FILE", "/opt/diwise/config/authz.rego"), "authorization policies")

	return cmd
}

// Serve runs the payload api, and the metrics endpoint if a control port is
// given, until ctx is cancelled.
func Serve(ctx context.Context, opts serveOptions) error {
	log := logging.GetFromContext(ctx)

	cfgFile, err := os.Open(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to open tenant configuration: %w", err)
	}
	defer cfgFile.Close()

	policies, err := os.Open(opts.policiesPath)
	if err != nil {
		return fmt.Errorf("failed to open authorization policies: %w", err)
	}
	defer policies.Close()

	handler, err := newAPIHandler(ctx, cfgFile, policies, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	servers := []*http.Server{
		{Addr: net.JoinHostPort(opts.listenAddress, opts.servicePort), Handler: handler},
	}

	if opts.controlPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		servers = append(servers, &http.Server{Addr: net.JoinHostPort(opts.listenAddress, opts.controlPort), Handler: mux})
	}

	for _, srv := range servers {
		g.Go(func() error {
			log.Info("starting to listen for connections", "addr", srv.Addr)

			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to listen for connections on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		for _, srv := range servers {
			srv.Shutdown(shutdownCtx)
		}

		return nil
	})

	return g.Wait()
}

func newAPIHandler(ctx context.Context, cfgFile, policies io.Reader, reg prometheus.Registerer) (http.Handler, error) {
	cfg, err := generator.LoadConfiguration(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant configuration: %w", err)
	}

	app, err := generator.New(ctx, *cfg, generator.WithMetrics(metrics.New(reg)))
	if err != nil {
		return nil, err
	}

	r := router.New(serviceName)

	err = payloads.RegisterHandlers(ctx, r, policies, app)
	if err != nil {
		return nil, err
	}

	return r, nil
}
