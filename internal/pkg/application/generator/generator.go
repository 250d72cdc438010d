package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/iot-sample-payload/internal/pkg/infrastructure/metrics"
	"github.com/diwise/iot-sample-payload/internal/pkg/infrastructure/servicekey"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/client"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

const DefaultTenant string = "default"

//go:generate moq -rm -out generator_mock.go . App

type App interface {
	GeneratePayload(ctx context.Context, tenant string, mode payload.Mode, selector string) (payload.Result, error)
	ListDevices(ctx context.Context, tenant string, parameters ...client.RequestDecoratorFunc) ([]devicemodel.Device, error)
	ListAssignments(ctx context.Context, tenant string) ([]devicemodel.Assignment, error)
}

type tenantApp struct {
	client    client.DeviceModelClient
	generator *payload.Generator
}

type app struct {
	tenants map[string]tenantApp
	metrics *metrics.Metrics
}

func WithMetrics(m *metrics.Metrics) func(*app) {
	return func(a *app) {
		a.metrics = m
	}
}

// New creates one device model client per configured tenant, authorized with
// the credentials from the tenant's service key.
func New(ctx context.Context, cfg Config, options ...func(*app)) (App, error) {
	clients := make(map[string]client.DeviceModelClient, len(cfg.Tenants))
	caching := make(map[string]bool, len(cfg.Tenants))

	for _, tenant := range cfg.Tenants {
		sk, err := servicekey.LoadFile(tenant.ServiceKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load service key for tenant %s: %w", tenant.ID, err)
		}

		debug := "false"
		if tenant.Debug {
			debug = "true"
		}

		clients[tenant.ID] = client.NewDeviceModelClient(
			sk.DeviceConnectivityURL(),
			client.MappingEndpoint(sk.DataMappingURL()),
			client.PageSize(tenant.PageSize),
			client.Debug(debug),
			client.WithHTTPClient(sk.HTTPClient(ctx)),
		)
		caching[tenant.ID] = tenant.Cache
	}

	return NewWithClients(clients, caching, options...), nil
}

func NewWithClients(clients map[string]client.DeviceModelClient, caching map[string]bool, options ...func(*app)) App {
	a := &app{
		tenants: make(map[string]tenantApp, len(clients)),
	}

	for _, option := range options {
		option(a)
	}

	for id, c := range clients {
		var fetcher payload.EntityFetcher = c
		if a.metrics != nil {
			fetcher = a.metrics.Instrument(fetcher)
		}

		a.tenants[id] = tenantApp{
			client:    c,
			generator: payload.NewGenerator(fetcher, payload.WithCache(caching[id])),
		}
	}

	return a
}

func (a *app) tenant(tenant string) (tenantApp, error) {
	t, ok := a.tenants[tenant]
	if !ok {
		return tenantApp{}, errors.NewUnknownTenantError(tenant)
	}
	return t, nil
}

func (a *app) GeneratePayload(ctx context.Context, tenant string, mode payload.Mode, selector string) (payload.Result, error) {
	t, err := a.tenant(tenant)
	if err != nil {
		return payload.Result{}, err
	}

	ctx = logging.NewContextWithLogger(ctx, logging.GetFromContext(ctx), "tenant", tenant)

	start := time.Now()
	result, err := t.generator.Generate(ctx, mode, selector)

	if a.metrics != nil {
		a.metrics.ObserveRun(mode, result, err, time.Since(start))
	}

	if err != nil {
		return payload.Result{}, fmt.Errorf("failed to generate %s payload for %s: %w", mode, selector, err)
	}

	return result, nil
}

// ListDevices returns the devices of the tenant, optionally narrowed by a
// filter expression or ordered with client.Filter and client.OrderBy.
func (a *app) ListDevices(ctx context.Context, tenant string, parameters ...client.RequestDecoratorFunc) ([]devicemodel.Device, error) {
	t, err := a.tenant(tenant)
	if err != nil {
		return nil, err
	}

	return t.client.QueryDevices(ctx, parameters...)
}

// ListAssignments returns all assignments of the tenant. An empty list means
// that filtered payloads cannot be generated for any object.
func (a *app) ListAssignments(ctx context.Context, tenant string) ([]devicemodel.Assignment, error) {
	t, err := a.tenant(tenant)
	if err != nil {
		return nil, err
	}

	return t.client.QueryAssignments(ctx)
}
