package payloads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/generator"
	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/api/payloads/auth"
	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/api/payloads/problems"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("iot-sample-payload/api")

const TraceAttributeTenant string = "tenant"

func RegisterHandlers(ctx context.Context, r chi.Router, policies io.Reader, app generator.App) error {
	authenticator, err := auth.NewAuthenticator(ctx, policies)
	if err != nil {
		return fmt.Errorf("failed to create api authenticator: %w", err)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			Logger(logging.GetFromContext(ctx)),
			TenantMiddleware(),
		)

		r.Route("/payloads", func(r chi.Router) {
			r.Get("/devices/{deviceId}", NewGeneratePayloadHandler(app, authenticator, payload.Direct, "deviceId"))
			r.Get("/objects/{objectId}", NewGeneratePayloadHandler(app, authenticator, payload.Filtered, "objectId"))
		})

		r.Get("/devices", NewListDevicesHandler(app, authenticator))
		r.Get("/assignments", NewListAssignmentsHandler(app, authenticator))
	})

	return nil
}

type tenantContextKey struct {
	name string
}

var tenantCtxKey = &tenantContextKey{"sample-payload-tenant"}

func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			_, ctx, _ = o11y.AddTraceIDToLoggerAndStoreInContext(
				trace.SpanFromContext(ctx),
				logger,
				ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantMiddleware packs the tenant id from the Tenant header into the context
func TenantMiddleware() func(http.Handler) http.Handler {
	tenantHeaderName := http.CanonicalHeaderKey("Tenant")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := generator.DefaultTenant

			tenantHeader := r.Header[tenantHeaderName]
			if len(tenantHeader) > 0 && tenantHeader[0] != "" {
				tenant = tenantHeader[0]
			}

			if labeler, found := otelhttp.LabelerFromContext(r.Context()); found {
				labeler.Add(attribute.String(TraceAttributeTenant, tenant))
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey, tenant)

			ctx = logging.NewContextWithLogger(
				ctx,
				logging.GetFromContext(r.Context()),
				"tenant",
				tenant,
			)

			if tenant != generator.DefaultTenant {
				w.Header().Add(tenantHeaderName, tenant)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenantFromContext extracts the tenant name, if any, from the provided context
func GetTenantFromContext(ctx context.Context) string {
	tenant, ok := ctx.Value(tenantCtxKey).(string)

	if !ok {
		return ""
	}

	return tenant
}

// checkAccess reports a denied request as not found so that clients without
// access cannot probe for existing devices or tenants.
func checkAccess(ctx context.Context, w http.ResponseWriter, r *http.Request, authenticator auth.Enticator, tenant string) bool {
	err := authenticator.CheckAccess(ctx, r, tenant)
	if err != nil {
		logging.GetFromContext(ctx).Warn("access not granted", "err", err.Error())
		problems.NewNotFound("not found").WriteResponse(w)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		problems.NewInternalError(err.Error()).WriteResponse(w)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
