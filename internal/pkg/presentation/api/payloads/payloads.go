package payloads

import (
	"net/http"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/generator"
	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/api/payloads/auth"
	"github.com/diwise/iot-sample-payload/internal/pkg/presentation/api/payloads/problems"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/client"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/go-chi/chi/v5"
)

// NewGeneratePayloadHandler generates a sample payload for the device or
// technical object named by the url parameter. A selection without sensors is
// answered with 204 No Content.
func NewGeneratePayloadHandler(app generator.App, authenticator auth.Enticator, mode payload.Mode, urlParam string) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		ctx, span := tracer.Start(ctx, "generate-payload")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		if !checkAccess(ctx, w, r, authenticator, tenant) {
			return
		}

		selector := chi.URLParam(r, urlParam)
		log := logging.GetFromContext(ctx)

		result, err := app.GeneratePayload(ctx, tenant, mode, selector)
		if err != nil {
			log.Error("failed to generate payload", "selector", selector, "err", err.Error())
			problems.FromError(err).WriteResponse(w)
			return
		}

		w.Header().Add("Run-Id", result.Run.ID.String())

		if result.Empty {
			log.Info("no payload generated", "selector", selector, "reason", result.Reason)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Payload)
	})
}

func NewListDevicesHandler(app generator.App, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		ctx, span := tracer.Start(ctx, "list-devices")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		if !checkAccess(ctx, w, r, authenticator, tenant) {
			return
		}

		params := []client.RequestDecoratorFunc{}
		if filter := r.URL.Query().Get("filter"); filter != "" {
			params = append(params, client.Filter(filter))
		}
		if orderBy := r.URL.Query().Get("orderby"); orderBy != "" {
			params = append(params, client.OrderBy(orderBy))
		}

		devices, err := app.ListDevices(ctx, tenant, params...)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to list devices", "err", err.Error())
			problems.FromError(err).WriteResponse(w)
			return
		}

		writeJSON(w, devices)
	})
}

// NewListAssignmentsHandler answers with 204 No Content when the tenant has no
// assignments, in which case no filtered payload can be generated.
func NewListAssignmentsHandler(app generator.App, authenticator auth.Enticator) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx := r.Context()
		tenant := GetTenantFromContext(ctx)

		ctx, span := tracer.Start(ctx, "list-assignments")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		if !checkAccess(ctx, w, r, authenticator, tenant) {
			return
		}

		assignments, err := app.ListAssignments(ctx, tenant)
		if err != nil {
			logging.GetFromContext(ctx).Error("failed to list assignments", "err", err.Error())
			problems.FromError(err).WriteResponse(w)
			return
		}

		if len(assignments) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, assignments)
	})
}
