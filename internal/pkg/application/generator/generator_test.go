package generator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/diwise/iot-sample-payload/internal/pkg/application/payload"
	"github.com/diwise/iot-sample-payload/internal/pkg/infrastructure/metrics"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/client"
	dmerrors "github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGeneratePayloadForDevice(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	result, err := app.GeneratePayload(context.Background(), DefaultTenant, payload.Direct, "d1")

	is.NoErr(err)
	is.Equal(len(result.Fragments), 2)
	is.Equal(result.Fragments[0].CapabilityAlternateID, "climate")
	is.Equal(result.Fragments[1].CapabilityAlternateID, "door")
	is.True(len(result.Payload) > 0)
}

func TestGeneratePayloadForObject(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, true)
	defer ts.Close()

	result, err := app.GeneratePayload(context.Background(), DefaultTenant, payload.Filtered, "pump-1")

	is.NoErr(err)
	is.Equal(len(result.Fragments), 1)
	is.Equal(result.Fragments[0].CapabilityAlternateID, "door")
}

func TestGeneratePayloadForDeviceWithoutSensors(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	result, err := app.GeneratePayload(context.Background(), DefaultTenant, payload.Direct, "d2")

	is.NoErr(err)
	is.True(result.Empty)
}

func TestGeneratePayloadForUnknownDevice(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	_, err := app.GeneratePayload(context.Background(), DefaultTenant, payload.Direct, "d3")

	is.True(errors.Is(err, dmerrors.ErrNotFound))
}

func TestGeneratePayloadForUnknownTenant(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	_, err := app.GeneratePayload(context.Background(), "unknown", payload.Direct, "d1")

	is.True(errors.Is(err, dmerrors.ErrUnknownTenant))
}

func TestListDevices(t *testing.T) {
	is, app, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	devices, err := app.ListDevices(context.Background(), DefaultTenant)

	is.NoErr(err)
	is.Equal(len(devices), 2)
}

func TestListDevicesSendsFilterToDeviceModel(t *testing.T) {
	is := is.New(t)

	var query url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Add("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"d2","alternateId":"gw-2"}]`))
	}))
	defer ts.Close()

	app := NewWithClients(map[string]client.DeviceModelClient{DefaultTenant: client.NewDeviceModelClient(ts.URL)}, nil)

	devices, err := app.ListDevices(context.Background(), DefaultTenant, client.Filter("gatewayId eq '2'"), client.OrderBy("name"))

	is.NoErr(err)
	is.Equal(len(devices), 1)
	is.Equal(query.Get("filter"), "gatewayId eq '2'")
	is.Equal(query.Get("orderby"), "name")
}

func TestListAssignmentsWhenTenantHasNone(t *testing.T) {
	is := is.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	app := NewWithClients(map[string]client.DeviceModelClient{DefaultTenant: client.NewDeviceModelClient(ts.URL)}, nil)

	assignments, err := app.ListAssignments(context.Background(), DefaultTenant)

	is.NoErr(err)
	is.Equal(len(assignments), 0)
}

func TestGeneratePayloadIsMeasured(t *testing.T) {
	is, _, ts := setupGeneratorTest(t, false)
	defer ts.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	app := NewWithClients(
		map[string]client.DeviceModelClient{DefaultTenant: client.NewDeviceModelClient(ts.URL)},
		nil,
		WithMetrics(m),
	)

	_, err := app.GeneratePayload(context.Background(), DefaultTenant, payload.Direct, "d1")
	is.NoErr(err)

	count, err := testutil.GatherAndCount(reg, "sample_payload_runs_total")
	is.NoErr(err)
	is.Equal(count, 1)

	count, err = testutil.GatherAndCount(reg, "sample_payload_entity_fetches_total")
	is.NoErr(err)
	is.Equal(count, 3) // one series each for device, sensor type and capability
}

func TestNewLoadsServiceKeysFromConfig(t *testing.T) {
	is := is.New(t)

	keyFile := filepath.Join(t.TempDir(), "key.json")
	err := os.WriteFile(keyFile, []byte(serviceKey), 0600)
	is.NoErr(err)

	_, err = New(context.Background(), SingleTenant(keyFile, false))
	is.NoErr(err)

	_, err = New(context.Background(), SingleTenant(filepath.Join(t.TempDir(), "missing.json"), false))
	is.True(err != nil) // a missing service key should fail
}

func setupGeneratorTest(t *testing.T, cache bool) (*is.I, App, *httptest.Server) {
	is := is.New(t)

	responses := map[string]string{
		"/api/v1/devices":              `[{"id":"d1","alternateId":"thermo","name":"Thermo"},{"id":"d2","alternateId":"empty","name":"Empty"}]`,
		"/api/v1/devices/d1":           `{"id":"d1","alternateId":"thermo","sensors":[{"id":"s1","alternateId":"sensor-1","sensorTypeId":"st1"}]}`,
		"/api/v1/devices/d2":           `{"id":"d2","alternateId":"empty"}`,
		"/api/v1/sensors/s1":           `{"id":"s1","alternateId":"sensor-1","sensorTypeId":"st1"}`,
		"/api/v1/sensorTypes/st1":      `{"id":"st1","capabilities":[{"id":"c1","type":"measure"},{"id":"c2","type":"command"},{"id":"c3","type":"measure"}]}`,
		"/api/v1/capabilities/c1":      `{"id":"c1","alternateId":"climate","properties":[{"name":"temp","dataType":"double"}]}`,
		"/api/v1/capabilities/c3":      `{"id":"c3","alternateId":"door","properties":[{"name":"open","dataType":"boolean"},{"name":"at","dataType":"date"}]}`,
		"/v1/assignments":              `[{"id":"a1","objectId":"pump-1","mappingId":"m1","sensors":[{"sensorId":"s1"}]}]`,
		"/v1/mappings/m1/measures":     `[{"capabilityId":"c2"},{"capabilityId":"c3"}]`,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":404,"message":"not found"}`))
			return
		}

		w.Header().Add("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	app := NewWithClients(
		map[string]client.DeviceModelClient{DefaultTenant: client.NewDeviceModelClient(ts.URL)},
		map[string]bool{DefaultTenant: cache},
	)

	return is, app, ts
}

const serviceKey string = `{
	"endpoints": {"iot-device-connectivity": "https://dc.example.com/iot/core"},
	"uaa": {"url": "https://uaa.example.com", "clientid": "sb-1|iotae_service", "clientsecret": "s3cr3t"}
}`
