package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	"github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type DeviceModelClient interface {
	RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error)
	RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error)
	RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error)
	RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error)
	RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error)
	QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error)
	QueryDevices(ctx context.Context, parameters ...RequestDecoratorFunc) ([]devicemodel.Device, error)
	QueryAssignments(ctx context.Context, parameters ...RequestDecoratorFunc) ([]devicemodel.Assignment, error)
}

type RequestDecoratorFunc func([]string) []string

func Debug(enabled string) func(*dmClient) {
	return func(c *dmClient) {
		c.debug = (enabled == "true")
	}
}

// MappingEndpoint sets the base url of the data mapping service that holds
// assignments and mappings. It defaults to the device connectivity endpoint.
func MappingEndpoint(endpoint string) func(*dmClient) {
	return func(c *dmClient) {
		c.mappingURL = strings.TrimSuffix(endpoint, "/")
	}
}

func PageSize(size int) func(*dmClient) {
	return func(c *dmClient) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithHTTPClient replaces the default instrumented http client, typically with
// one that authorizes its requests.
func WithHTTPClient(httpClient *http.Client) func(*dmClient) {
	return func(c *dmClient) {
		c.httpClient = httpClient
	}
}

const DefaultPageSize int = 100

func NewDeviceModelClient(deviceConnectivity string, options ...func(*dmClient)) DeviceModelClient {
	baseURL := strings.TrimSuffix(deviceConnectivity, "/")

	c := &dmClient{
		baseURL:    baseURL,
		mappingURL: baseURL,
		pageSize:   DefaultPageSize,
		debug:      false,
	}

	for _, option := range options {
		option(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return c
}

const (
	TraceAttributeEntityID   string = "entity-id"
	TraceAttributeEntityType string = "entity-type"
)

var tracer = otel.Tracer("iot-sample-payload/devicemodel-client")

type dmClient struct {
	baseURL    string
	mappingURL string
	pageSize   int
	debug      bool
	httpClient *http.Client
}

func (c dmClient) RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error) {
	return retrieve[devicemodel.Device](ctx, c, "device", deviceID,
		c.baseURL+"/api/v1/devices/"+url.PathEscape(deviceID),
	)
}

func (c dmClient) RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error) {
	return retrieve[devicemodel.Sensor](ctx, c, "sensor", sensorID,
		c.baseURL+"/api/v1/sensors/"+url.PathEscape(sensorID),
	)
}

func (c dmClient) RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error) {
	return retrieve[devicemodel.SensorType](ctx, c, "sensor-type", sensorTypeID,
		c.baseURL+"/api/v1/sensorTypes/"+url.PathEscape(sensorTypeID),
	)
}

func (c dmClient) RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error) {
	return retrieve[devicemodel.Capability](ctx, c, "capability", capabilityID,
		c.baseURL+"/api/v1/capabilities/"+url.PathEscape(capabilityID),
	)
}

func (c dmClient) RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-assignment",
		trace.WithAttributes(attribute.String(TraceAttributeEntityType, "assignment")),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, objectID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	assignments := []devicemodel.Assignment{}
	err = c.getJSON(ctx, c.mappingURL+"/v1/assignments?"+strings.Join(ObjectID(objectID)(nil), "&"), &assignments)
	if err != nil {
		return nil, err
	}

	for idx := range assignments {
		if assignments[idx].ObjectID == objectID {
			return &assignments[idx], nil
		}
	}

	err = errors.NewNotFoundError(fmt.Sprintf("no assignment found for object %s", objectID))
	return nil, err
}

func (c dmClient) QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-mapped-measures",
		trace.WithAttributes(attribute.String(TraceAttributeEntityType, "mapping")),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, mappingID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	measures := []devicemodel.MappedMeasure{}
	err = c.getJSON(ctx, c.mappingURL+"/v1/mappings/"+url.PathEscape(mappingID)+"/measures", &measures)
	if err != nil {
		return nil, err
	}

	return measures, nil
}

func (c dmClient) QueryDevices(ctx context.Context, parameters ...RequestDecoratorFunc) ([]devicemodel.Device, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-devices")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	devices := []devicemodel.Device{}
	_, err = queryAll(ctx, c, c.baseURL+"/api/v1/devices", parameters, func(d devicemodel.Device) {
		devices = append(devices, d)
	})
	if err != nil {
		return nil, err
	}

	return devices, nil
}

func (c dmClient) QueryAssignments(ctx context.Context, parameters ...RequestDecoratorFunc) ([]devicemodel.Assignment, error) {
	var err error

	ctx, span := tracer.Start(ctx, "query-assignments")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	assignments := []devicemodel.Assignment{}
	_, err = queryAll(ctx, c, c.mappingURL+"/v1/assignments", parameters, func(a devicemodel.Assignment) {
		assignments = append(assignments, a)
	})
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

func (c dmClient) getJSON(ctx context.Context, endpoint string, result any) error {
	response, responseBody, err := c.callService(ctx, http.MethodGet, endpoint)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusOK {
		contentType := response.Header.Get("Content-Type")
		return errors.NewErrorFromResponse(response.StatusCode, contentType, responseBody)
	}

	err = json.Unmarshal(responseBody, result)
	if err != nil {
		if c.debug && len(responseBody) < 1000 {
			return errors.NewBadResponseError(fmt.Sprintf("unmarshaling of %s failed with err %s", string(responseBody), err.Error()))
		}

		return errors.NewBadResponseError(fmt.Sprintf("failed to unmarshal response: %s", err.Error()))
	}

	return nil
}

func (c dmClient) callService(ctx context.Context, method, endpoint string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %s (%w)", err.Error(), errors.ErrInternal)
	}

	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %s (%w)", err.Error(), errors.ErrRequest)
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %s (%w)", err.Error(), errors.ErrBadResponse)
	}

	if c.debug && resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusNotFound {
			reqbytes, _ := httputil.DumpRequest(req, false)
			respbytes, _ := httputil.DumpResponse(resp, false)

			log := logging.GetFromContext(ctx)
			log.Error("request failed", "request", string(reqbytes), "response", string(respbytes))
		}
	}

	return resp, respBody, nil
}

func retrieve[T any](ctx context.Context, c dmClient, entityType, entityID, endpoint string) (*T, error) {
	var err error

	ctx, span := tracer.Start(ctx, "retrieve-"+entityType,
		trace.WithAttributes(attribute.String(TraceAttributeEntityType, entityType)),
		trace.WithAttributes(attribute.String(TraceAttributeEntityID, entityID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	result := new(T)
	err = c.getJSON(ctx, endpoint, result)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s %s: %w", entityType, entityID, err)
	}

	return result, nil
}
