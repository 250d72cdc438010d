package payload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EntityFetcher interface {
	CapabilityRetriever

	RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error)
	RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error)
	RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error)
	RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error)
	QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error)
}

type Mode string

const (
	Direct   Mode = "direct"
	Filtered Mode = "filtered"
)

// ParseMode accepts the mode names as well as the aliases "iot" for direct
// and "apm" for filtered traversal.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct", "iot":
		return Direct, nil
	case "filtered", "apm":
		return Filtered, nil
	}

	return "", fmt.Errorf("unknown mode %q, expected direct or filtered", s)
}

// Run carries the state shared by everything generated in one call.
type Run struct {
	ID        uuid.UUID
	Timestamp string
}

func NewRun(now time.Time) Run {
	return Run{
		ID:        uuid.New(),
		Timestamp: FormatTimestamp(now),
	}
}

const (
	ReasonNoSensorsOnDevice string = "no sensors have been assigned to the selected device"
	ReasonNoSensorsOnObject string = "no sensors have been assigned to the selected object"
)

type Result struct {
	Run       Run
	Mode      Mode
	Selector  string
	Fragments []Fragment
	Payload   []byte

	Empty  bool
	Reason string
}

func emptyResult(run Run, mode Mode, selector, reason string) Result {
	return Result{
		Run:      run,
		Mode:     mode,
		Selector: selector,
		Empty:    true,
		Reason:   reason,
	}
}

func WithCache(enabled bool) func(*Generator) {
	return func(g *Generator) {
		g.cache = enabled
	}
}

func WithClock(now func() time.Time) func(*Generator) {
	return func(g *Generator) {
		g.now = now
	}
}

type Generator struct {
	fetcher EntityFetcher
	cache   bool
	now     func() time.Time
}

func NewGenerator(fetcher EntityFetcher, options ...func(*Generator)) *Generator {
	g := &Generator{
		fetcher: fetcher,
		now:     time.Now,
	}

	for _, option := range options {
		option(g)
	}

	return g
}

var tracer = otel.Tracer("iot-sample-payload/generator")

// Generate walks the entity hierarchy for selector, a device id in direct mode
// or a technical object id in filtered mode, and returns the serialized
// payload. Any fetch failure aborts the run without a partial payload.
func (g *Generator) Generate(ctx context.Context, mode Mode, selector string) (Result, error) {
	var err error

	run := NewRun(g.now())

	ctx, span := tracer.Start(ctx, "generate-payload",
		trace.WithAttributes(attribute.String("mode", string(mode))),
		trace.WithAttributes(attribute.String("selector", selector)),
		trace.WithAttributes(attribute.String("run-id", run.ID.String())),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	logger := logging.GetFromContext(ctx).With(
		slog.String("run_id", run.ID.String()),
		slog.String("mode", string(mode)),
	)
	ctx = logging.NewContextWithLogger(ctx, logger)

	var fetcher EntityFetcher = g.fetcher
	if g.cache {
		fetcher = NewCachingFetcher(g.fetcher)
	}

	var result Result

	switch mode {
	case Direct:
		result, err = ForDevice(ctx, run, fetcher, selector)
	case Filtered:
		result, err = ForObject(ctx, run, fetcher, selector)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}

	if err != nil {
		return Result{}, err
	}

	if result.Empty {
		logger.Info("nothing to generate", "reason", result.Reason)
		return result, nil
	}

	result.Payload, err = Serialize(result.Fragments)
	if err != nil {
		return Result{}, err
	}

	logger.Info("generated sample payload", "fragments", len(result.Fragments))

	return result, nil
}

// ForDevice generates fragments for every measure capability of every sensor
// assigned to the device.
func ForDevice(ctx context.Context, run Run, fetcher EntityFetcher, deviceID string) (Result, error) {
	device, err := fetcher.RetrieveDevice(ctx, deviceID)
	if err != nil {
		return Result{}, err
	}

	if len(device.Sensors) == 0 {
		return emptyResult(run, Direct, deviceID, ReasonNoSensorsOnDevice), nil
	}

	fragments, err := traverse(ctx, run, fetcher, device.Sensors, NoFilter())
	if err != nil {
		return Result{}, err
	}

	return Result{
		Run:       run,
		Mode:      Direct,
		Selector:  deviceID,
		Fragments: fragments,
	}, nil
}

// ForObject generates fragments for the sensors assigned to a technical object,
// limited to the capabilities that the assignment's data mapping refers to.
func ForObject(ctx context.Context, run Run, fetcher EntityFetcher, objectID string) (Result, error) {
	assignment, err := fetcher.RetrieveAssignment(ctx, objectID)
	if err != nil {
		return Result{}, err
	}

	sensorIDs := assignment.SensorIDs()
	if len(sensorIDs) == 0 {
		return emptyResult(run, Filtered, objectID, ReasonNoSensorsOnObject), nil
	}

	sensors := make([]devicemodel.Sensor, 0, len(sensorIDs))
	for _, id := range sensorIDs {
		sensor, err := fetcher.RetrieveSensor(ctx, id)
		if err != nil {
			return Result{}, err
		}
		sensors = append(sensors, *sensor)
	}

	measures, err := fetcher.QueryMappedMeasures(ctx, assignment.MappingID)
	if err != nil {
		return Result{}, err
	}

	allowed := NewAllowedCapabilities()
	for _, m := range measures {
		allowed[m.CapabilityID] = struct{}{}
	}

	fragments, err := traverse(ctx, run, fetcher, sensors, allowed)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Run:       run,
		Mode:      Filtered,
		Selector:  objectID,
		Fragments: fragments,
	}, nil
}

func traverse(ctx context.Context, run Run, fetcher EntityFetcher, sensors []devicemodel.Sensor, filter CapabilityFilter) ([]Fragment, error) {
	logger := logging.GetFromContext(ctx)
	logger.Debug("iterating over sensors", "count", len(sensors))

	builder := NewBuilder(fetcher)
	fragments := make([]Fragment, 0, len(sensors))

	for _, sensor := range sensors {
		sensorType, err := fetcher.RetrieveSensorType(ctx, sensor.SensorTypeID)
		if err != nil {
			return nil, err
		}

		f, err := builder.Build(ctx, run, sensor, sensorType.Capabilities, filter)
		if err != nil {
			return nil, err
		}

		fragments = append(fragments, f...)
	}

	return fragments, nil
}
