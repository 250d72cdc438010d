package payload

import (
	"context"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
)

// CachingFetcher memoizes entities by id for the duration of a single run.
// It is not safe for concurrent use and failed fetches are not cached.
type CachingFetcher struct {
	next EntityFetcher

	devices      map[string]*devicemodel.Device
	sensors      map[string]*devicemodel.Sensor
	sensorTypes  map[string]*devicemodel.SensorType
	capabilities map[string]*devicemodel.Capability
}

func NewCachingFetcher(next EntityFetcher) *CachingFetcher {
	return &CachingFetcher{
		next:         next,
		devices:      make(map[string]*devicemodel.Device),
		sensors:      make(map[string]*devicemodel.Sensor),
		sensorTypes:  make(map[string]*devicemodel.SensorType),
		capabilities: make(map[string]*devicemodel.Capability),
	}
}

func memoize[T any](ctx context.Context, cache map[string]*T, id string, fetch func(context.Context, string) (*T, error)) (*T, error) {
	if entity, ok := cache[id]; ok {
		return entity, nil
	}

	entity, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	cache[id] = entity
	return entity, nil
}

func (c *CachingFetcher) RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error) {
	return memoize(ctx, c.devices, deviceID, c.next.RetrieveDevice)
}

func (c *CachingFetcher) RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error) {
	return memoize(ctx, c.sensors, sensorID, c.next.RetrieveSensor)
}

func (c *CachingFetcher) RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error) {
	return memoize(ctx, c.sensorTypes, sensorTypeID, c.next.RetrieveSensorType)
}

func (c *CachingFetcher) RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error) {
	return memoize(ctx, c.capabilities, capabilityID, c.next.RetrieveCapability)
}

func (c *CachingFetcher) RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error) {
	return c.next.RetrieveAssignment(ctx, objectID)
}

func (c *CachingFetcher) QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error) {
	return c.next.QueryMappedMeasures(ctx, mappingID)
}
