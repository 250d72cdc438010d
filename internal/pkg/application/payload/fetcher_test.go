package payload

import (
	"context"
	"fmt"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	dmerrors "github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
)

// fakeFetcher serves entities from memory and counts every call per entity.
type fakeFetcher struct {
	devices      map[string]devicemodel.Device
	sensors      map[string]devicemodel.Sensor
	sensorTypes  map[string]devicemodel.SensorType
	capabilities map[string]devicemodel.Capability
	assignments  map[string]devicemodel.Assignment
	mappings     map[string][]devicemodel.MappedMeasure

	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		devices:      map[string]devicemodel.Device{},
		sensors:      map[string]devicemodel.Sensor{},
		sensorTypes:  map[string]devicemodel.SensorType{},
		capabilities: map[string]devicemodel.Capability{},
		assignments:  map[string]devicemodel.Assignment{},
		mappings:     map[string][]devicemodel.MappedMeasure{},
	}
}

func (f *fakeFetcher) callCount(call string) int {
	count := 0
	for _, c := range f.calls {
		if c == call {
			count++
		}
	}
	return count
}

func lookup[T any](f *fakeFetcher, kind string, entities map[string]T, id string) (*T, error) {
	f.calls = append(f.calls, kind+":"+id)

	entity, ok := entities[id]
	if !ok {
		return nil, dmerrors.NewNotFoundError(fmt.Sprintf("%s %s not found", kind, id))
	}

	return &entity, nil
}

func (f *fakeFetcher) RetrieveDevice(ctx context.Context, deviceID string) (*devicemodel.Device, error) {
	return lookup(f, "device", f.devices, deviceID)
}

func (f *fakeFetcher) RetrieveSensor(ctx context.Context, sensorID string) (*devicemodel.Sensor, error) {
	return lookup(f, "sensor", f.sensors, sensorID)
}

func (f *fakeFetcher) RetrieveSensorType(ctx context.Context, sensorTypeID string) (*devicemodel.SensorType, error) {
	return lookup(f, "sensorType", f.sensorTypes, sensorTypeID)
}

func (f *fakeFetcher) RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error) {
	return lookup(f, "capability", f.capabilities, capabilityID)
}

func (f *fakeFetcher) RetrieveAssignment(ctx context.Context, objectID string) (*devicemodel.Assignment, error) {
	return lookup(f, "assignment", f.assignments, objectID)
}

func (f *fakeFetcher) QueryMappedMeasures(ctx context.Context, mappingID string) ([]devicemodel.MappedMeasure, error) {
	measures, err := lookup(f, "mapping", f.mappings, mappingID)
	if err != nil {
		return nil, err
	}
	return *measures, nil
}

func (f *fakeFetcher) withCapability(id, alternateID string, properties ...devicemodel.Property) *fakeFetcher {
	f.capabilities[id] = devicemodel.Capability{ID: id, AlternateID: alternateID, Properties: properties}
	return f
}

func (f *fakeFetcher) withSensorType(id string, capabilities ...devicemodel.CapabilityRef) *fakeFetcher {
	f.sensorTypes[id] = devicemodel.SensorType{ID: id, Capabilities: capabilities}
	return f
}

func (f *fakeFetcher) withDevice(id string, sensors ...devicemodel.Sensor) *fakeFetcher {
	f.devices[id] = devicemodel.Device{ID: id, AlternateID: "alt-" + id, Name: "Device " + id, Sensors: sensors}
	for _, s := range sensors {
		f.sensors[s.ID] = s
	}
	return f
}

func (f *fakeFetcher) withAssignment(objectID, mappingID string, sensorIDs []string, capabilityIDs ...string) *fakeFetcher {
	a := devicemodel.Assignment{ID: "a-" + objectID, ObjectID: objectID, MappingID: mappingID}
	for _, id := range sensorIDs {
		a.Sensors = append(a.Sensors, devicemodel.AssignedSensorID{SensorID: id})
	}
	f.assignments[objectID] = a

	measures := []devicemodel.MappedMeasure{}
	for _, id := range capabilityIDs {
		measures = append(measures, devicemodel.MappedMeasure{CapabilityID: id})
	}
	f.mappings[mappingID] = measures

	return f
}

func measure(id string) devicemodel.CapabilityRef {
	return devicemodel.CapabilityRef{ID: id, Type: devicemodel.CapabilityTypeMeasure}
}

func command(id string) devicemodel.CapabilityRef {
	return devicemodel.CapabilityRef{ID: id, Type: devicemodel.CapabilityTypeCommand}
}

func property(name, dataType string) devicemodel.Property {
	return devicemodel.Property{Name: name, DataType: dataType}
}

func sensor(id, sensorTypeID string) devicemodel.Sensor {
	return devicemodel.Sensor{ID: id, AlternateID: "alt-" + id, SensorTypeID: sensorTypeID}
}
