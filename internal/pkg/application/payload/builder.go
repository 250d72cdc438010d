package payload

import (
	"context"
	"fmt"

	"github.com/diwise/iot-sample-payload/pkg/devicemodel"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

// CapabilityFilter decides which capabilities of a sensor type are eligible
// for payload generation, in addition to the measure-only rule.
type CapabilityFilter interface {
	Allows(capabilityID string) bool
}

type noFilter struct{}

func (noFilter) Allows(string) bool { return true }

func NoFilter() CapabilityFilter {
	return noFilter{}
}

// AllowedCapabilities is the set of capability ids a data mapping refers to.
type AllowedCapabilities map[string]struct{}

func NewAllowedCapabilities(capabilityIDs ...string) AllowedCapabilities {
	allowed := make(AllowedCapabilities, len(capabilityIDs))
	for _, id := range capabilityIDs {
		allowed[id] = struct{}{}
	}
	return allowed
}

func (a AllowedCapabilities) Allows(capabilityID string) bool {
	_, ok := a[capabilityID]
	return ok
}

type CapabilityRetriever interface {
	RetrieveCapability(ctx context.Context, capabilityID string) (*devicemodel.Capability, error)
}

type Builder struct {
	capabilities CapabilityRetriever
}

func NewBuilder(capabilities CapabilityRetriever) Builder {
	return Builder{capabilities: capabilities}
}

// Build produces one fragment per eligible capability of the sensor, in the
// order the capabilities are listed by the sensor type. Command capabilities
// never produce a fragment, whatever the filter says.
func (b Builder) Build(ctx context.Context, run Run, sensor devicemodel.Sensor, capabilities []devicemodel.CapabilityRef, filter CapabilityFilter) ([]Fragment, error) {
	if filter == nil {
		filter = NoFilter()
	}

	logger := logging.GetFromContext(ctx)
	fragments := make([]Fragment, 0, len(capabilities))

	for _, ref := range capabilities {
		if !ref.IsMeasure() || !filter.Allows(ref.ID) {
			continue
		}

		capability, err := b.capabilities.RetrieveCapability(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to build payload for sensor %s: %w", sensor.AlternateID, err)
		}

		fragments = append(fragments, newFragment(run, sensor, *capability))
	}

	logger.Debug("built capability fragments", "sensor", sensor.AlternateID, "count", len(fragments))

	return fragments, nil
}

func newFragment(run Run, sensor devicemodel.Sensor, capability devicemodel.Capability) Fragment {
	timestamp := run.Timestamp

	fragment := Fragment{
		SensorAlternateID:     sensor.AlternateID,
		CapabilityAlternateID: capability.AlternateID,
		Timestamp:             &timestamp,
	}

	measurement := NewMeasurement()

	for _, property := range capability.Properties {
		// a date property acts as the timestamp of the measurement
		if DataType(property.DataType) == Date {
			fragment.Timestamp = nil
		}

		measurement.Set(property.Name, SampleValue(property.DataType, run.Timestamp))
	}

	fragment.Measures = []Measurement{measurement}

	return fragment
}
