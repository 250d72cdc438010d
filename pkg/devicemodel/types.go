package devicemodel

const (
	CapabilityTypeMeasure string = "measure"
	CapabilityTypeCommand string = "command"
)

type Device struct {
	ID          string   `json:"id"`
	AlternateID string   `json:"alternateId"`
	Name        string   `json:"name"`
	GatewayID   string   `json:"gatewayId,omitempty"`
	Sensors     []Sensor `json:"sensors,omitempty"`
}

type Sensor struct {
	ID           string `json:"id"`
	AlternateID  string `json:"alternateId"`
	Name         string `json:"name,omitempty"`
	SensorTypeID string `json:"sensorTypeId"`
	DeviceID     string `json:"deviceId,omitempty"`
}

type SensorType struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	Capabilities []CapabilityRef `json:"capabilities"`
}

// CapabilityRef is the reference a sensor type holds to one of its capabilities.
// Type is either CapabilityTypeMeasure or CapabilityTypeCommand.
type CapabilityRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (c CapabilityRef) IsMeasure() bool {
	return c.Type == CapabilityTypeMeasure
}

type Capability struct {
	ID          string     `json:"id"`
	AlternateID string     `json:"alternateId"`
	Name        string     `json:"name,omitempty"`
	Properties  []Property `json:"properties"`
}

type Property struct {
	Name          string `json:"name"`
	DataType      string `json:"dataType"`
	UnitOfMeasure string `json:"unitOfMeasure,omitempty"`
}

// Assignment links a technical object to a data mapping and the sensors that
// deliver data for it.
type Assignment struct {
	ID        string             `json:"id"`
	ObjectID  string             `json:"objectId"`
	MappingID string             `json:"mappingId"`
	Sensors   []AssignedSensorID `json:"sensors"`
}

type AssignedSensorID struct {
	SensorID string `json:"sensorId"`
}

func (a Assignment) SensorIDs() []string {
	ids := make([]string, 0, len(a.Sensors))
	for _, s := range a.Sensors {
		ids = append(ids, s.SensorID)
	}
	return ids
}

type MappedMeasure struct {
	CapabilityID      string `json:"capabilityId"`
	SensorTypeID      string `json:"sensorTypeId,omitempty"`
	PropertySetTypeID string `json:"propertySetTypeId,omitempty"`
}
