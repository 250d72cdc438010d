package payload

import (
	"time"
)

// DataType is one of the property data types supported by the device model service.
type DataType string

const (
	Integer DataType = "integer"
	Long    DataType = "long"
	Float   DataType = "float"
	Double  DataType = "double"
	Boolean DataType = "boolean"
	String  DataType = "string"
	Binary  DataType = "binary"
	Date    DataType = "date"
)

const UnknownDataTypeValue string = "Error - Unknown Data Type"

// SampleValue returns the representative value for a declared data type. Data
// type tokens are matched case sensitively. Date properties take the run
// timestamp and unknown tokens resolve to UnknownDataTypeValue.
func SampleValue(dataType string, timestamp string) any {
	switch DataType(dataType) {
	case Integer:
		return int64(42)
	case Long:
		return int64(314159265359)
	case Float:
		return 1234567.75
	case Double:
		return 123456789012.75234
	case Boolean:
		return true
	case String:
		return "Sample String"
	case Binary:
		return "Binary content as Base64-encoded string"
	case Date:
		return timestamp
	default:
		return UnknownDataTypeValue
	}
}

const (
	timestampLayout             string = "2006-01-02T15:04:05"
	timestampWithFractionLayout string = "2006-01-02T15:04:05.000000"
)

// FormatTimestamp renders t in UTC as ISO-8601 without a zone suffix. The
// fraction is given in microseconds and left out entirely when it is zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()

	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(timestampLayout)
	}

	return t.Format(timestampWithFractionLayout)
}
