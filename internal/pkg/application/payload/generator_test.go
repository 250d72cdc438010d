package payload

import (
	"context"
	"errors"
	"testing"
	"time"

	dmerrors "github.com/diwise/iot-sample-payload/pkg/devicemodel/errors"
	"github.com/matryer/is"
)

const expectedTimestamp string = "2024-05-01T10:11:12.123456"

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 10, 11, 12, 123456000, time.UTC)
}

func newTestGenerator(f EntityFetcher, options ...func(*Generator)) *Generator {
	return NewGenerator(f, append([]func(*Generator){WithClock(fixedClock)}, options...)...)
}

func TestDeviceWithoutSensorsGivesEmptyResult(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().withDevice("d1")

	result, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.True(result.Empty)
	is.Equal(result.Reason, ReasonNoSensorsOnDevice)
	is.Equal(result.Payload, nil) // nothing should be serialized for an empty result
}

func TestDeviceWithSingleMeasureCapability(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1")).
		withSensorType("st1", measure("c1")).
		withCapability("c1", "climate", property("temp", "double"), property("status", "string"))

	result, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.True(!result.Empty)
	is.Equal(len(result.Fragments), 1)

	fragment := result.Fragments[0]
	is.Equal(fragment.SensorAlternateID, "alt-s1")
	is.Equal(fragment.CapabilityAlternateID, "climate")
	is.Equal(*fragment.Timestamp, expectedTimestamp)

	temp, _ := fragment.Measures[0].Get("temp")
	is.Equal(temp, 123456789012.75234)
	status, _ := fragment.Measures[0].Get("status")
	is.Equal(status, "Sample String")
}

func TestDeviceWithDatePropertyOmitsTimestamp(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1")).
		withSensorType("st1", measure("c1")).
		withCapability("c1", "climate", property("temp", "double"), property("status", "string"), property("eventTime", "date"))

	result, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.Equal(len(result.Fragments), 1)
	is.True(!result.Fragments[0].HasTimestamp())

	eventTime, _ := result.Fragments[0].Measures[0].Get("eventTime")
	is.Equal(eventTime, expectedTimestamp)
}

func TestAllFragmentsShareTheRunTimestamp(t *testing.T) {
	is := is.New(t)

	calls := 0
	clock := func() time.Time {
		calls++
		return fixedClock().Add(time.Duration(calls) * time.Hour)
	}

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1"), sensor("s2", "st1")).
		withSensorType("st1", measure("c1"), measure("c2")).
		withCapability("c1", "one", property("a", "integer")).
		withCapability("c2", "two", property("b", "date"))

	result, err := NewGenerator(f, WithClock(clock)).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.Equal(calls, 1) // the clock should be read once per run
	is.Equal(len(result.Fragments), 4)

	for _, fragment := range result.Fragments {
		if fragment.HasTimestamp() {
			is.Equal(*fragment.Timestamp, result.Run.Timestamp)
		} else {
			b, _ := fragment.Measures[0].Get("b")
			is.Equal(b, result.Run.Timestamp)
		}
	}
}

func TestDeviceFragmentsFollowSensorOrder(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s2", "st2"), sensor("s1", "st1")).
		withSensorType("st1", measure("c1")).
		withSensorType("st2", measure("c2"), command("c3"), measure("c1")).
		withCapability("c1", "one", property("a", "integer")).
		withCapability("c2", "two", property("b", "long"))

	result, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.Equal(len(result.Fragments), 3)
	is.Equal(result.Fragments[0].SensorAlternateID, "alt-s2")
	is.Equal(result.Fragments[0].CapabilityAlternateID, "two")
	is.Equal(result.Fragments[1].SensorAlternateID, "alt-s2")
	is.Equal(result.Fragments[1].CapabilityAlternateID, "one")
	is.Equal(result.Fragments[2].SensorAlternateID, "alt-s1")
}

func TestSharedSensorTypeIsFetchedPerSensorWithoutCache(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1"), sensor("s2", "st1")).
		withSensorType("st1", measure("c1")).
		withCapability("c1", "one", property("a", "integer"))

	_, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.NoErr(err)
	is.Equal(f.callCount("sensorType:st1"), 2)
	is.Equal(f.callCount("capability:c1"), 2)
}

func TestCacheDoesNotChangeTheResult(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1"), sensor("s2", "st1")).
		withSensorType("st1", measure("c1")).
		withCapability("c1", "one", property("a", "integer"))

	uncached, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")
	is.NoErr(err)

	f.calls = nil

	cached, err := newTestGenerator(f, WithCache(true)).Generate(context.Background(), Direct, "d1")
	is.NoErr(err)

	is.Equal(f.callCount("sensorType:st1"), 1)
	is.Equal(f.callCount("capability:c1"), 1)
	is.Equal(string(cached.Payload), string(uncached.Payload))
}

func TestFetchFailureAbortsTheRun(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1"), sensor("s2", "missing")).
		withSensorType("st1", measure("c1")).
		withCapability("c1", "one", property("a", "integer"))

	result, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")

	is.True(errors.Is(err, dmerrors.ErrNotFound))
	is.Equal(len(result.Fragments), 0) // no partial payload
	is.Equal(result.Payload, nil)
}

func TestUnknownDeviceIsAFetchFailure(t *testing.T) {
	is := is.New(t)

	_, err := newTestGenerator(newFakeFetcher()).Generate(context.Background(), Direct, "nope")

	is.True(errors.Is(err, dmerrors.ErrNotFound))
}

func TestObjectModeOnlyIncludesMappedCapabilities(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1"), sensor("s2", "st2")).
		withSensorType("st1", measure("c1"), measure("c2")).
		withSensorType("st2", measure("c3")).
		withCapability("c1", "one", property("a", "integer")).
		withCapability("c2", "two", property("b", "float")).
		withCapability("c3", "three", property("c", "boolean")).
		withAssignment("pump-1", "m1", []string{"s1", "s2"}, "c2", "c3", "c9")

	result, err := newTestGenerator(f).Generate(context.Background(), Filtered, "pump-1")

	is.NoErr(err)
	is.Equal(len(result.Fragments), 2)
	is.Equal(result.Fragments[0].CapabilityAlternateID, "two")
	is.Equal(result.Fragments[1].CapabilityAlternateID, "three")
	is.Equal(f.callCount("capability:c1"), 0)
	is.Equal(f.callCount("sensor:s1"), 1)
}

func TestObjectModeNeverIncludesCommandCapabilities(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1")).
		withSensorType("st1", command("measureA"), measure("measureB")).
		withCapability("measureA", "a", property("x", "integer")).
		withCapability("measureB", "b", property("y", "integer")).
		withAssignment("pump-1", "m1", []string{"s1"}, "measureA")

	result, err := newTestGenerator(f).Generate(context.Background(), Filtered, "pump-1")

	is.NoErr(err)
	is.True(!result.Empty)
	is.Equal(len(result.Fragments), 0)
	is.Equal(string(result.Payload), "[]")
}

func TestObjectModeIsSubsetOfDeviceMode(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().
		withDevice("d1", sensor("s1", "st1")).
		withSensorType("st1", measure("c1"), command("c2"), measure("c3"), measure("c4")).
		withCapability("c1", "one", property("a", "integer")).
		withCapability("c3", "three", property("c", "string")).
		withCapability("c4", "four", property("d", "binary")).
		withAssignment("pump-1", "m1", []string{"s1"}, "c2", "c4", "c1")

	direct, err := newTestGenerator(f).Generate(context.Background(), Direct, "d1")
	is.NoErr(err)

	filtered, err := newTestGenerator(f).Generate(context.Background(), Filtered, "pump-1")
	is.NoErr(err)

	inDirect := map[string]bool{}
	for _, fragment := range direct.Fragments {
		inDirect[fragment.CapabilityAlternateID] = true
	}

	is.Equal(len(filtered.Fragments), 2)
	for _, fragment := range filtered.Fragments {
		is.True(inDirect[fragment.CapabilityAlternateID]) // filtered fragments should exist in direct mode
	}
}

func TestObjectWithoutSensorsGivesEmptyResult(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().withAssignment("pump-1", "m1", nil)

	result, err := newTestGenerator(f).Generate(context.Background(), Filtered, "pump-1")

	is.NoErr(err)
	is.True(result.Empty)
	is.Equal(result.Reason, ReasonNoSensorsOnObject)
}

func TestObjectModeFailsWhenMappingIsMissing(t *testing.T) {
	is := is.New(t)

	f := newFakeFetcher().withDevice("d1", sensor("s1", "st1")).withAssignment("pump-1", "m1", []string{"s1"})
	delete(f.mappings, "m1")

	_, err := newTestGenerator(f).Generate(context.Background(), Filtered, "pump-1")

	is.True(errors.Is(err, dmerrors.ErrNotFound))
}

func TestParseMode(t *testing.T) {
	is := is.New(t)

	for input, expected := range map[string]Mode{"": Direct, "direct": Direct, "IoT": Direct, "filtered": Filtered, " apm ": Filtered} {
		mode, err := ParseMode(input)
		is.NoErr(err)
		is.Equal(mode, expected)
	}

	_, err := ParseMode("other")
	is.True(err != nil)
}
