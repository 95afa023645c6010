package monitor

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/climate-alarm/internal/domain/climate"
	"github.com/oshokin/climate-alarm/internal/repository/history"
)

// Struct keys shared by server and client.
const (
	keyHostname     = "hostname"
	keyUsername     = "username"
	keyLimit        = "limit"
	keyReadings     = "readings"
	keyTemperatureF = "temperature_f"
	keyTemperature  = "temperature"
	keyHumidity     = "humidity"
	keyUnit         = "unit"
	keyAlarmActive  = "alarm_active"
	keyThresholds   = "thresholds"
	keySampledAt    = "sampled_at"
	keyErrors       = "errors"
	keySensor       = "sensor"
	keyDisplay      = "display"
	keyActuator     = "actuator"
	keyStats        = "stats"
)

// errMalformedPayload is returned when a Struct lacks an expected field.
var errMalformedPayload = errors.New("malformed payload")

// ActorToStruct encodes a ToggleUnit request.
func ActorToStruct(actor *climate.Actor) *structpb.Struct {
	fields := map[string]*structpb.Value{}
	if actor != nil {
		fields[keyHostname] = structpb.NewStringValue(actor.Hostname)
		fields[keyUsername] = structpb.NewStringValue(actor.Username)
	}

	return &structpb.Struct{Fields: fields}
}

// ActorFromStruct decodes a ToggleUnit request; missing fields stay empty.
func ActorFromStruct(s *structpb.Struct) *climate.Actor {
	fields := s.GetFields()

	return &climate.Actor{
		Hostname: fields[keyHostname].GetStringValue(),
		Username: fields[keyUsername].GetStringValue(),
	}
}

// LimitToStruct encodes a GetHistory request.
func LimitToStruct(limit int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyLimit: structpb.NewNumberValue(float64(limit)),
	}}
}

// limitFromStruct decodes a GetHistory request; absent means zero.
func limitFromStruct(s *structpb.Struct) int {
	return int(s.GetFields()[keyLimit].GetNumberValue())
}

// StatusToStruct encodes a status snapshot. extra, when not nil, is attached
// under "stats" and must hold structpb-compatible values.
func StatusToStruct(st *climate.Status, extra map[string]any) (*structpb.Struct, error) {
	if st == nil {
		return nil, fmt.Errorf("nil status: %w", errMalformedPayload)
	}

	sampledAt := ""
	if !st.SampledAt.IsZero() {
		sampledAt = st.SampledAt.UTC().Format(time.RFC3339Nano)
	}

	fields := map[string]any{
		keyTemperatureF: st.Reading.Primary,
		keyTemperature:  st.Unit.Convert(st.Reading.Primary),
		keyHumidity:     st.Reading.Secondary,
		keyUnit:         st.Unit.Symbol(),
		keyAlarmActive:  st.AlarmActive,
		keySampledAt:    sampledAt,
		keyThresholds: map[string]any{
			keyTemperatureF: st.Thresholds.Temperature,
			keyHumidity:     st.Thresholds.Humidity,
		},
		keyErrors: map[string]any{
			keySensor:   st.SensorErrors,
			keyDisplay:  st.DisplayErrors,
			keyActuator: st.ActuatorErrors,
		},
	}

	if extra != nil {
		fields[keyStats] = extra
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}

	return s, nil
}

// StatusFromStruct decodes a GetStatus response. The "stats" section is
// returned as a plain map.
func StatusFromStruct(s *structpb.Struct) (*climate.Status, map[string]any, error) {
	fields := s.GetFields()

	unitValue, ok := fields[keyUnit]
	if !ok {
		return nil, nil, fmt.Errorf("%s missing: %w", keyUnit, errMalformedPayload)
	}

	unit, err := climate.ParseUnit(unitValue.GetStringValue())
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", keyUnit, errMalformedPayload)
	}

	st := &climate.Status{
		Reading: climate.Reading{
			Primary:   fields[keyTemperatureF].GetNumberValue(),
			Secondary: fields[keyHumidity].GetNumberValue(),
		},
		Unit:        unit,
		AlarmActive: fields[keyAlarmActive].GetBoolValue(),
	}

	if raw := fields[keySampledAt].GetStringValue(); raw != "" {
		if st.SampledAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", keySampledAt, errMalformedPayload)
		}
	}

	thresholds := fields[keyThresholds].GetStructValue().GetFields()
	st.Thresholds = climate.Thresholds{
		Temperature: thresholds[keyTemperatureF].GetNumberValue(),
		Humidity:    thresholds[keyHumidity].GetNumberValue(),
	}

	counters := fields[keyErrors].GetStructValue().GetFields()
	st.SensorErrors = uint64(counters[keySensor].GetNumberValue())
	st.DisplayErrors = uint64(counters[keyDisplay].GetNumberValue())
	st.ActuatorErrors = uint64(counters[keyActuator].GetNumberValue())

	var extra map[string]any
	if stats := fields[keyStats].GetStructValue(); stats != nil {
		extra = stats.AsMap()
	}

	return st, extra, nil
}

// EntriesToStruct encodes a GetHistory response.
func EntriesToStruct(entries []history.Entry) *structpb.Struct {
	readings := make([]*structpb.Value, 0, len(entries))

	for _, e := range entries {
		readings = append(readings, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			keySampledAt:    structpb.NewStringValue(e.At.UTC().Format(time.RFC3339Nano)),
			keyTemperatureF: structpb.NewNumberValue(e.Reading.Primary),
			keyHumidity:     structpb.NewNumberValue(e.Reading.Secondary),
		}}))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyReadings: structpb.NewListValue(&structpb.ListValue{Values: readings}),
	}}
}

// EntriesFromStruct decodes a GetHistory response.
func EntriesFromStruct(s *structpb.Struct) ([]history.Entry, error) {
	values := s.GetFields()[keyReadings].GetListValue().GetValues()
	entries := make([]history.Entry, 0, len(values))

	for i, v := range values {
		fields := v.GetStructValue().GetFields()

		at, err := time.Parse(time.RFC3339Nano, fields[keySampledAt].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("reading %d %s: %w", i, keySampledAt, errMalformedPayload)
		}

		entries = append(entries, history.Entry{
			At: at,
			Reading: climate.Reading{
				Primary:   fields[keyTemperatureF].GetNumberValue(),
				Secondary: fields[keyHumidity].GetNumberValue(),
			},
		})
	}

	return entries, nil
}
