package message

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sanspareilsmyn/kpilens/internal/table"
)

// Field names of a KPI sample message.
const (
	FieldSeriesID  = "series_id"
	FieldKPIID     = "kpi_id"
	FieldTimestamp = "timestamp"
	FieldValue     = "value"
)

// DynamicMessage represents a message with arbitrary key-value pairs,
// typically parsed from JSON.
type DynamicMessage map[string]interface{}

// Sample is one observation of one KPI series.
type Sample struct {
	SeriesID  string
	Timestamp int64 // unix seconds
	Value     float64
}

// GetFloat64 retrieves a float64 value for a given key.
// Handles missing keys, null values, and potential integer-to-float conversion.
// Returns the value pointer and true if successful, otherwise (nil, false).
func (dm DynamicMessage) GetFloat64(key string) (*float64, bool) {
	val, exists := dm[key]
	if !exists || val == nil {
		return nil, false
	}

	if fVal, ok := val.(float64); ok {
		return &fVal, true
	}

	switch v := val.(type) {
	case int:
		fVal := float64(v)
		return &fVal, true
	case int64:
		fVal := float64(v)
		return &fVal, true
	case float32:
		fVal := float64(v)
		return &fVal, true
	case string:
		// some exporters quote numbers
		if fVal, err := strconv.ParseFloat(v, 64); err == nil {
			return &fVal, true
		}
	}

	return nil, false
}

// HasNonNull checks if a key exists and its value is not explicitly null.
func (dm DynamicMessage) HasNonNull(key string) bool {
	val, exists := dm[key]
	return exists && val != nil
}

// GetTime attempts to retrieve a time.Time value for a given key.
// Assumes the timestamp is stored as a string parsable by common formats.
func (dm DynamicMessage) GetTime(key string) (*time.Time, bool) {
	val, exists := dm[key]
	if !exists || val == nil {
		return nil, false
	}

	timeStr, ok := val.(string)
	if !ok {
		return nil, false
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, timeStr); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// GetUnixSeconds reads key as either a numeric unix timestamp or a time string.
func (dm DynamicMessage) GetUnixSeconds(key string) (int64, bool) {
	if t, ok := dm.GetTime(key); ok {
		return t.Unix(), true
	}
	f, ok := dm.GetFloat64(key)
	if !ok || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return 0, false
	}
	return int64(*f), true
}

// SeriesID returns the series identifier under series_id, falling back to kpi_id. Numeric IDs
// are normalized the same way as CSV input.
func (dm DynamicMessage) SeriesID() (string, bool) {
	for _, key := range []string{FieldSeriesID, FieldKPIID} {
		switch v := dm[key].(type) {
		case string:
			if v != "" {
				return table.NormalizeID(v), true
			}
		case float64:
			return table.NormalizeID(strconv.FormatFloat(v, 'f', -1, 64)), true
		}
	}
	return "", false
}

// ToSample extracts a Sample, failing with ErrMissingField or ErrInvalidField.
func (dm DynamicMessage) ToSample() (Sample, error) {
	id, ok := dm.SeriesID()
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s", ErrMissingField, FieldSeriesID)
	}

	if !dm.HasNonNull(FieldTimestamp) {
		return Sample{}, fmt.Errorf("%w: %s", ErrMissingField, FieldTimestamp)
	}
	ts, ok := dm.GetUnixSeconds(FieldTimestamp)
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s=%s", ErrInvalidField, FieldTimestamp, dm.GetFieldSnippet(FieldTimestamp, 32))
	}

	if !dm.HasNonNull(FieldValue) {
		return Sample{}, fmt.Errorf("%w: %s", ErrMissingField, FieldValue)
	}
	v, ok := dm.GetFloat64(FieldValue)
	if !ok {
		return Sample{}, fmt.Errorf("%w: %s=%s", ErrInvalidField, FieldValue, dm.GetFieldSnippet(FieldValue, 32))
	}

	return Sample{SeriesID: id, Timestamp: ts, Value: *v}, nil
}

// GetFieldSnippet returns a string snippet of a field's value, useful for logging.
// It handles missing keys and truncates long values to maxLength runes.
func (dm DynamicMessage) GetFieldSnippet(fieldName string, maxLength int) string {
	value, exists := dm[fieldName]
	if !exists {
		return "<missing>"
	}

	strValue := fmt.Sprintf("%v", value)
	if maxLength <= 0 {
		return "..."
	}
	if utf8.RuneCountInString(strValue) > maxLength {
		return string([]rune(strValue)[:maxLength]) + "..."
	}
	return strValue
}
