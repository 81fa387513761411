package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseDynamicJSON parses JSON data from a byte slice into a DynamicMessage map.
// It returns ErrJSONUnmarshalFailed (wrapping the original error) if unmarshalling fails.
func ParseDynamicJSON(data []byte) (DynamicMessage, error) {
	var msg DynamicMessage

	err := json.Unmarshal(data, &msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}
	return msg, nil
}

// ParseSample decodes one KPI sample message.
func ParseSample(data []byte) (Sample, error) {
	msg, err := ParseDynamicJSON(bytes.TrimSpace(data))
	if err != nil {
		return Sample{}, err
	}
	return msg.ToSample()
}

// EncodeSample is the inverse of ParseSample for numeric timestamps.
func EncodeSample(s Sample) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		FieldSeriesID:  s.SeriesID,
		FieldTimestamp: s.Timestamp,
		FieldValue:     s.Value,
	})
}
