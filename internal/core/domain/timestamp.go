package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// naiveLayouts are accepted for servers that omit the zone; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an RFC 3339 timestamp. A timestamp without a zone
// offset is taken to be UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrInvalidInput, s)
}

// wireTime is a time.Time that decodes with ParseTimestamp.
// Null and empty strings decode to the zero time.
type wireTime time.Time

func (w wireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(w))
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*w = wireTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: timestamp must be a string", ErrInvalidInput)
	}
	if s == "" {
		*w = wireTime{}
		return nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*w = wireTime(t)
	return nil
}
