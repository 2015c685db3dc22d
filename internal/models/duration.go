package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnknownValue fills mandatory text fields a provider did not report.
const UnknownValue = "Unknown"

// Duration holds a track length as either raw milliseconds or provider text.
//
// Providers disagree on the shape: Spotify and iTunes report milliseconds,
// YouTube reports an ISO-8601 token that is converted to "m:ss" text, and
// stubs report a fixed string. The zero value renders as "Unknown".
type Duration struct {
	ms   int64
	text string
}

// DurationFromMillis wraps a millisecond length. Non-positive values are unknown.
func DurationFromMillis(ms int64) Duration {
	if ms <= 0 {
		return Duration{}
	}
	return Duration{ms: ms}
}

// DurationFromText wraps already formatted text such as "3:45".
func DurationFromText(s string) Duration {
	return Duration{text: strings.TrimSpace(s)}
}

// FormatMillis renders ms as minutes and zero-padded seconds.
func FormatMillis(ms int64) string {
	return fmt.Sprintf("%d:%02d", ms/60000, (ms%60000)/1000)
}

// Millis returns the raw length when the provider reported one.
func (d Duration) Millis() (int64, bool) {
	return d.ms, d.ms > 0
}

// IsKnown reports whether any length information is present.
func (d Duration) IsKnown() bool {
	return d.ms > 0 || (d.text != "" && d.text != UnknownValue)
}

func (d Duration) String() string {
	switch {
	case d.ms > 0:
		return FormatMillis(d.ms)
	case d.text != "":
		return d.text
	default:
		return UnknownValue
	}
}

// MarshalJSON always emits the "m:ss" text form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a millisecond number or a text value.
func (d *Duration) UnmarshalJSON(data []byte) error {
	if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*d = DurationFromMillis(ms)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a number or string: %w", err)
	}
	*d = DurationFromText(s)
	return nil
}
