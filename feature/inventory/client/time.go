package client

import (
	"strings"
	"time"
)

// Layouts accepted for remote timestamps. .NET serializers emit fractional
// seconds of arbitrary width and sometimes drop the T separator.
var remoteTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseRemoteTime parses a timestamp string from a remote payload. A
// trailing Z is stripped so zone-less and UTC variants parse the same way.
// It returns nil when the value is blank or matches no known layout.
func ParseRemoteTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(s, "Z")
	for _, layout := range remoteTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
