package remo

import (
	"strings"
	"time"
)

// ParseTime parses an API timestamp such as "2024-05-01T12:00:00Z".
func ParseTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		v = strings.TrimSuffix(v, "Z") + "+00:00"
	}
	return time.Parse(time.RFC3339Nano, v)
}
