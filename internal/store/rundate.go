package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"guildexp/lib/timezone"
)

var runDateLayouts = []string{
	time.RFC3339,
	time.DateOnly,
	time.DateTime,
}

// ResolveRunDate coerces a loosely typed run date into the start of its
// calendar day in the server save timezone. It accepts a time.Time, a string
// in one of runDateLayouts or a number of unix milliseconds.
func ResolveRunDate(v any) (time.Time, error) {
	switch value := v.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, fmt.Errorf("%w: zero run date", ErrInvalidArgument)
		}
		return timezone.StartOfDay(value), nil
	case string:
		return parseRunDate(value)
	case int:
		return timezone.StartOfDay(time.UnixMilli(int64(value))), nil
	case int64:
		return timezone.StartOfDay(time.UnixMilli(value)), nil
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return time.Time{}, fmt.Errorf("%w: run date %v", ErrInvalidArgument, value)
		}
		return timezone.StartOfDay(time.UnixMilli(int64(value))), nil
	case json.Number:
		millis, err := value.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: run date %q", ErrInvalidArgument, value)
		}
		return timezone.StartOfDay(time.UnixMilli(millis)), nil
	}
	return time.Time{}, fmt.Errorf("%w: run date of type %T", ErrInvalidArgument, v)
}

func parseRunDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range runDateLayouts {
		t, err := time.ParseInLocation(layout, s, timezone.Location)
		if err == nil {
			return timezone.StartOfDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: run date %q", ErrInvalidArgument, s)
}
