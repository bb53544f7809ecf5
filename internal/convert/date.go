package convert

import (
	"time"
)

// dateLayouts are tried in order when parsing date strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisCutoff disambiguates epoch seconds from milliseconds: any
// magnitude above it is treated as milliseconds.
const epochMillisCutoff = 1e10

// ToTime coerces a loosely-typed date value into a time.Time. Accepted
// shapes: ISO strings (date or datetime, trailing "Z" tolerated), component
// maps {year,month,day[,hour,minute,second]}, epoch numbers in seconds or
// milliseconds, and native time.Time values.
func ToTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case string:
		return parseTimeString(val)
	case float64:
		return fromEpoch(val), true
	case int:
		return fromEpoch(float64(val)), true
	case int64:
		return fromEpoch(float64(val)), true
	case map[string]any:
		return fromComponents(val)
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) time.Time {
	if f > epochMillisCutoff || f < -epochMillisCutoff {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

func fromComponents(m map[string]any) (time.Time, bool) {
	year, okY := ToFloatOK(m["year"])
	month, okM := ToFloatOK(m["month"])
	day, okD := ToFloatOK(m["day"])
	if !okY || !okM || !okD {
		return time.Time{}, false
	}
	hour := ToFloat(m["hour"])
	minute := ToFloat(m["minute"])
	second := ToFloat(m["second"])
	return time.Date(int(year), time.Month(int(month)), int(day),
		int(hour), int(minute), int(second), 0, time.UTC), true
}
