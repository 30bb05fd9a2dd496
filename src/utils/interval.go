package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var intervalRegex = regexp.MustCompile(`^(\d+y)?(?::?(\d+m))?(?::?(\d+w))?(?::?(\d+d))?$`)

// TimeInterval represents a parsed interval with years, months, weeks, and days.
type TimeInterval struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// ParseTimeInterval parses a string such as "1d", "2w", "1m" or "1y:2m:1w:3d".
func ParseTimeInterval(intervalStr string) (*TimeInterval, error) {
	match := intervalRegex.FindStringSubmatch(intervalStr)
	if match == nil || intervalStr == "" {
		return nil, fmt.Errorf("invalid interval %q", intervalStr)
	}

	values := make([]int, 4)
	for i, part := range match[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part[:len(part)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q: %w", intervalStr, err)
		}
		values[i] = n
	}

	ti := &TimeInterval{Years: values[0], Months: values[1], Weeks: values[2], Days: values[3]}
	if ti.IsZero() {
		return nil, fmt.Errorf("interval %q is empty", intervalStr)
	}
	return ti, nil
}

func (ti *TimeInterval) IsZero() bool {
	return ti.Years == 0 && ti.Months == 0 && ti.Weeks == 0 && ti.Days == 0
}

// AddTo advances t by the interval using calendar arithmetic.
func (ti *TimeInterval) AddTo(t time.Time) time.Time {
	return t.AddDate(ti.Years, ti.Months, ti.Weeks*7+ti.Days)
}

// ToDuration converts the TimeInterval to a time.Duration, ignoring years and months since they vary.
func (ti *TimeInterval) ToDuration() time.Duration {
	totalDays := ti.Days + (ti.Weeks * 7)
	return time.Duration(totalDays) * 24 * time.Hour
}
