// Package staleness backs the organization level "system staleness and
// deletion" settings card.
package staleness

import (
	"fmt"
	"math"
	"strings"
)

// SystemDefaultID marks an organization that has no staleness record yet.
const SystemDefaultID = "system_default"

const secondsPerDay = 86400

// API field names.
const (
	ConventionalStale        = "conventional_time_to_stale"
	ConventionalStaleWarning = "conventional_time_to_stale_warning"
	ConventionalDelete       = "conventional_time_to_delete"
	ImmutableStale           = "immutable_time_to_stale"
	ImmutableStaleWarning    = "immutable_time_to_stale_warning"
	ImmutableDelete          = "immutable_time_to_delete"
)

// HostKeys are edited when the immutable tab is shown.
var HostKeys = []string{
	ConventionalStale, ConventionalStaleWarning, ConventionalDelete,
	ImmutableStale, ImmutableStaleWarning, ImmutableDelete,
}

// ConventionalKeys are edited when only conventional systems exist.
var ConventionalKeys = []string{ConventionalStale, ConventionalStaleWarning, ConventionalDelete}

// maxDays bounds each setting by its suffix.
var maxDays = map[string]int{
	"time_to_stale":         7,
	"time_to_stale_warning": 180,
	"time_to_delete":        730,
}

// SecondsToDays converts an API value to whole days, rounding to nearest.
func SecondsToDays(seconds int64) int {
	return int(math.Round(float64(seconds) / secondsPerDay))
}

// DaysToSeconds converts a form value back to API seconds.
func DaysToSeconds(days int) int64 {
	return int64(days) * secondsPerDay
}

func isKnownKey(key string) bool {
	for _, k := range HostKeys {
		if k == key {
			return true
		}
	}
	return false
}

func suffix(key string) string {
	_, rest, _ := strings.Cut(key, "_")
	return rest
}

// Validate checks the form values for keys: every value is a positive
// number of days within its limit, and within each system type
// stale <= stale warning <= delete.
func Validate(form map[string]int, keys []string) error {
	for _, k := range keys {
		v := form[k]
		if v <= 0 {
			return fmt.Errorf("%s must be at least 1 day", k)
		}
		if limit := maxDays[suffix(k)]; v > limit {
			return fmt.Errorf("%s must be at most %d days", k, limit)
		}
	}
	for _, prefix := range []string{"conventional", "immutable"} {
		stale, okS := lookup(form, keys, prefix+"_time_to_stale")
		warn, okW := lookup(form, keys, prefix+"_time_to_stale_warning")
		del, okD := lookup(form, keys, prefix+"_time_to_delete")
		if okS && okW && stale > warn {
			return fmt.Errorf("%s systems: stale must not exceed stale warning", prefix)
		}
		if okW && okD && warn > del {
			return fmt.Errorf("%s systems: stale warning must not exceed deletion", prefix)
		}
	}
	return nil
}

func lookup(form map[string]int, keys []string, key string) (int, bool) {
	for _, k := range keys {
		if k == key {
			return form[key], true
		}
	}
	return 0, false
}
