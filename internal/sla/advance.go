package sla

import (
	"fmt"
	"time"
)

// endOfBusinessHour is the UTC hour a due date is fixed to.
const endOfBusinessHour = 17

// DateKey truncates t to midnight UTC, the canonical key for holiday sets.
func DateKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AdvanceWorkingDays returns the due timestamp reached by counting
// workingDays working days forward from start. The start date itself is
// never counted; counting begins the following calendar day. A day counts
// only if it is Monday through Friday and not in holidays (keys must be
// DateKey-normalized). The result is the final counted date at 17:00 UTC.
//
// workingDays == 0 returns start unchanged. Negative workingDays is a
// programming error and panics.
func AdvanceWorkingDays(start time.Time, workingDays int, holidays map[time.Time]struct{}) time.Time {
	if workingDays < 0 {
		panic(fmt.Sprintf("sla: negative working days %d", workingDays))
	}
	if workingDays == 0 {
		return start
	}
	day := DateKey(start)
	counted := 0
	for counted < workingDays {
		day = day.AddDate(0, 0, 1)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, ok := holidays[day]; ok {
			continue
		}
		counted++
	}
	return time.Date(day.Year(), day.Month(), day.Day(), endOfBusinessHour, 0, 0, 0, time.UTC)
}
