package scheduling

import "time"

// Working hours are the same for every doctor: 09:00 to 17:00 local civil
// time, every day.
const (
	WorkingHoursStart = 9
	WorkingHoursEnd   = 17
)

// workingDayWindow returns the [09:00, 17:00) window for t's calendar date,
// in t's location.
func workingDayWindow(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, WorkingHoursStart, 0, 0, 0, t.Location())
	end = time.Date(y, m, d, WorkingHoursEnd, 0, 0, 0, t.Location())
	return start, end
}

// overlaps is the half-open interval test: [aStart, aEnd) and [bStart, bEnd)
// overlap iff each starts before the other ends. Touching endpoints do not
// overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// availableSlots walks candidate slots of the given duration across
// [windowStart, windowEnd), stepping by the duration, and keeps every slot
// that overlaps none of the booked intervals. A trailing slot that would run
// past windowEnd is never generated. Pure function of its inputs; results
// are in ascending start order.
func availableSlots(windowStart, windowEnd time.Time, duration time.Duration, booked []Interval) []time.Time {
	var slots []time.Time

	for cur := windowStart; !cur.Add(duration).After(windowEnd); cur = cur.Add(duration) {
		slotEnd := cur.Add(duration)
		free := true
		for _, b := range booked {
			if overlaps(cur, slotEnd, b.Start, b.End) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, cur)
		}
	}

	return slots
}

// withinWorkingHours checks the booking containment rule for the calendar
// date of start: the start must fall inside [09:00, 17:00) and the end may
// run at most one minute past 17:00. The extra minute on the end bound is
// intentional and must not be tightened.
func withinWorkingHours(start, end time.Time) bool {
	dayStart, dayEnd := workingDayWindow(start)
	startOK := !start.Before(dayStart) && start.Before(dayEnd)
	endOK := end.After(dayStart) && !end.After(dayEnd.Add(time.Minute))
	return startOK && endOK
}
