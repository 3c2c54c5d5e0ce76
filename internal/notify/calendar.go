package notify

import (
	"context"
	"log"
)

// LogCalendar stands in for a real calendar provider integration. It logs
// the event that would have been created.
type LogCalendar struct{}

func (LogCalendar) CreateEvent(ctx context.Context, ev CalendarEvent) error {
	log.Printf("calendar event: %s (%s) %s - %s", ev.Summary, ev.PatientEmail,
		ev.Start.Format("2006-01-02 15:04"), ev.End.Format("15:04"))
	return nil
}
