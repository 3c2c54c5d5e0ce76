// Package notify holds the external collaborators the scheduling core calls
// out to: confirmation email, calendar events, and summary messaging. All of
// them are best-effort from the core's point of view.
package notify

import (
	"context"
	"time"
)

// Mailer delivers a plain-text email. It reports the outcome as a boolean
// and never surfaces an error to the caller.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) bool
}

type CalendarEvent struct {
	DoctorName   string
	PatientEmail string
	Summary      string
	Description  string
	Start        time.Time
	End          time.Time
}

// CalendarNotifier pushes a booked appointment to an external calendar.
type CalendarNotifier interface {
	CreateEvent(ctx context.Context, ev CalendarEvent) error
}

// MessengerNotifier posts a rendered text summary to an out-of-band channel.
type MessengerNotifier interface {
	Post(ctx context.Context, text string) error
}
