package notify

import "context"

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Message is a rendered confirmation ready for a Mailer.
type Message struct {
	To      string
	Subject string
	HTML    string
}
