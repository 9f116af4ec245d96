// Package mailer defines the transactional mail abstraction used to send
// single templated messages through a hosted provider.
package mailer

import "context"

// Address is an email address with an optional display name.
type Address struct {
	Email string
	Name  string
}

// Message is a single transactional email.
type Message struct {
	Sender  Address
	To      []Address
	Subject string
	// HTML is the rendered HTML body.
	HTML string
	// Text is the plaintext alternative.
	Text string
	// Tags are provider-side labels used for reporting.
	Tags []string
}

// Mailer sends transactional messages.
//
//go:generate mockgen -package mockmailer -source=interface.go -destination=mock/mockmailer.go *
type Mailer interface {
	// Send dispatches msg and returns the provider message ID.
	Send(ctx context.Context, msg Message) (string, error)
}
