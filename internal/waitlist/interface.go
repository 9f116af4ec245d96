package waitlist

import (
	"context"
	"waitlist/pkg/domain"
)

//go:generate mockgen -package mockwaitlist -source=interface.go -destination=mock/mockwaitlist.go *
type Waitlist interface {
	// AddSubscriber normalizes email and puts it on the waitlist. Calling it
	// again with the same address leaves the remote state unchanged and
	// reports Created=false.
	AddSubscriber(ctx context.Context, email string) (domain.SignupResult, error)
	// SubscriberCount returns the cached size of the waitlist. It never fails;
	// when the provider cannot be reached the last known value is returned.
	SubscriberCount(ctx context.Context) int64
}

// Confirmer sends the confirmation email for a signup.
type Confirmer interface {
	SendConfirmation(ctx context.Context, email string) error
}

// ConfirmationQueue accepts confirmation emails for background delivery.
// Submit never blocks and reports whether the email was accepted.
type ConfirmationQueue interface {
	Submit(ctx context.Context, email string) bool
}
