package domain

import (
	"slices"
	"time"
)

// ListID identifies a contact list at the remote provider.
type ListID int64

// Subscriber is a contact as seen by the waitlist. It is identified by its
// normalized email and is never persisted locally.
type Subscriber struct {
	// Email is the normalized (trimmed, lowercased) address.
	Email string `json:"email"`
	// ListIDs are the remote lists the contact currently belongs to.
	ListIDs []ListID `json:"listIds,omitempty"`
}

// OnList reports whether the subscriber belongs to the given list.
func (s Subscriber) OnList(id ListID) bool {
	return slices.Contains(s.ListIDs, id)
}

// SignupResult is the outcome of adding a subscriber.
type SignupResult struct {
	// Email is the normalized address that was signed up.
	Email string `json:"email"`
	// Created is true when the contact was not on the target list before the signup.
	Created bool `json:"created"`
}

// CachedCount is the last known size of the waitlist.
type CachedCount struct {
	// Value is the remote list size as of FetchedAt.
	Value int64 `json:"count"`
	// FetchedAt is when Value was fetched. The zero time means the value must be
	// re-fetched on the next read.
	FetchedAt time.Time `json:"-"`
}
