// Package contacts defines the interface and data types used to look up and
// register contacts in a remote contact directory.
package contacts

import (
	"context"
	"waitlist/pkg/domain"
)

// List describes a remote contact list.
type List struct {
	ID               domain.ListID // ID is the provider identifier of the list.
	Name             string        // Name is the display name of the list.
	TotalSubscribers int64         // TotalSubscribers is the number of contacts on the list.
}

// Folder groups lists at the remote provider.
type Folder struct {
	ID   int64
	Name string
}

// Directory is the abstraction over a hosted contact directory.
//
//go:generate mockgen -package mockcontacts -source=interface.go -destination=mock/mockcontacts.go *
type Directory interface {
	// Contact returns the contact registered under email. It returns an
	// error of kind serrors.ErrNotFound when the contact does not exist.
	Contact(ctx context.Context, email string) (*domain.Subscriber, error)
	// UpsertContact creates the contact or, if it already exists, updates it so
	// that it belongs to the given lists.
	UpsertContact(ctx context.Context, email string, listIDs []domain.ListID) error
	// List returns details of a single list, including its subscriber count.
	List(ctx context.Context, id domain.ListID) (*List, error)
}

// Provisioner creates the remote structures the waitlist needs. It is only used
// by the one-off setup command.
type Provisioner interface {
	// Folders returns a page of folders.
	Folders(ctx context.Context, limit, offset int) ([]Folder, error)
	// CreateList creates a list inside the given folder and returns its ID.
	CreateList(ctx context.Context, name string, folderID int64) (domain.ListID, error)
}
