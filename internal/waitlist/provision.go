package waitlist

import (
	"context"
	"fmt"
	"strings"
	"waitlist/pkg/contacts"
	"waitlist/pkg/domain"
	"waitlist/pkg/serrors"
)

// Provisioning defaults.
const (
	ListName        = "VergabeMeister Warteliste"
	DefaultFolderID = int64(1)
)

// ErrListExists is returned by ProvisionList when the provider already has a
// list with the same name.
var ErrListExists = serrors.NewKind("LIST_EXISTS")

// ProvisionList creates the waitlist contact list in the first folder of the
// account, or in DefaultFolderID when the account has no folder.
func ProvisionList(ctx context.Context, p contacts.Provisioner) (domain.ListID, error) {
	folderID := DefaultFolderID
	folders, err := p.Folders(ctx, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("could not get folders: %w", err)
	}
	if len(folders) > 0 {
		folderID = folders[0].ID
	}

	id, err := p.CreateList(ctx, ListName, folderID)
	if err != nil {
		if strings.Contains(err.Error(), "already exist") {
			return 0, serrors.Wrap(ErrListExists, err,
				"a list with this name already exists, check your Brevo dashboard for the list ID")
		}

		return 0, fmt.Errorf("could not create list: %w", err)
	}

	return id, nil
}
