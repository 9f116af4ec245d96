package waitlist_test

import (
	"context"
	"errors"
	"testing"
	"waitlist/internal/waitlist"
	"waitlist/pkg/contacts"
	mockcontacts "waitlist/pkg/contacts/mock"
	"waitlist/pkg/domain"
	"waitlist/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestProvisionList_UsesFirstFolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockcontacts.NewMockProvisioner(ctrl)

	p.EXPECT().Folders(gomock.Any(), 10, 0).Return([]contacts.Folder{{ID: 8, Name: "Main"}, {ID: 9}}, nil)
	p.EXPECT().CreateList(gomock.Any(), waitlist.ListName, int64(8)).Return(domain.ListID(17), nil)

	id, err := waitlist.ProvisionList(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, domain.ListID(17), id)
}

func TestProvisionList_DefaultFolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockcontacts.NewMockProvisioner(ctrl)

	p.EXPECT().Folders(gomock.Any(), 10, 0).Return(nil, nil)
	p.EXPECT().CreateList(gomock.Any(), waitlist.ListName, waitlist.DefaultFolderID).Return(domain.ListID(3), nil)

	id, err := waitlist.ProvisionList(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, domain.ListID(3), id)
}

func TestProvisionList_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockcontacts.NewMockProvisioner(ctrl)

	p.EXPECT().Folders(gomock.Any(), 10, 0).Return(nil, nil)
	p.EXPECT().CreateList(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ListID(0), serrors.With(serrors.ErrBadRequest, "brevo: List already exist"))

	_, err := waitlist.ProvisionList(context.Background(), p)
	require.ErrorIs(t, err, waitlist.ErrListExists)
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestProvisionList_FoldersFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mockcontacts.NewMockProvisioner(ctrl)

	p.EXPECT().Folders(gomock.Any(), 10, 0).Return(nil, errors.New("unauthorized"))

	_, err := waitlist.ProvisionList(context.Background(), p)
	require.ErrorContains(t, err, "could not get folders")
}
