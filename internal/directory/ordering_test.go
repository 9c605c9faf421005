package directory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"meridian/internal/applicant/models"
	"meridian/internal/directory"
	"meridian/internal/directory/mocks"
	"meridian/internal/platform/config"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
)

func errNotFoundForTest() error {
	return fmt.Errorf("no account: %w", sentinel.ErrNotFound)
}

// The lookup must strictly precede the create, and repeated runs against a
// now-existing address must never create again.
func TestEnsureIdentity_LookupBeforeCreateOrdering(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	subject, err := models.NewSubject(id.NewSubjectID(), "Ana", "Lee", "ana@personal.test", "", time.Now())
	require.NoError(t, err)

	const address = "ana.lee@meridianclinic.com"
	account := &directory.Account{ID: "dir-1", Address: address, LicenseAssigned: true}

	gomock.InOrder(
		client.EXPECT().FindByAddress(gomock.Any(), address).
			Return(nil, errNotFoundForTest()),
		client.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
			Return(account, nil).
			Times(1),
		client.EXPECT().FindByAddress(gomock.Any(), address).
			Return(account, nil),
	)

	p := directory.NewProvisioner(client, config.Directory{MailDomain: "meridianclinic.com"})

	first, err := p.EnsureIdentity(context.Background(), subject, "Str0ngPass!")
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := p.EnsureIdentity(context.Background(), subject, "Str0ngPass!")
	require.NoError(t, err)
	require.False(t, second.Created, "second run adopts, never creates")
	require.Equal(t, first.DirectoryID, second.DirectoryID)
}
