package token_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-admission/internal/models"
	"ms-admission/internal/token"
)

// MockInvitationStore is a mock implementation of the InvitationStore interface
type MockInvitationStore struct {
	mock.Mock
}

func (m *MockInvitationStore) GetInvitationByID(ctx context.Context, ticketID string) (*models.Invitation, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationStore) GetEventByID(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func fixtureStore(occursOn time.Time) *MockInvitationStore {
	store := new(MockInvitationStore)
	store.On("GetInvitationByID", mock.Anything, "tkt-1").Return(&models.Invitation{
		TicketID:       "tkt-1",
		EventID:        "evt-1",
		GuestID:        "gst-1",
		PartySize:      4,
		RemainingCount: 4,
		RsvpConfirmed:  true,
	}, nil)
	store.On("GetEventByID", mock.Anything, "evt-1").Return(&models.Event{
		ID:       "evt-1",
		Name:     "Garden Reception",
		OccursOn: occursOn,
		Status:   "active",
	}, nil)
	return store
}

func rejectionCode(t *testing.T, err error) string {
	t.Helper()
	var rej *models.Rejection
	require.True(t, errors.As(err, &rej), "expected a typed rejection, got %v", err)
	return rej.Code
}

func TestIssueAndVerify(t *testing.T) {
	eventDay := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	codec := token.NewCodec("test-secret", time.UTC, fixtureStore(eventDay))
	codec.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	signed, err := codec.Issue(context.Background(), "tkt-1")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "tkt-1", claims.TicketID)
	assert.Equal(t, "evt-1", claims.EventID)
	assert.Equal(t, "gst-1", claims.GuestID)
	assert.Equal(t, 4, claims.PartySize)
	assert.Equal(t, 4, claims.Remaining)
	assert.Equal(t, "2025-06-15", claims.OccursOn)
}

func TestIssueUnknownTicket(t *testing.T) {
	store := new(MockInvitationStore)
	store.On("GetInvitationByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	codec := token.NewCodec("test-secret", time.UTC, store)

	_, err := codec.Issue(context.Background(), "missing")
	assert.Equal(t, models.OutcomeNotFound, rejectionCode(t, err))
}

func TestIssueStoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	store := new(MockInvitationStore)
	store.On("GetInvitationByID", mock.Anything, "tkt-1").Return(nil, storeErr)

	codec := token.NewCodec("test-secret", time.UTC, store)

	_, err := codec.Issue(context.Background(), "tkt-1")
	require.ErrorIs(t, err, storeErr)
	var rej *models.Rejection
	assert.False(t, errors.As(err, &rej), "store outage must not look like a missing invitation")
}

func TestVerifyForged(t *testing.T) {
	eventDay := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	codec := token.NewCodec("test-secret", time.UTC, fixtureStore(eventDay))
	codec.Now = now

	signed, err := codec.Issue(context.Background(), "tkt-1")
	require.NoError(t, err)

	// Signed under a different secret: signature check must refuse it.
	other := token.NewCodec("other-secret", time.UTC, nil)
	other.Now = now
	claims, err := other.Verify(signed)
	assert.Nil(t, claims)
	assert.Equal(t, models.OutcomeForged, rejectionCode(t, err))

	// Garbage is forged too.
	_, err = codec.Verify("not.a.token")
	assert.Equal(t, models.OutcomeForged, rejectionCode(t, err))
}

func TestVerifyExpired(t *testing.T) {
	eventDay := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	codec := token.NewCodec("test-secret", time.UTC, fixtureStore(eventDay))
	codec.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	signed, err := codec.Issue(context.Background(), "tkt-1")
	require.NoError(t, err)

	// One day after the event the embedded expiry has passed.
	codec.Now = func() time.Time { return time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC) }
	claims, err := codec.Verify(signed)
	assert.Equal(t, models.OutcomeExpired, rejectionCode(t, err))
	// The claims are still returned for auditing; the signature was valid.
	require.NotNil(t, claims)
	assert.Equal(t, "tkt-1", claims.TicketID)
}

func TestVerifyBeforeEventDay(t *testing.T) {
	// Token issued well in advance: expiry is still in the future, so only
	// the day-match check stands between the holder and early entry.
	eventDay := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	codec := token.NewCodec("test-secret", time.UTC, fixtureStore(eventDay))
	codec.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	signed, err := codec.Issue(context.Background(), "tkt-1")
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	assert.Equal(t, models.OutcomeOutsideEventWindow, rejectionCode(t, err))
	require.NotNil(t, claims)
	assert.Equal(t, "2025-06-20", claims.OccursOn)
}

func TestIssueQR(t *testing.T) {
	eventDay := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	codec := token.NewCodec("test-secret", time.UTC, fixtureStore(eventDay))
	codec.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	png, err := codec.IssueQR(context.Background(), "tkt-1")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic header
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, png[:4])
}
