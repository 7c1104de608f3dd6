package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasehub/internal/domain/shared/errs"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newPending(t *testing.T) *Booking {
	t.Helper()
	b, err := NewBooking(CreateParams{
		ID:          "b-1",
		ListingID:   "l-1",
		RenterID:    "renter-1",
		OwnerID:     "owner-1",
		Contact:     Contact{Name: " Ann ", Email: "ANN@example.com"},
		MoveInDate:  testNow.AddDate(0, 1, 0),
		LeaseMonths: 12,
		Now:         testNow,
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	t.Parallel()

	b := newPending(t)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, "Ann", b.Contact.Name)
	assert.Equal(t, "ann@example.com", b.Contact.Email)
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.requested", b.PendingEvents()[0].EventName())

	cases := map[string]struct {
		mutate func(*CreateParams)
		want   error
	}{
		"missing renter":  {func(p *CreateParams) { p.RenterID = " " }, ErrRenterRequired},
		"missing listing": {func(p *CreateParams) { p.ListingID = "" }, ErrListingIDRequired},
		"missing contact": {func(p *CreateParams) { p.Contact = Contact{Name: "Ann"} }, ErrContactRequired},
		"no move in":      {func(p *CreateParams) { p.MoveInDate = time.Time{} }, ErrMoveInRequired},
		"zero lease":      {func(p *CreateParams) { p.LeaseMonths = 0 }, ErrLeaseDuration},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			params := CreateParams{
				ID:          "b-2",
				ListingID:   "l-1",
				RenterID:    "renter-1",
				Contact:     Contact{Name: "Ann", Phone: "555"},
				MoveInDate:  testNow,
				LeaseMonths: 6,
				Now:         testNow,
			}
			tc.mutate(&params)
			_, err := NewBooking(params)
			require.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	allowed := map[Status]map[Status]bool{
		StatusPending:  {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved: {StatusCompleted: true},
	}
	for _, from := range Statuses {
		for _, to := range Statuses {
			assert.Equal(t, allowed[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, IsTerminal(StatusRejected))
	assert.True(t, IsTerminal(StatusCancelled))
	assert.True(t, IsTerminal(StatusCompleted))
	assert.False(t, IsTerminal(StatusApproved))
}

func TestTransitionTo(t *testing.T) {
	t.Parallel()

	b := newPending(t)
	b.DrainEvents()
	later := testNow.Add(time.Hour)

	require.NoError(t, b.TransitionTo(StatusApproved, "", later))
	assert.Equal(t, StatusApproved, b.Status)
	assert.Equal(t, later, b.UpdatedAt)
	evts := b.DrainEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "booking.approved", evts[0].EventName())

	err := b.TransitionTo(StatusRejected, "", later)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, StatusApproved, b.Status)
	assert.Empty(t, b.PendingEvents())

	require.NoError(t, b.TransitionTo(StatusCompleted, "lease ended", later))
	assert.Equal(t, "lease ended", b.Reason)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus(" Approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("archived")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAnyOccupying(t *testing.T) {
	t.Parallel()

	pending := newPending(t)
	approved := newPending(t)
	approved.Status = StatusApproved

	assert.False(t, AnyOccupying(nil))
	assert.False(t, AnyOccupying([]*Booking{pending}))
	assert.True(t, AnyOccupying([]*Booking{pending, approved}))
}

func TestCloneDropsEvents(t *testing.T) {
	t.Parallel()

	b := newPending(t)
	c := b.Clone()
	c.Status = StatusCancelled
	assert.Equal(t, StatusPending, b.Status)
	assert.Empty(t, c.PendingEvents())
}
