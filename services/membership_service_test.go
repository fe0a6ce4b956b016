package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type membershipFixture struct {
	svc         MembershipService
	players     *fakePlayerRepo
	clubs       *fakeClubRepo
	memberships *fakeMembershipRepo
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()
	f := &membershipFixture{
		players:     newFakePlayerRepo(),
		clubs:       newFakeClubRepo(),
		memberships: newFakeMembershipRepo(),
	}
	f.svc = NewMembershipService(f.memberships, f.players, f.clubs, &fakeTx{},
		steppingClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), time.Second))
	return f
}

func (f *membershipFixture) club(t *testing.T, name string) int64 {
	t.Helper()
	c := &models.Club{Name: name}
	require.NoError(t, f.clubs.Create(context.Background(), nil, c))
	return c.ID
}

func TestAddMembership_SecondActiveRejected(t *testing.T) {
	ctx := context.Background()
	f := newMembershipFixture(t)
	c1, c2 := f.club(t, "Caissa"), f.club(t, "Morphy")
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2100})

	first, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c1})
	require.NoError(t, err)
	assert.Equal(t, models.MembershipActive, first.Status)
	assert.Equal(t, models.MembershipRegular, first.Type)

	_, err = f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c2})
	require.ErrorIs(t, err, models.ErrActiveMembershipExists)
	require.ErrorIs(t, err, models.ErrDomainRule)

	stored, err := f.svc.GetMembership(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, *first, *stored)

	all, err := f.svc.ListPlayerMemberships(ctx, p1.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddMembership_InactiveAllowedAlongsideActive(t *testing.T) {
	ctx := context.Background()
	f := newMembershipFixture(t)
	c1, c2 := f.club(t, "Caissa"), f.club(t, "Morphy")
	p1 := f.players.seed(models.Player{Name: "Anna"})

	_, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c1})
	require.NoError(t, err)

	inactive := models.MembershipInactive
	second, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c2, Status: &inactive})
	require.NoError(t, err)

	active := models.MembershipActive
	_, err = f.svc.UpdateMembership(ctx, second.ID, UpdateMembershipInput{Status: &active})
	assert.ErrorIs(t, err, models.ErrActiveMembershipExists)
}

func TestUpdateMembership_ReactivateAfterDeactivation(t *testing.T) {
	ctx := context.Background()
	f := newMembershipFixture(t)
	c1, c2 := f.club(t, "Caissa"), f.club(t, "Morphy")
	p1 := f.players.seed(models.Player{Name: "Anna"})

	first, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c1})
	require.NoError(t, err)
	suspended := models.MembershipSuspended
	updated, err := f.svc.UpdateMembership(ctx, first.ID, UpdateMembershipInput{Status: &suspended})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c2})
	require.NoError(t, err)

	active := models.MembershipActive
	_, err = f.svc.UpdateMembership(ctx, first.ID, UpdateMembershipInput{Status: &active})
	assert.ErrorIs(t, err, models.ErrActiveMembershipExists)
}

func TestAddMembership_References(t *testing.T) {
	ctx := context.Background()
	f := newMembershipFixture(t)
	c1 := f.club(t, "Caissa")
	p1 := f.players.seed(models.Player{Name: "Anna"})

	_, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: 999, ClubID: c1})
	require.ErrorIs(t, err, models.ErrReference)
	v, ok := models.AsViolation(err)
	require.True(t, ok)
	assert.Equal(t, "memberships_player_id_fkey", v.Rule)

	_, err = f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: 999})
	require.ErrorIs(t, err, models.ErrReference)
	v, _ = models.AsViolation(err)
	assert.Equal(t, "club_id", v.Field)

	bad := models.MembershipType("Gold")
	_, err = f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c1, Type: &bad})
	assert.ErrorIs(t, err, models.ErrConstraint)
}

func TestTransferPlayer(t *testing.T) {
	ctx := context.Background()
	f := newMembershipFixture(t)
	c1, c2 := f.club(t, "Caissa"), f.club(t, "Morphy")
	p1 := f.players.seed(models.Player{Name: "Anna"})

	first, err := f.svc.AddMembership(ctx, AddMembershipInput{PlayerID: p1.ID, ClubID: c1})
	require.NoError(t, err)

	_, err = f.svc.TransferPlayer(ctx, p1.ID, TransferInput{ClubID: c1})
	require.ErrorIs(t, err, models.ErrTransferSameClub)

	next, err := f.svc.TransferPlayer(ctx, p1.ID, TransferInput{ClubID: c2})
	require.NoError(t, err)
	assert.Equal(t, c2, next.ClubID)
	assert.Equal(t, models.MembershipActive, next.Status)

	old, err := f.svc.GetMembership(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipInactive, old.Status)

	members, err := f.svc.ListClubMembers(ctx, c1, true)
	require.NoError(t, err)
	assert.Empty(t, members)

	// A player without any membership simply joins.
	p2 := f.players.seed(models.Player{Name: "Boris"})
	_, err = f.svc.TransferPlayer(ctx, p2.ID, TransferInput{ClubID: c1})
	require.NoError(t, err)
}
