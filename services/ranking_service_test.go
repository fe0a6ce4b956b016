package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rankingFixture struct {
	svc         RankingService
	players     *fakePlayerRepo
	rankings    *fakeRankingRepo
	tournaments *fakeTournamentRepo
}

func newRankingFixture(t *testing.T, clock Clock) *rankingFixture {
	t.Helper()
	f := &rankingFixture{
		players:     newFakePlayerRepo(),
		rankings:    newFakeRankingRepo(),
		tournaments: newFakeTournamentRepo(),
	}
	if clock == nil {
		clock = steppingClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), time.Second)
	}
	f.svc = NewRankingService(f.rankings, f.players, f.tournaments, &fakeTx{}, clock)
	return f
}

func (f *rankingFixture) rating(t *testing.T, playerID int64) int {
	t.Helper()
	p, err := f.players.GetByID(context.Background(), nil, playerID, repositories.NoLock)
	require.NoError(t, err)
	return p.Rating
}

func TestShouldPropagateRating(t *testing.T) {
	prior := date(2024, 1, 1)
	tests := []struct {
		name    string
		prior   *time.Time
		written time.Time
		want    bool
	}{
		{"no history", nil, date(2020, 1, 1), true},
		{"same date", &prior, date(2024, 1, 1), true},
		{"same date later time of day", &prior, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), true},
		{"later date", &prior, date(2024, 2, 1), true},
		{"earlier date", &prior, date(2023, 12, 31), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldPropagateRating(tt.prior, tt.written))
		})
	}
}

func TestUpdateRanking_SameDatePropagates(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, nil)
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2100})

	r, err := f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2210, RankingDate: day(2024, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2210, f.rating(t, p1.ID))

	_, err = f.svc.UpdateRanking(ctx, r.ID, UpdateRankingInput{Rating: ptr(2230)})
	require.NoError(t, err)
	assert.Equal(t, 2230, f.rating(t, p1.ID))

	_, err = f.svc.UpdateRanking(ctx, r.ID, UpdateRankingInput{Rating: ptr(2240), RankingDate: ptr(day(2024, 1, 5))})
	require.NoError(t, err)
	assert.Equal(t, 2240, f.rating(t, p1.ID))
}

func TestUpdateRanking_EarlierDateLeavesCachedRating(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, nil)
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2100})

	r, err := f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2210, RankingDate: day(2024, 1, 1)})
	require.NoError(t, err)

	updated, err := f.svc.UpdateRanking(ctx, r.ID, UpdateRankingInput{Rating: ptr(2300), RankingDate: ptr(day(2023, 12, 1))})
	require.NoError(t, err)
	assert.Equal(t, 2300, updated.Rating)
	assert.Equal(t, 2210, f.rating(t, p1.ID))
}

func TestRecordRanking_OlderEntryDoesNotOverrideLatest(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, nil)
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2100})

	_, err := f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2250, RankingDate: day(2024, 3, 1)})
	require.NoError(t, err)
	_, err = f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2150, RankingDate: day(2024, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, 2250, f.rating(t, p1.ID))

	_, err = f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2199, RankingDate: day(2024, 2, 1)})
	require.ErrorIs(t, err, models.ErrConstraint)

	history, err := f.svc.ListPlayerRankings(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, date(2024, 3, 1), history[0].RankingDate)
}

func TestRecordRanking_Validation(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, nil)
	p1 := f.players.seed(models.Player{Name: "Anna"})

	_, err := f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: 42, Rating: 2000, RankingDate: day(2024, 1, 1)})
	require.ErrorIs(t, err, models.ErrReference)

	_, err = f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: -1, RankingDate: day(2024, 1, 1)})
	require.ErrorIs(t, err, models.ErrConstraint)

	_, err = f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2000})
	require.ErrorIs(t, err, models.ErrConstraint)

	_, err = f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2000, RankingDate: day(2024, 1, 1), TournamentID: ptr(int64(7))})
	require.ErrorIs(t, err, models.ErrReference)
}

func TestDeleteRanking_KeepsCachedRating(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, nil)
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2100})

	r, err := f.svc.RecordRanking(ctx, RecordRankingInput{PlayerID: p1.ID, Rating: 2210, RankingDate: day(2024, 1, 1)})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteRanking(ctx, r.ID))
	assert.Equal(t, 2210, f.rating(t, p1.ID))
}

func TestRecordRatingChange_CreatesThenExtendsTodaysEntry(t *testing.T) {
	ctx := context.Background()
	f := newRankingFixture(t, fixedClock(time.Date(2024, 5, 20, 18, 30, 0, 0, time.UTC)))
	p1 := f.players.seed(models.Player{Name: "Anna", Rating: 2000})

	first, err := f.svc.RecordRatingChange(ctx, p1.ID, RatingChangeInput{NewRating: 2012, GamesPlayed: 1})
	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 20), first.RankingDate)
	assert.Equal(t, 12, first.RatingChange)
	assert.Equal(t, 2012, f.rating(t, p1.ID))

	second, err := f.svc.RecordRatingChange(ctx, p1.ID, RatingChangeInput{NewRating: 2005, GamesPlayed: 1})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.RatingChange)
	assert.Equal(t, 2, second.GamesPlayed)
	assert.Equal(t, 2005, f.rating(t, p1.ID))
}
