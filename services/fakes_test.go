package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/Dosada05/chess-tournament/storage"
)

// In-memory doubles for the repositories. Every read hands out a copy so a
// service mutating a loaded row cannot change stored state without Update.

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	return fn(nil)
}

// steppingClock returns start, start+step, start+2*step, ...
func steppingClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func day(y int, m time.Month, d int) models.Date { return models.NewDate(y, m, d) }

func ptr[T any](v T) *T { return &v }

type table[K comparable, V any] struct {
	mu   sync.Mutex
	rows map[K]V
	seq  int64
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: map[K]V{}}
}

func (t *table[K, V]) nextID(explicit int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if explicit > 0 {
		if explicit > t.seq {
			t.seq = explicit
		}
		return explicit
	}
	t.seq++
	return t.seq
}

func (t *table[K, V]) get(k K) (*V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[k]
	if !ok {
		return nil, false
	}
	return &v, true
}

func (t *table[K, V]) has(k K) bool {
	_, ok := t.get(k)
	return ok
}

func (t *table[K, V]) put(k K, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[k] = v
}

func (t *table[K, V]) del(k K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[k]; !ok {
		return false
	}
	delete(t.rows, k)
	return true
}

func (t *table[K, V]) all(keep func(V) bool) []V {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]V, 0, len(t.rows))
	for _, v := range t.rows {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func duplicate(rule, field string) error {
	return &models.ViolationError{Kind: models.KindConstraint, Rule: rule, Field: field, Message: "duplicate value"}
}

// --- clubs

type fakeClubRepo struct{ t *table[int64, models.Club] }

func newFakeClubRepo() *fakeClubRepo { return &fakeClubRepo{t: newTable[int64, models.Club]()} }

func (r *fakeClubRepo) Create(_ context.Context, _ repositories.SQLExecutor, c *models.Club) error {
	if c.ID > 0 && r.t.has(c.ID) {
		return duplicate("clubs_pkey", "club_id")
	}
	c.ID = r.t.nextID(c.ID)
	r.t.put(c.ID, *c)
	return nil
}

func (r *fakeClubRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Club, error) {
	if c, ok := r.t.get(id); ok {
		return c, nil
	}
	return nil, repositories.ErrClubNotFound
}

func (r *fakeClubRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.ListClubsFilter) ([]models.Club, error) {
	out := r.t.all(func(c models.Club) bool {
		return f.Name == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name))
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeClubRepo) Update(_ context.Context, _ repositories.SQLExecutor, c *models.Club) error {
	if !r.t.has(c.ID) {
		return repositories.ErrClubNotFound
	}
	r.t.put(c.ID, *c)
	return nil
}

func (r *fakeClubRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrClubNotFound
	}
	return nil
}

func (r *fakeClubRepo) Count(context.Context, repositories.SQLExecutor) (int, error) {
	return len(r.t.all(nil)), nil
}

// --- players

type fakePlayerRepo struct {
	t       *table[int64, models.Player]
	updates int
}

func newFakePlayerRepo() *fakePlayerRepo { return &fakePlayerRepo{t: newTable[int64, models.Player]()} }

func (r *fakePlayerRepo) seed(p models.Player) *models.Player {
	p.ID = r.t.nextID(p.ID)
	r.t.put(p.ID, p)
	return &p
}

func (r *fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	if p.ID > 0 && r.t.has(p.ID) {
		return duplicate("players_pkey", "player_id")
	}
	p.ID = r.t.nextID(p.ID)
	r.t.put(p.ID, *p)
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Player, error) {
	if p, ok := r.t.get(id); ok {
		return p, nil
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.ListPlayersFilter) ([]models.Player, error) {
	out := r.t.all(func(p models.Player) bool {
		if f.MinRating != nil && p.Rating < *f.MinRating {
			return false
		}
		if f.MaxRating != nil && p.Rating > *f.MaxRating {
			return false
		}
		return f.Name == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Name))
	})
	if f.ByRating {
		sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakePlayerRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	if !r.t.has(p.ID) {
		return repositories.ErrPlayerNotFound
	}
	r.updates++
	r.t.put(p.ID, *p)
	return nil
}

func (r *fakePlayerRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrPlayerNotFound
	}
	return nil
}

func (r *fakePlayerRepo) Count(context.Context, repositories.SQLExecutor) (int, error) {
	return len(r.t.all(nil)), nil
}

// --- memberships

type fakeMembershipRepo struct {
	t *table[int64, models.Membership]
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{t: newTable[int64, models.Membership]()}
}

// checkExclusive mirrors the partial unique index on active memberships.
func (r *fakeMembershipRepo) checkExclusive(m *models.Membership) error {
	if m.Status != models.MembershipActive {
		return nil
	}
	clash := r.t.all(func(o models.Membership) bool {
		return o.ID != m.ID && o.PlayerID == m.PlayerID && o.Status == models.MembershipActive
	})
	if len(clash) > 0 {
		return models.ErrActiveMembershipExists
	}
	return nil
}

func (r *fakeMembershipRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Membership) error {
	if err := r.checkExclusive(m); err != nil {
		return err
	}
	m.ID = r.t.nextID(m.ID)
	r.t.put(m.ID, *m)
	return nil
}

func (r *fakeMembershipRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Membership, error) {
	if m, ok := r.t.get(id); ok {
		return m, nil
	}
	return nil, repositories.ErrMembershipNotFound
}

func (r *fakeMembershipRepo) FindActiveByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int64) (*models.Membership, error) {
	active := r.t.all(func(m models.Membership) bool {
		return m.PlayerID == playerID && m.Status == models.MembershipActive
	})
	if len(active) == 0 {
		return nil, repositories.ErrMembershipNotFound
	}
	return &active[0], nil
}

func (r *fakeMembershipRepo) ListByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int64) ([]models.Membership, error) {
	out := r.t.all(func(m models.Membership) bool { return m.PlayerID == playerID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMembershipRepo) ListByClub(_ context.Context, _ repositories.SQLExecutor, clubID int64, activeOnly bool) ([]models.Membership, error) {
	out := r.t.all(func(m models.Membership) bool {
		return m.ClubID == clubID && (!activeOnly || m.Status == models.MembershipActive)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMembershipRepo) Update(_ context.Context, _ repositories.SQLExecutor, m *models.Membership) error {
	if !r.t.has(m.ID) {
		return repositories.ErrMembershipNotFound
	}
	if err := r.checkExclusive(m); err != nil {
		return err
	}
	r.t.put(m.ID, *m)
	return nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrMembershipNotFound
	}
	return nil
}

func (r *fakeMembershipRepo) CountActive(context.Context, repositories.SQLExecutor) (int, error) {
	return len(r.t.all(func(m models.Membership) bool { return m.Status == models.MembershipActive })), nil
}

// --- rankings

type fakeRankingRepo struct {
	t *table[int64, models.PlayerRanking]
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{t: newTable[int64, models.PlayerRanking]()}
}

func (r *fakeRankingRepo) checkUnique(pr *models.PlayerRanking) error {
	clash := r.t.all(func(o models.PlayerRanking) bool {
		return o.ID != pr.ID && o.PlayerID == pr.PlayerID && o.RankingDate.Equal(pr.RankingDate)
	})
	if len(clash) > 0 {
		return duplicate("unique_player_date", "ranking_date")
	}
	return nil
}

func (r *fakeRankingRepo) Create(_ context.Context, _ repositories.SQLExecutor, pr *models.PlayerRanking) error {
	if err := r.checkUnique(pr); err != nil {
		return err
	}
	pr.ID = r.t.nextID(pr.ID)
	r.t.put(pr.ID, *pr)
	return nil
}

func (r *fakeRankingRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.PlayerRanking, error) {
	if pr, ok := r.t.get(id); ok {
		return pr, nil
	}
	return nil, repositories.ErrRankingNotFound
}

func (r *fakeRankingRepo) GetByPlayerDate(_ context.Context, _ repositories.SQLExecutor, playerID int64, d time.Time, _ repositories.LockMode) (*models.PlayerRanking, error) {
	found := r.t.all(func(o models.PlayerRanking) bool { return o.PlayerID == playerID && o.RankingDate.Equal(d) })
	if len(found) == 0 {
		return nil, repositories.ErrRankingNotFound
	}
	return &found[0], nil
}

func (r *fakeRankingRepo) ListByPlayer(_ context.Context, _ repositories.SQLExecutor, playerID int64) ([]models.PlayerRanking, error) {
	out := r.t.all(func(o models.PlayerRanking) bool { return o.PlayerID == playerID })
	sort.Slice(out, func(i, j int) bool { return out[i].RankingDate.After(out[j].RankingDate) })
	return out, nil
}

func (r *fakeRankingRepo) LatestDate(ctx context.Context, exec repositories.SQLExecutor, playerID int64) (*time.Time, error) {
	history, _ := r.ListByPlayer(ctx, exec, playerID)
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0].RankingDate, nil
}

func (r *fakeRankingRepo) Update(_ context.Context, _ repositories.SQLExecutor, pr *models.PlayerRanking) error {
	if !r.t.has(pr.ID) {
		return repositories.ErrRankingNotFound
	}
	if err := r.checkUnique(pr); err != nil {
		return err
	}
	r.t.put(pr.ID, *pr)
	return nil
}

func (r *fakeRankingRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrRankingNotFound
	}
	return nil
}

func (r *fakeRankingRepo) DetachTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int64, at time.Time) (int64, error) {
	var n int64
	for _, pr := range r.t.all(func(o models.PlayerRanking) bool {
		return o.TournamentID != nil && *o.TournamentID == tournamentID
	}) {
		pr.TournamentID = nil
		pr.MarkUpdated(at)
		r.t.put(pr.ID, pr)
		n++
	}
	return n, nil
}

// --- tournaments

type fakeTournamentRepo struct {
	t *table[int64, models.Tournament]
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{t: newTable[int64, models.Tournament]()}
}

func (r *fakeTournamentRepo) seed(t models.Tournament) *models.Tournament {
	t.ID = r.t.nextID(t.ID)
	if t.MaxParticipants == 0 {
		t.MaxParticipants = models.DefaultMaxParticipants
	}
	if t.Type == "" {
		t.Type = models.TypeSwiss
	}
	if t.Status == "" {
		t.Status = models.StatusPlanned
	}
	r.t.put(t.ID, t)
	return &t
}

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	dup := r.t.all(func(o models.Tournament) bool { return o.Code == t.Code })
	if len(dup) > 0 {
		return duplicate("tournaments_tournament_code_key", "tournament_code")
	}
	t.ID = r.t.nextID(t.ID)
	r.t.put(t.ID, *t)
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Tournament, error) {
	if t, ok := r.t.get(id); ok {
		return t, nil
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) GetByCode(_ context.Context, _ repositories.SQLExecutor, code string) (*models.Tournament, error) {
	found := r.t.all(func(o models.Tournament) bool { return o.Code == code })
	if len(found) == 0 {
		return nil, repositories.ErrTournamentNotFound
	}
	return &found[0], nil
}

func (r *fakeTournamentRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := r.t.all(func(t models.Tournament) bool {
		if f.Status != nil && t.Status != *f.Status {
			return false
		}
		if f.StartsFrom != nil && t.StartDate.Before(*f.StartsFrom) {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *fakeTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	if !r.t.has(t.ID) {
		return repositories.ErrTournamentNotFound
	}
	r.t.put(t.ID, *t)
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrTournamentNotFound
	}
	return nil
}

func (r *fakeTournamentRepo) DetachHostingClub(_ context.Context, _ repositories.SQLExecutor, clubID int64, at time.Time) (int64, error) {
	var n int64
	for _, t := range r.t.all(func(o models.Tournament) bool {
		return o.HostingClubID != nil && *o.HostingClubID == clubID
	}) {
		t.HostingClubID = nil
		t.MarkUpdated(at)
		r.t.put(t.ID, t)
		n++
	}
	return n, nil
}

func (r *fakeTournamentRepo) Count(_ context.Context, _ repositories.SQLExecutor, status *models.TournamentStatus) (int, error) {
	return len(r.t.all(func(t models.Tournament) bool { return status == nil || t.Status == *status })), nil
}

func (r *fakeTournamentRepo) GetTournamentsForAutoStatusUpdate(_ context.Context, _ repositories.SQLExecutor, today time.Time) ([]*models.Tournament, error) {
	due := r.t.all(func(t models.Tournament) bool {
		return (t.Status == models.StatusRegistrationOpen && !t.StartDate.After(today)) ||
			(t.Status == models.StatusInProgress && t.EndDate.Before(today))
	})
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	out := make([]*models.Tournament, len(due))
	for i := range due {
		out[i] = &due[i]
	}
	return out, nil
}

// --- sponsors and sponsorships

type fakeSponsorRepo struct{ t *table[int64, models.Sponsor] }

func newFakeSponsorRepo() *fakeSponsorRepo {
	return &fakeSponsorRepo{t: newTable[int64, models.Sponsor]()}
}

func (r *fakeSponsorRepo) Create(_ context.Context, _ repositories.SQLExecutor, sp *models.Sponsor) error {
	sp.ID = r.t.nextID(sp.ID)
	r.t.put(sp.ID, *sp)
	return nil
}

func (r *fakeSponsorRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Sponsor, error) {
	if sp, ok := r.t.get(id); ok {
		return sp, nil
	}
	return nil, repositories.ErrSponsorNotFound
}

func (r *fakeSponsorRepo) List(_ context.Context, _ repositories.SQLExecutor, st *models.SponsorType, _, _ int) ([]models.Sponsor, error) {
	return r.t.all(func(sp models.Sponsor) bool { return st == nil || sp.Type == *st }), nil
}

func (r *fakeSponsorRepo) Update(_ context.Context, _ repositories.SQLExecutor, sp *models.Sponsor) error {
	if !r.t.has(sp.ID) {
		return repositories.ErrSponsorNotFound
	}
	r.t.put(sp.ID, *sp)
	return nil
}

func (r *fakeSponsorRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrSponsorNotFound
	}
	return nil
}

type pairKey struct{ a, b int64 }

type fakeSponsorshipRepo struct {
	t *table[pairKey, models.TournamentSponsor]
}

func newFakeSponsorshipRepo() *fakeSponsorshipRepo {
	return &fakeSponsorshipRepo{t: newTable[pairKey, models.TournamentSponsor]()}
}

func (r *fakeSponsorshipRepo) Create(_ context.Context, _ repositories.SQLExecutor, ts *models.TournamentSponsor) error {
	k := pairKey{ts.TournamentID, ts.SponsorID}
	if r.t.has(k) {
		return duplicate("tournament_sponsors_pkey", "sponsor_id")
	}
	r.t.put(k, *ts)
	return nil
}

func (r *fakeSponsorshipRepo) Get(_ context.Context, _ repositories.SQLExecutor, tid, sid int64, _ repositories.LockMode) (*models.TournamentSponsor, error) {
	if ts, ok := r.t.get(pairKey{tid, sid}); ok {
		return ts, nil
	}
	return nil, repositories.ErrTournamentSponsorNotFound
}

func (r *fakeSponsorshipRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int64) ([]models.TournamentSponsor, error) {
	out := r.t.all(func(ts models.TournamentSponsor) bool { return ts.TournamentID == tid })
	sort.Slice(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

func (r *fakeSponsorshipRepo) Update(_ context.Context, _ repositories.SQLExecutor, ts *models.TournamentSponsor) error {
	k := pairKey{ts.TournamentID, ts.SponsorID}
	if !r.t.has(k) {
		return repositories.ErrTournamentSponsorNotFound
	}
	r.t.put(k, *ts)
	return nil
}

func (r *fakeSponsorshipRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tid, sid int64) error {
	if !r.t.del(pairKey{tid, sid}) {
		return repositories.ErrTournamentSponsorNotFound
	}
	return nil
}

// --- participants

type fakeParticipantRepo struct {
	t *table[pairKey, models.TournamentParticipant]
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{t: newTable[pairKey, models.TournamentParticipant]()}
}

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.TournamentParticipant) error {
	k := pairKey{p.TournamentID, p.PlayerID}
	if r.t.has(k) {
		return duplicate("tournament_participants_pkey", "player_id")
	}
	r.t.put(k, *p)
	return nil
}

func (r *fakeParticipantRepo) Get(_ context.Context, _ repositories.SQLExecutor, tid, pid int64, _ repositories.LockMode) (*models.TournamentParticipant, error) {
	if p, ok := r.t.get(pairKey{tid, pid}); ok {
		return p, nil
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int64, confirmedOnly bool) ([]models.TournamentParticipant, error) {
	out := r.t.all(func(p models.TournamentParticipant) bool {
		return p.TournamentID == tid && (!confirmedOnly || p.Status == models.ParticipantConfirmed)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (r *fakeParticipantRepo) Update(_ context.Context, _ repositories.SQLExecutor, p *models.TournamentParticipant) error {
	k := pairKey{p.TournamentID, p.PlayerID}
	if !r.t.has(k) {
		return repositories.ErrParticipantNotFound
	}
	r.t.put(k, *p)
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tid, pid int64) error {
	if !r.t.del(pairKey{tid, pid}) {
		return repositories.ErrParticipantNotFound
	}
	return nil
}

func (r *fakeParticipantRepo) CountActive(_ context.Context, _ repositories.SQLExecutor, tid int64) (int, error) {
	return len(r.t.all(func(p models.TournamentParticipant) bool {
		return p.TournamentID == tid && p.Status.Counted()
	})), nil
}

func (r *fakeParticipantRepo) CountTournamentsByPlayer(_ context.Context, _ repositories.SQLExecutor, pid int64, _ *int) (int, error) {
	return len(r.t.all(func(p models.TournamentParticipant) bool { return p.PlayerID == pid })), nil
}

// --- matches

type fakeMatchRepo struct{ t *table[int64, models.Match] }

func newFakeMatchRepo() *fakeMatchRepo { return &fakeMatchRepo{t: newTable[int64, models.Match]()} }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	m.ID = r.t.nextID(m.ID)
	r.t.put(m.ID, *m)
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ repositories.LockMode) (*models.Match, error) {
	if m, ok := r.t.get(id); ok {
		return m, nil
	}
	return nil, repositories.ErrMatchNotFound
}

func (r *fakeMatchRepo) List(_ context.Context, _ repositories.SQLExecutor, f repositories.ListMatchesFilter) ([]models.Match, error) {
	out := r.t.all(func(m models.Match) bool {
		if f.TournamentID != nil && m.TournamentID != *f.TournamentID {
			return false
		}
		if f.PlayerID != nil && !m.Involves(*f.PlayerID) {
			return false
		}
		if f.Round != nil && m.RoundNumber != *f.Round {
			return false
		}
		return f.Status == nil || m.Status == *f.Status
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	if !r.t.has(m.ID) {
		return repositories.ErrMatchNotFound
	}
	r.t.put(m.ID, *m)
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrMatchNotFound
	}
	return nil
}

func (r *fakeMatchRepo) Count(_ context.Context, _ repositories.SQLExecutor, tid *int64, status *models.MatchStatus) (int, error) {
	return len(r.t.all(func(m models.Match) bool {
		return (tid == nil || m.TournamentID == *tid) && (status == nil || m.Status == *status)
	})), nil
}

func (r *fakeMatchRepo) MaxRound(_ context.Context, _ repositories.SQLExecutor, tid int64) (int, error) {
	maxRound := 0
	for _, m := range r.t.all(func(m models.Match) bool { return m.TournamentID == tid }) {
		if m.RoundNumber > maxRound {
			maxRound = m.RoundNumber
		}
	}
	return maxRound, nil
}

// --- standings

type fakeStandingRepo struct {
	t       *table[pairKey, models.TournamentStanding]
	upserts int
}

func newFakeStandingRepo() *fakeStandingRepo {
	return &fakeStandingRepo{t: newTable[pairKey, models.TournamentStanding]()}
}

func (r *fakeStandingRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, s *models.TournamentStanding) error {
	r.upserts++
	k := pairKey{s.TournamentID, s.PlayerID}
	if cur, ok := r.t.get(k); ok {
		cur.Points, cur.GamesPlayed = s.Points, s.GamesPlayed
		cur.Wins, cur.Draws, cur.Losses = s.Wins, s.Draws, s.Losses
		cur.UpdatedAt = s.UpdatedAt
		r.t.put(k, *cur)
		return nil
	}
	r.t.put(k, *s)
	return nil
}

func (r *fakeStandingRepo) Get(_ context.Context, _ repositories.SQLExecutor, tid, pid int64, _ repositories.LockMode) (*models.TournamentStanding, error) {
	if s, ok := r.t.get(pairKey{tid, pid}); ok {
		return s, nil
	}
	return nil, repositories.ErrStandingNotFound
}

func (r *fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tid int64) ([]models.TournamentStanding, error) {
	out := r.t.all(func(s models.TournamentStanding) bool { return s.TournamentID == tid })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].BuchholzScore != out[j].BuchholzScore {
			return out[i].BuchholzScore > out[j].BuchholzScore
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (r *fakeStandingRepo) Update(_ context.Context, _ repositories.SQLExecutor, s *models.TournamentStanding) error {
	k := pairKey{s.TournamentID, s.PlayerID}
	if !r.t.has(k) {
		return repositories.ErrStandingNotFound
	}
	r.t.put(k, *s)
	return nil
}

func (r *fakeStandingRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tid, pid int64) error {
	if !r.t.del(pairKey{tid, pid}) {
		return repositories.ErrStandingNotFound
	}
	return nil
}

// --- views

type fakeViewRepo struct {
	results []models.MatchResultView
}

func (r *fakeViewRepo) ActiveMemberships(context.Context, repositories.SQLExecutor, *int64) ([]models.ActiveMembershipView, error) {
	return nil, nil
}

func (r *fakeViewRepo) TournamentDetails(context.Context, repositories.SQLExecutor, *models.TournamentStatus) ([]models.TournamentDetailsView, error) {
	return nil, nil
}

func (r *fakeViewRepo) TournamentDetailsByID(context.Context, repositories.SQLExecutor, int64) (*models.TournamentDetailsView, error) {
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeViewRepo) MatchResults(_ context.Context, _ repositories.SQLExecutor, f repositories.MatchResultsFilter) ([]models.MatchResultView, error) {
	out := make([]models.MatchResultView, 0, len(r.results))
	for _, v := range r.results {
		if f.TournamentID == nil || v.TournamentID == *f.TournamentID {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- users

type fakeUserRepo struct{ t *table[int64, models.User] }

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{t: newTable[int64, models.User]()} }

func (r *fakeUserRepo) Create(_ context.Context, _ repositories.SQLExecutor, u *models.User) error {
	dup := r.t.all(func(o models.User) bool { return strings.EqualFold(o.Email, u.Email) })
	if len(dup) > 0 {
		return repositories.ErrUserEmailConflict
	}
	u.ID = r.t.nextID(u.ID)
	r.t.put(u.ID, *u)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.User, error) {
	if u, ok := r.t.get(id); ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ repositories.SQLExecutor, email string) (*models.User, error) {
	found := r.t.all(func(o models.User) bool { return strings.EqualFold(o.Email, email) })
	if len(found) == 0 {
		return nil, repositories.ErrUserNotFound
	}
	return &found[0], nil
}

func (r *fakeUserRepo) List(context.Context, repositories.SQLExecutor) ([]models.User, error) {
	out := r.t.all(nil)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ repositories.SQLExecutor, u *models.User) error {
	if !r.t.has(u.ID) {
		return repositories.ErrUserNotFound
	}
	r.t.put(u.ID, *u)
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int64) error {
	if !r.t.del(id) {
		return repositories.ErrUserNotFound
	}
	return nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, _ repositories.SQLExecutor, role models.UserRole) (int, error) {
	return len(r.t.all(func(u models.User) bool { return u.Role == role })), nil
}

// --- side effects

type broadcastCall struct {
	room      string
	eventType string
	payload   interface{}
}

type fakeBroadcaster struct{ calls []broadcastCall }

func (b *fakeBroadcaster) BroadcastToRoom(room, eventType string, payload interface{}) {
	b.calls = append(b.calls, broadcastCall{room, eventType, payload})
}

func (b *fakeBroadcaster) types() []string {
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.eventType
	}
	return out
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	deleted     []string
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: "etag"}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

var (
	_ repositories.Transactor                  = (*fakeTx)(nil)
	_ repositories.ClubRepository              = (*fakeClubRepo)(nil)
	_ repositories.PlayerRepository            = (*fakePlayerRepo)(nil)
	_ repositories.MembershipRepository        = (*fakeMembershipRepo)(nil)
	_ repositories.RankingRepository           = (*fakeRankingRepo)(nil)
	_ repositories.TournamentRepository        = (*fakeTournamentRepo)(nil)
	_ repositories.SponsorRepository           = (*fakeSponsorRepo)(nil)
	_ repositories.TournamentSponsorRepository = (*fakeSponsorshipRepo)(nil)
	_ repositories.ParticipantRepository       = (*fakeParticipantRepo)(nil)
	_ repositories.MatchRepository             = (*fakeMatchRepo)(nil)
	_ repositories.StandingRepository          = (*fakeStandingRepo)(nil)
	_ repositories.ViewRepository              = (*fakeViewRepo)(nil)
	_ repositories.UserRepository              = (*fakeUserRepo)(nil)
	_ Broadcaster                              = (*fakeBroadcaster)(nil)
	_ storage.FileUploader                     = (*fakeUploader)(nil)
)
