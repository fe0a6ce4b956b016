package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/Dosada05/chess-tournament/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const pgnContentType = "application/x-chess-pgn"

// ArchiveService выгружает партии турнира в объектное хранилище одним PGN-файлом.
type ArchiveService interface {
	ExportTournamentGames(ctx context.Context, tournamentID int64) (*ArchiveResult, error)
	// DeleteArchive removes a previously exported file. The key must belong to the tournament.
	DeleteArchive(ctx context.Context, tournamentID int64, key string) error
}

type ArchiveResult struct {
	TournamentID int64  `json:"tournament_id"`
	Key          string `json:"key"`
	URL          string `json:"url,omitempty"`
	ETag         string `json:"etag,omitempty"`
	Games        int    `json:"games"`
}

type archiveService struct {
	tournamentRepo repositories.TournamentRepository
	viewRepo       repositories.ViewRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewArchiveService accepts a nil uploader; exports then fail with ErrArchiveDisabled.
func NewArchiveService(
	tournamentRepo repositories.TournamentRepository,
	viewRepo repositories.ViewRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ArchiveService {
	return &archiveService{
		tournamentRepo: tournamentRepo,
		viewRepo:       viewRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func archivePrefix(code string) string {
	return fmt.Sprintf("archives/%s/", slug.Make(code))
}

func archiveKey(code string) string {
	return archivePrefix(code) + uuid.NewString() + ".pgn"
}

func (s *archiveService) ExportTournamentGames(ctx context.Context, tournamentID int64) (*ArchiveResult, error) {
	if s.uploader == nil {
		return nil, ErrArchiveDisabled
	}
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock)
	if err != nil {
		return nil, err
	}
	games, err := s.viewRepo.MatchResults(ctx, nil, repositories.MatchResultsFilter{TournamentID: &tournamentID})
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	if len(games) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	RenderPGN(&buf, t, games)

	key := archiveKey(t.Code)
	uploaded, err := s.uploader.Upload(ctx, key, pgnContentType, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	s.logger.Info("Tournament games archived",
		slog.Int64("tournament_id", tournamentID),
		slog.String("key", uploaded.Key),
		slog.Int("games", len(games)))

	return &ArchiveResult{
		TournamentID: tournamentID,
		Key:          uploaded.Key,
		URL:          uploaded.Location,
		ETag:         uploaded.ETag,
		Games:        len(games),
	}, nil
}

func (s *archiveService) DeleteArchive(ctx context.Context, tournamentID int64, key string) error {
	if s.uploader == nil {
		return ErrArchiveDisabled
	}
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID, repositories.NoLock)
	if err != nil {
		return err
	}
	name, ok := strings.CutPrefix(key, archivePrefix(t.Code))
	if !ok || !strings.HasSuffix(name, ".pgn") || strings.Contains(name, "/") {
		return models.NewConstraintError("archive_key", "key", "%q is not an archive of tournament %s", key, t.Code)
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info("Tournament archive deleted",
		slog.Int64("tournament_id", tournamentID),
		slog.String("key", key))
	return nil
}

// RenderPGN writes one PGN game per row: the Seven Tag Roster, Elo tags with the
// ratings players entered the tournament with and the stored movetext followed by
// the result token. Movetext is copied as is.
func RenderPGN(buf *bytes.Buffer, t *models.Tournament, games []models.MatchResultView) {
	site := "?"
	if t.Location != nil && *t.Location != "" {
		site = *t.Location
	}
	for i, g := range games {
		if i > 0 {
			buf.WriteByte('\n')
		}
		date := pgnDate(t.StartDate)
		if g.ScheduledTime != nil {
			date = pgnDate(*g.ScheduledTime)
		}
		round := fmt.Sprintf("%d", g.RoundNumber)
		if g.BoardNumber != nil {
			round = fmt.Sprintf("%d.%d", g.RoundNumber, *g.BoardNumber)
		}

		writeTag(buf, "Event", t.Name)
		writeTag(buf, "Site", site)
		writeTag(buf, "Date", date)
		writeTag(buf, "Round", round)
		writeTag(buf, "White", g.WhitePlayerName)
		writeTag(buf, "Black", g.BlackPlayerName)
		writeTag(buf, "Result", string(g.Result))
		writeTag(buf, "WhiteElo", fmt.Sprintf("%d", g.WhiteEntryRating))
		writeTag(buf, "BlackElo", fmt.Sprintf("%d", g.BlackEntryRating))
		buf.WriteByte('\n')

		moves := ""
		if g.MovesPGN != nil {
			moves = strings.TrimSpace(*g.MovesPGN)
		}
		if moves != "" && !strings.HasSuffix(moves, string(g.Result)) {
			moves += " " + string(g.Result)
		} else if moves == "" {
			moves = string(g.Result)
		}
		buf.WriteString(moves)
		buf.WriteString("\n")
	}
}

func pgnDate(t time.Time) string {
	if t.IsZero() {
		return "????.??.??"
	}
	return t.UTC().Format("2006.01.02")
}

func writeTag(buf *bytes.Buffer, name, value string) {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	fmt.Fprintf(buf, "[%s \"%s\"]\n", name, value)
}
