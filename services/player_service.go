package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

const (
	defaultTopPlayers = 10
	maxTopPlayers     = 100
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id int64) (*models.Player, error)
	ListPlayers(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error)
	TopPlayers(ctx context.Context, limit int) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id int64, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int64) error
}

type CreatePlayerInput struct {
	ID          int64          `json:"player_id,omitempty"`
	Name        string         `json:"player_name"`
	Address     *string        `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty"`
	BirthDate   *models.Date   `json:"birth_date,omitempty"`
	Nationality *string        `json:"nationality,omitempty"`
	Gender      *models.Gender `json:"gender,omitempty"`
	Rating      *int           `json:"rating,omitempty"`
	Title       *string        `json:"title,omitempty"`
}

// UpdatePlayerInput has no rating: the cached rating only follows the rating history.
type UpdatePlayerInput struct {
	Name        *string        `json:"player_name,omitempty"`
	Address     *string        `json:"address,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Email       *string        `json:"email,omitempty"`
	BirthDate   *models.Date   `json:"birth_date,omitempty"`
	Nationality *string        `json:"nationality,omitempty"`
	Gender      *models.Gender `json:"gender,omitempty"`
	Title       *string        `json:"title,omitempty"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	tx         repositories.Transactor
	now        Clock
}

func NewPlayerService(playerRepo repositories.PlayerRepository, tx repositories.Transactor, clock Clock) PlayerService {
	return &playerService{playerRepo: playerRepo, tx: tx, now: clock.orSystem()}
}

func validatePlayer(p *models.Player) error {
	var err error
	if p.Name, err = requireText("player_name", p.Name, 100); err != nil {
		return err
	}
	if p.Phone, err = optionalText("phone", p.Phone, 20); err != nil {
		return err
	}
	if p.Email, err = optionalText("email", p.Email, 100); err != nil {
		return err
	}
	if p.Nationality, err = optionalText("nationality", p.Nationality, 50); err != nil {
		return err
	}
	if p.Title, err = optionalText("title", p.Title, 20); err != nil {
		return err
	}
	if p.Gender != nil && !p.Gender.Valid() {
		return enumError("gender", *p.Gender)
	}
	if err := checkNonNegative("rating", p.Rating); err != nil {
		return err
	}
	p.Address = trimOptional(p.Address)
	p.BirthDate = dateOnlyPtr(p.BirthDate)
	return nil
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	player := &models.Player{
		ID:          input.ID,
		Name:        input.Name,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
		BirthDate:   input.BirthDate.TimePtr(),
		Nationality: input.Nationality,
		Gender:      input.Gender,
		Rating:      models.DefaultRating,
		Title:       input.Title,
	}
	if input.Rating != nil {
		player.Rating = *input.Rating
	}
	if err := validatePlayer(player); err != nil {
		return nil, err
	}
	player.MarkCreated(s.now())

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.playerRepo.Create(ctx, exec, player)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	return s.playerRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *playerService) ListPlayers(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) TopPlayers(ctx context.Context, limit int) ([]models.Player, error) {
	return s.ListPlayers(ctx, repositories.ListPlayersFilter{
		ByRating: true,
		Limit:    normalizeLimit(limit, defaultTopPlayers, maxTopPlayers),
	})
}

// UpdatePlayer locks the player row so that a concurrent rating propagation is
// not overwritten by the stale rating read here.
func (s *playerService) UpdatePlayer(ctx context.Context, id int64, input UpdatePlayerInput) (*models.Player, error) {
	var player *models.Player
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		player, err = s.playerRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}

		if input.Name != nil {
			player.Name = *input.Name
		}
		if input.Address != nil {
			player.Address = input.Address
		}
		if input.Phone != nil {
			player.Phone = input.Phone
		}
		if input.Email != nil {
			player.Email = input.Email
		}
		if input.BirthDate != nil {
			player.BirthDate = input.BirthDate.TimePtr()
		}
		if input.Nationality != nil {
			player.Nationality = input.Nationality
		}
		if input.Gender != nil {
			player.Gender = input.Gender
		}
		if input.Title != nil {
			player.Title = input.Title
		}
		if err := validatePlayer(player); err != nil {
			return err
		}
		player.MarkUpdated(s.now())
		return s.playerRepo.Update(ctx, exec, player)
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// DeletePlayer cascades to memberships, registrations, games, history and standings.
func (s *playerService) DeletePlayer(ctx context.Context, id int64) error {
	return s.playerRepo.Delete(ctx, nil, id)
}
