package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

type ClubService interface {
	CreateClub(ctx context.Context, input CreateClubInput) (*models.Club, error)
	GetClub(ctx context.Context, id int64) (*models.Club, error)
	ListClubs(ctx context.Context, filter repositories.ListClubsFilter) ([]models.Club, error)
	UpdateClub(ctx context.Context, id int64, input UpdateClubInput) (*models.Club, error)
	DeleteClub(ctx context.Context, id int64) error
}

type CreateClubInput struct {
	ID              int64        `json:"club_id,omitempty"`
	Name            string       `json:"club_name"`
	Address         *string      `json:"address,omitempty"`
	Phone           *string      `json:"phone,omitempty"`
	Email           *string      `json:"email,omitempty"`
	EstablishedDate *models.Date `json:"established_date,omitempty"`
	Description     *string      `json:"description,omitempty"`
}

type UpdateClubInput struct {
	Name            *string      `json:"club_name,omitempty"`
	Address         *string      `json:"address,omitempty"`
	Phone           *string      `json:"phone,omitempty"`
	Email           *string      `json:"email,omitempty"`
	EstablishedDate *models.Date `json:"established_date,omitempty"`
	Description     *string      `json:"description,omitempty"`
}

type clubService struct {
	clubRepo       repositories.ClubRepository
	tournamentRepo repositories.TournamentRepository
	tx             repositories.Transactor
	now            Clock
}

func NewClubService(
	clubRepo repositories.ClubRepository,
	tournamentRepo repositories.TournamentRepository,
	tx repositories.Transactor,
	clock Clock,
) ClubService {
	return &clubService{
		clubRepo:       clubRepo,
		tournamentRepo: tournamentRepo,
		tx:             tx,
		now:            clock.orSystem(),
	}
}

func validateClub(c *models.Club) error {
	var err error
	if c.Name, err = requireText("club_name", c.Name, 100); err != nil {
		return err
	}
	if c.Phone, err = optionalText("phone", c.Phone, 20); err != nil {
		return err
	}
	if c.Email, err = optionalText("email", c.Email, 100); err != nil {
		return err
	}
	c.Address = trimOptional(c.Address)
	c.Description = trimOptional(c.Description)
	c.EstablishedDate = dateOnlyPtr(c.EstablishedDate)
	return nil
}

func (s *clubService) CreateClub(ctx context.Context, input CreateClubInput) (*models.Club, error) {
	club := &models.Club{
		ID:              input.ID,
		Name:            input.Name,
		Address:         input.Address,
		Phone:           input.Phone,
		Email:           input.Email,
		EstablishedDate: input.EstablishedDate.TimePtr(),
		Description:     input.Description,
	}
	if err := validateClub(club); err != nil {
		return nil, err
	}
	club.MarkCreated(s.now())

	// The insert and the identity sync for an explicit id commit together.
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.clubRepo.Create(ctx, exec, club)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}
	return club, nil
}

func (s *clubService) GetClub(ctx context.Context, id int64) (*models.Club, error) {
	return s.clubRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *clubService) ListClubs(ctx context.Context, filter repositories.ListClubsFilter) ([]models.Club, error) {
	clubs, err := s.clubRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	return clubs, nil
}

func (s *clubService) UpdateClub(ctx context.Context, id int64, input UpdateClubInput) (*models.Club, error) {
	var club *models.Club
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		club, err = s.clubRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}

		if input.Name != nil {
			club.Name = *input.Name
		}
		if input.Address != nil {
			club.Address = input.Address
		}
		if input.Phone != nil {
			club.Phone = input.Phone
		}
		if input.Email != nil {
			club.Email = input.Email
		}
		if input.EstablishedDate != nil {
			club.EstablishedDate = input.EstablishedDate.TimePtr()
		}
		if input.Description != nil {
			club.Description = input.Description
		}
		if err := validateClub(club); err != nil {
			return err
		}
		club.MarkUpdated(s.now())
		return s.clubRepo.Update(ctx, exec, club)
	})
	if err != nil {
		return nil, err
	}
	return club, nil
}

// DeleteClub removes the club with its memberships; tournaments it hosted lose the
// host and get a fresh updated_at in the same transaction.
func (s *clubService) DeleteClub(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.tournamentRepo.DetachHostingClub(ctx, exec, id, stampNow(s.now)); err != nil {
			return fmt.Errorf("failed to detach hosted tournaments: %w", err)
		}
		return s.clubRepo.Delete(ctx, exec, id)
	})
}
