package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

type MembershipService interface {
	AddMembership(ctx context.Context, input AddMembershipInput) (*models.Membership, error)
	GetMembership(ctx context.Context, id int64) (*models.Membership, error)
	ListPlayerMemberships(ctx context.Context, playerID int64) ([]models.Membership, error)
	ListClubMembers(ctx context.Context, clubID int64, activeOnly bool) ([]models.Membership, error)
	UpdateMembership(ctx context.Context, id int64, input UpdateMembershipInput) (*models.Membership, error)
	DeleteMembership(ctx context.Context, id int64) error
	// TransferPlayer deactivates the player's current Active membership, if any,
	// and opens an Active one in the target club, atomically.
	TransferPlayer(ctx context.Context, playerID int64, input TransferInput) (*models.Membership, error)
}

type AddMembershipInput struct {
	ID       int64                    `json:"membership_id,omitempty"`
	PlayerID int64                    `json:"player_id"`
	ClubID   int64                    `json:"club_id"`
	JoinDate *models.Date             `json:"join_date,omitempty"`
	Type     *models.MembershipType   `json:"membership_type,omitempty"`
	Status   *models.MembershipStatus `json:"status,omitempty"`
}

type UpdateMembershipInput struct {
	JoinDate *models.Date             `json:"join_date,omitempty"`
	Type     *models.MembershipType   `json:"membership_type,omitempty"`
	Status   *models.MembershipStatus `json:"status,omitempty"`
}

type TransferInput struct {
	ClubID int64                  `json:"club_id"`
	Type   *models.MembershipType `json:"membership_type,omitempty"`
}

type membershipService struct {
	membershipRepo repositories.MembershipRepository
	playerRepo     repositories.PlayerRepository
	clubRepo       repositories.ClubRepository
	tx             repositories.Transactor
	now            Clock
}

func NewMembershipService(
	membershipRepo repositories.MembershipRepository,
	playerRepo repositories.PlayerRepository,
	clubRepo repositories.ClubRepository,
	tx repositories.Transactor,
	clock Clock,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		playerRepo:     playerRepo,
		clubRepo:       clubRepo,
		tx:             tx,
		now:            clock.orSystem(),
	}
}

func validateMembership(m *models.Membership) error {
	if !m.Type.Valid() {
		return enumError("membership_type", m.Type)
	}
	if !m.Status.Valid() {
		return enumError("status", m.Status)
	}
	if m.JoinDate.IsZero() {
		return models.NewConstraintError(models.RuleNotNull, "join_date", "value is required")
	}
	m.JoinDate = dateOnly(m.JoinDate)
	return nil
}

// lockPlayerForActivation serializes membership writes of one player on the
// player row and fails if an Active membership other than exceptID exists.
// Must run inside a transaction.
func (s *membershipService) lockPlayerForActivation(ctx context.Context, exec repositories.SQLExecutor, playerID, exceptID int64) (*models.Membership, error) {
	if _, err := s.playerRepo.GetByID(ctx, exec, playerID, repositories.ForUpdate); err != nil {
		return nil, asReference(err, repositories.ErrPlayerNotFound, "memberships_player_id_fkey", "player_id", playerID)
	}
	current, err := s.membershipRepo.FindActiveByPlayer(ctx, exec, playerID)
	if errors.Is(err, repositories.ErrMembershipNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check active membership of player %d: %w", playerID, err)
	}
	if current.ID == exceptID {
		return current, nil
	}
	return current, models.ErrActiveMembershipExists
}

func (s *membershipService) ensureClub(ctx context.Context, exec repositories.SQLExecutor, clubID int64) error {
	_, err := s.clubRepo.GetByID(ctx, exec, clubID, repositories.NoLock)
	return asReference(err, repositories.ErrClubNotFound, "memberships_club_id_fkey", "club_id", clubID)
}

func (s *membershipService) AddMembership(ctx context.Context, input AddMembershipInput) (*models.Membership, error) {
	now := s.now()
	m := &models.Membership{
		ID:       input.ID,
		PlayerID: input.PlayerID,
		ClubID:   input.ClubID,
		JoinDate: now,
		Type:     models.MembershipRegular,
		Status:   models.MembershipActive,
	}
	if input.JoinDate != nil {
		m.JoinDate = input.JoinDate.Time
	}
	if input.Type != nil {
		m.Type = *input.Type
	}
	if input.Status != nil {
		m.Status = *input.Status
	}
	if err := validateMembership(m); err != nil {
		return nil, err
	}
	m.MarkCreated(now)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if m.Status == models.MembershipActive {
			if _, err := s.lockPlayerForActivation(ctx, exec, m.PlayerID, 0); err != nil {
				return err
			}
		} else if _, err := s.playerRepo.GetByID(ctx, exec, m.PlayerID, repositories.NoLock); err != nil {
			return asReference(err, repositories.ErrPlayerNotFound, "memberships_player_id_fkey", "player_id", m.PlayerID)
		}
		if err := s.ensureClub(ctx, exec, m.ClubID); err != nil {
			return err
		}
		return s.membershipRepo.Create(ctx, exec, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *membershipService) GetMembership(ctx context.Context, id int64) (*models.Membership, error) {
	return s.membershipRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *membershipService) ListPlayerMemberships(ctx context.Context, playerID int64) ([]models.Membership, error) {
	if _, err := s.playerRepo.GetByID(ctx, nil, playerID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByPlayer(ctx, nil, playerID)
}

func (s *membershipService) ListClubMembers(ctx context.Context, clubID int64, activeOnly bool) ([]models.Membership, error) {
	if _, err := s.clubRepo.GetByID(ctx, nil, clubID, repositories.NoLock); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByClub(ctx, nil, clubID, activeOnly)
}

func (s *membershipService) UpdateMembership(ctx context.Context, id int64, input UpdateMembershipInput) (*models.Membership, error) {
	var m *models.Membership
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// The player id is needed before the player lock, so peek without locking,
		// then lock player first and membership second, the order every writer uses.
		peek, err := s.membershipRepo.GetByID(ctx, exec, id, repositories.NoLock)
		if err != nil {
			return err
		}
		activating := input.Status != nil && *input.Status == models.MembershipActive && peek.Status != models.MembershipActive
		if activating {
			if _, err := s.lockPlayerForActivation(ctx, exec, peek.PlayerID, id); err != nil {
				return err
			}
		}

		m, err = s.membershipRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}
		if input.JoinDate != nil {
			m.JoinDate = input.JoinDate.Time
		}
		if input.Type != nil {
			m.Type = *input.Type
		}
		if input.Status != nil {
			m.Status = *input.Status
		}
		if err := validateMembership(m); err != nil {
			return err
		}
		m.MarkUpdated(s.now())
		return s.membershipRepo.Update(ctx, exec, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *membershipService) DeleteMembership(ctx context.Context, id int64) error {
	return s.membershipRepo.Delete(ctx, nil, id)
}

func (s *membershipService) TransferPlayer(ctx context.Context, playerID int64, input TransferInput) (*models.Membership, error) {
	now := s.now()
	next := &models.Membership{
		PlayerID: playerID,
		ClubID:   input.ClubID,
		JoinDate: now,
		Type:     models.MembershipRegular,
		Status:   models.MembershipActive,
	}
	if input.Type != nil {
		next.Type = *input.Type
	}
	if err := validateMembership(next); err != nil {
		return nil, err
	}
	next.MarkCreated(now)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.lockPlayerForActivation(ctx, exec, playerID, 0)
		if err != nil && !errors.Is(err, models.ErrActiveMembershipExists) {
			return err
		}
		if err := s.ensureClub(ctx, exec, input.ClubID); err != nil {
			return err
		}
		if current != nil {
			if current.ClubID == input.ClubID {
				return models.ErrTransferSameClub
			}
			current.Status = models.MembershipInactive
			current.MarkUpdated(now)
			if err := s.membershipRepo.Update(ctx, exec, current); err != nil {
				return fmt.Errorf("failed to deactivate membership %d: %w", current.ID, err)
			}
		}
		return s.membershipRepo.Create(ctx, exec, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}
