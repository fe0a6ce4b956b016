package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
)

type SponsorService interface {
	CreateSponsor(ctx context.Context, input SponsorInput) (*models.Sponsor, error)
	GetSponsor(ctx context.Context, id int64) (*models.Sponsor, error)
	ListSponsors(ctx context.Context, sponsorType *models.SponsorType, limit, offset int) ([]models.Sponsor, error)
	UpdateSponsor(ctx context.Context, id int64, input UpdateSponsorInput) (*models.Sponsor, error)
	DeleteSponsor(ctx context.Context, id int64) error
}

type SponsorInput struct {
	ID            int64              `json:"sponsor_id,omitempty"`
	Name          string             `json:"sponsor_name"`
	Type          models.SponsorType `json:"sponsor_type"`
	ContactPerson *string            `json:"contact_person,omitempty"`
	Phone         *string            `json:"phone,omitempty"`
	Email         *string            `json:"email,omitempty"`
	Address       *string            `json:"address,omitempty"`
	Website       *string            `json:"website,omitempty"`
}

type UpdateSponsorInput struct {
	Name          *string             `json:"sponsor_name,omitempty"`
	Type          *models.SponsorType `json:"sponsor_type,omitempty"`
	ContactPerson *string             `json:"contact_person,omitempty"`
	Phone         *string             `json:"phone,omitempty"`
	Email         *string             `json:"email,omitempty"`
	Address       *string             `json:"address,omitempty"`
	Website       *string             `json:"website,omitempty"`
}

type sponsorService struct {
	sponsorRepo repositories.SponsorRepository
	tx          repositories.Transactor
	now         Clock
}

func NewSponsorService(sponsorRepo repositories.SponsorRepository, tx repositories.Transactor, clock Clock) SponsorService {
	return &sponsorService{sponsorRepo: sponsorRepo, tx: tx, now: clock.orSystem()}
}

func validateSponsor(sp *models.Sponsor) error {
	var err error
	if sp.Name, err = requireText("sponsor_name", sp.Name, 100); err != nil {
		return err
	}
	if !sp.Type.Valid() {
		return enumError("sponsor_type", sp.Type)
	}
	if sp.ContactPerson, err = optionalText("contact_person", sp.ContactPerson, 100); err != nil {
		return err
	}
	if sp.Phone, err = optionalText("phone", sp.Phone, 20); err != nil {
		return err
	}
	if sp.Email, err = optionalText("email", sp.Email, 100); err != nil {
		return err
	}
	if sp.Website, err = optionalText("website", sp.Website, 255); err != nil {
		return err
	}
	sp.Address = trimOptional(sp.Address)
	return nil
}

func (s *sponsorService) CreateSponsor(ctx context.Context, input SponsorInput) (*models.Sponsor, error) {
	sp := &models.Sponsor{
		ID:            input.ID,
		Name:          input.Name,
		Type:          input.Type,
		ContactPerson: input.ContactPerson,
		Phone:         input.Phone,
		Email:         input.Email,
		Address:       input.Address,
		Website:       input.Website,
	}
	if err := validateSponsor(sp); err != nil {
		return nil, err
	}
	sp.MarkCreated(s.now())
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.sponsorRepo.Create(ctx, exec, sp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sponsor: %w", err)
	}
	return sp, nil
}

func (s *sponsorService) GetSponsor(ctx context.Context, id int64) (*models.Sponsor, error) {
	return s.sponsorRepo.GetByID(ctx, nil, id, repositories.NoLock)
}

func (s *sponsorService) ListSponsors(ctx context.Context, sponsorType *models.SponsorType, limit, offset int) ([]models.Sponsor, error) {
	if sponsorType != nil && !sponsorType.Valid() {
		return nil, enumError("sponsor_type", *sponsorType)
	}
	return s.sponsorRepo.List(ctx, nil, sponsorType, limit, offset)
}

func (s *sponsorService) UpdateSponsor(ctx context.Context, id int64, input UpdateSponsorInput) (*models.Sponsor, error) {
	var sp *models.Sponsor
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		sp, err = s.sponsorRepo.GetByID(ctx, exec, id, repositories.ForUpdate)
		if err != nil {
			return err
		}
		if input.Name != nil {
			sp.Name = *input.Name
		}
		if input.Type != nil {
			sp.Type = *input.Type
		}
		if input.ContactPerson != nil {
			sp.ContactPerson = input.ContactPerson
		}
		if input.Phone != nil {
			sp.Phone = input.Phone
		}
		if input.Email != nil {
			sp.Email = input.Email
		}
		if input.Address != nil {
			sp.Address = input.Address
		}
		if input.Website != nil {
			sp.Website = input.Website
		}
		if err := validateSponsor(sp); err != nil {
			return err
		}
		sp.MarkUpdated(s.now())
		return s.sponsorRepo.Update(ctx, exec, sp)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *sponsorService) DeleteSponsor(ctx context.Context, id int64) error {
	return s.sponsorRepo.Delete(ctx, nil, id)
}
