package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
)

// PharmacyService жизненный цикл аптек на платформе и найм фармацевтов
type PharmacyService struct {
	users       repository.UserRepository
	pharmacies  repository.PharmacyRepository
	pharmacists repository.PharmacistRepository
	tx          repository.TxManager
}

func NewPharmacyService(
	users repository.UserRepository,
	pharmacies repository.PharmacyRepository,
	pharmacists repository.PharmacistRepository,
	tx repository.TxManager,
) *PharmacyService {
	return &PharmacyService{users: users, pharmacies: pharmacies, pharmacists: pharmacists, tx: tx}
}

// --- администратор платформы ---

// ListPharmaciesByStatus постраничный список аптек в заданном статусе
func (s *PharmacyService) ListPharmaciesByStatus(ctx context.Context, status domain.PharmacyStatus, pg repository.Pagination) (repository.Page[domain.Pharmacy], error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return repository.Page[domain.Pharmacy]{}, err
	}
	if !status.Valid() {
		return repository.Page[domain.Pharmacy]{}, apperr.Validationf("Status de farmácia inválido: %s", status)
	}
	return s.pharmacies.ListByStatus(ctx, status, pg)
}

// ApprovePharmacy одобряет аптеку: PENDING_APPROVAL или SUSPENDED → ACTIVE
func (s *PharmacyService) ApprovePharmacy(ctx context.Context, pharmacyID int64) (*domain.Pharmacy, error) {
	return s.setPharmacyStatus(ctx, pharmacyID, domain.PharmacyActive)
}

// SuspendPharmacy приостанавливает аптеку: ACTIVE → SUSPENDED
func (s *PharmacyService) SuspendPharmacy(ctx context.Context, pharmacyID int64) (*domain.Pharmacy, error) {
	return s.setPharmacyStatus(ctx, pharmacyID, domain.PharmacySuspended)
}

func (s *PharmacyService) setPharmacyStatus(ctx context.Context, pharmacyID int64, target domain.PharmacyStatus) (*domain.Pharmacy, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *domain.Pharmacy
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.pharmacies.GetByID(ctx, pharmacyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFoundf("Farmácia com ID %d não encontrada.", pharmacyID)
			}
			return err
		}
		if target == domain.PharmacySuspended && p.Status != domain.PharmacyActive {
			return apperr.Conflictf("Apenas farmácias ativas podem ser suspensas. Status atual: %s", p.Status)
		}
		if p.Status == target {
			return apperr.Conflictf("A farmácia já está no status %s.", target)
		}
		p.Status = target
		if err := s.pharmacies.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UserByEmail поиск учётной записи по e-mail (для операторов платформы)
func (s *PharmacyService) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Usuário com e-mail %s não encontrado.", email)
		}
		return nil, err
	}
	return u, nil
}

// --- администратор аптеки ---

// RegisterPharmacistInput данные найма фармацевта
type RegisterPharmacistInput struct {
	Name     string `json:"name" binding:"required"`
	CPF      string `json:"cpf" binding:"required"`
	CRF      string `json:"crf" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterPharmacist создаёт фармацевта, привязанного к аптеке текущего
// администратора. CRF уникален на всю платформу.
func (s *PharmacyService) RegisterPharmacist(ctx context.Context, in RegisterPharmacistInput) (*domain.Pharmacist, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	if pharmacy.Status != domain.PharmacyActive {
		return nil, apperr.Forbiddenf("Sua farmácia ainda não foi aprovada pela plataforma.")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *domain.Pharmacist
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			return apperr.Conflictf("Já existe um usuário cadastrado com este e-mail.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.pharmacists.GetByCRF(ctx, in.CRF); err == nil {
			return apperr.Conflictf("Já existe um farmacêutico cadastrado com este CRF.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		u := &domain.User{
			Email:     in.Email,
			Password:  hash,
			Roles:     domain.RoleList{domain.RolePharmacist},
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return translateDuplicate(err, "Já existe um usuário cadastrado com este e-mail.")
		}
		ph := &domain.Pharmacist{
			UserID:     u.ID,
			PharmacyID: pharmacy.ID,
			Name:       in.Name,
			CPF:        in.CPF,
			CRF:        in.CRF,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.pharmacists.Create(ctx, ph); err != nil {
			return translateDuplicate(err, "Já existe um farmacêutico cadastrado com este CRF.")
		}
		created = ph
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
