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

// AuthService регистрация и вход. Пароли хранятся только как bcrypt-хэши,
// пары учётная запись + профиль создаются в одной транзакции.
type AuthService struct {
	users      repository.UserRepository
	customers  repository.CustomerRepository
	pharmacies repository.PharmacyRepository
	addresses  repository.AddressRepository
	tokens     *auth.TokenManager
	tx         repository.TxManager
}

func NewAuthService(
	users repository.UserRepository,
	customers repository.CustomerRepository,
	pharmacies repository.PharmacyRepository,
	addresses repository.AddressRepository,
	tokens *auth.TokenManager,
	tx repository.TxManager,
) *AuthService {
	return &AuthService{
		users:      users,
		customers:  customers,
		pharmacies: pharmacies,
		addresses:  addresses,
		tokens:     tokens,
		tx:         tx,
	}
}

// RegisterCustomerInput данные регистрации покупателя
type RegisterCustomerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	CPF      string `json:"cpf" binding:"required"`
	Phone    string `json:"phone"`
}

// RegisterCustomer создаёт учётную запись с ролью CUSTOMER и профиль
// покупателя. Е-mail и CPF уникальны на всю платформу.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterCustomerInput) (*domain.Customer, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *domain.Customer
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			return apperr.Conflictf("Já existe um usuário cadastrado com este e-mail.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.customers.GetByCPF(ctx, in.CPF); err == nil {
			return apperr.Conflictf("Já existe um cliente cadastrado com este CPF.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		u := &domain.User{
			Email:     in.Email,
			Password:  hash,
			Roles:     domain.RoleList{domain.RoleCustomer},
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return translateDuplicate(err, "Já existe um usuário cadastrado com este e-mail.")
		}
		c := &domain.Customer{
			UserID:    u.ID,
			Name:      in.Name,
			CPF:       in.CPF,
			Phone:     in.Phone,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.customers.Create(ctx, c); err != nil {
			return translateDuplicate(err, "Já existe um cliente cadastrado com este CPF.")
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RegisterPharmacyInput данные регистрации аптеки и её администратора
type RegisterPharmacyInput struct {
	LegalName    string `json:"legal_name" binding:"required"`
	TradeName    string `json:"trade_name" binding:"required"`
	CNPJ         string `json:"cnpj" binding:"required"`
	CRFJ         string `json:"crf_j" binding:"required"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
}

// RegisterPharmacy создаёт администратора и аптеку в статусе
// PENDING_APPROVAL; продавать аптека сможет после одобрения платформой
func (s *AuthService) RegisterPharmacy(ctx context.Context, in RegisterPharmacyInput) (*domain.Pharmacy, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var created *domain.Pharmacy
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
			return apperr.Conflictf("Já existe um usuário cadastrado com este e-mail.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.pharmacies.GetByCNPJ(ctx, in.CNPJ); err == nil {
			return apperr.Conflictf("Já existe uma farmácia cadastrada com este CNPJ.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.pharmacies.GetByCRFJ(ctx, in.CRFJ); err == nil {
			return apperr.Conflictf("Já existe uma farmácia cadastrada com este CRF-J.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		u := &domain.User{
			Email:     in.Email,
			Password:  hash,
			Roles:     domain.RoleList{domain.RolePharmacyAdmin},
			Enabled:   true,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return translateDuplicate(err, "Já existe um usuário cadastrado com este e-mail.")
		}
		p := &domain.Pharmacy{
			AdminUserID:  u.ID,
			CNPJ:         in.CNPJ,
			CRFJ:         in.CRFJ,
			LegalName:    in.LegalName,
			TradeName:    in.TradeName,
			ContactEmail: in.ContactEmail,
			ContactPhone: in.ContactPhone,
			Status:       domain.PharmacyPendingApproval,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.pharmacies.Create(ctx, p); err != nil {
			return translateDuplicate(err, "Já existe uma farmácia cadastrada com este CNPJ.")
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Login проверяет учётные данные и выдаёт JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.Forbiddenf("Credenciais inválidas.")
		}
		return "", err
	}
	if !auth.CheckPassword(u.Password, password) {
		return "", apperr.Forbiddenf("Credenciais inválidas.")
	}
	if !u.Enabled {
		return "", apperr.Forbiddenf("Esta conta está desativada.")
	}
	return s.tokens.Issue(u)
}

// CreateAddress добавляет адрес доставки текущему покупателю
func (s *AuthService) CreateAddress(ctx context.Context, a domain.Address) (*domain.Address, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if a.Zip == "" || a.Street == "" || a.City == "" || a.State == "" {
		return nil, apperr.Validationf("CEP, rua, cidade e estado são obrigatórios.")
	}
	a.ID = 0
	a.CustomerID = customer.ID
	if err := s.addresses.Create(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// MyAddresses адреса текущего покупателя
func (s *AuthService) MyAddresses(ctx context.Context) ([]domain.Address, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.addresses.ListByCustomer(ctx, customer.ID)
}

// translateDuplicate подменяет нарушение уникального ключа на Conflict
// с осмысленным сообщением
func translateDuplicate(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflictf("%s", message)
	}
	return err
}
