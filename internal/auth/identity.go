package auth

import (
	"context"

	"esculapi/internal/apperr"
	"esculapi/internal/domain"
)

// Identity разрешённый на запрос актор: учётная запись и её профили.
// Nil-профиль означает, что роль у пользователя отсутствует.
type Identity struct {
	User       *domain.User
	Customer   *domain.Customer
	Pharmacy   *domain.Pharmacy
	Pharmacist *domain.Pharmacist
}

type identityKey struct{}

// WithIdentity кладёт актора в контекст запроса
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom возвращает актора или Forbidden, если запрос анонимный
func IdentityFrom(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || id == nil || id.User == nil {
		return nil, apperr.Forbiddenf("Nenhum usuário autenticado encontrado. Acesso negado.")
	}
	return id, nil
}

// CustomerFrom профиль покупателя текущего актора
func CustomerFrom(ctx context.Context) (*domain.Customer, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}
	if id.Customer == nil {
		return nil, apperr.Forbiddenf("O usuário logado não possui um perfil de cliente.")
	}
	return id.Customer, nil
}

// PharmacyAdminFrom аптека, которой управляет текущий актор
func PharmacyAdminFrom(ctx context.Context) (*domain.Pharmacy, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}
	if id.Pharmacy == nil {
		return nil, apperr.Forbiddenf("O usuário logado não possui um perfil de administrador de farmácia.")
	}
	return id.Pharmacy, nil
}

// PharmacistFrom профиль фармацевта текущего актора
func PharmacistFrom(ctx context.Context) (*domain.Pharmacist, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}
	if id.Pharmacist == nil {
		return nil, apperr.Forbiddenf("O usuário logado não possui um perfil de farmacêutico.")
	}
	return id.Pharmacist, nil
}

// RequireAdmin пропускает только администратора платформы
func RequireAdmin(ctx context.Context) (*domain.User, error) {
	id, err := IdentityFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !id.User.HasRole(domain.RoleAdmin) {
		return nil, apperr.Forbiddenf("Acesso restrito ao administrador da plataforma.")
	}
	return id.User, nil
}
