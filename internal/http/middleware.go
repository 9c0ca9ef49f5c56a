package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"esculapi/internal/auth"
	"esculapi/internal/repository"
)

// IdentityLoader разрешает JWT в актора: учётная запись плюс профили.
// Профили подгружаются на каждый запрос, токен хранит только user id.
type IdentityLoader struct {
	tokens      *auth.TokenManager
	users       repository.UserRepository
	customers   repository.CustomerRepository
	pharmacies  repository.PharmacyRepository
	pharmacists repository.PharmacistRepository
}

func NewIdentityLoader(
	tokens *auth.TokenManager,
	users repository.UserRepository,
	customers repository.CustomerRepository,
	pharmacies repository.PharmacyRepository,
	pharmacists repository.PharmacistRepository,
) *IdentityLoader {
	return &IdentityLoader{
		tokens:      tokens,
		users:       users,
		customers:   customers,
		pharmacies:  pharmacies,
		pharmacists: pharmacists,
	}
}

// Load резолвит токен в Identity
func (l *IdentityLoader) Load(ctx context.Context, token string) (*auth.Identity, error) {
	userID, err := l.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, errors.New("conta desativada")
	}
	id := &auth.Identity{User: u}
	if c, err := l.customers.GetByUserID(ctx, u.ID); err == nil {
		id.Customer = c
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if p, err := l.pharmacies.GetByAdminUserID(ctx, u.ID); err == nil {
		id.Pharmacy = p
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if ph, err := l.pharmacists.GetByUserID(ctx, u.ID); err == nil {
		id.Pharmacist = ph
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return id, nil
}

// Middleware требует Bearer-токен и кладёт актора в контекст запроса.
// Дальше роли проверяют сами сервисы.
func (l *IdentityLoader) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticação ausente."})
			return
		}
		id, err := l.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token de autenticação inválido ou expirado."})
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
