package service

import (
	"context"
	"testing"
	"time"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
)

func setupAuth(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	svc := NewAuthService(
		users,
		repository.NewMemoryCustomers(store),
		repository.NewMemoryPharmacies(store),
		repository.NewMemoryAddresses(store),
		auth.NewTokenManager("test-secret", time.Hour),
		repository.NewMemoryTx(store),
	)
	return svc, users
}

func TestRegisterCustomerAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, users := setupAuth(t)

	c, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{
		Name: "Ana", Email: "Ana@Example.com", Password: "secret1", CPF: "11111111111",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// e-mail нормализуется, пароль не хранится открытым
	u, err := users.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if u.ID != c.UserID {
		t.Fatalf("profile not linked")
	}
	if u.Password == "secret1" {
		t.Fatalf("password stored in plain text")
	}
	if !u.HasRole(domain.RoleCustomer) {
		t.Fatalf("roles %v", u.Roles)
	}

	token, err := svc.Login(ctx, "ana@example.com", "secret1")
	if err != nil || token == "" {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost@example.com", "secret1"); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden for unknown user, got %v", err)
	}
}

func TestRegisterCustomer_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAuth(t)

	in := RegisterCustomerInput{Name: "Ana", Email: "ana@example.com", Password: "secret1", CPF: "11111111111"}
	if _, err := svc.RegisterCustomer(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{
		Name: "Outra", Email: "ana@example.com", Password: "secret1", CPF: "22222222222",
	}); !apperr.IsConflict(err) {
		t.Fatalf("email dup: %v", err)
	}
	if _, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{
		Name: "Outra", Email: "outra@example.com", Password: "secret1", CPF: "11111111111",
	}); !apperr.IsConflict(err) {
		t.Fatalf("cpf dup: %v", err)
	}
}

func TestRegisterPharmacy(t *testing.T) {
	ctx := context.Background()
	svc, users := setupAuth(t)

	in := RegisterPharmacyInput{
		LegalName: "Farma Um LTDA", TradeName: "Farma Um",
		CNPJ: "00000000000001", CRFJ: "CRF-J-1",
		Email: "adm@farm.com", Password: "secret1",
	}
	p, err := svc.RegisterPharmacy(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Status != domain.PharmacyPendingApproval {
		t.Fatalf("status %s", p.Status)
	}
	u, err := users.GetByEmail(ctx, "adm@farm.com")
	if err != nil || !u.HasRole(domain.RolePharmacyAdmin) {
		t.Fatalf("admin user: %v %v", u, err)
	}

	in.Email = "outro@farm.com"
	if _, err := svc.RegisterPharmacy(ctx, in); !apperr.IsConflict(err) {
		t.Fatalf("cnpj dup: %v", err)
	}
	in.CNPJ = "00000000000002"
	if _, err := svc.RegisterPharmacy(ctx, in); !apperr.IsConflict(err) {
		t.Fatalf("crfj dup: %v", err)
	}
}

func TestAddresses(t *testing.T) {
	ctx := context.Background()
	svc, users := setupAuth(t)

	c, err := svc.RegisterCustomer(ctx, RegisterCustomerInput{
		Name: "Ana", Email: "ana@example.com", Password: "secret1", CPF: "11111111111",
	})
	if err != nil {
		t.Fatal(err)
	}
	u, _ := users.GetByID(ctx, c.UserID)
	cctx := auth.WithIdentity(ctx, &auth.Identity{User: u, Customer: c})

	if _, err := svc.CreateAddress(cctx, domain.Address{Street: "Rua A"}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}
	a, err := svc.CreateAddress(cctx, domain.Address{Zip: "01000-000", Street: "Rua A", Number: "1", City: "São Paulo", State: "SP"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.CustomerID != c.ID {
		t.Fatalf("not bound to customer")
	}

	list, err := svc.MyAddresses(cctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}

	// без профиля покупателя адреса недоступны
	if _, err := svc.MyAddresses(auth.WithIdentity(ctx, &auth.Identity{User: u})); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
