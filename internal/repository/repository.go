package repository

import (
	"context"
	"errors"
	"strings"

	"esculapi/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock возвращается условным декрементом остатка,
// когда доступное количество меньше запрошенного
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrDuplicate возвращается при нарушении уникального ключа
var ErrDuplicate = errors.New("duplicate key")

// Pagination параметры постраничной выборки
type Pagination struct {
	Page int
	Size int
}

func (p Pagination) normalized() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = 20
	}
	return p
}

func (p Pagination) Offset() int { n := p.normalized(); return (n.Page - 1) * n.Size }
func (p Pagination) Limit() int  { return p.normalized().Size }

// Page страница результатов
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// UserRepository учётные записи
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CustomerRepository профили покупателей
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error)
	GetByCPF(ctx context.Context, cpf string) (*domain.Customer, error)
}

// PharmacyRepository аптеки
type PharmacyRepository interface {
	Create(ctx context.Context, p *domain.Pharmacy) error
	GetByID(ctx context.Context, id int64) (*domain.Pharmacy, error)
	GetByAdminUserID(ctx context.Context, userID int64) (*domain.Pharmacy, error)
	GetByCNPJ(ctx context.Context, cnpj string) (*domain.Pharmacy, error)
	GetByCRFJ(ctx context.Context, crfj string) (*domain.Pharmacy, error)
	Update(ctx context.Context, p *domain.Pharmacy) error
	ListByStatus(ctx context.Context, status domain.PharmacyStatus, pg Pagination) (Page[domain.Pharmacy], error)
}

// PharmacistRepository фармацевты
type PharmacistRepository interface {
	Create(ctx context.Context, p *domain.Pharmacist) error
	GetByID(ctx context.Context, id int64) (*domain.Pharmacist, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Pharmacist, error)
	GetByCRF(ctx context.Context, crf string) (*domain.Pharmacist, error)
}

// AddressRepository адреса доставки
type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByIDAndCustomer(ctx context.Context, id, customerID int64) (*domain.Address, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error)
}

// ProductRepository мастер-каталог товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetByRegistryCode(ctx context.Context, code string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	ListActive(ctx context.Context, pg Pagination) (Page[domain.Product], error)
}

// StockRepository остатки аптек. Reserve обязан быть атомарным условным
// декрементом: количество не проверяется и не списывается раздельно.
type StockRepository interface {
	Create(ctx context.Context, s *domain.StockItem) error
	GetByID(ctx context.Context, id int64) (*domain.StockItem, error)
	GetPublicByID(ctx context.Context, id int64) (*domain.StockItem, error)
	GetByPharmacyAndProduct(ctx context.Context, pharmacyID, productID int64) (*domain.StockItem, error)
	Update(ctx context.Context, s *domain.StockItem) error
	Delete(ctx context.Context, id int64) error
	ExistsByProduct(ctx context.Context, productID int64) (bool, error)
	ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error)
	ListPublicByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error)
	ListOffersByProduct(ctx context.Context, productID int64, pg Pagination) (Page[domain.StockItem], error)
	SearchOffersByName(ctx context.Context, name string, pg Pagination) (Page[domain.StockItem], error)

	// Reserve списывает qty, если остатка хватает; иначе ErrInsufficientStock.
	Reserve(ctx context.Context, id, qty int64) error
	// Restock возвращает qty без верхней границы.
	Restock(ctx context.Context, id, qty int64) error
}

// OrderRepository заказы вместе с позициями
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	ListByCustomer(ctx context.Context, customerID int64, pg Pagination) (Page[domain.Order], error)
	ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.Order], error)
	ListByPharmacyAndStatus(ctx context.Context, pharmacyID int64, status domain.OrderStatus, pg Pagination) (Page[domain.Order], error)
}

// PrescriptionRepository рецепты (1:1 к заказу)
type PrescriptionRepository interface {
	Create(ctx context.Context, p *domain.Prescription) error
	GetByID(ctx context.Context, id int64) (*domain.Prescription, error)
	GetByOrderID(ctx context.Context, orderID int64) (*domain.Prescription, error)
	Update(ctx context.Context, p *domain.Prescription) error
}

// TxManager абстракция транзакции: все записи внутри fn фиксируются вместе
// или откатываются вместе. Для in-memory — глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
