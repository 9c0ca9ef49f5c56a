package service

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
)

// CatalogService мастер-каталог платформы, остатки аптек и публичная витрина
type CatalogService struct {
	products   repository.ProductRepository
	stock      repository.StockRepository
	pharmacies repository.PharmacyRepository
	tx         repository.TxManager
}

func NewCatalogService(
	products repository.ProductRepository,
	stock repository.StockRepository,
	pharmacies repository.PharmacyRepository,
	tx repository.TxManager,
) *CatalogService {
	return &CatalogService{products: products, stock: stock, pharmacies: pharmacies, tx: tx}
}

// --- мастер-каталог (администратор платформы) ---

// ProductInput данные записи мастер-каталога
type ProductInput struct {
	Barcode          string                  `json:"barcode" binding:"required"`
	RegistryCode     string                  `json:"registry_code" binding:"required"`
	Name             string                  `json:"name" binding:"required"`
	ActiveIngredient string                  `json:"active_ingredient"`
	Manufacturer     string                  `json:"manufacturer"`
	Description      string                  `json:"description"`
	Category         domain.ProductCategory  `json:"category" binding:"required"`
	Tier             domain.PrescriptionTier `json:"tier" binding:"required"`
}

// CreateProduct заводит товар в мастер-каталоге. Штрихкод и код
// регистрации уникальны на всю платформу.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var created *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByBarcode(ctx, in.Barcode); err == nil {
			return apperr.Conflictf("Já existe um produto cadastrado com este código de barras.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := s.products.GetByRegistryCode(ctx, in.RegistryCode); err == nil {
			return apperr.Conflictf("Já existe um produto cadastrado com este registro.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		p := &domain.Product{
			Barcode:          in.Barcode,
			RegistryCode:     in.RegistryCode,
			Name:             in.Name,
			ActiveIngredient: in.ActiveIngredient,
			Manufacturer:     in.Manufacturer,
			Description:      in.Description,
			Category:         in.Category,
			Tier:             in.Tier,
			Active:           true,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return translateDuplicate(err, "Já existe um produto cadastrado com este código de barras.")
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateProduct правит описательные поля; штрихкод и регистрация неизменяемы
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.productByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Barcode != p.Barcode || in.RegistryCode != p.RegistryCode {
			return apperr.Validationf("Código de barras e registro do produto não podem ser alterados.")
		}
		p.Name = in.Name
		p.ActiveIngredient = in.ActiveIngredient
		p.Manufacturer = in.Manufacturer
		p.Description = in.Description
		p.Category = in.Category
		p.Tier = in.Tier
		if err := s.products.Update(ctx, p); err != nil {
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

// SetProductActive выводит товар из оборота или возвращает его;
// существующие остатки при деактивации лишь перестают показываться на витрине
func (s *CatalogService) SetProductActive(ctx context.Context, id int64, active bool) (*domain.Product, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.productByID(ctx, id)
		if err != nil {
			return err
		}
		p.Active = active
		if err := s.products.Update(ctx, p); err != nil {
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

// DeleteProduct физически удаляет товар; запрещено, пока на него
// ссылается остаток хоть одной аптеки
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return err
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.productByID(ctx, id); err != nil {
			return err
		}
		referenced, err := s.stock.ExistsByProduct(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperr.Conflictf("Não é possível excluir o produto pois existem estoques vinculados a ele.")
		}
		return s.products.Delete(ctx, id)
	})
}

// --- публичная витрина ---

// ListProducts активные товары мастер-каталога
func (s *CatalogService) ListProducts(ctx context.Context, pg repository.Pagination) (repository.Page[domain.Product], error) {
	return s.products.ListActive(ctx, pg)
}

// ProductByID публичная карточка товара; неактивный неотличим от несуществующего
func (s *CatalogService) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.productByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperr.NotFoundf("Produto com ID %d não encontrado.", id)
	}
	return p, nil
}

// Offer публичное предложение: остаток аптеки вместе с карточкой товара
type Offer struct {
	StockItemID  int64           `json:"stock_item_id"`
	PharmacyID   int64           `json:"pharmacy_id"`
	PharmacyName string          `json:"pharmacy_name"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Tier         string          `json:"tier"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int64           `json:"quantity"`
}

// OffersByProduct предложения всех аптек по одному товару
func (s *CatalogService) OffersByProduct(ctx context.Context, productID int64, pg repository.Pagination) (repository.Page[Offer], error) {
	if _, err := s.ProductByID(ctx, productID); err != nil {
		return repository.Page[Offer]{}, err
	}
	page, err := s.stock.ListOffersByProduct(ctx, productID, pg)
	if err != nil {
		return repository.Page[Offer]{}, err
	}
	return s.toOfferPage(ctx, page)
}

// SearchOffers предложения по подстроке названия товара
func (s *CatalogService) SearchOffers(ctx context.Context, name string, pg repository.Pagination) (repository.Page[Offer], error) {
	if strings.TrimSpace(name) == "" {
		return repository.Page[Offer]{}, apperr.Validationf("O termo de busca é obrigatório.")
	}
	page, err := s.stock.SearchOffersByName(ctx, name, pg)
	if err != nil {
		return repository.Page[Offer]{}, err
	}
	return s.toOfferPage(ctx, page)
}

// PharmacyOffers публичная витрина одной аптеки
func (s *CatalogService) PharmacyOffers(ctx context.Context, pharmacyID int64, pg repository.Pagination) (repository.Page[Offer], error) {
	pharmacy, err := s.pharmacies.GetByID(ctx, pharmacyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Page[Offer]{}, apperr.NotFoundf("Farmácia com ID %d não encontrada.", pharmacyID)
		}
		return repository.Page[Offer]{}, err
	}
	if pharmacy.Status != domain.PharmacyActive {
		return repository.Page[Offer]{}, apperr.NotFoundf("Farmácia com ID %d não encontrada.", pharmacyID)
	}
	page, err := s.stock.ListPublicByPharmacy(ctx, pharmacyID, pg)
	if err != nil {
		return repository.Page[Offer]{}, err
	}
	return s.toOfferPage(ctx, page)
}

// OfferByID публичная карточка предложения
func (s *CatalogService) OfferByID(ctx context.Context, stockItemID int64) (*Offer, error) {
	st, err := s.stock.GetPublicByID(ctx, stockItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Item de estoque %d não encontrado.", stockItemID)
		}
		return nil, err
	}
	offer, err := s.toOffer(ctx, *st)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *CatalogService) toOfferPage(ctx context.Context, page repository.Page[domain.StockItem]) (repository.Page[Offer], error) {
	var firstErr error
	offers := lo.Map(page.Items, func(it domain.StockItem, _ int) Offer {
		o, err := s.toOffer(ctx, it)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return o
	})
	if firstErr != nil {
		return repository.Page[Offer]{}, firstErr
	}
	return repository.Page[Offer]{Items: offers, Total: page.Total, Page: page.Page, Size: page.Size}, nil
}

func (s *CatalogService) toOffer(ctx context.Context, it domain.StockItem) (Offer, error) {
	product, err := s.products.GetByID(ctx, it.ProductID)
	if err != nil {
		return Offer{}, err
	}
	pharmacy, err := s.pharmacies.GetByID(ctx, it.PharmacyID)
	if err != nil {
		return Offer{}, err
	}
	return Offer{
		StockItemID:  it.ID,
		PharmacyID:   it.PharmacyID,
		PharmacyName: pharmacy.TradeName,
		ProductID:    product.ID,
		ProductName:  product.Name,
		Tier:         string(product.Tier),
		Price:        it.Price,
		Quantity:     it.Quantity,
	}, nil
}

// --- остатки (администратор аптеки) ---

// StockItemInput данные остатка аптеки
type StockItemInput struct {
	ProductID int64           `json:"product_id" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	Quantity  int64           `json:"quantity"`
	Active    bool            `json:"active"`
}

// MyStock весь остаток аптеки, включая неактивные позиции
func (s *CatalogService) MyStock(ctx context.Context, pg repository.Pagination) (repository.Page[domain.StockItem], error) {
	pharmacy, err := s.activePharmacy(ctx)
	if err != nil {
		return repository.Page[domain.StockItem]{}, err
	}
	return s.stock.ListByPharmacy(ctx, pharmacy.ID, pg)
}

// AddStockItem заводит остаток; пара (аптека, товар) уникальна
func (s *CatalogService) AddStockItem(ctx context.Context, in StockItemInput) (*domain.StockItem, error) {
	pharmacy, err := s.activePharmacy(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateStockInput(in); err != nil {
		return nil, err
	}
	var created *domain.StockItem
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		product, err := s.productByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return apperr.Conflictf("O produto %s está fora de circulação.", product.Name)
		}
		if _, err := s.stock.GetByPharmacyAndProduct(ctx, pharmacy.ID, in.ProductID); err == nil {
			return apperr.Conflictf("Este produto já está cadastrado no estoque da sua farmácia.")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		st := &domain.StockItem{
			PharmacyID: pharmacy.ID,
			ProductID:  in.ProductID,
			Price:      in.Price,
			Quantity:   in.Quantity,
			Active:     in.Active,
		}
		if err := s.stock.Create(ctx, st); err != nil {
			return translateDuplicate(err, "Este produto já está cadastrado no estoque da sua farmácia.")
		}
		created = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStockItem правит цену, количество и видимость; товар неизменяем
func (s *CatalogService) UpdateStockItem(ctx context.Context, id int64, in StockItemInput) (*domain.StockItem, error) {
	pharmacy, err := s.activePharmacy(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateStockInput(in); err != nil {
		return nil, err
	}
	var updated *domain.StockItem
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		st, err := s.stockOwnedBy(ctx, id, pharmacy.ID)
		if err != nil {
			return err
		}
		if in.ProductID != st.ProductID {
			return apperr.Validationf("O produto de um item de estoque não pode ser alterado.")
		}
		st.Price = in.Price
		st.Quantity = in.Quantity
		st.Active = in.Active
		if err := s.stock.Update(ctx, st); err != nil {
			return err
		}
		updated = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteStockItem удаляет остаток аптеки
func (s *CatalogService) DeleteStockItem(ctx context.Context, id int64) error {
	pharmacy, err := s.activePharmacy(ctx)
	if err != nil {
		return err
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stockOwnedBy(ctx, id, pharmacy.ID); err != nil {
			return err
		}
		return s.stock.Delete(ctx, id)
	})
}

// --- helpers ---

func (s *CatalogService) productByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Produto com ID %d não encontrado.", id)
		}
		return nil, err
	}
	return p, nil
}

// чужой остаток для аптеки неотличим от несуществующего
func (s *CatalogService) stockOwnedBy(ctx context.Context, id, pharmacyID int64) (*domain.StockItem, error) {
	st, err := s.stock.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Item de estoque %d não encontrado.", id)
		}
		return nil, err
	}
	if st.PharmacyID != pharmacyID {
		return nil, apperr.NotFoundf("Item de estoque %d não encontrado.", id)
	}
	return st, nil
}

func (s *CatalogService) activePharmacy(ctx context.Context) (*domain.Pharmacy, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	if pharmacy.Status != domain.PharmacyActive {
		return nil, apperr.Forbiddenf("Sua farmácia ainda não foi aprovada pela plataforma.")
	}
	return pharmacy, nil
}

func validateStockInput(in StockItemInput) error {
	if in.Price.Cmp(decimal.Zero) <= 0 {
		return apperr.Validationf("O preço deve ser maior que zero.")
	}
	if in.Quantity < 0 {
		return apperr.Validationf("A quantidade não pode ser negativa.")
	}
	return nil
}
