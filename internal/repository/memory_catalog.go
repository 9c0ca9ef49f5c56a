package repository

import (
	"context"

	"esculapi/internal/domain"
)

// --- products ---

type MemoryProducts struct{ store *MemoryStore }

func NewMemoryProducts(store *MemoryStore) *MemoryProducts { return &MemoryProducts{store: store} }

var _ ProductRepository = (*MemoryProducts)(nil)

func (r *MemoryProducts) Create(ctx context.Context, p *domain.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.productsByID {
		if have.Barcode == p.Barcode || have.RegistryCode == p.RegistryCode {
			return ErrDuplicate
		}
	}
	p.ID = r.store.nextProductID
	r.store.nextProductID++
	r.store.productsByID[p.ID] = *p
	return nil
}

func (r *MemoryProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	p, ok := r.store.productsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryProducts) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return r.find(ctx, func(p domain.Product) bool { return p.Barcode == barcode })
}

func (r *MemoryProducts) GetByRegistryCode(ctx context.Context, code string) (*domain.Product, error) {
	return r.find(ctx, func(p domain.Product) bool { return p.RegistryCode == code })
}

func (r *MemoryProducts) find(ctx context.Context, match func(domain.Product) bool) (*domain.Product, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, p := range r.store.productsByID {
		if match(p) {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProducts) Update(ctx context.Context, p *domain.Product) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.productsByID[p.ID]; !ok {
		return ErrNotFound
	}
	r.store.productsByID[p.ID] = *p
	return nil
}

func (r *MemoryProducts) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.productsByID[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.productsByID, id)
	return nil
}

func (r *MemoryProducts) ListActive(ctx context.Context, pg Pagination) (Page[domain.Product], error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	all := make([]domain.Product, 0)
	for _, p := range r.store.productsByID {
		if p.Active {
			all = append(all, p)
		}
	}
	return paginate(all, pg, func(a, b domain.Product) bool { return a.ID < b.ID }), nil
}

// --- stock ---

type MemoryStock struct{ store *MemoryStore }

func NewMemoryStock(store *MemoryStore) *MemoryStock { return &MemoryStock{store: store} }

var _ StockRepository = (*MemoryStock)(nil)

func (r *MemoryStock) Create(ctx context.Context, s *domain.StockItem) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.stockByID {
		if have.PharmacyID == s.PharmacyID && have.ProductID == s.ProductID {
			return ErrDuplicate
		}
	}
	s.ID = r.store.nextStockID
	r.store.nextStockID++
	r.store.stockByID[s.ID] = *s
	return nil
}

func (r *MemoryStock) GetByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	s, ok := r.store.stockByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s
	return &cp, nil
}

// GetPublicByID видимый публично остаток: активен сам и активен его товар
func (r *MemoryStock) GetPublicByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	s, ok := r.store.stockByID[id]
	if !ok || !s.Active {
		return nil, ErrNotFound
	}
	if p, ok := r.store.productsByID[s.ProductID]; !ok || !p.Active {
		return nil, ErrNotFound
	}
	cp := s
	return &cp, nil
}

func (r *MemoryStock) GetByPharmacyAndProduct(ctx context.Context, pharmacyID, productID int64) (*domain.StockItem, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, s := range r.store.stockByID {
		if s.PharmacyID == pharmacyID && s.ProductID == productID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryStock) Update(ctx context.Context, s *domain.StockItem) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.stockByID[s.ID]; !ok {
		return ErrNotFound
	}
	r.store.stockByID[s.ID] = *s
	return nil
}

func (r *MemoryStock) Delete(ctx context.Context, id int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.stockByID[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.stockByID, id)
	return nil
}

func (r *MemoryStock) ExistsByProduct(ctx context.Context, productID int64) (bool, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, s := range r.store.stockByID {
		if s.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryStock) ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error) {
	return r.list(ctx, pg, func(s domain.StockItem) bool { return s.PharmacyID == pharmacyID })
}

func (r *MemoryStock) ListPublicByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error) {
	return r.list(ctx, pg, func(s domain.StockItem) bool {
		return s.PharmacyID == pharmacyID && r.publiclyVisible(s)
	})
}

func (r *MemoryStock) ListOffersByProduct(ctx context.Context, productID int64, pg Pagination) (Page[domain.StockItem], error) {
	return r.list(ctx, pg, func(s domain.StockItem) bool {
		return s.ProductID == productID && s.Quantity > 0 && r.publiclyVisible(s)
	})
}

func (r *MemoryStock) SearchOffersByName(ctx context.Context, name string, pg Pagination) (Page[domain.StockItem], error) {
	return r.list(ctx, pg, func(s domain.StockItem) bool {
		p, ok := r.store.productsByID[s.ProductID]
		if !ok || !containsIgnoreCase(p.Name, name) {
			return false
		}
		return s.Quantity > 0 && r.publiclyVisible(s)
	})
}

// publiclyVisible вызывается под уже взятой блокировкой
func (r *MemoryStock) publiclyVisible(s domain.StockItem) bool {
	if !s.Active {
		return false
	}
	p, ok := r.store.productsByID[s.ProductID]
	return ok && p.Active
}

func (r *MemoryStock) list(ctx context.Context, pg Pagination, match func(domain.StockItem) bool) (Page[domain.StockItem], error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	all := make([]domain.StockItem, 0)
	for _, s := range r.store.stockByID {
		if match(s) {
			all = append(all, s)
		}
	}
	return paginate(all, pg, func(a, b domain.StockItem) bool { return a.ID < b.ID }), nil
}

// Reserve условный декремент: проверка и списание под одной блокировкой
func (r *MemoryStock) Reserve(ctx context.Context, id, qty int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	s, ok := r.store.stockByID[id]
	if !ok {
		return ErrNotFound
	}
	if s.Quantity < qty {
		return ErrInsufficientStock
	}
	s.Quantity -= qty
	r.store.stockByID[id] = s
	return nil
}

func (r *MemoryStock) Restock(ctx context.Context, id, qty int64) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	s, ok := r.store.stockByID[id]
	if !ok {
		return ErrNotFound
	}
	s.Quantity += qty
	r.store.stockByID[id] = s
	return nil
}
