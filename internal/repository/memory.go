package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"esculapi/internal/domain"
)

// MemoryStore объединённое in-memory хранилище и простой генератор ID
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID         int64
	nextCustomerID     int64
	nextPharmacyID     int64
	nextPharmacistID   int64
	nextAddressID      int64
	nextProductID      int64
	nextStockID        int64
	nextOrderID        int64
	nextOrderItemID    int64
	nextPrescriptionID int64

	usersByID         map[int64]domain.User
	customersByID     map[int64]domain.Customer
	pharmaciesByID    map[int64]domain.Pharmacy
	pharmacistsByID   map[int64]domain.Pharmacist
	addressesByID     map[int64]domain.Address
	productsByID      map[int64]domain.Product
	stockByID         map[int64]domain.StockItem
	ordersByID        map[int64]domain.Order
	prescriptionsByID map[int64]domain.Prescription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID:         1,
		nextCustomerID:     1,
		nextPharmacyID:     1,
		nextPharmacistID:   1,
		nextAddressID:      1,
		nextProductID:      1,
		nextStockID:        1,
		nextOrderID:        1,
		nextOrderItemID:    1,
		nextPrescriptionID: 1,
		usersByID:          make(map[int64]domain.User),
		customersByID:      make(map[int64]domain.Customer),
		pharmaciesByID:     make(map[int64]domain.Pharmacy),
		pharmacistsByID:    make(map[int64]domain.Pharmacist),
		addressesByID:      make(map[int64]domain.Address),
		productsByID:       make(map[int64]domain.Product),
		stockByID:          make(map[int64]domain.StockItem),
		ordersByID:         make(map[int64]domain.Order),
		prescriptionsByID:  make(map[int64]domain.Prescription),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// snapshot копия всех таблиц для отката транзакции.
// Значения в map — структуры, глубоко копировать нужно только слайсы позиций.
type snapshot struct {
	users         map[int64]domain.User
	customers     map[int64]domain.Customer
	pharmacies    map[int64]domain.Pharmacy
	pharmacists   map[int64]domain.Pharmacist
	addresses     map[int64]domain.Address
	products      map[int64]domain.Product
	stock         map[int64]domain.StockItem
	orders        map[int64]domain.Order
	prescriptions map[int64]domain.Prescription

	ids [10]int64
}

func (m *MemoryStore) takeSnapshot() snapshot {
	s := snapshot{
		users:         make(map[int64]domain.User, len(m.usersByID)),
		customers:     make(map[int64]domain.Customer, len(m.customersByID)),
		pharmacies:    make(map[int64]domain.Pharmacy, len(m.pharmaciesByID)),
		pharmacists:   make(map[int64]domain.Pharmacist, len(m.pharmacistsByID)),
		addresses:     make(map[int64]domain.Address, len(m.addressesByID)),
		products:      make(map[int64]domain.Product, len(m.productsByID)),
		stock:         make(map[int64]domain.StockItem, len(m.stockByID)),
		orders:        make(map[int64]domain.Order, len(m.ordersByID)),
		prescriptions: make(map[int64]domain.Prescription, len(m.prescriptionsByID)),
		ids: [10]int64{
			m.nextUserID, m.nextCustomerID, m.nextPharmacyID, m.nextPharmacistID,
			m.nextAddressID, m.nextProductID, m.nextStockID, m.nextOrderID,
			m.nextOrderItemID, m.nextPrescriptionID,
		},
	}
	for k, v := range m.usersByID {
		s.users[k] = v
	}
	for k, v := range m.customersByID {
		s.customers[k] = v
	}
	for k, v := range m.pharmaciesByID {
		s.pharmacies[k] = v
	}
	for k, v := range m.pharmacistsByID {
		s.pharmacists[k] = v
	}
	for k, v := range m.addressesByID {
		s.addresses[k] = v
	}
	for k, v := range m.productsByID {
		s.products[k] = v
	}
	for k, v := range m.stockByID {
		s.stock[k] = v
	}
	for k, v := range m.ordersByID {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		s.orders[k] = v
	}
	for k, v := range m.prescriptionsByID {
		s.prescriptions[k] = v
	}
	return s
}

func (m *MemoryStore) restore(s snapshot) {
	m.usersByID = s.users
	m.customersByID = s.customers
	m.pharmaciesByID = s.pharmacies
	m.pharmacistsByID = s.pharmacists
	m.addressesByID = s.addresses
	m.productsByID = s.products
	m.stockByID = s.stock
	m.ordersByID = s.orders
	m.prescriptionsByID = s.prescriptions
	m.nextUserID, m.nextCustomerID, m.nextPharmacyID, m.nextPharmacistID = s.ids[0], s.ids[1], s.ids[2], s.ids[3]
	m.nextAddressID, m.nextProductID, m.nextStockID, m.nextOrderID = s.ids[4], s.ids[5], s.ids[6], s.ids[7]
	m.nextOrderItemID, m.nextPrescriptionID = s.ids[8], s.ids[9]
}

// MemoryTx реализует границу транзакции блокировкой записи и снимком
// состояния: любая ошибка внутри fn откатывает все записи разом.
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

var _ TxManager = (*MemoryTx)(nil)

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	snap := tx.store.takeSnapshot()
	ctx = context.WithValue(ctx, txKey{}, true)
	if err := fn(ctx); err != nil {
		tx.store.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

var _ UserRepository = (*MemoryUsers)(nil)

func (r *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.usersByID {
		if have.Email == u.Email {
			return ErrDuplicate
		}
	}
	u.ID = r.store.nextUserID
	r.store.nextUserID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.store.usersByID[u.ID] = *u
	return nil
}

func (r *MemoryUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	u, ok := r.store.usersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (r *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, u := range r.store.usersByID {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- customers ---

type MemoryCustomers struct{ store *MemoryStore }

func NewMemoryCustomers(store *MemoryStore) *MemoryCustomers { return &MemoryCustomers{store: store} }

var _ CustomerRepository = (*MemoryCustomers)(nil)

func (r *MemoryCustomers) Create(ctx context.Context, c *domain.Customer) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.customersByID {
		if have.CPF == c.CPF || have.UserID == c.UserID {
			return ErrDuplicate
		}
	}
	c.ID = r.store.nextCustomerID
	r.store.nextCustomerID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.store.customersByID[c.ID] = *c
	return nil
}

func (r *MemoryCustomers) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	c, ok := r.store.customersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r *MemoryCustomers) GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, c := range r.store.customersByID {
		if c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryCustomers) GetByCPF(ctx context.Context, cpf string) (*domain.Customer, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, c := range r.store.customersByID {
		if c.CPF == cpf {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- pharmacies ---

type MemoryPharmacies struct{ store *MemoryStore }

func NewMemoryPharmacies(store *MemoryStore) *MemoryPharmacies { return &MemoryPharmacies{store: store} }

var _ PharmacyRepository = (*MemoryPharmacies)(nil)

func (r *MemoryPharmacies) Create(ctx context.Context, p *domain.Pharmacy) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.pharmaciesByID {
		if have.CNPJ == p.CNPJ || have.CRFJ == p.CRFJ || have.AdminUserID == p.AdminUserID {
			return ErrDuplicate
		}
	}
	p.ID = r.store.nextPharmacyID
	r.store.nextPharmacyID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.store.pharmaciesByID[p.ID] = *p
	return nil
}

func (r *MemoryPharmacies) GetByID(ctx context.Context, id int64) (*domain.Pharmacy, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	p, ok := r.store.pharmaciesByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryPharmacies) GetByAdminUserID(ctx context.Context, userID int64) (*domain.Pharmacy, error) {
	return r.find(ctx, func(p domain.Pharmacy) bool { return p.AdminUserID == userID })
}

func (r *MemoryPharmacies) GetByCNPJ(ctx context.Context, cnpj string) (*domain.Pharmacy, error) {
	return r.find(ctx, func(p domain.Pharmacy) bool { return p.CNPJ == cnpj })
}

func (r *MemoryPharmacies) GetByCRFJ(ctx context.Context, crfj string) (*domain.Pharmacy, error) {
	return r.find(ctx, func(p domain.Pharmacy) bool { return p.CRFJ == crfj })
}

func (r *MemoryPharmacies) find(ctx context.Context, match func(domain.Pharmacy) bool) (*domain.Pharmacy, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, p := range r.store.pharmaciesByID {
		if match(p) {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPharmacies) Update(ctx context.Context, p *domain.Pharmacy) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.pharmaciesByID[p.ID]; !ok {
		return ErrNotFound
	}
	r.store.pharmaciesByID[p.ID] = *p
	return nil
}

func (r *MemoryPharmacies) ListByStatus(ctx context.Context, status domain.PharmacyStatus, pg Pagination) (Page[domain.Pharmacy], error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	all := make([]domain.Pharmacy, 0)
	for _, p := range r.store.pharmaciesByID {
		if p.Status == status {
			all = append(all, p)
		}
	}
	return paginate(all, pg, func(a, b domain.Pharmacy) bool { return a.ID < b.ID }), nil
}

// --- pharmacists ---

type MemoryPharmacists struct{ store *MemoryStore }

func NewMemoryPharmacists(store *MemoryStore) *MemoryPharmacists {
	return &MemoryPharmacists{store: store}
}

var _ PharmacistRepository = (*MemoryPharmacists)(nil)

func (r *MemoryPharmacists) Create(ctx context.Context, p *domain.Pharmacist) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.pharmacistsByID {
		if have.CRF == p.CRF || have.UserID == p.UserID {
			return ErrDuplicate
		}
	}
	p.ID = r.store.nextPharmacistID
	r.store.nextPharmacistID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.store.pharmacistsByID[p.ID] = *p
	return nil
}

func (r *MemoryPharmacists) GetByID(ctx context.Context, id int64) (*domain.Pharmacist, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	p, ok := r.store.pharmacistsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryPharmacists) GetByUserID(ctx context.Context, userID int64) (*domain.Pharmacist, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, p := range r.store.pharmacistsByID {
		if p.UserID == userID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPharmacists) GetByCRF(ctx context.Context, crf string) (*domain.Pharmacist, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, p := range r.store.pharmacistsByID {
		if p.CRF == crf {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- addresses ---

type MemoryAddresses struct{ store *MemoryStore }

func NewMemoryAddresses(store *MemoryStore) *MemoryAddresses { return &MemoryAddresses{store: store} }

var _ AddressRepository = (*MemoryAddresses)(nil)

func (r *MemoryAddresses) Create(ctx context.Context, a *domain.Address) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	a.ID = r.store.nextAddressID
	r.store.nextAddressID++
	r.store.addressesByID[a.ID] = *a
	return nil
}

func (r *MemoryAddresses) GetByIDAndCustomer(ctx context.Context, id, customerID int64) (*domain.Address, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	a, ok := r.store.addressesByID[id]
	if !ok || a.CustomerID != customerID {
		return nil, ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (r *MemoryAddresses) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	out := make([]domain.Address, 0)
	for _, a := range r.store.addressesByID {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// paginate сортирует и режет срез под параметры страницы
func paginate[T any](all []T, pg Pagination, less func(a, b T) bool) Page[T] {
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	n := pg.normalized()
	total := int64(len(all))
	start := pg.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + pg.Limit()
	if end > len(all) {
		end = len(all)
	}
	return Page[T]{Items: all[start:end], Total: total, Page: n.Page, Size: n.Size}
}
