package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"esculapi/internal/domain"
)

// NewPostgres открывает подключение и накатывает схему
func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Customer{},
		&domain.Pharmacy{},
		&domain.Pharmacist{},
		&domain.Address{},
		&domain.Product{},
		&domain.StockItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Prescription{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

type gormTxKey struct{}

// GormTx граница транзакции поверх gorm: fn выполняется внутри
// db.Transaction, вложенные репозитории берут *gorm.DB из контекста.
type GormTx struct{ db *gorm.DB }

func NewGormTx(db *gorm.DB) *GormTx { return &GormTx{db: db} }

var _ TxManager = (*GormTx)(nil)

func (t *GormTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, gormTxKey{}, tx))
	})
}

func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(gormTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}

// translate приводит ошибки gorm/postgres к сигнальным ошибкам пакета
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// --- users ---

type GormUsers struct{ db *gorm.DB }

func NewGormUsers(db *gorm.DB) *GormUsers { return &GormUsers{db: db} }

var _ UserRepository = (*GormUsers)(nil)

func (r *GormUsers) Create(ctx context.Context, u *domain.User) error {
	return translate(dbFrom(ctx, r.db).Create(u).Error)
}

func (r *GormUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := dbFrom(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := dbFrom(ctx, r.db).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// --- customers ---

type GormCustomers struct{ db *gorm.DB }

func NewGormCustomers(db *gorm.DB) *GormCustomers { return &GormCustomers{db: db} }

var _ CustomerRepository = (*GormCustomers)(nil)

func (r *GormCustomers) Create(ctx context.Context, c *domain.Customer) error {
	return translate(dbFrom(ctx, r.db).Create(c).Error)
}

func (r *GormCustomers) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := dbFrom(ctx, r.db).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormCustomers) GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormCustomers) GetByCPF(ctx context.Context, cpf string) (*domain.Customer, error) {
	var c domain.Customer
	if err := dbFrom(ctx, r.db).Where("cpf = ?", cpf).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// --- pharmacies ---

type GormPharmacies struct{ db *gorm.DB }

func NewGormPharmacies(db *gorm.DB) *GormPharmacies { return &GormPharmacies{db: db} }

var _ PharmacyRepository = (*GormPharmacies)(nil)

func (r *GormPharmacies) Create(ctx context.Context, p *domain.Pharmacy) error {
	return translate(dbFrom(ctx, r.db).Create(p).Error)
}

func (r *GormPharmacies) GetByID(ctx context.Context, id int64) (*domain.Pharmacy, error) {
	var p domain.Pharmacy
	if err := dbFrom(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPharmacies) GetByAdminUserID(ctx context.Context, userID int64) (*domain.Pharmacy, error) {
	return r.one(ctx, "admin_user_id = ?", userID)
}

func (r *GormPharmacies) GetByCNPJ(ctx context.Context, cnpj string) (*domain.Pharmacy, error) {
	return r.one(ctx, "cnpj = ?", cnpj)
}

func (r *GormPharmacies) GetByCRFJ(ctx context.Context, crfj string) (*domain.Pharmacy, error) {
	return r.one(ctx, "crf_j = ?", crfj)
}

func (r *GormPharmacies) one(ctx context.Context, query string, arg any) (*domain.Pharmacy, error) {
	var p domain.Pharmacy
	if err := dbFrom(ctx, r.db).Where(query, arg).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPharmacies) Update(ctx context.Context, p *domain.Pharmacy) error {
	return translate(dbFrom(ctx, r.db).Save(p).Error)
}

func (r *GormPharmacies) ListByStatus(ctx context.Context, status domain.PharmacyStatus, pg Pagination) (Page[domain.Pharmacy], error) {
	q := dbFrom(ctx, r.db).Model(&domain.Pharmacy{}).Where("status = ?", status)
	return gormPage[domain.Pharmacy](q, pg, "pharmacies.id")
}

// --- pharmacists ---

type GormPharmacists struct{ db *gorm.DB }

func NewGormPharmacists(db *gorm.DB) *GormPharmacists { return &GormPharmacists{db: db} }

var _ PharmacistRepository = (*GormPharmacists)(nil)

func (r *GormPharmacists) Create(ctx context.Context, p *domain.Pharmacist) error {
	return translate(dbFrom(ctx, r.db).Create(p).Error)
}

func (r *GormPharmacists) GetByID(ctx context.Context, id int64) (*domain.Pharmacist, error) {
	var p domain.Pharmacist
	if err := dbFrom(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPharmacists) GetByUserID(ctx context.Context, userID int64) (*domain.Pharmacist, error) {
	var p domain.Pharmacist
	if err := dbFrom(ctx, r.db).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPharmacists) GetByCRF(ctx context.Context, crf string) (*domain.Pharmacist, error) {
	var p domain.Pharmacist
	if err := dbFrom(ctx, r.db).Where("crf = ?", crf).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// --- addresses ---

type GormAddresses struct{ db *gorm.DB }

func NewGormAddresses(db *gorm.DB) *GormAddresses { return &GormAddresses{db: db} }

var _ AddressRepository = (*GormAddresses)(nil)

func (r *GormAddresses) Create(ctx context.Context, a *domain.Address) error {
	return translate(dbFrom(ctx, r.db).Create(a).Error)
}

func (r *GormAddresses) GetByIDAndCustomer(ctx context.Context, id, customerID int64) (*domain.Address, error) {
	var a domain.Address
	if err := dbFrom(ctx, r.db).Where("id = ? AND customer_id = ?", id, customerID).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *GormAddresses) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Address, error) {
	var out []domain.Address
	err := dbFrom(ctx, r.db).Where("customer_id = ?", customerID).Order("id").Find(&out).Error
	return out, translate(err)
}

// --- products ---

type GormProducts struct{ db *gorm.DB }

func NewGormProducts(db *gorm.DB) *GormProducts { return &GormProducts{db: db} }

var _ ProductRepository = (*GormProducts)(nil)

func (r *GormProducts) Create(ctx context.Context, p *domain.Product) error {
	return translate(dbFrom(ctx, r.db).Create(p).Error)
}

func (r *GormProducts) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := dbFrom(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProducts) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	if err := dbFrom(ctx, r.db).Where("barcode = ?", barcode).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProducts) GetByRegistryCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	if err := dbFrom(ctx, r.db).Where("registry_code = ?", code).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProducts) Update(ctx context.Context, p *domain.Product) error {
	return translate(dbFrom(ctx, r.db).Save(p).Error)
}

func (r *GormProducts) Delete(ctx context.Context, id int64) error {
	res := dbFrom(ctx, r.db).Delete(&domain.Product{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProducts) ListActive(ctx context.Context, pg Pagination) (Page[domain.Product], error) {
	q := dbFrom(ctx, r.db).Model(&domain.Product{}).Where("active")
	return gormPage[domain.Product](q, pg, "products.id")
}

// --- stock ---

type GormStock struct{ db *gorm.DB }

func NewGormStock(db *gorm.DB) *GormStock { return &GormStock{db: db} }

var _ StockRepository = (*GormStock)(nil)

func (r *GormStock) Create(ctx context.Context, s *domain.StockItem) error {
	return translate(dbFrom(ctx, r.db).Create(s).Error)
}

func (r *GormStock) GetByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	var s domain.StockItem
	if err := dbFrom(ctx, r.db).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormStock) GetPublicByID(ctx context.Context, id int64) (*domain.StockItem, error) {
	var s domain.StockItem
	err := dbFrom(ctx, r.db).
		Joins("JOIN products ON products.id = stock_items.product_id").
		Where("stock_items.id = ? AND stock_items.active AND products.active", id).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormStock) GetByPharmacyAndProduct(ctx context.Context, pharmacyID, productID int64) (*domain.StockItem, error) {
	var s domain.StockItem
	err := dbFrom(ctx, r.db).
		Where("pharmacy_id = ? AND product_id = ?", pharmacyID, productID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormStock) Update(ctx context.Context, s *domain.StockItem) error {
	return translate(dbFrom(ctx, r.db).Save(s).Error)
}

func (r *GormStock) Delete(ctx context.Context, id int64) error {
	res := dbFrom(ctx, r.db).Delete(&domain.StockItem{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormStock) ExistsByProduct(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&domain.StockItem{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count > 0, translate(err)
}

func (r *GormStock) ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error) {
	q := dbFrom(ctx, r.db).Model(&domain.StockItem{}).Where("pharmacy_id = ?", pharmacyID)
	return gormPage[domain.StockItem](q, pg, "stock_items.id")
}

func (r *GormStock) ListPublicByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.StockItem], error) {
	q := dbFrom(ctx, r.db).Model(&domain.StockItem{}).
		Joins("JOIN products ON products.id = stock_items.product_id").
		Where("stock_items.pharmacy_id = ? AND stock_items.active AND products.active", pharmacyID)
	return gormPage[domain.StockItem](q, pg, "stock_items.id")
}

func (r *GormStock) ListOffersByProduct(ctx context.Context, productID int64, pg Pagination) (Page[domain.StockItem], error) {
	q := dbFrom(ctx, r.db).Model(&domain.StockItem{}).
		Joins("JOIN products ON products.id = stock_items.product_id").
		Where("stock_items.product_id = ? AND stock_items.active AND stock_items.quantity > 0 AND products.active", productID)
	return gormPage[domain.StockItem](q, pg, "stock_items.id")
}

func (r *GormStock) SearchOffersByName(ctx context.Context, name string, pg Pagination) (Page[domain.StockItem], error) {
	q := dbFrom(ctx, r.db).Model(&domain.StockItem{}).
		Joins("JOIN products ON products.id = stock_items.product_id").
		Where("products.name ILIKE ? AND stock_items.active AND stock_items.quantity > 0 AND products.active", "%"+name+"%")
	return gormPage[domain.StockItem](q, pg, "stock_items.id")
}

// Reserve одиночный условный UPDATE: ноль затронутых строк означает
// либо отсутствие записи, либо нехватку остатка
func (r *GormStock) Reserve(ctx context.Context, id, qty int64) error {
	db := dbFrom(ctx, r.db)
	res := db.Model(&domain.StockItem{}).
		Where("id = ? AND quantity >= ?", id, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&domain.StockItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return translate(err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *GormStock) Restock(ctx context.Context, id, qty int64) error {
	res := dbFrom(ctx, r.db).Model(&domain.StockItem{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- orders ---

type GormOrders struct{ db *gorm.DB }

func NewGormOrders(db *gorm.DB) *GormOrders { return &GormOrders{db: db} }

var _ OrderRepository = (*GormOrders)(nil)

func (r *GormOrders) Create(ctx context.Context, o *domain.Order) error {
	return translate(dbFrom(ctx, r.db).Create(o).Error)
}

func (r *GormOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := dbFrom(ctx, r.db).Preload("Items").First(&o, id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// Update пишет только поля заказа, позиции после создания неизменяемы
func (r *GormOrders) Update(ctx context.Context, o *domain.Order) error {
	return translate(dbFrom(ctx, r.db).Omit("Items").Save(o).Error)
}

func (r *GormOrders) ListByCustomer(ctx context.Context, customerID int64, pg Pagination) (Page[domain.Order], error) {
	q := dbFrom(ctx, r.db).Model(&domain.Order{}).Preload("Items").
		Where("customer_id = ?", customerID)
	return gormPage[domain.Order](q, pg, "orders.id")
}

func (r *GormOrders) ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.Order], error) {
	q := r.byPharmacy(ctx, pharmacyID)
	return gormPage[domain.Order](q, pg, "orders.id")
}

func (r *GormOrders) ListByPharmacyAndStatus(ctx context.Context, pharmacyID int64, status domain.OrderStatus, pg Pagination) (Page[domain.Order], error) {
	q := r.byPharmacy(ctx, pharmacyID).Where("orders.status = ?", status)
	return gormPage[domain.Order](q, pg, "orders.id")
}

func (r *GormOrders) byPharmacy(ctx context.Context, pharmacyID int64) *gorm.DB {
	return dbFrom(ctx, r.db).Model(&domain.Order{}).Preload("Items").Distinct("orders.*").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.pharmacy_id = ?", pharmacyID)
}

// --- prescriptions ---

type GormPrescriptions struct{ db *gorm.DB }

func NewGormPrescriptions(db *gorm.DB) *GormPrescriptions { return &GormPrescriptions{db: db} }

var _ PrescriptionRepository = (*GormPrescriptions)(nil)

func (r *GormPrescriptions) Create(ctx context.Context, p *domain.Prescription) error {
	return translate(dbFrom(ctx, r.db).Create(p).Error)
}

func (r *GormPrescriptions) GetByID(ctx context.Context, id int64) (*domain.Prescription, error) {
	var p domain.Prescription
	if err := dbFrom(ctx, r.db).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPrescriptions) GetByOrderID(ctx context.Context, orderID int64) (*domain.Prescription, error) {
	var p domain.Prescription
	if err := dbFrom(ctx, r.db).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormPrescriptions) Update(ctx context.Context, p *domain.Prescription) error {
	return translate(dbFrom(ctx, r.db).Save(p).Error)
}

// gormPage общий счётчик + выборка страницы
func gormPage[T any](q *gorm.DB, pg Pagination, orderBy string) (Page[T], error) {
	var page Page[T]
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return page, translate(err)
	}
	var items []T
	if err := q.Order(orderBy).Offset(pg.Offset()).Limit(pg.Limit()).Find(&items).Error; err != nil {
		return page, translate(err)
	}
	n := pg.normalized()
	return Page[T]{Items: items, Total: total, Page: n.Page, Size: n.Size}, nil
}
