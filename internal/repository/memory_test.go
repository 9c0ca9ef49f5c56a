package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"esculapi/internal/domain"
)

func seedCatalog(t *testing.T, store *MemoryStore) (pharmacyID, productID, stockID int64) {
	t.Helper()
	ctx := context.Background()
	pharmacies := NewMemoryPharmacies(store)
	products := NewMemoryProducts(store)
	stock := NewMemoryStock(store)

	ph := domain.Pharmacy{AdminUserID: 1, CNPJ: "00000000000001", CRFJ: "CRF-J-1", TradeName: "Farma Um", Status: domain.PharmacyActive}
	if err := pharmacies.Create(ctx, &ph); err != nil {
		t.Fatalf("pharmacy: %v", err)
	}
	p := domain.Product{Barcode: "789001", RegistryCode: "REG-1", Name: "Dipirona", Category: domain.CategoryMedication, Tier: domain.TierNotRequired, Active: true}
	if err := products.Create(ctx, &p); err != nil {
		t.Fatalf("product: %v", err)
	}
	s := domain.StockItem{PharmacyID: ph.ID, ProductID: p.ID, Price: decimal.RequireFromString("10.00"), Quantity: 5, Active: true}
	if err := stock.Create(ctx, &s); err != nil {
		t.Fatalf("stock: %v", err)
	}
	return ph.ID, p.ID, s.ID
}

func TestMemoryStock_ReserveRestock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stock := NewMemoryStock(store)
	_, _, id := seedCatalog(t, store)

	if err := stock.Reserve(ctx, id, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	st, _ := stock.GetByID(ctx, id)
	if st.Quantity != 2 {
		t.Fatalf("quantity %d", st.Quantity)
	}

	// декремент условный: недостача не списывает ничего
	if err := stock.Reserve(ctx, id, 3); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	st, _ = stock.GetByID(ctx, id)
	if st.Quantity != 2 {
		t.Fatalf("quantity changed on failed reserve: %d", st.Quantity)
	}

	if err := stock.Restock(ctx, id, 3); err != nil {
		t.Fatalf("restock: %v", err)
	}
	st, _ = stock.GetByID(ctx, id)
	if st.Quantity != 5 {
		t.Fatalf("quantity %d", st.Quantity)
	}

	if err := stock.Reserve(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStock_PairUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stock := NewMemoryStock(store)
	phID, pID, _ := seedCatalog(t, store)

	dup := domain.StockItem{PharmacyID: phID, ProductID: pID, Price: decimal.RequireFromString("12.00"), Quantity: 1, Active: true}
	if err := stock.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stock := NewMemoryStock(store)
	orders := NewMemoryOrders(store)
	tx := NewMemoryTx(store)
	phID, _, stockID := seedCatalog(t, store)

	boom := errors.New("boom")
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := stock.Reserve(ctx, stockID, 4); err != nil {
			return err
		}
		o := domain.Order{
			CustomerID: 1,
			Status:     domain.OrderAwaitingPayment,
			Items:      []domain.OrderItem{{StockItemID: stockID, PharmacyID: phID, Quantity: 4, UnitPrice: decimal.RequireFromString("10.00")}},
		}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("tx err: %v", err)
	}

	// ни списания, ни заказа после отката
	st, _ := stock.GetByID(ctx, stockID)
	if st.Quantity != 5 {
		t.Fatalf("quantity %d", st.Quantity)
	}
	page, _ := orders.ListByPharmacy(ctx, phID, Pagination{})
	if page.Total != 0 {
		t.Fatalf("order survived rollback")
	}
}

func TestMemoryTx_CommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	stock := NewMemoryStock(store)
	tx := NewMemoryTx(store)
	_, _, stockID := seedCatalog(t, store)

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		return stock.Reserve(ctx, stockID, 2)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	st, _ := stock.GetByID(ctx, stockID)
	if st.Quantity != 3 {
		t.Fatalf("quantity %d", st.Quantity)
	}
}

func TestMemoryUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	users := NewMemoryUsers(store)

	u := domain.User{Email: "ana@example.com", Roles: domain.RoleList{domain.RoleCustomer}, Enabled: true}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := domain.User{Email: "ana@example.com"}
	if err := users.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := users.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryPrescriptions_OneToOne(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	prescriptions := NewMemoryPrescriptions(store)

	rx := domain.Prescription{OrderID: 1, FileRef: "uploads/a.pdf", Status: domain.PrescriptionPending}
	if err := prescriptions.Create(ctx, &rx); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := domain.Prescription{OrderID: 1, FileRef: "uploads/b.pdf", Status: domain.PrescriptionPending}
	if err := prescriptions.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	got, err := prescriptions.GetByOrderID(ctx, 1)
	if err != nil || got.FileRef != "uploads/a.pdf" {
		t.Fatalf("get: %v %v", got, err)
	}
}

func TestMemoryOrders_ItemsIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	orders := NewMemoryOrders(store)
	phID, _, stockID := seedCatalog(t, store)

	o := domain.Order{
		CustomerID: 1,
		Status:     domain.OrderAwaitingPayment,
		Items:      []domain.OrderItem{{StockItemID: stockID, PharmacyID: phID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}},
	}
	if err := orders.Create(ctx, &o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == 0 || o.Items[0].ID == 0 {
		t.Fatalf("ids not assigned: %+v", o)
	}

	// мутация выданной копии не трогает хранилище
	got, _ := orders.GetByID(ctx, o.ID)
	got.Items[0].Quantity = 99
	again, _ := orders.GetByID(ctx, o.ID)
	if again.Items[0].Quantity != 2 {
		t.Fatalf("store mutated through returned copy")
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	products := NewMemoryProducts(store)

	names := []string{"A", "B", "C", "D", "E"}
	for i, n := range names {
		p := domain.Product{Barcode: n, RegistryCode: "R" + n, Name: n, Category: domain.CategoryMedication, Tier: domain.TierNotRequired, Active: true}
		if err := products.Create(ctx, &p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := products.ListActive(ctx, Pagination{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 {
		t.Fatalf("page %+v", page)
	}

	// выход за последнюю страницу — пусто, но с тем же Total
	page, _ = products.ListActive(ctx, Pagination{Page: 9, Size: 2})
	if page.Total != 5 || len(page.Items) != 0 {
		t.Fatalf("overflow page %+v", page)
	}
}
