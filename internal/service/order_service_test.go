package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
	"esculapi/internal/storage"
)

type fixture struct {
	orders   *OrderService
	payments *PaymentService
	stock    repository.StockRepository

	customerCtx   context.Context
	customer2Ctx  context.Context
	pharmacyCtx   context.Context
	pharmacy2Ctx  context.Context
	pharmacistCtx context.Context

	addressID int64
	// предложение аптеки 1: безрецептурный товар, цена 10.00, остаток 5
	otcStockID int64
	// предложение аптеки 1: рецептурный товар, цена 25.50, остаток 3
	rxStockID int64
	// предложение аптеки 2
	otherStockID int64
}

const webhookSecret = "test-secret"

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	customers := repository.NewMemoryCustomers(store)
	pharmacies := repository.NewMemoryPharmacies(store)
	pharmacists := repository.NewMemoryPharmacists(store)
	addresses := repository.NewMemoryAddresses(store)
	products := repository.NewMemoryProducts(store)
	stock := repository.NewMemoryStock(store)
	orders := repository.NewMemoryOrders(store)
	prescriptions := repository.NewMemoryPrescriptions(store)
	tx := repository.NewMemoryTx(store)

	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	f := &fixture{
		orders:   NewOrderService(orders, stock, products, prescriptions, addresses, files, tx),
		payments: NewPaymentService(orders, webhookSecret, tx),
		stock:    stock,
	}

	newUser := func(email string, role domain.Role) *domain.User {
		u := &domain.User{Email: email, Roles: domain.RoleList{role}, Enabled: true}
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("user %s: %v", email, err)
		}
		return u
	}

	// покупатели
	u1 := newUser("ana@example.com", domain.RoleCustomer)
	c1 := &domain.Customer{UserID: u1.ID, Name: "Ana", CPF: "11111111111"}
	if err := customers.Create(ctx, c1); err != nil {
		t.Fatal(err)
	}
	f.customerCtx = auth.WithIdentity(ctx, &auth.Identity{User: u1, Customer: c1})

	u2 := newUser("bia@example.com", domain.RoleCustomer)
	c2 := &domain.Customer{UserID: u2.ID, Name: "Bia", CPF: "22222222222"}
	if err := customers.Create(ctx, c2); err != nil {
		t.Fatal(err)
	}
	f.customer2Ctx = auth.WithIdentity(ctx, &auth.Identity{User: u2, Customer: c2})

	addr := &domain.Address{CustomerID: c1.ID, Zip: "01000-000", Street: "Rua A", Number: "1", City: "São Paulo", State: "SP"}
	if err := addresses.Create(ctx, addr); err != nil {
		t.Fatal(err)
	}
	f.addressID = addr.ID

	// аптеки
	ua1 := newUser("adm1@farm.com", domain.RolePharmacyAdmin)
	ph1 := &domain.Pharmacy{AdminUserID: ua1.ID, CNPJ: "00000000000001", CRFJ: "CRF-J-1", TradeName: "Farma Um", Status: domain.PharmacyActive}
	if err := pharmacies.Create(ctx, ph1); err != nil {
		t.Fatal(err)
	}
	f.pharmacyCtx = auth.WithIdentity(ctx, &auth.Identity{User: ua1, Pharmacy: ph1})

	ua2 := newUser("adm2@farm.com", domain.RolePharmacyAdmin)
	ph2 := &domain.Pharmacy{AdminUserID: ua2.ID, CNPJ: "00000000000002", CRFJ: "CRF-J-2", TradeName: "Farma Dois", Status: domain.PharmacyActive}
	if err := pharmacies.Create(ctx, ph2); err != nil {
		t.Fatal(err)
	}
	f.pharmacy2Ctx = auth.WithIdentity(ctx, &auth.Identity{User: ua2, Pharmacy: ph2})

	// фармацевт аптеки 1
	up := newUser("farm1@farm.com", domain.RolePharmacist)
	pst := &domain.Pharmacist{UserID: up.ID, PharmacyID: ph1.ID, Name: "Caio", CRF: "CRF-1"}
	if err := pharmacists.Create(ctx, pst); err != nil {
		t.Fatal(err)
	}
	f.pharmacistCtx = auth.WithIdentity(ctx, &auth.Identity{User: up, Pharmacist: pst})

	// каталог и остатки
	otc := &domain.Product{Barcode: "7890000000001", RegistryCode: "REG-1", Name: "Dipirona 500mg", Category: domain.CategoryMedication, Tier: domain.TierNotRequired, Active: true}
	if err := products.Create(ctx, otc); err != nil {
		t.Fatal(err)
	}
	rx := &domain.Product{Barcode: "7890000000002", RegistryCode: "REG-2", Name: "Amoxicilina 500mg", Category: domain.CategoryMedication, Tier: domain.TierSimple, Active: true}
	if err := products.Create(ctx, rx); err != nil {
		t.Fatal(err)
	}

	s1 := &domain.StockItem{PharmacyID: ph1.ID, ProductID: otc.ID, Price: decimal.RequireFromString("10.00"), Quantity: 5, Active: true}
	if err := stock.Create(ctx, s1); err != nil {
		t.Fatal(err)
	}
	f.otcStockID = s1.ID

	s2 := &domain.StockItem{PharmacyID: ph1.ID, ProductID: rx.ID, Price: decimal.RequireFromString("25.50"), Quantity: 3, Active: true}
	if err := stock.Create(ctx, s2); err != nil {
		t.Fatal(err)
	}
	f.rxStockID = s2.ID

	s3 := &domain.StockItem{PharmacyID: ph2.ID, ProductID: otc.ID, Price: decimal.RequireFromString("9.00"), Quantity: 10, Active: true}
	if err := stock.Create(ctx, s3); err != nil {
		t.Fatal(err)
	}
	f.otherStockID = s3.ID

	return f
}

func (f *fixture) quantity(t *testing.T, id int64) int64 {
	t.Helper()
	st, err := f.stock.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("stock %d: %v", id, err)
	}
	return st.Quantity
}

func TestCreateOrder_OTC(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != domain.OrderAwaitingPayment {
		t.Fatalf("status %s", o.Status)
	}
	if got := f.quantity(t, f.otcStockID); got != 3 {
		t.Fatalf("stock expected 3, got %d", got)
	}
	if !o.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("total %s", o.Total)
	}
	// момент оформления ставит сервис, а не хранилище
	if o.PlacedAt.IsZero() {
		t.Fatal("placed_at is zero")
	}
}

func TestCreateOrder_RequiresPrescription(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{
		{StockItemID: f.otcStockID, Quantity: 1},
		{StockItemID: f.rxStockID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != domain.OrderAwaitingPrescription {
		t.Fatalf("status %s", o.Status)
	}
	if !o.Total.Equal(decimal.RequireFromString("35.50")) {
		t.Fatalf("total %s", o.Total)
	}
}

func TestCreateOrder_InsufficientStock_Rollback(t *testing.T) {
	f := setup(t)
	_, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{
		{StockItemID: f.otcStockID, Quantity: 2},
		{StockItemID: f.rxStockID, Quantity: 99},
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "Estoque insuficiente para o produto Amoxicilina 500mg") {
		t.Fatalf("message %q", err.Error())
	}
	// первое списание откатилось вместе с транзакцией
	if got := f.quantity(t, f.otcStockID); got != 5 {
		t.Fatalf("stock expected 5, got %d", got)
	}
}

func TestCreateOrder_MixedPharmacies(t *testing.T) {
	f := setup(t)
	_, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{
		{StockItemID: f.otcStockID, Quantity: 1},
		{StockItemID: f.otherStockID, Quantity: 1},
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := f.quantity(t, f.otcStockID); got != 5 {
		t.Fatalf("stock expected 5, got %d", got)
	}
}

func TestCreateOrder_UnknownAddress(t *testing.T) {
	f := setup(t)
	_, err := f.orders.CreateOrder(f.customerCtx, 999, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPriceSnapshot(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// цена в остатке меняется, заказ хранит снимок
	st, _ := f.stock.GetByID(context.Background(), f.otcStockID)
	st.Price = decimal.RequireFromString("99.00")
	if err := f.stock.Update(context.Background(), st); err != nil {
		t.Fatal(err)
	}

	got, err := f.orders.OrderDetails(f.customerCtx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("total %s", got.Total)
	}
	if !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("unit price %s", got.Items[0].UnitPrice)
	}
}

func TestCancelOrder_RestocksAndIsFinal(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	o2, err := f.orders.CancelOrder(f.customerCtx, o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o2.Status != domain.OrderCanceled {
		t.Fatalf("status %s", o2.Status)
	}
	if got := f.quantity(t, f.otcStockID); got != 5 {
		t.Fatalf("stock expected 5, got %d", got)
	}

	// повторная отмена конфликтует с конечным статусом
	if _, err := f.orders.CancelOrder(f.customerCtx, o.ID); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelOrder_DeliveredConflict(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if _, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	for _, next := range []domain.OrderStatus{
		domain.OrderPreparing,
		domain.OrderReadyForDelivery,
		domain.OrderInTransit,
		domain.OrderDelivered,
	} {
		if _, err := f.orders.UpdateStatus(f.pharmacyCtx, o.ID, next); err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
	}

	if _, err := f.orders.CancelOrder(f.customerCtx, o.ID); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := f.orders.OrderDetails(f.customerCtx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderDelivered {
		t.Fatalf("status %s", got.Status)
	}
}

func TestCancelOrder_OtherCustomerForbidden(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.orders.CancelOrder(f.customer2Ctx, o.ID); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAttachPrescription_Flow(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.rxStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	o2, err := f.orders.AttachPrescription(f.customerCtx, o.ID, "receita.pdf", 4, strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if o2.Status != domain.OrderAwaitingPayment {
		t.Fatalf("status %s", o2.Status)
	}

	// второй рецепт к тому же заказу не принимается
	if _, err := f.orders.AttachPrescription(f.customerCtx, o.ID, "outra.pdf", 4, strings.NewReader("%PDF")); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAttachPrescription_WrongStatus(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = f.orders.AttachPrescription(f.customerCtx, o.ID, "receita.pdf", 4, strings.NewReader("%PDF"))
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "não está aguardando anexo de receita") {
		t.Fatalf("message %q", err.Error())
	}
}

func TestWebhook_MarksPaidAndIsIdempotent(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.payments.ProcessWebhook(context.Background(), webhookSecret, o.ID, "PAGO"); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	got, err := f.orders.OrderDetails(f.customerCtx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderAwaitingConfirmation {
		t.Fatalf("status %s", got.Status)
	}

	// повтор и любой не-PAGO статус — no-op
	if err := f.payments.ProcessWebhook(context.Background(), webhookSecret, o.ID, "PAGO"); err != nil {
		t.Fatalf("repeat webhook: %v", err)
	}
	if err := f.payments.ProcessWebhook(context.Background(), webhookSecret, o.ID, "RECUSADO"); err != nil {
		t.Fatalf("non-paid webhook: %v", err)
	}
	got, _ = f.orders.OrderDetails(f.customerCtx, o.ID)
	if got.Status != domain.OrderAwaitingConfirmation {
		t.Fatalf("status after no-ops %s", got.Status)
	}
}

func TestWebhook_BadSecret(t *testing.T) {
	f := setup(t)
	err := f.payments.ProcessWebhook(context.Background(), "wrong", 1, "PAGO")
	if !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCheckoutSession(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sess, err := f.payments.CreateCheckoutSession(f.customerCtx, o.ID)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if sess.Amount != "20.00" {
		t.Fatalf("amount %s", sess.Amount)
	}

	// чужой заказ недоступен
	if _, err := f.payments.CreateCheckoutSession(f.customer2Ctx, o.ID); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

// доводит заказ до AWAITING_CONFIRMATION через вебхук
func (f *fixture) paidOrder(t *testing.T, lines []CartLine) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, lines)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status == domain.OrderAwaitingPrescription {
		if _, err := f.orders.AttachPrescription(f.customerCtx, o.ID, "receita.pdf", 4, strings.NewReader("%PDF")); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}
	if err := f.payments.ProcessWebhook(context.Background(), webhookSecret, o.ID, "PAGO"); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	got, err := f.orders.OrderDetails(f.customerCtx, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestAcceptOrder(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})

	o2, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if o2.Status != domain.OrderConfirmed {
		t.Fatalf("status %s", o2.Status)
	}

	// повторное принятие конфликтует
	if _, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAcceptOrder_PendingPrescriptionBlocks(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.rxStockID, Quantity: 1}})

	_, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "receita ainda não foi aprovada") {
		t.Fatalf("message %q", err.Error())
	}

	if _, err := f.orders.ApprovePrescription(f.pharmacistCtx, o.ID); err != nil {
		t.Fatalf("approve rx: %v", err)
	}
	if _, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID); err != nil {
		t.Fatalf("accept after approval: %v", err)
	}
}

func TestAcceptOrder_OtherPharmacyForbidden(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if _, err := f.orders.AcceptOrder(f.pharmacy2Ctx, o.ID); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRefuseOrder_Restocks(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 2}})

	o2, err := f.orders.RefuseOrder(f.pharmacyCtx, o.ID)
	if err != nil {
		t.Fatalf("refuse: %v", err)
	}
	if o2.Status != domain.OrderRefused {
		t.Fatalf("status %s", o2.Status)
	}
	if got := f.quantity(t, f.otcStockID); got != 5 {
		t.Fatalf("stock expected 5, got %d", got)
	}
}

func TestRejectPrescription_CancelsOrder(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.rxStockID, Quantity: 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.orders.AttachPrescription(f.customerCtx, o.ID, "receita.pdf", 4, strings.NewReader("%PDF")); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// без обоснования отклонение не принимается
	if _, err := f.orders.RejectPrescription(f.pharmacistCtx, o.ID, "  "); !apperr.IsValidation(err) {
		t.Fatalf("expected validation, got %v", err)
	}

	o2, err := f.orders.RejectPrescription(f.pharmacistCtx, o.ID, "Receita ilegível")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if o2.Status != domain.OrderCanceled {
		t.Fatalf("status %s", o2.Status)
	}
	if got := f.quantity(t, f.rxStockID); got != 3 {
		t.Fatalf("stock expected 3, got %d", got)
	}

	// решение по рецепту принимается один раз
	if _, err := f.orders.ApprovePrescription(f.pharmacistCtx, o.ID); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateStatus_ForwardFlow(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if _, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	for _, next := range []domain.OrderStatus{
		domain.OrderPreparing,
		domain.OrderReadyForDelivery,
		domain.OrderInTransit,
		domain.OrderDelivered,
	} {
		got, err := f.orders.UpdateStatus(f.pharmacyCtx, o.ID, next)
		if err != nil {
			t.Fatalf("to %s: %v", next, err)
		}
		if got.Status != next {
			t.Fatalf("status %s, want %s", got.Status, next)
		}
	}

	// из конечного статуса выхода нет
	if _, err := f.orders.UpdateStatus(f.pharmacyCtx, o.ID, domain.OrderPreparing); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateStatus_NoBackwardToAwaiting(t *testing.T) {
	f := setup(t)
	o := f.paidOrder(t, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if _, err := f.orders.AcceptOrder(f.pharmacyCtx, o.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.orders.UpdateStatus(f.pharmacyCtx, o.ID, domain.OrderAwaitingPayment); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPharmacistPendingOrders(t *testing.T) {
	f := setup(t)
	o, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	page, err := f.orders.PendingOrders(f.pharmacistCtx, repository.Pagination{})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != o.ID {
		t.Fatalf("pending items %v", page.Items)
	}

	// чужой заказ для фармацевта неотличим от несуществующего
	o2, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otherStockID, Quantity: 1}})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	if _, err := f.orders.PharmacistOrderDetails(f.pharmacistCtx, o2.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMyOrders_Scoped(t *testing.T) {
	f := setup(t)
	if _, err := f.orders.CreateOrder(f.customerCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	page, err := f.orders.MyOrders(f.customerCtx, repository.Pagination{})
	if err != nil {
		t.Fatalf("my orders: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total %d", page.Total)
	}

	other, err := f.orders.MyOrders(f.customer2Ctx, repository.Pagination{})
	if err != nil {
		t.Fatalf("other orders: %v", err)
	}
	if other.Total != 0 {
		t.Fatalf("other total %d", other.Total)
	}
}

func TestRoleGuard_MissingProfile(t *testing.T) {
	f := setup(t)
	// у администратора аптеки нет покупательского профиля
	_, err := f.orders.CreateOrder(f.pharmacyCtx, f.addressID, []CartLine{{StockItemID: f.otcStockID, Quantity: 1}})
	if !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	// и наоборот
	if _, err := f.orders.PharmacyOrders(f.customerCtx, repository.Pagination{}); !apperr.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
