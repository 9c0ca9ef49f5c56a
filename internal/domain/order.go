package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus статус заказа в жизненном цикле
type OrderStatus string

const (
	OrderAwaitingPrescription OrderStatus = "AWAITING_PRESCRIPTION"
	OrderAwaitingPayment      OrderStatus = "AWAITING_PAYMENT"
	OrderAwaitingConfirmation OrderStatus = "AWAITING_CONFIRMATION"
	OrderConfirmed            OrderStatus = "CONFIRMED"
	OrderPreparing            OrderStatus = "PREPARING"
	OrderReadyForDelivery     OrderStatus = "READY_FOR_DELIVERY"
	OrderInTransit            OrderStatus = "IN_TRANSIT"
	OrderDelivered            OrderStatus = "DELIVERED"
	OrderCanceled             OrderStatus = "CANCELED"
	OrderRefused              OrderStatus = "REFUSED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderAwaitingPrescription, OrderAwaitingPayment, OrderAwaitingConfirmation,
		OrderConfirmed, OrderPreparing, OrderReadyForDelivery, OrderInTransit,
		OrderDelivered, OrderCanceled, OrderRefused:
		return true
	}
	return false
}

// Terminal конечные статусы: заказ из них не выводится никакой операцией
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCanceled || s == OrderRefused
}

// Awaiting начальные статусы ожидания (до принятия аптекой)
func (s OrderStatus) Awaiting() bool {
	return s == OrderAwaitingPrescription || s == OrderAwaitingPayment || s == OrderAwaitingConfirmation
}

// OrderItem позиция заказа со снимком цены на момент покупки.
// UnitPrice фиксируется при создании и не меняется при изменении цены остатка.
type OrderItem struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	OrderID     int64           `json:"order_id" gorm:"index"`
	StockItemID int64           `json:"stock_item_id"`
	PharmacyID  int64           `json:"pharmacy_id" gorm:"index"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
}

// Subtotal = UnitPrice × Quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order заказ покупателя. Никогда не удаляется физически (аудит),
// все изменения идут через машину состояний.
type Order struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	CustomerID int64           `json:"customer_id" gorm:"index"`
	AddressID  int64           `json:"address_id"`
	Status     OrderStatus     `json:"status"`
	Total      decimal.Decimal `json:"total" gorm:"type:numeric(12,2)"`
	PlacedAt   time.Time       `json:"placed_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Items      []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
}

// ComputeTotal сумма подытогов всех позиций
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OwnedByCustomer true, если заказ принадлежит покупателю
func (o *Order) OwnedByCustomer(customerID int64) bool {
	return o.CustomerID == customerID
}

// OwnedByPharmacy аптека владеет заказом, если хотя бы одна позиция
// ссылается на её остаток
func (o *Order) OwnedByPharmacy(pharmacyID int64) bool {
	for _, it := range o.Items {
		if it.PharmacyID == pharmacyID {
			return true
		}
	}
	return false
}

// CancellableByCustomer покупатель может отменить только в статусах ожидания
func (o *Order) CancellableByCustomer() bool {
	return o.Status.Awaiting()
}

// PharmacyCanSetStatus правила обновления статуса аптекой: из конечного
// статуса выхода нет, в статусы ожидания возврата нет.
func PharmacyCanSetStatus(from, to OrderStatus) error {
	if from.Terminal() {
		return ErrOrderFinalized
	}
	if !to.Valid() || to.Awaiting() {
		return ErrBackwardTransition
	}
	return nil
}

// PrescriptionStatus статус валидации рецепта
type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "PENDING_VALIDATION"
	PrescriptionApproved PrescriptionStatus = "APPROVED"
	PrescriptionRejected PrescriptionStatus = "REJECTED"
)

// Prescription рецепт, прикреплённый к заказу (1:1).
// FileRef — непрозрачная ссылка, ядро её не интерпретирует.
type Prescription struct {
	ID              int64              `json:"id" gorm:"primaryKey"`
	OrderID         int64              `json:"order_id" gorm:"uniqueIndex"`
	FileRef         string             `json:"file_ref"`
	Status          PrescriptionStatus `json:"status"`
	UploadedAt      time.Time          `json:"uploaded_at"`
	ValidatedBy     *int64             `json:"validated_by,omitempty"`
	ValidatedAt     *time.Time         `json:"validated_at,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
}
