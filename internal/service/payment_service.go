package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
)

// PaymentService симуляция платёжного интегратора: сессия оплаты и вебхук.
// Сам платёж происходит вне системы; сюда доходит только его эффект
// на статус заказа.
type PaymentService struct {
	orders repository.OrderRepository
	secret string
	tx     repository.TxManager
}

func NewPaymentService(orders repository.OrderRepository, secret string, tx repository.TxManager) *PaymentService {
	return &PaymentService{orders: orders, secret: secret, tx: tx}
}

// CheckoutSession платёжная сессия
type CheckoutSession struct {
	OrderID    int64  `json:"order_id"`
	Amount     string `json:"amount"`
	GatewayURL string `json:"gateway_url"`
}

// CreateCheckoutSession выдаёт покупателю ссылку на шлюз для заказа
// в статусе AWAITING_PAYMENT
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, orderID int64) (*CheckoutSession, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Pedido %d não encontrado.", orderID)
		}
		return nil, err
	}
	if !o.OwnedByCustomer(customer.ID) {
		return nil, apperr.Forbiddenf("Você não tem permissão para acessar este pedido.")
	}
	if o.Status != domain.OrderAwaitingPayment {
		return nil, apperr.Conflictf("Este pedido não está aguardando pagamento. Status: %s", o.Status)
	}
	return &CheckoutSession{
		OrderID:    o.ID,
		Amount:     o.Total.StringFixed(2),
		GatewayURL: fmt.Sprintf("https://pay.esculapi.local/checkout/%d", o.ID),
	}, nil
}

// ProcessWebhook обрабатывает уведомление шлюза. Операция идемпотентна:
// повторный "PAGO" по уже оплаченному заказу и любой статус, кроме "PAGO",
// тихо игнорируются.
func (s *PaymentService) ProcessWebhook(ctx context.Context, secret string, orderID int64, status string) error {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return apperr.Forbiddenf("Chave secreta do webhook inválida.")
	}
	if !strings.EqualFold(status, "PAGO") {
		return nil
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFoundf("Pedido %d não encontrado.", orderID)
			}
			return err
		}
		if o.Status != domain.OrderAwaitingPayment {
			return nil
		}
		o.Status = domain.OrderAwaitingConfirmation
		return s.orders.Update(ctx, o)
	})
}
