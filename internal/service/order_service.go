package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"esculapi/internal/apperr"
	"esculapi/internal/auth"
	"esculapi/internal/domain"
	"esculapi/internal/repository"
	"esculapi/internal/storage"
)

// OrderService реализует жизненный цикл заказа: создание со списанием
// остатков, рецептурный поток, отмену/принятие/отказ и доставочные статусы.
// Каждая мутация выполняется в одной транзакции: либо фиксируются все
// списания и записи, либо ни одно.
type OrderService struct {
	orders        repository.OrderRepository
	stock         repository.StockRepository
	products      repository.ProductRepository
	prescriptions repository.PrescriptionRepository
	addresses     repository.AddressRepository
	files         storage.Storage
	tx            repository.TxManager
}

func NewOrderService(
	orders repository.OrderRepository,
	stock repository.StockRepository,
	products repository.ProductRepository,
	prescriptions repository.PrescriptionRepository,
	addresses repository.AddressRepository,
	files storage.Storage,
	tx repository.TxManager,
) *OrderService {
	return &OrderService{
		orders:        orders,
		stock:         stock,
		products:      products,
		prescriptions: prescriptions,
		addresses:     addresses,
		files:         files,
		tx:            tx,
	}
}

// CartLine позиция корзины при оформлении заказа
type CartLine struct {
	StockItemID int64 `json:"stock_item_id"`
	Quantity    int64 `json:"quantity"`
}

// --- покупатель ---

// CreateOrder проверяет и атомарно списывает остатки по каждой позиции,
// фиксирует снимок цен, считает сумму и ставит начальный статус:
// AWAITING_PRESCRIPTION, если хоть одна позиция рецептурная, иначе
// AWAITING_PAYMENT.
func (s *OrderService) CreateOrder(ctx context.Context, addressID int64, lines []CartLine) (*domain.Order, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if addressID <= 0 || len(lines) == 0 {
		return nil, apperr.Validationf("O pedido deve conter um endereço e ao menos um item.")
	}
	for _, l := range lines {
		if l.StockItemID <= 0 || l.Quantity <= 0 {
			return nil, apperr.Validationf("Quantidade e item de estoque devem ser positivos.")
		}
	}

	var created *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.addresses.GetByIDAndCustomer(ctx, addressID, customer.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFoundf("Endereço com ID %d não encontrado ou não pertence a você.", addressID)
			}
			return err
		}

		var (
			items      []domain.OrderItem
			needsRx    bool
			pharmacyID int64
		)
		for _, l := range lines {
			st, err := s.stock.GetByID(ctx, l.StockItemID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperr.NotFoundf("Item de estoque %d não encontrado.", l.StockItemID)
				}
				return err
			}
			product, err := s.products.GetByID(ctx, st.ProductID)
			if err != nil {
				return err
			}
			if pharmacyID == 0 {
				pharmacyID = st.PharmacyID
			} else if pharmacyID != st.PharmacyID {
				return apperr.Conflictf("Um pedido não pode conter itens de farmácias diferentes.")
			}

			// условное списание: никакой проверки отдельно от декремента
			if err := s.stock.Reserve(ctx, st.ID, l.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return apperr.Conflictf("Estoque insuficiente para o produto %s", product.Name)
				}
				return err
			}
			if product.Tier.RequiresPrescription() {
				needsRx = true
			}
			items = append(items, domain.OrderItem{
				StockItemID: st.ID,
				PharmacyID:  st.PharmacyID,
				Quantity:    l.Quantity,
				UnitPrice:   st.Price,
			})
		}

		o := &domain.Order{
			CustomerID: customer.ID,
			AddressID:  addressID,
			Items:      items,
			Status:     domain.OrderAwaitingPayment,
			PlacedAt:   time.Now().UTC(),
		}
		if needsRx {
			o.Status = domain.OrderAwaitingPrescription
		}
		o.Total = o.ComputeTotal()
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MyOrders постраничный список заказов покупателя
func (s *OrderService) MyOrders(ctx context.Context, pg repository.Pagination) (repository.Page[domain.Order], error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return repository.Page[domain.Order]{}, err
	}
	return s.orders.ListByCustomer(ctx, customer.ID, pg)
}

// OrderDetails заказ покупателя с проверкой владения
func (s *OrderService) OrderDetails(ctx context.Context, orderID int64) (*domain.Order, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.orderOwnedByCustomer(ctx, orderID, customer.ID)
}

// AttachPrescription прикрепляет файл рецепта к заказу в AWAITING_PRESCRIPTION
// и переводит его в AWAITING_PAYMENT
func (s *OrderService) AttachPrescription(ctx context.Context, orderID int64, filename string, size int64, file io.Reader) (*domain.Order, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, apperr.Conflictf("Arquivo vazio não pode ser enviado.")
	}

	var updated *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByCustomer(ctx, orderID, customer.ID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderAwaitingPrescription {
			return apperr.Conflictf("Este pedido não está aguardando anexo de receita.")
		}

		ref, err := s.files.Store(ctx, filename, file)
		if err != nil {
			return err
		}
		rx := &domain.Prescription{
			OrderID:    o.ID,
			FileRef:    ref,
			Status:     domain.PrescriptionPending,
			UploadedAt: time.Now().UTC(),
		}
		if err := s.prescriptions.Create(ctx, rx); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Conflictf("Este pedido já possui uma receita anexada.")
			}
			return err
		}

		o.Status = domain.OrderAwaitingPayment
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelOrder отмена покупателем: только из статусов ожидания, с возвратом
// остатков на склад
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	customer, err := auth.CustomerFrom(ctx)
	if err != nil {
		return nil, err
	}
	var updated *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByCustomer(ctx, orderID, customer.ID)
		if err != nil {
			return err
		}
		if !o.CancellableByCustomer() {
			return apperr.Conflictf("Este pedido não pode mais ser cancelado pelo cliente. Status: %s", o.Status)
		}
		if err := s.restockOrder(ctx, o); err != nil {
			return err
		}
		o.Status = domain.OrderCanceled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- фармацевт ---

// PendingOrders заказы аптеки фармацевта, требующие внимания
// (оплата ещё не подтверждена, рецепт может ждать валидации)
func (s *OrderService) PendingOrders(ctx context.Context, pg repository.Pagination) (repository.Page[domain.Order], error) {
	ph, err := auth.PharmacistFrom(ctx)
	if err != nil {
		return repository.Page[domain.Order]{}, err
	}
	return s.orders.ListByPharmacyAndStatus(ctx, ph.PharmacyID, domain.OrderAwaitingPayment, pg)
}

// PharmacistOrderDetails заказ, видимый фармацевту аптеки-владельца
func (s *OrderService) PharmacistOrderDetails(ctx context.Context, orderID int64) (*domain.Order, error) {
	ph, err := auth.PharmacistFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.orderOwnedByPharmacyForPharmacist(ctx, orderID, ph.PharmacyID)
}

// ApprovePrescription одобряет рецепт, заказ при этом не меняет статус
func (s *OrderService) ApprovePrescription(ctx context.Context, orderID int64) (*domain.Order, error) {
	ph, err := auth.PharmacistFrom(ctx)
	if err != nil {
		return nil, err
	}
	var result *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByPharmacyForPharmacist(ctx, orderID, ph.PharmacyID)
		if err != nil {
			return err
		}
		rx, err := s.prescriptionOf(ctx, o)
		if err != nil {
			return err
		}
		if rx.Status != domain.PrescriptionPending {
			return apperr.Conflictf("Esta receita já foi validada.")
		}
		now := time.Now().UTC()
		rx.Status = domain.PrescriptionApproved
		rx.ValidatedBy = &ph.ID
		rx.ValidatedAt = &now
		rx.RejectionReason = ""
		if err := s.prescriptions.Update(ctx, rx); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RejectPrescription отклоняет рецепт: заказ отменяется целиком,
// остатки возвращаются на склад
func (s *OrderService) RejectPrescription(ctx context.Context, orderID int64, justification string) (*domain.Order, error) {
	ph, err := auth.PharmacistFrom(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(justification) == "" {
		return nil, apperr.Validationf("A justificativa da rejeição é obrigatória.")
	}
	var result *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByPharmacyForPharmacist(ctx, orderID, ph.PharmacyID)
		if err != nil {
			return err
		}
		rx, err := s.prescriptionOf(ctx, o)
		if err != nil {
			return err
		}
		if rx.Status != domain.PrescriptionPending {
			return apperr.Conflictf("Esta receita já foi validada.")
		}
		if err := s.restockOrder(ctx, o); err != nil {
			return err
		}
		now := time.Now().UTC()
		rx.Status = domain.PrescriptionRejected
		rx.ValidatedBy = &ph.ID
		rx.ValidatedAt = &now
		rx.RejectionReason = justification
		if err := s.prescriptions.Update(ctx, rx); err != nil {
			return err
		}
		o.Status = domain.OrderCanceled
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- аптека (lojista) ---

// PharmacyOrders все заказы аптеки текущего администратора
func (s *OrderService) PharmacyOrders(ctx context.Context, pg repository.Pagination) (repository.Page[domain.Order], error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return repository.Page[domain.Order]{}, err
	}
	return s.orders.ListByPharmacy(ctx, pharmacy.ID, pg)
}

// PharmacyOrderDetails заказ, видимый администратору аптеки-владельца
func (s *OrderService) PharmacyOrderDetails(ctx context.Context, orderID int64) (*domain.Order, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.orderOwnedByPharmacy(ctx, orderID, pharmacy.ID)
}

// AcceptOrder аптека принимает оплаченный заказ; при наличии рецепта он
// обязан быть одобрен
func (s *OrderService) AcceptOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	var updated *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByPharmacy(ctx, orderID, pharmacy.ID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderAwaitingConfirmation {
			return apperr.Conflictf("Apenas pedidos aguardando confirmação podem ser aceitos. Status atual: %s", o.Status)
		}
		rx, err := s.prescriptions.GetByOrderID(ctx, o.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if rx != nil && rx.Status != domain.PrescriptionApproved {
			return apperr.Conflictf("Não é possível aceitar o pedido pois a receita ainda não foi aprovada.")
		}
		o.Status = domain.OrderConfirmed
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RefuseOrder аптека отказывается от заказа, остатки возвращаются
func (s *OrderService) RefuseOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	var updated *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByPharmacy(ctx, orderID, pharmacy.ID)
		if err != nil {
			return err
		}
		if o.Status != domain.OrderAwaitingConfirmation {
			return apperr.Conflictf("Apenas pedidos aguardando confirmação podem ser recusados. Status atual: %s", o.Status)
		}
		if err := s.restockOrder(ctx, o); err != nil {
			return err
		}
		o.Status = domain.OrderRefused
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus продвижение заказа по доставочным статусам аптекой
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, target domain.OrderStatus) (*domain.Order, error) {
	pharmacy, err := auth.PharmacyAdminFrom(ctx)
	if err != nil {
		return nil, err
	}
	var updated *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderOwnedByPharmacy(ctx, orderID, pharmacy.ID)
		if err != nil {
			return err
		}
		if err := domain.PharmacyCanSetStatus(o.Status, target); err != nil {
			switch {
			case errors.Is(err, domain.ErrOrderFinalized):
				return apperr.Forbiddenf("Pedido finalizado/cancelado/recusado não pode ter o status alterado.")
			case errors.Is(err, domain.ErrBackwardTransition):
				return apperr.Forbiddenf("Transição de status inválida. Status não pode ser regredido para inicial.")
			default:
				return err
			}
		}
		o.Status = target
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- helpers ---

func (s *OrderService) restockOrder(ctx context.Context, o *domain.Order) error {
	for _, it := range o.Items {
		if err := s.stock.Restock(ctx, it.StockItemID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) prescriptionOf(ctx context.Context, o *domain.Order) (*domain.Prescription, error) {
	rx, err := s.prescriptions.GetByOrderID(ctx, o.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Pedido %d não possui uma receita anexada.", o.ID)
		}
		return nil, err
	}
	return rx, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFoundf("Pedido %d não encontrado.", orderID)
		}
		return nil, err
	}
	return o, nil
}

func (s *OrderService) orderOwnedByCustomer(ctx context.Context, orderID, customerID int64) (*domain.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedByCustomer(customerID) {
		return nil, apperr.Forbiddenf("Você não tem permissão para acessar este pedido.")
	}
	return o, nil
}

func (s *OrderService) orderOwnedByPharmacy(ctx context.Context, orderID, pharmacyID int64) (*domain.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedByPharmacy(pharmacyID) {
		return nil, apperr.Forbiddenf("Você não tem permissão para gerenciar este pedido.")
	}
	return o, nil
}

// для фармацевта чужой заказ неотличим от несуществующего
func (s *OrderService) orderOwnedByPharmacyForPharmacist(ctx context.Context, orderID, pharmacyID int64) (*domain.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedByPharmacy(pharmacyID) {
		return nil, apperr.NotFoundf("Pedido não encontrado ou não pertence à sua farmácia.")
	}
	return o, nil
}
