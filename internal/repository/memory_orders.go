package repository

import (
	"context"
	"time"

	"esculapi/internal/domain"
)

// --- orders ---

type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

var _ OrderRepository = (*MemoryOrders)(nil)

func (r *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	o.ID = r.store.nextOrderID
	r.store.nextOrderID++
	o.UpdatedAt = time.Now().UTC()
	for i := range o.Items {
		o.Items[i].ID = r.store.nextOrderItemID
		r.store.nextOrderItemID++
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.store.ordersByID[o.ID] = cp
	return nil
}

func (r *MemoryOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	o, ok := r.store.ordersByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.ordersByID[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.store.ordersByID[o.ID] = cp
	return nil
}

func (r *MemoryOrders) ListByCustomer(ctx context.Context, customerID int64, pg Pagination) (Page[domain.Order], error) {
	return r.list(ctx, pg, func(o domain.Order) bool { return o.CustomerID == customerID })
}

func (r *MemoryOrders) ListByPharmacy(ctx context.Context, pharmacyID int64, pg Pagination) (Page[domain.Order], error) {
	return r.list(ctx, pg, func(o domain.Order) bool { return o.OwnedByPharmacy(pharmacyID) })
}

func (r *MemoryOrders) ListByPharmacyAndStatus(ctx context.Context, pharmacyID int64, status domain.OrderStatus, pg Pagination) (Page[domain.Order], error) {
	return r.list(ctx, pg, func(o domain.Order) bool {
		return o.Status == status && o.OwnedByPharmacy(pharmacyID)
	})
}

func (r *MemoryOrders) list(ctx context.Context, pg Pagination, match func(domain.Order) bool) (Page[domain.Order], error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	all := make([]domain.Order, 0)
	for _, o := range r.store.ordersByID {
		if match(o) {
			cp := o
			cp.Items = append([]domain.OrderItem(nil), o.Items...)
			all = append(all, cp)
		}
	}
	return paginate(all, pg, func(a, b domain.Order) bool { return a.ID < b.ID }), nil
}

// --- prescriptions ---

type MemoryPrescriptions struct{ store *MemoryStore }

func NewMemoryPrescriptions(store *MemoryStore) *MemoryPrescriptions {
	return &MemoryPrescriptions{store: store}
}

var _ PrescriptionRepository = (*MemoryPrescriptions)(nil)

func (r *MemoryPrescriptions) Create(ctx context.Context, p *domain.Prescription) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	for _, have := range r.store.prescriptionsByID {
		if have.OrderID == p.OrderID {
			return ErrDuplicate
		}
	}
	p.ID = r.store.nextPrescriptionID
	r.store.nextPrescriptionID++
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	r.store.prescriptionsByID[p.ID] = *p
	return nil
}

func (r *MemoryPrescriptions) GetByID(ctx context.Context, id int64) (*domain.Prescription, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	p, ok := r.store.prescriptionsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryPrescriptions) GetByOrderID(ctx context.Context, orderID int64) (*domain.Prescription, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	for _, p := range r.store.prescriptionsByID {
		if p.OrderID == orderID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPrescriptions) Update(ctx context.Context, p *domain.Prescription) error {
	r.store.wlock(ctx)
	defer r.store.wunlock(ctx)
	if _, ok := r.store.prescriptionsByID[p.ID]; !ok {
		return ErrNotFound
	}
	r.store.prescriptionsByID[p.ID] = *p
	return nil
}
