package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

// Quantities maps product id to units.
type Quantities map[uuid.UUID]int

// Add accumulates qty for productID.
func (q Quantities) Add(productID uuid.UUID, qty int) {
	q[productID] += qty
}

// FromOrderItems sums item quantities per product; stock is held on the product, not the variant.
func FromOrderItems(items []models.OrderItem) Quantities {
	out := Quantities{}
	for _, item := range items {
		out.Add(item.ProductID, item.Quantity)
	}
	return out
}

// Total is the sum of all units.
func (q Quantities) Total() int {
	total := 0
	for _, qty := range q {
		total += qty
	}
	return total
}

// Ledger applies stock movements inside a caller's transaction.
type Ledger struct {
	repo Repository
}

// NewLedger wires the stock ledger.
func NewLedger(repo Repository) (*Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &Ledger{repo: repo}, nil
}

// Lock row-locks the given products for the rest of tx.
func (l *Ledger) Lock(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := l.repo.WithTx(tx).LockProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock products")
	}
	return rows, nil
}

// Decrement removes sold units.
func (l *Ledger) Decrement(ctx context.Context, tx *gorm.DB, quantities Quantities) error {
	repo := l.repo.WithTx(tx)
	for _, productID := range uniqueSorted(keys(quantities)) {
		qty := quantities[productID]
		if qty <= 0 {
			continue
		}
		if err := repo.Decrement(ctx, productID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
	}
	return nil
}

// Restore returns units of a cancelled or rejected order.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, quantities Quantities) error {
	repo := l.repo.WithTx(tx)
	for _, productID := range uniqueSorted(keys(quantities)) {
		qty := quantities[productID]
		if qty <= 0 {
			continue
		}
		if err := repo.Restore(ctx, productID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

// Restock adds units from an admin replenishment and returns the new level.
func (l *Ledger) Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	repo := l.repo.WithTx(tx)
	if _, err := repo.LockProducts(ctx, []uuid.UUID{productID}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
	}
	if err := repo.Restore(ctx, productID, qty); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock product")
	}
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product.StockQuantity, nil
}

func keys(q Quantities) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(q))
	for id := range q {
		out = append(out, id)
	}
	return out
}
