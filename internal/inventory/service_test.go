package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/dbtest"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

func newLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	ledger, err := NewLedger(NewRepository(db))
	require.NoError(t, err)
	return ledger, db
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.StockQuantity
}

func TestLockLoadsProductsAndVariants(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	milk := dbtest.SeedProduct(t, db, "Milk", "dairy", 6000, 4)
	dbtest.SeedVariant(t, db, milk.ID, "500", "ml", 3200, true)
	bread := dbtest.SeedProduct(t, db, "Bread", "bakery", 4500, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		rows, err := ledger.Lock(ctx, tx, []uuid.UUID{bread.ID, milk.ID, milk.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
		assert.Len(t, rows[milk.ID].Variants, 1)
		assert.Empty(t, rows[bread.ID].Variants)
		return nil
	})
	require.NoError(t, err)
}

func TestDecrementFloorsAtZero(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	eggs := dbtest.SeedProduct(t, db, "Eggs", "dairy", 9000, 3)
	rice := dbtest.SeedProduct(t, db, "Rice", "grains", 12000, 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Decrement(ctx, tx, Quantities{eggs.ID: 5, rice.ID: 4})
	})
	require.NoError(t, err)

	assert.Equal(t, 0, stockOf(t, db, eggs.ID))
	assert.Equal(t, 6, stockOf(t, db, rice.ID))
}

func TestRestoreAddsUnitsBack(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	eggs := dbtest.SeedProduct(t, db, "Eggs", "dairy", 9000, 1)

	items := []models.OrderItem{
		{ProductID: eggs.ID, Quantity: 2},
		{ProductID: eggs.ID, Quantity: 3},
	}
	q := FromOrderItems(items)
	assert.Equal(t, 5, q.Total())

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Restore(ctx, tx, q)
	}))
	assert.Equal(t, 6, stockOf(t, db, eggs.ID))
}

func TestRestock(t *testing.T) {
	ledger, db := newLedger(t)
	ctx := context.Background()
	flour := dbtest.SeedProduct(t, db, "Flour", "grains", 5000, 0)

	var level int
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		level, err = ledger.Restock(ctx, tx, flour.ID, 12)
		return err
	}))
	assert.Equal(t, 12, level)

	_, err := ledger.Restock(ctx, db, flour.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ledger.Restock(ctx, db, uuid.New(), 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
