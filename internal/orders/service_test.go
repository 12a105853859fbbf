package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/dbtest"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/outbox"
)

type stubAssignments struct {
	byOrder map[uuid.UUID]*models.DeliveryAssignment
}

func (s *stubAssignments) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	if a, ok := s.byOrder[orderID]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type harness struct {
	svc         Service
	conn        *gorm.DB
	outboxRepo  *outbox.Repository
	assignments *stubAssignments
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn))
	require.NoError(t, err)
	outboxRepo := outbox.NewRepository(conn)
	assignments := &stubAssignments{byOrder: map[uuid.UUID]*models.DeliveryAssignment{}}
	svc, err := NewService(db.NewFromConn(conn), NewRepository(conn), assignments, ledger, outbox.NewService(outboxRepo, nil), nil)
	require.NoError(t, err)
	return &harness{svc: svc, conn: conn, outboxRepo: outboxRepo, assignments: assignments}
}

func (h *harness) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, h.conn.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

func (h *harness) events(t *testing.T, orderID uuid.UUID, eventType enums.OutboxEventType) int {
	t.Helper()
	rows, err := h.outboxRepo.ListForAggregate(context.Background(), enums.AggregateOrder, orderID)
	require.NoError(t, err)
	n := 0
	for _, row := range rows {
		if row.EventType == eventType {
			n++
		}
	}
	return n
}

func customerActor(id uuid.UUID) policy.Actor {
	return policy.Actor{UserID: id, Role: enums.RoleCustomer}
}

var adminActor = policy.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

func TestCancelRestoresStockOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 1)
	order := dbtest.SeedOrder(t, h.conn, userID, enums.OrderStatusPending, map[*models.Product]int{milk: 2})

	dto, err := h.svc.Cancel(ctx, customerActor(userID), order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Equal(t, "changed my mind", *dto.CancelReason)
	assert.Equal(t, 3, h.stock(t, milk.ID))

	dto, err = h.svc.Cancel(ctx, customerActor(userID), order.ID, "again")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)
	assert.Equal(t, 3, h.stock(t, milk.ID))
	assert.Equal(t, 1, h.events(t, order.ID, enums.EventOrderCancelled))

	_, err = h.svc.Reject(ctx, adminActor, order.ID, "late reject")
	require.NoError(t, err)
	assert.Equal(t, 3, h.stock(t, milk.ID))
}

func TestConcurrentCancelAndRejectRestoreOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	eggs := dbtest.SeedProduct(t, h.conn, "Eggs", "dairy", 9000, 0)
	order := dbtest.SeedOrder(t, h.conn, userID, enums.OrderStatusConfirmed, map[*models.Product]int{eggs: 4})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = h.svc.Cancel(ctx, customerActor(userID), order.ID, "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = h.svc.Reject(ctx, adminActor, order.ID, "out of area")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 4, h.stock(t, eggs.ID))
	assert.Equal(t, 1, h.events(t, order.ID, enums.EventOrderCancelled))

	var stored models.Order
	require.NoError(t, h.conn.First(&stored, "id = ?", order.ID).Error)
	assert.True(t, stored.Status.IsExit())
	assert.NotNil(t, stored.StockRestoredAt)
}

func TestCancelRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 5)

	outForDelivery := dbtest.SeedOrder(t, h.conn, userID, enums.OrderStatusOutForDelivery, map[*models.Product]int{milk: 1})
	_, err := h.svc.Cancel(ctx, customerActor(userID), outForDelivery.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Cancel(ctx, adminActor, outForDelivery.ID, "courier unavailable")
	require.NoError(t, err)
	assert.Equal(t, 6, h.stock(t, milk.ID))

	someoneElse := dbtest.SeedOrder(t, h.conn, uuid.New(), enums.OrderStatusPending, map[*models.Product]int{milk: 1})
	_, err = h.svc.Cancel(ctx, customerActor(userID), someoneElse.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	delivered := dbtest.SeedOrder(t, h.conn, userID, enums.OrderStatusDelivered, map[*models.Product]int{milk: 1})
	_, err = h.svc.Cancel(ctx, customerActor(userID), delivered.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Cancel(ctx, customerActor(userID), uuid.New(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Reject(ctx, customerActor(userID), delivered.ID, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionForwardOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 5)
	order := dbtest.SeedOrder(t, h.conn, uuid.New(), enums.OrderStatusPending, map[*models.Product]int{milk: 1})

	run := func(to enums.OrderStatus) (*models.Order, error) {
		var out *models.Order
		err := h.conn.Transaction(func(tx *gorm.DB) error {
			var err error
			out, err = h.svc.Transition(ctx, tx, order.ID, to, nil)
			return err
		})
		return out, err
	}

	out, err := run(enums.OrderStatusOutForDelivery)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, out.Status)

	_, err = run(enums.OrderStatusOutForDelivery)
	require.NoError(t, err)

	_, err = run(enums.OrderStatusConfirmed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = run(enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	out, err = run(enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, out.DeliveredAt)

	_, err = run(enums.OrderStatusConfirmed)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	assert.Equal(t, 2, h.events(t, order.ID, enums.EventOrderStatusChanged))
}

func TestConfirmAndGet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	courierID := uuid.New()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 5)
	order := dbtest.SeedOrder(t, h.conn, userID, enums.OrderStatusPending, map[*models.Product]int{milk: 2})

	_, err := h.svc.Confirm(ctx, customerActor(userID), order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	dto, err := h.svc.Confirm(ctx, adminActor, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, dto.Status)

	h.assignments.byOrder[order.ID] = &models.DeliveryAssignment{ID: uuid.New(), OrderID: order.ID, DeliveryPersonID: &courierID}

	dto, err = h.svc.Get(ctx, customerActor(userID), order.ID)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, int64(12000), dto.Items[0].LineTotalCents)
	require.NotNil(t, dto.Assignment)
	assert.Equal(t, enums.AssignmentStateAssigned, dto.Assignment.State)

	_, err = h.svc.Get(ctx, policy.Actor{UserID: courierID, Role: enums.RoleCourier}, order.ID)
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, policy.Actor{UserID: uuid.New(), Role: enums.RoleCourier}, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestExpireStalePending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 0)
	stale := dbtest.SeedOrder(t, h.conn, uuid.New(), enums.OrderStatusPending, map[*models.Product]int{milk: 2})
	dbtest.SeedOrder(t, h.conn, uuid.New(), enums.OrderStatusPending, map[*models.Product]int{milk: 1})
	confirmed := dbtest.SeedOrder(t, h.conn, uuid.New(), enums.OrderStatusConfirmed, map[*models.Product]int{milk: 1})

	old := time.Now().UTC().Add(-12 * time.Hour)
	require.NoError(t, h.conn.Model(&models.Order{}).Where("id IN ?", []uuid.UUID{stale.ID, confirmed.ID}).Update("created_at", old).Error)

	rows, err := h.svc.ListStalePending(ctx, time.Now().UTC().Add(-6*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)

	applied, err := h.svc.Expire(ctx, stale.ID, "pending order expired")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, h.stock(t, milk.ID))

	applied, err = h.svc.Expire(ctx, stale.ID, "pending order expired")
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = h.svc.Expire(ctx, confirmed.ID, "pending order expired")
	require.NoError(t, err)
	assert.False(t, applied)
}
