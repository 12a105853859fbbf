package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/inventory"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/dbtest"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/redis"
)

const guestToken = "guest-token-0123456789"

type harness struct {
	svc   Service
	conn  *gorm.DB
	guest *GuestStore
	mr    *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	guest, err := NewGuestStore(redis.NewFromClient(raw), time.Hour)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), inventory.NewRepository(conn), guest, nil)
	require.NoError(t, err)
	return &harness{svc: svc, conn: conn, guest: guest, mr: mr}
}

func shopper() policy.Actor {
	return policy.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
}

func TestUpsertSetsQuantityAndPricesVariants(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := shopper()
	rice := dbtest.SeedProduct(t, h.conn, "Rice", "staples", 8000, 10)
	bag := dbtest.SeedVariant(t, h.conn, rice.ID, "5", "kg", 35000, false)

	_, err := h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	cart, err = h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, VariantID: &bag.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, int64(3*8000+35000), cart.SubtotalCents)
	assert.Equal(t, "5 kg", *cart.Lines[1].VariantLabel)

	other := uuid.New()
	_, err = h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, VariantID: &other, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, h.conn.Model(rice).Update("is_active", false).Error)
	_, err = h.svc.Upsert(ctx, me, LineInput{ProductID: rice.ID, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSetQuantityAndRemoveAreIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := shopper()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 10)
	_, err := h.svc.Upsert(ctx, me, LineInput{ProductID: milk.ID, Quantity: 5})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		found, err := h.svc.SetQuantity(ctx, me, milk.ID, nil, 2)
		require.NoError(t, err)
		assert.True(t, found)
	}
	lines, err := h.svc.Lines(ctx, me.UserID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	require.NoError(t, h.svc.Remove(ctx, me, milk.ID, nil))
	require.NoError(t, h.svc.Remove(ctx, me, milk.ID, nil))
	found, err := h.svc.SetQuantity(ctx, me, milk.ID, nil, 2)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = h.svc.List(ctx, policy.Actor{UserID: uuid.New(), Role: enums.RoleCourier})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestClaimModes(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*harness, policy.Actor, uuid.UUID, uuid.UUID) {
		h := newHarness(t)
		me := shopper()
		milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 10)
		eggs := dbtest.SeedProduct(t, h.conn, "Eggs", "dairy", 9000, 10)
		_, err := h.svc.Upsert(ctx, me, LineInput{ProductID: milk.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = h.svc.GuestSet(ctx, guestToken, LineInput{ProductID: milk.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = h.svc.GuestAdd(ctx, guestToken, LineInput{ProductID: eggs.ID, Quantity: 1})
		require.NoError(t, err)
		return h, me, milk.ID, eggs.ID
	}

	t.Run("merge", func(t *testing.T) {
		h, me, milk, eggs := setup(t)
		cart, err := h.svc.Claim(ctx, me, guestToken, enums.CartClaimMerge)
		require.NoError(t, err)
		quantities := map[uuid.UUID]int{}
		for _, line := range cart.Lines {
			quantities[line.ProductID] = line.Quantity
		}
		assert.Equal(t, map[uuid.UUID]int{milk: 3, eggs: 1}, quantities)
		assert.False(t, h.mr.Exists("fc:guest_cart:"+guestToken))
	})

	t.Run("replace", func(t *testing.T) {
		h, me, milk, eggs := setup(t)
		cart, err := h.svc.Claim(ctx, me, guestToken, enums.CartClaimReplace)
		require.NoError(t, err)
		quantities := map[uuid.UUID]int{}
		for _, line := range cart.Lines {
			quantities[line.ProductID] = line.Quantity
		}
		assert.Equal(t, map[uuid.UUID]int{milk: 2, eggs: 1}, quantities)
	})

	t.Run("discard", func(t *testing.T) {
		h, me, milk, _ := setup(t)
		cart, err := h.svc.Claim(ctx, me, guestToken, enums.CartClaimDiscard)
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, milk, cart.Lines[0].ProductID)
		assert.Equal(t, 1, cart.Lines[0].Quantity)
		lines, err := h.guest.Lines(ctx, guestToken)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("invalid mode", func(t *testing.T) {
		h, me, _, _ := setup(t)
		_, err := h.svc.Claim(ctx, me, guestToken, "keep")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	})
}

func TestClaimSkipsUnavailableGuestLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := shopper()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 10)
	require.NoError(t, h.guest.Set(ctx, guestToken, GuestLine{ProductID: milk.ID, Quantity: 2}))
	require.NoError(t, h.guest.Set(ctx, guestToken, GuestLine{ProductID: uuid.New(), Quantity: 4}))

	cart, err := h.svc.Claim(ctx, me, guestToken, enums.CartClaimMerge)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, milk.ID, cart.Lines[0].ProductID)
}

func TestGuestViewPricesLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	milk := dbtest.SeedProduct(t, h.conn, "Milk", "dairy", 6000, 10)

	_, err := h.svc.GuestAdd(ctx, guestToken, LineInput{ProductID: milk.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := h.svc.GuestAdd(ctx, guestToken, LineInput{ProductID: milk.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, int64(18000), cart.SubtotalCents)

	require.NoError(t, h.svc.GuestRemove(ctx, guestToken, milk.ID, nil))
	cart, err = h.svc.GuestView(ctx, guestToken)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)

	_, err = h.svc.GuestView(ctx, "short")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
