package cart

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

const (
	defaultGuestTTL = 7 * 24 * time.Hour
	noVariant       = "-"
)

var guestTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

type guestBackend interface {
	HSet(ctx context.Context, key, field string, value any, ttl time.Duration) error
	HIncrBy(ctx context.Context, key, field string, delta int64, ttl time.Duration) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(token string) string
}

// GuestLine is one entry of an anonymous cart.
type GuestLine struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

// GuestStore keeps anonymous carts in a Redis hash keyed by an opaque client token.
// Each field is "<productID>:<variantID|->" and holds the quantity.
type GuestStore struct {
	backend guestBackend
	ttl     time.Duration
}

// NewGuestStore builds a guest cart store. A non-positive ttl falls back to seven days.
func NewGuestStore(backend guestBackend, ttl time.Duration) (*GuestStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend required for guest carts")
	}
	if ttl <= 0 {
		ttl = defaultGuestTTL
	}
	return &GuestStore{backend: backend, ttl: ttl}, nil
}

// Lines returns the guest cart sorted by product then variant. Unparseable fields are skipped.
func (g *GuestStore) Lines(ctx context.Context, token string) ([]GuestLine, error) {
	key, err := g.key(token)
	if err != nil {
		return nil, err
	}
	fields, err := g.backend.HGetAll(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read guest cart")
	}
	lines := make([]GuestLine, 0, len(fields))
	for field, raw := range fields {
		productID, variantID, ok := decodeField(field)
		if !ok {
			continue
		}
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, GuestLine{ProductID: productID, VariantID: variantID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return encodeField(lines[i].ProductID, lines[i].VariantID) < encodeField(lines[j].ProductID, lines[j].VariantID)
	})
	return lines, nil
}

// Set overwrites one line's quantity and refreshes the cart TTL.
func (g *GuestStore) Set(ctx context.Context, token string, line GuestLine) error {
	key, err := g.key(token)
	if err != nil {
		return err
	}
	if line.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := g.backend.HSet(ctx, key, encodeField(line.ProductID, line.VariantID), line.Quantity, g.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write guest cart")
	}
	return nil
}

// Add increments one line's quantity and returns the new total.
func (g *GuestStore) Add(ctx context.Context, token string, line GuestLine) (int, error) {
	key, err := g.key(token)
	if err != nil {
		return 0, err
	}
	if line.ProductID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if line.Quantity < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	total, err := g.backend.HIncrBy(ctx, key, encodeField(line.ProductID, line.VariantID), int64(line.Quantity), g.ttl)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write guest cart")
	}
	return int(total), nil
}

// Remove deletes one line.
func (g *GuestStore) Remove(ctx context.Context, token string, productID uuid.UUID, variantID *uuid.UUID) error {
	key, err := g.key(token)
	if err != nil {
		return err
	}
	if err := g.backend.HDel(ctx, key, encodeField(productID, variantID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove guest cart line")
	}
	return nil
}

// Clear deletes the whole guest cart.
func (g *GuestStore) Clear(ctx context.Context, token string) error {
	key, err := g.key(token)
	if err != nil {
		return err
	}
	if err := g.backend.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart")
	}
	return nil
}

func (g *GuestStore) key(token string) (string, error) {
	token = strings.TrimSpace(token)
	if !guestTokenPattern.MatchString(token) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid guest cart token")
	}
	return g.backend.GuestCartKey(token), nil
}

func encodeField(productID uuid.UUID, variantID *uuid.UUID) string {
	variant := noVariant
	if variantID != nil {
		variant = variantID.String()
	}
	return productID.String() + ":" + variant
}

func decodeField(field string) (uuid.UUID, *uuid.UUID, bool) {
	productPart, variantPart, ok := strings.Cut(field, ":")
	if !ok {
		return uuid.Nil, nil, false
	}
	productID, err := uuid.Parse(productPart)
	if err != nil {
		return uuid.Nil, nil, false
	}
	if variantPart == noVariant {
		return productID, nil, true
	}
	variantID, err := uuid.Parse(variantPart)
	if err != nil {
		return uuid.Nil, nil, false
	}
	return productID, &variantID, true
}
