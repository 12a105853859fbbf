package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/ledger"
	"github.com/freshcart/freshcart-backend/internal/payouts"
	product "github.com/freshcart/freshcart-backend/internal/products"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
)

type stubPayoutService struct {
	last    payouts.PayoutRequest
	approve *bool
	err     error
}

func (s *stubPayoutService) Request(ctx context.Context, actor policy.Actor, req payouts.PayoutRequest) (*payouts.PayoutDTO, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &payouts.PayoutDTO{ID: uuid.New(), RequestedBy: actor.UserID, Type: req.Type, AmountCents: req.AmountCents, Status: enums.PayoutStatusPending}, nil
}

func (s *stubPayoutService) Resolve(ctx context.Context, actor policy.Actor, payoutID uuid.UUID, approve bool, note string) (*payouts.PayoutDTO, error) {
	s.approve = &approve
	return &payouts.PayoutDTO{ID: payoutID}, s.err
}

func (s *stubPayoutService) Balance(ctx context.Context, actor policy.Actor) (*ledger.Balance, error) {
	return &ledger.Balance{OutstandingCents: 3000}, s.err
}

type stubCatalogService struct {
	input product.UpdateProductInput
	qty   int
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, actor policy.Actor, productID uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	s.input = input
	return &product.ProductDTO{ID: productID}, nil
}

func (s *stubCatalogService) Restock(ctx context.Context, actor policy.Actor, productID uuid.UUID, qty int) (*product.ProductDTO, error) {
	s.qty = qty
	return &product.ProductDTO{ID: productID, StockQuantity: qty}, nil
}

func TestPayoutCreateValidatesType(t *testing.T) {
	svc := &stubPayoutService{}
	req, _ := customerRequest(http.MethodPost, "/api/v1/payouts", `{"type":"tip","amountCents":100}`)
	resp := httptest.NewRecorder()
	PayoutCreate(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCourier, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req, _ = customerRequest(http.MethodPost, "/api/v1/payouts", `{"type":"delivery_commission","amountCents":3000}`)
	resp = httptest.NewRecorder()
	PayoutCreate(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCourier, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.last.Type != enums.CommissionTypeDelivery || svc.last.AmountCents != 3000 {
		t.Fatalf("unexpected request %+v", svc.last)
	}
}

func TestPayoutCreateOverBalance(t *testing.T) {
	svc := &stubPayoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "amount exceeds outstanding balance")}
	req, _ := customerRequest(http.MethodPost, "/api/v1/payouts", `{"type":"delivery_commission","amountCents":999999}`)
	resp := httptest.NewRecorder()
	PayoutCreate(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCourier, nil))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestPayoutResolve(t *testing.T) {
	payoutID := uuid.New()
	svc := &stubPayoutService{}
	req, _ := customerRequest(http.MethodPost, "/api/v1/payouts/"+payoutID.String()+"/resolve", `{"approve":true,"note":"paid"}`)
	resp := httptest.NewRecorder()
	PayoutResolve(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, map[string]string{"payoutId": payoutID.String()}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.approve == nil || !*svc.approve {
		t.Fatalf("expected approve=true")
	}
}

func TestAdminProductEndpoints(t *testing.T) {
	productID := uuid.New()
	svc := &stubCatalogService{}
	params := map[string]string{"productId": productID.String()}

	req, _ := customerRequest(http.MethodPatch, "/api/v1/admin/products/"+productID.String(), `{"priceCents":9000,"isActive":false}`)
	resp := httptest.NewRecorder()
	AdminProductUpdate(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.input.PriceCents == nil || *svc.input.PriceCents != 9000 || svc.input.IsActive == nil || *svc.input.IsActive {
		t.Fatalf("unexpected update %+v", svc.input)
	}

	req, _ = customerRequest(http.MethodPost, "/api/v1/admin/products/"+productID.String()+"/restock", `{"quantity":0}`)
	resp = httptest.NewRecorder()
	AdminProductRestock(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, params))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	req, _ = customerRequest(http.MethodPost, "/api/v1/admin/products/"+productID.String()+"/restock", `{"quantity":12}`)
	resp = httptest.NewRecorder()
	AdminProductRestock(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, params))
	if resp.Code != http.StatusOK || svc.qty != 12 {
		t.Fatalf("expected restock of 12, got %d %d", resp.Code, svc.qty)
	}
}
