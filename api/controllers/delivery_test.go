package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/api/middleware"
	"github.com/freshcart/freshcart-backend/internal/delivery"
	"github.com/freshcart/freshcart-backend/internal/policy"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

type stubDeliveryService struct {
	assignment *delivery.AssignmentDTO
	courier    *delivery.CourierDTO
	err        error

	accept   *bool
	reason   string
	note     string
	approved *bool
	params   pagination.Params
	target   uuid.UUID
}

func (s *stubDeliveryService) AssignManually(ctx context.Context, actor policy.Actor, orderID, courierID uuid.UUID) (*delivery.AssignmentDTO, error) {
	s.target = courierID
	return s.assignment, s.err
}

func (s *stubDeliveryService) Pickup(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*delivery.AssignmentDTO, error) {
	s.target = orderID
	return s.assignment, s.err
}

func (s *stubDeliveryService) MarkDelivered(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID) (*delivery.AssignmentDTO, error) {
	s.target = assignmentID
	return s.assignment, s.err
}

func (s *stubDeliveryService) Respond(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, accept bool, reason string) (*delivery.AssignmentDTO, error) {
	s.target, s.accept, s.reason = assignmentID, &accept, reason
	return s.assignment, s.err
}

func (s *stubDeliveryService) DisputeQueue(ctx context.Context, actor policy.Actor, params pagination.Params) (*delivery.DisputePage, error) {
	s.params = params
	return &delivery.DisputePage{Items: []delivery.AssignmentDTO{}}, s.err
}

func (s *stubDeliveryService) ClearDispute(ctx context.Context, actor policy.Actor, assignmentID uuid.UUID, note string) (*delivery.AssignmentDTO, error) {
	s.target, s.note = assignmentID, note
	return s.assignment, s.err
}

func (s *stubDeliveryService) Register(ctx context.Context, actor policy.Actor, displayName string) (*delivery.CourierDTO, error) {
	return s.courier, s.err
}

func (s *stubDeliveryService) CheckIn(ctx context.Context, actor policy.Actor) (*delivery.CourierDTO, error) {
	return s.courier, s.err
}

func (s *stubDeliveryService) Approve(ctx context.Context, actor policy.Actor, courierID uuid.UUID, approved bool) (*delivery.CourierDTO, error) {
	s.target, s.approved = courierID, &approved
	return s.courier, s.err
}

func routed(req *http.Request, role enums.Role, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithActor(ctx, policy.Actor{UserID: uuid.New(), Role: role})
	return req.WithContext(ctx)
}

func TestAssignmentRespondRequiresAccept(t *testing.T) {
	assignmentID := uuid.New()
	svc := &stubDeliveryService{assignment: &delivery.AssignmentDTO{ID: assignmentID}}
	params := map[string]string{"assignmentId": assignmentID.String()}

	req, _ := customerRequest(http.MethodPost, "/api/v1/assignments/"+assignmentID.String()+"/respond", `{"reason":"not mine"}`)
	resp := httptest.NewRecorder()
	AssignmentRespond(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCustomer, params))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without accept, got %d", resp.Code)
	}

	req, _ = customerRequest(http.MethodPost, "/api/v1/assignments/"+assignmentID.String()+"/respond", `{"accept":false,"reason":" never arrived "}`)
	resp = httptest.NewRecorder()
	AssignmentRespond(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCustomer, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.accept == nil || *svc.accept || svc.reason != "never arrived" || svc.target != assignmentID {
		t.Fatalf("unexpected respond call %v %q %s", svc.accept, svc.reason, svc.target)
	}
}

func TestCourierPickupMapsForbidden(t *testing.T) {
	orderID := uuid.New()
	svc := &stubDeliveryService{err: pkgerrors.New(pkgerrors.CodeForbidden, "not your assignment")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courier/orders/"+orderID.String()+"/pickup", nil)
	resp := httptest.NewRecorder()
	CourierPickup(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCourier, map[string]string{"orderId": orderID.String()}))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
	if svc.target != orderID {
		t.Fatalf("expected order id %s, got %s", orderID, svc.target)
	}
}

func TestCourierRegisterCreated(t *testing.T) {
	svc := &stubDeliveryService{courier: &delivery.CourierDTO{UserID: uuid.New(), DisplayName: "Ravi"}}
	req, _ := customerRequest(http.MethodPost, "/api/v1/courier/register", `{"displayName":"Ravi"}`)
	resp := httptest.NewRecorder()
	CourierRegister(svc, nil).ServeHTTP(resp, routed(req, enums.RoleCourier, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAdminCourierApproval(t *testing.T) {
	courierID := uuid.New()
	svc := &stubDeliveryService{courier: &delivery.CourierDTO{UserID: courierID, IsApproved: true}}
	req, _ := customerRequest(http.MethodPost, "/api/v1/admin/couriers/"+courierID.String()+"/approval", `{"approved":true}`)
	resp := httptest.NewRecorder()
	AdminCourierApproval(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, map[string]string{"courierId": courierID.String()}))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.approved == nil || !*svc.approved || svc.target != courierID {
		t.Fatalf("unexpected approval call %v %s", svc.approved, svc.target)
	}
}

func TestAdminDisputesPagination(t *testing.T) {
	svc := &stubDeliveryService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/disputes?limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()
	AdminDisputes(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

func TestAdminClearDispute(t *testing.T) {
	assignmentID := uuid.New()
	svc := &stubDeliveryService{assignment: &delivery.AssignmentDTO{ID: assignmentID}}
	params := map[string]string{"assignmentId": assignmentID.String()}

	req, _ := customerRequest(http.MethodPost, "/api/v1/admin/assignments/"+assignmentID.String()+"/clear-dispute", `{"note":" left with neighbour "}`)
	resp := httptest.NewRecorder()
	AdminClearDispute(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.target != assignmentID || svc.note != "left with neighbour" {
		t.Fatalf("unexpected clear call %s %q", svc.target, svc.note)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	req, _ = customerRequest(http.MethodPost, "/api/v1/admin/assignments/"+assignmentID.String()+"/clear-dispute", `{}`)
	resp = httptest.NewRecorder()
	AdminClearDispute(svc, nil).ServeHTTP(resp, routed(req, enums.RoleAdmin, params))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
