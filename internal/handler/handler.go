package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/order-management/internal/domain/coupon"
	"github.com/xenking/order-management/internal/domain/order"
)

// Handler exposes the coupon and order services over HTTP, mapping domain
// errors to status codes.
type Handler struct {
	coupons *coupon.Service
	orders  *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(coupons *coupon.Service, orders *order.Service) *Handler {
	return &Handler{coupons: coupons, orders: orders}
}

// Routes returns the API router. Mutating endpoints require an API key; reads
// are open.
func (h *Handler) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", h.ListCoupons)
		r.Get("/{id}", h.GetCoupon)
		r.Get("/code/{code}", h.GetCouponByCode)
		r.Get("/code/{code}/discount", h.CalculateDiscount)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/", h.CreateCoupon)
			r.Put("/{id}", h.UpdateCoupon)
			r.Delete("/{id}", h.DeleteCoupon)
			r.Post("/{id}/deactivate", h.DeactivateCoupon)
			r.Post("/{id}/redemptions", h.IncrementUsage)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/", h.PlaceOrder)
			r.Put("/{id}", h.UpdateOrder)
			r.Patch("/{id}/status", h.UpdateOrderStatus)
			r.Delete("/{id}", h.DeleteOrder)
		})
	})

	return r
}

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Best effort: the status is already written.
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeDomainError maps the error taxonomy to HTTP statuses: unknown
// references are 404, malformed configurations 400, and business-rule
// rejections 422. Anything else is an opaque 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, coupon.ErrNotFound), errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case coupon.IsInvalidArgument(err),
		errors.Is(err, order.ErrInvalidAmount),
		errors.Is(err, order.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, err.Error())
	case coupon.IsInvalidState(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
