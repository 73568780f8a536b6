package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-management/internal/domain/order"
)

// orderJSON is the wire representation of an order.
type orderJSON struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	Status         string          `json:"status"`
	CustomerID     string          `json:"customerId"`
	CouponCode     string          `json:"couponCode,omitempty"`
	CreatedAt      time.Time       `json:"createdAt,omitzero"`
	UpdatedAt      time.Time       `json:"updatedAt,omitzero"`
}

func domainToOrderJSON(o *order.Order) orderJSON {
	return orderJSON{
		ID:             o.ID,
		Name:           o.Name,
		OriginalAmount: o.OriginalAmount,
		FinalAmount:    o.FinalAmount,
		Status:         string(o.Status),
		CustomerID:     o.CustomerID,
		CouponCode:     o.CouponCode,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ordersToJSON(orders []order.Order) []orderJSON {
	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = domainToOrderJSON(&orders[i])
	}
	return out
}

// placeOrderRequest is the body accepted when placing an order.
type placeOrderRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	CustomerID string          `json:"customerId"`
	CouponCode string          `json:"couponCode,omitempty"`
}

// ListOrders returns all orders, optionally narrowed by the customerId or
// status query parameters.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		orders []order.Order
		err    error
	)
	switch {
	case r.URL.Query().Has("customerId"):
		orders, err = h.orders.ListByCustomer(ctx, r.URL.Query().Get("customerId"))
	case r.URL.Query().Has("status"):
		orders, err = h.orders.ListByStatus(ctx, order.Status(r.URL.Query().Get("status")))
	default:
		orders, err = h.orders.List(ctx)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ordersToJSON(orders))
}

// GetOrder returns a single order by id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToOrderJSON(o))
}

// PlaceOrder prices and persists a new order, applying the coupon when a code
// is given and consuming one use of it.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Name:       req.Name,
		Amount:     req.Amount,
		CustomerID: req.CustomerID,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, domainToOrderJSON(o))
}

// updateOrderRequest is the body accepted on order update.
type updateOrderRequest struct {
	Name           string          `json:"name"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
	CustomerID     string          `json:"customerId"`
}

// UpdateOrder applies changes to an order's name, amounts, and customer.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.Update(r.Context(), chi.URLParam(r, "id"), &order.Order{
		Name:           req.Name,
		OriginalAmount: req.OriginalAmount,
		FinalAmount:    req.FinalAmount,
		CustomerID:     req.CustomerID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToOrderJSON(o))
}

// statusRequest is the body accepted on status transition.
type statusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to a new lifecycle state.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToOrderJSON(o))
}

// DeleteOrder removes an order.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
