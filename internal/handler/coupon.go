package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-management/internal/domain/coupon"
)

// couponJSON is the wire representation of a coupon.
type couponJSON struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	MaxUses        int             `json:"maxUses"`
	UsedCount      int             `json:"usedCount"`
	ValidFrom      time.Time       `json:"validFrom"`
	ValidUntil     time.Time       `json:"validUntil"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt,omitzero"`
	UpdatedAt      time.Time       `json:"updatedAt,omitzero"`
}

// couponRequest is the body accepted on create and update.
type couponRequest struct {
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	MaxUses        int             `json:"maxUses"`
	ValidFrom      time.Time       `json:"validFrom"`
	ValidUntil     time.Time       `json:"validUntil"`
	Active         *bool           `json:"active,omitempty"`
}

func (req *couponRequest) toDomain() *coupon.Coupon {
	c := &coupon.Coupon{
		Code:           req.Code,
		Type:           coupon.Type(req.Type),
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxUses:        req.MaxUses,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		Active:         true,
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	return c
}

func domainToCouponJSON(c *coupon.Coupon) couponJSON {
	return couponJSON{
		ID:             c.ID,
		Code:           c.Code,
		Type:           string(c.Type),
		Value:          c.Value,
		MinOrderAmount: c.MinOrderAmount,
		MaxUses:        c.MaxUses,
		UsedCount:      c.UsedCount,
		ValidFrom:      c.ValidFrom,
		ValidUntil:     c.ValidUntil,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func couponsToJSON(coupons []coupon.Coupon) []couponJSON {
	out := make([]couponJSON, len(coupons))
	for i := range coupons {
		out[i] = domainToCouponJSON(&coupons[i])
	}
	return out
}

// ListCoupons returns all coupons. The optional query parameters active=bool
// and valid=true narrow the listing.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		coupons []coupon.Coupon
		err     error
	)
	switch {
	case r.URL.Query().Get("valid") == "true":
		coupons, err = h.coupons.ListValid(ctx)
	case r.URL.Query().Has("active"):
		coupons, err = h.coupons.ListByActive(ctx, r.URL.Query().Get("active") == "true")
	default:
		coupons, err = h.coupons.List(ctx)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, couponsToJSON(coupons))
}

// GetCoupon returns a single coupon by id.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToCouponJSON(c))
}

// GetCouponByCode returns a single coupon by its code.
func (h *Handler) GetCouponByCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToCouponJSON(c))
}

// discountResponse is the reply of the discount calculation endpoint.
type discountResponse struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	Discount    decimal.Decimal `json:"discount"`
}

// CalculateDiscount prices a coupon against the order amount given in the
// amount query parameter without consuming it.
func (h *Handler) CalculateDiscount(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	discount, err := h.coupons.CalculateDiscount(r.Context(), code, amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, discountResponse{
		Code:        code,
		OrderAmount: amount,
		Discount:    discount,
	})
}

// CreateCoupon validates and stores a new coupon.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.coupons.Create(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, domainToCouponJSON(created))
}

// UpdateCoupon revalidates and applies administrative changes.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.coupons.Update(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToCouponJSON(updated))
}

// DeleteCoupon removes a coupon.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateCoupon flips the administrative kill switch.
func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToCouponJSON(c))
}

// IncrementUsage records one redemption of the coupon. Replies 422 when the
// coupon is already exhausted.
func (h *Handler) IncrementUsage(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.IncrementUsage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, domainToCouponJSON(c))
}
