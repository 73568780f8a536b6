//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListCoupons(t *testing.T) {
	resp := doGet(t, "/api/coupons")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	coupons := decodeJSON[[]couponResponse](t, resp)
	if len(coupons) < 3 {
		t.Fatalf("expected at least 3 seeded coupons, got %d", len(coupons))
	}

	byCode := make(map[string]couponResponse, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	for _, code := range []string{"WELCOME5", "SPEND50", "HAPPY18P"} {
		if _, ok := byCode[code]; !ok {
			t.Errorf("seeded coupon %s missing from listing", code)
		}
	}
}

func TestGetCouponByCode(t *testing.T) {
	resp := doGet(t, "/api/coupons/code/WELCOME5")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	c := decodeJSON[couponResponse](t, resp)
	if c.Code != "WELCOME5" {
		t.Errorf("code: got %q, want WELCOME5", c.Code)
	}
	if c.Type != "fixed" {
		t.Errorf("type: got %q, want fixed", c.Type)
	}
	if !c.Active {
		t.Error("expected coupon to be active")
	}
}

func TestGetCouponByCode_NotFound(t *testing.T) {
	resp := doGet(t, "/api/coupons/code/DOESNOTX")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("error code: got %d, want 404", body.Code)
	}
}

func TestCalculateDiscount_Fixed(t *testing.T) {
	resp := doGet(t, "/api/coupons/code/WELCOME5/discount?amount=30.00")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	d := decodeJSON[discountResponse](t, resp)
	if d.Discount != "5" {
		t.Errorf("discount: got %q, want 5", d.Discount)
	}
}

func TestCalculateDiscount_Percentage(t *testing.T) {
	// HAPPY18P is 18%: 18% of 50.00 = 9.00.
	resp := doGet(t, "/api/coupons/code/HAPPY18P/discount?amount=50.00")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	d := decodeJSON[discountResponse](t, resp)
	if d.Discount != "9" {
		t.Errorf("discount: got %q, want 9", d.Discount)
	}
}

func TestCalculateDiscount_BelowMinimum(t *testing.T) {
	// SPEND50 requires a 50.00 order.
	resp := doGet(t, "/api/coupons/code/SPEND50/discount?amount=20.00")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCreateCoupon_RequiresAuth(t *testing.T) {
	body := map[string]any{
		"code":       "NOAUTH01",
		"type":       "fixed",
		"value":      "1",
		"maxUses":    1,
		"validFrom":  "2025-01-01T00:00:00Z",
		"validUntil": "2030-01-01T00:00:00Z",
	}

	resp := doPost(t, "/api/coupons", body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateCoupon_PercentageCap(t *testing.T) {
	body := map[string]any{
		"code":       "TOOMUCH1",
		"type":       "percentage",
		"value":      "80",
		"maxUses":    10,
		"validFrom":  "2025-01-01T00:00:00Z",
		"validUntil": "2030-01-01T00:00:00Z",
	}

	resp := doPostWithAuth(t, "/api/coupons", body, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
