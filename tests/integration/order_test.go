//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

const testAPIKey = "integration-test-key"

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doPost(t, "/api/orders", orderRequest{
		Name:       "weekly shop",
		Amount:     "20.00",
		CustomerID: "cust-1",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "weekly shop",
		Amount:     "20.00",
		CustomerID: "cust-1",
	}, "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_ZeroAmount(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "empty cart",
		Amount:     "0",
		CustomerID: "cust-1",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "weekly shop",
		Amount:     "25.50",
		CustomerID: "cust-1",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if !uuidPattern.MatchString(o.ID) {
		t.Errorf("order id %q is not a UUID", o.ID)
	}
	if o.FinalAmount != "25.5" {
		t.Errorf("final amount: got %q, want 25.5", o.FinalAmount)
	}
	if o.Status != "created" {
		t.Errorf("status: got %q, want created", o.Status)
	}
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "discounted shop",
		Amount:     "30.00",
		CustomerID: "cust-2",
		CouponCode: "WELCOME5",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	o := decodeJSON[orderResponse](t, resp)
	if o.OriginalAmount != "30" {
		t.Errorf("original amount: got %q, want 30", o.OriginalAmount)
	}
	if o.FinalAmount != "25" {
		t.Errorf("final amount: got %q, want 25", o.FinalAmount)
	}
	if o.CouponCode != "WELCOME5" {
		t.Errorf("coupon code: got %q, want WELCOME5", o.CouponCode)
	}

	// The redemption must be recorded on the coupon.
	cresp := doGet(t, "/api/coupons/code/WELCOME5")
	defer cresp.Body.Close()
	c := decodeJSON[couponResponse](t, cresp)
	if c.UsedCount < 1 {
		t.Errorf("used count: got %d, want >= 1", c.UsedCount)
	}
}

func TestPlaceOrder_UnknownCoupon(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "hopeful shop",
		Amount:     "30.00",
		CustomerID: "cust-3",
		CouponCode: "NOSUCHCD",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_BelowCouponMinimum(t *testing.T) {
	resp := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "small shop",
		Amount:     "10.00",
		CustomerID: "cust-4",
		CouponCode: "SPEND50",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/00000000-0000-0000-0000-000000000000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListOrders_ByCustomer(t *testing.T) {
	place := doPostWithAuth(t, "/api/orders", orderRequest{
		Name:       "filter target",
		Amount:     "12.00",
		CustomerID: "cust-filter",
	}, testAPIKey)
	place.Body.Close()

	resp := doGet(t, "/api/orders?customerId=cust-filter")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	orders := decodeJSON[[]orderResponse](t, resp)
	if len(orders) == 0 {
		t.Fatal("expected at least one order for cust-filter")
	}
	for _, o := range orders {
		if o.CustomerID != "cust-filter" {
			t.Errorf("unexpected customer %q in filtered listing", o.CustomerID)
		}
	}
}
