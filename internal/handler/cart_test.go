package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/handler"
	"github.com/bunnybingsu/api/internal/middleware"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const device = "device-1"

func seedShopMenu(t *testing.T, env *testEnv) (bingsu, fries string) {
	t.Helper()
	bingsu = env.seedMenuItem(t, model.MenuItem{
		Name:      "Strawberry Bingsu",
		Price:     decimal.NewFromInt(100),
		Available: true,
		Sauces:    []string{"condensed milk", "strawberry"},
	})
	fries = env.seedMenuItem(t, model.MenuItem{
		Name:      "Cheese Fries",
		Price:     decimal.NewFromInt(59),
		Mode:      enum.ModeFries,
		Available: true,
		Cheeses:   []model.PricedOption{{Name: "cheddar", Price: decimal.NewFromInt(15)}},
	})
	return bingsu, fries
}

func addItem(menuItemID string, qty int, sel model.Selection) map[string]interface{} {
	return map[string]interface{}{"menu_item_id": menuItemID, "quantity": qty, "selection": sel}
}

func TestCart_AddAndGet(t *testing.T) {
	env := newTestEnv(t)
	bingsu, fries := seedShopMenu(t, env)

	rr := do(t, env.router, "POST", "/cart/items", addItem(bingsu, 2, model.Selection{Sauces: []string{"strawberry"}}), device)
	expectStatus(t, rr, http.StatusCreated)
	if got := rr.Header().Get(middleware.DeviceHeader); got != device {
		t.Errorf("expected device header echoed, got %q", got)
	}

	rr = do(t, env.router, "POST", "/cart/items", addItem(fries, 1, model.Selection{Cheeses: []string{"cheddar"}}), device)
	expectStatus(t, rr, http.StatusCreated)

	rr = do(t, env.router, "GET", "/cart", nil, device)
	expectStatus(t, rr, http.StatusOK)
	cart := decodeResponse(t, rr)
	if cart["total"] != "274.00" {
		t.Errorf("expected total 274.00, got %v", cart["total"])
	}
	items := cart["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["line_total"] != "200.00" || first["unit_price"] != "100.00" {
		t.Errorf("unexpected first line: %v", first)
	}
	second := items[1].(map[string]interface{})
	if second["unit_price"] != "74.00" {
		t.Errorf("expected fries unit price 74.00, got %v", second["unit_price"])
	}

	// Another device has its own cart.
	rr = do(t, env.router, "GET", "/cart", nil, "device-2")
	expectStatus(t, rr, http.StatusOK)
	if other := decodeResponse(t, rr); other["total"] != "0.00" {
		t.Errorf("expected empty cart for other device, got %v", other["total"])
	}
}

func TestCart_AddItemErrors(t *testing.T) {
	env := newTestEnv(t)
	bingsu, fries := seedShopMenu(t, env)
	soldOut := env.seedMenuItem(t, model.MenuItem{Name: "Cake", Price: decimal.NewFromInt(70), Mode: enum.ModeCake})

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"unknown sauce", addItem(bingsu, 1, model.Selection{Sauces: []string{"ketchup"}}), http.StatusBadRequest},
		{"missing cheese", addItem(fries, 1, model.Selection{}), http.StatusBadRequest},
		{"negative quantity", addItem(bingsu, -1, model.Selection{Sauces: []string{"strawberry"}}), http.StatusBadRequest},
		{"unknown item", addItem("missing", 1, model.Selection{}), http.StatusNotFound},
		{"unavailable item", addItem(soldOut, 1, model.Selection{}), http.StatusConflict},
		{"missing item id", map[string]interface{}{"quantity": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, env.router, "POST", "/cart/items", tt.body, device)
			expectStatus(t, rr, tt.want)
		})
	}

	rr := do(t, env.router, "GET", "/cart", nil, device)
	if cart := decodeResponse(t, rr); len(cart["items"].([]interface{})) != 0 {
		t.Errorf("rejected items must not reach the cart: %v", cart["items"])
	}
}

func TestCart_QuantityAndRemove(t *testing.T) {
	env := newTestEnv(t)
	bingsu, fries := seedShopMenu(t, env)
	do(t, env.router, "POST", "/cart/items", addItem(bingsu, 1, model.Selection{Sauces: []string{"strawberry"}}), device)
	do(t, env.router, "POST", "/cart/items", addItem(fries, 1, model.Selection{Cheeses: []string{"cheddar"}}), device)

	rr := do(t, env.router, "PATCH", "/cart/items/0", map[string]int{"quantity": 3}, device)
	expectStatus(t, rr, http.StatusOK)
	if cart := decodeResponse(t, rr); cart["total"] != "374.00" {
		t.Errorf("expected total 374.00, got %v", cart["total"])
	}

	rr = do(t, env.router, "PATCH", "/cart/items/0", map[string]int{"quantity": 0}, device)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = do(t, env.router, "DELETE", "/cart/items/5", nil, device)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = do(t, env.router, "DELETE", "/cart/items/abc", nil, device)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = do(t, env.router, "DELETE", "/cart/items/0", nil, device)
	expectStatus(t, rr, http.StatusOK)
	cart := decodeResponse(t, rr)
	items := cart["items"].([]interface{})
	if len(items) != 1 || items[0].(map[string]interface{})["name"] != "Cheese Fries" {
		t.Errorf("unexpected items after remove: %v", items)
	}

	rr = do(t, env.router, "DELETE", "/cart", nil, device)
	expectStatus(t, rr, http.StatusNoContent)
	rr = do(t, env.router, "GET", "/cart", nil, device)
	if cart := decodeResponse(t, rr); cart["total"] != "0.00" {
		t.Errorf("expected empty cart, got %v", cart["total"])
	}
}

func TestCheckout_Flow(t *testing.T) {
	env := newTestEnv(t)
	bingsu, _ := seedShopMenu(t, env)

	rr := do(t, env.router, "POST", "/checkout", nil, device)
	expectStatus(t, rr, http.StatusBadRequest) // no table yet

	rr = do(t, env.router, "PUT", "/cart/table", map[string]string{"table": " 7 "}, device)
	expectStatus(t, rr, http.StatusOK)
	if cart := decodeResponse(t, rr); cart["table"] != "7" {
		t.Errorf("expected table 7, got %v", cart["table"])
	}

	rr = do(t, env.router, "POST", "/checkout", nil, device)
	expectStatus(t, rr, http.StatusBadRequest) // empty cart

	do(t, env.router, "POST", "/cart/items", addItem(bingsu, 2, model.Selection{Sauces: []string{"condensed milk"}}), device)

	rr = do(t, env.router, "POST", "/checkout", nil, device)
	expectStatus(t, rr, http.StatusCreated)
	order := decodeResponse(t, rr)
	if order["table"] != "7" || order["status"] != enum.OrderStatusPending {
		t.Errorf("unexpected order: %v", order)
	}
	if order["total"] != "200.00" {
		t.Errorf("expected total 200.00, got %v", order["total"])
	}
	if order["served"] != false || order["paid"] != false {
		t.Errorf("new order must be unserved and unpaid: %v", order)
	}

	rr = do(t, env.router, "GET", "/cart", nil, device)
	cart := decodeResponse(t, rr)
	if len(cart["items"].([]interface{})) != 0 {
		t.Errorf("expected cart cleared after checkout")
	}
	if cart["table"] != "7" {
		t.Errorf("expected table remembered, got %v", cart["table"])
	}

	rr = do(t, env.router, "GET", "/my-orders", nil, device)
	expectStatus(t, rr, http.StatusOK)
	if mine := decodeList(t, rr); len(mine) != 1 || mine[0]["id"] != order["id"] {
		t.Errorf("unexpected my-orders: %v", mine)
	}

	rr = do(t, env.router, "GET", "/my-orders", nil, "device-2")
	expectStatus(t, rr, http.StatusOK)
	if theirs := decodeList(t, rr); len(theirs) != 0 {
		t.Errorf("expected no orders for another device, got %d", len(theirs))
	}
}

func TestCheckout_TableInBodyWins(t *testing.T) {
	env := newTestEnv(t)
	bingsu, _ := seedShopMenu(t, env)
	do(t, env.router, "PUT", "/cart/table", map[string]string{"table": "3"}, device)
	do(t, env.router, "POST", "/cart/items", addItem(bingsu, 1, model.Selection{Sauces: []string{"strawberry"}}), device)

	rr := do(t, env.router, "POST", "/checkout", map[string]string{"table": "9"}, device)
	expectStatus(t, rr, http.StatusCreated)
	if order := decodeResponse(t, rr); order["table"] != "9" {
		t.Errorf("expected table 9, got %v", order["table"])
	}
}

func TestCart_TableFromQuery(t *testing.T) {
	env := newTestEnv(t)

	rr := do(t, env.router, "GET", "/cart?table=12", nil, device)
	expectStatus(t, rr, http.StatusOK)
	if cart := decodeResponse(t, rr); cart["table"] != "12" {
		t.Errorf("expected table 12 from query, got %v", cart["table"])
	}
}

func TestCart_MissingDevice(t *testing.T) {
	env := newTestEnv(t)

	// Without the device middleware there is no customer key.
	r := chi.NewRouter()
	handler.NewCartHandler(env.carts, env.orders, zap.NewNop()).RegisterRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/cart", nil))
	expectStatus(t, rr, http.StatusBadRequest)
}
