package handler_test

import (
	"net/http"
	"testing"

	"github.com/bunnybingsu/api/internal/enum"
	"github.com/bunnybingsu/api/internal/model"
	"github.com/shopspring/decimal"
)

func TestMenu_CreateGetList(t *testing.T) {
	env := newTestEnv(t)

	rr := do(t, env.router, "POST", "/admin/menu", map[string]interface{}{
		"name":    "Cheese Fries",
		"price":   "59.5",
		"mode":    enum.ModeFries,
		"cheeses": []map[string]string{{"name": "cheddar", "price": "15"}},
	}, "")
	expectStatus(t, rr, http.StatusCreated)
	created := decodeResponse(t, rr)
	if created["price"] != "59.50" {
		t.Errorf("expected price 59.50, got %v", created["price"])
	}
	if created["available"] != true {
		t.Errorf("expected new item to be available")
	}
	cheeses, _ := created["cheeses"].([]interface{})
	if len(cheeses) != 1 || cheeses[0].(map[string]interface{})["price"] != "15.00" {
		t.Errorf("unexpected cheeses: %v", created["cheeses"])
	}
	if sauces, ok := created["sauces"].([]interface{}); !ok || len(sauces) != 0 {
		t.Errorf("expected empty sauces list, got %v", created["sauces"])
	}

	id := created["id"].(string)
	rr = do(t, env.router, "GET", "/menu/"+id, nil, "")
	expectStatus(t, rr, http.StatusOK)
	if got := decodeResponse(t, rr); got["name"] != "Cheese Fries" {
		t.Errorf("unexpected item: %v", got)
	}

	rr = do(t, env.router, "GET", "/menu", nil, "")
	expectStatus(t, rr, http.StatusOK)
	if items := decodeList(t, rr); len(items) != 1 {
		t.Errorf("expected 1 menu item, got %d", len(items))
	}
}

func TestMenu_GetNotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := do(t, env.router, "GET", "/menu/missing", nil, "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestMenu_Rules(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedMenuItem(t, model.MenuItem{
		Name:      "Twister",
		Price:     decimal.NewFromInt(89),
		Mode:      enum.ModeTwister,
		Available: true,
	})

	rr := do(t, env.router, "GET", "/menu/"+id+"/rules", nil, "")
	expectStatus(t, rr, http.StatusOK)
	rules := decodeResponse(t, rr)
	if rules["mode"] != enum.ModeTwister {
		t.Errorf("expected mode twister, got %v", rules["mode"])
	}
	sauce := rules["sauce"].(map[string]interface{})
	if sauce["arity"] != "multi" || sauce["max"] != float64(2) || sauce["required"] != true {
		t.Errorf("unexpected sauce picker: %v", sauce)
	}
	topping := rules["topping"].(map[string]interface{})
	if topping["max"] != float64(3) {
		t.Errorf("expected topping max 3, got %v", topping["max"])
	}
	cheese := rules["cheese"].(map[string]interface{})
	if cheese["arity"] != "none" {
		t.Errorf("expected cheese hidden, got %v", cheese["arity"])
	}
}

func TestMenu_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"price": "10"}},
		{"bad price", map[string]interface{}{"name": "x", "price": "ten"}},
		{"negative price", map[string]interface{}{"name": "x", "price": "-1"}},
		{"unknown mode", map[string]interface{}{"name": "x", "price": "1", "mode": "pizza"}},
		{"bad extra price", map[string]interface{}{
			"name":   "x",
			"extras": []map[string]string{{"name": "boba", "price": "abc"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, env.router, "POST", "/admin/menu", tt.body, "")
			expectStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestMenu_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedMenuItem(t, model.MenuItem{Name: "Soda", Price: decimal.NewFromInt(25), Mode: enum.ModeSoda, Available: true})

	rr := do(t, env.router, "PUT", "/admin/menu/"+id, map[string]interface{}{
		"name":      "Soda",
		"price":     "30",
		"mode":      enum.ModeSoda,
		"available": false,
	}, "")
	expectStatus(t, rr, http.StatusOK)
	updated := decodeResponse(t, rr)
	if updated["price"] != "30.00" || updated["available"] != false {
		t.Errorf("unexpected update result: %v", updated)
	}

	rr = do(t, env.router, "PUT", "/admin/menu/missing", map[string]interface{}{"name": "x"}, "")
	expectStatus(t, rr, http.StatusNotFound)

	rr = do(t, env.router, "DELETE", "/admin/menu/"+id, nil, "")
	expectStatus(t, rr, http.StatusNoContent)

	rr = do(t, env.router, "GET", "/menu/"+id, nil, "")
	expectStatus(t, rr, http.StatusNotFound)
}
