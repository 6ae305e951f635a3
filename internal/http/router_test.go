package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/storage/memory"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

type testApp struct {
	router   http.Handler
	tokens   *auth.TokenCodec
	accounts *user.Accounts
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logging.Discard()

	users := memory.NewUserStore()
	tokens := auth.NewTokenCodec([]byte("test-secret"), time.Hour)
	dir := user.NewDirectory(users)

	products := catalog.NewService(memory.NewProductStore(), log)
	carts := cart.NewService(memory.NewCartStore(), products, log, cart.WithOwnerDirectory(dir))
	accounts := user.NewAccounts(users, tokens, carts, log)

	router := NewRouter(Deps{
		Log:      log,
		Cfg:      config.Config{CORSAllowOrigins: []string{"*"}, RequestTimeout: 5 * time.Second},
		Metrics:  metrics.New(),
		Resolver: auth.NewResolver(tokens, dir),
		Limiter:  middleware.NewRateLimiter(1000, 1000, log),
		Accounts: accounts,
		Products: products,
		Carts:    carts,
	})
	return &testApp{router: router, tokens: tokens, accounts: accounts}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// register creates an account through the API and returns its token and id.
func (a *testApp) register(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	claims, err := a.tokens.Decode(resp.Token)
	require.NoError(t, err)
	return resp.Token, claims.Subject
}

func (a *testApp) registerAdmin(t *testing.T) (string, string) {
	t.Helper()
	token, id := a.register(t, "Admin", "admin@example.com")
	require.NoError(t, a.accounts.Promote(context.Background(), id))
	return token, id
}

func (a *testApp) createProduct(t *testing.T, adminToken, name string) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/products", adminToken, map[string]any{
		"productName":   name,
		"description":   "A " + name,
		"supplier":      map[string]string{"name": "Acme", "code": "ACME-1"},
		"supplierPrice": 9.5,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p.ID
}

type cartBody struct {
	CartID     string      `json:"cartId"`
	UserID     string      `json:"userId"`
	Items      []cart.Item `json:"items"`
	TotalItems int         `json:"totalItems"`
}

func decodeCart(t *testing.T, rr *httptest.ResponseRecorder) cartBody {
	t.Helper()
	var c cartBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c), rr.Body.String())
	return c
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHealthRoute(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "shop-service", body["service"])
}

func TestCart_AddMergesQuantities(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	productID := app.createProduct(t, adminToken, "Widget")
	userToken, userID := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodPost, "/api/cart", userToken, map[string]any{"productGUID": productID, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = app.do(t, http.MethodPost, "/api/cart", userToken, map[string]any{"productGUID": productID, "quantity": 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	c := decodeCart(t, rr)
	require.Equal(t, userID, c.UserID)
	require.Len(t, c.Items, 1)
	require.Equal(t, 5, c.Items[0].Quantity)
	require.Equal(t, "Widget", c.Items[0].ProductName)
	require.Equal(t, 5, c.TotalItems)

	rr = app.do(t, http.MethodPut, "/api/cart/items/"+productID, userToken, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	c = decodeCart(t, rr)
	require.Empty(t, c.Items)
	require.Equal(t, 0, c.TotalItems)

	rr = app.do(t, http.MethodDelete, "/api/cart/items/"+productID, userToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "item not found in cart", decodeError(t, rr)["message"])
}

func TestCart_GetCreatesOwnCartLazily(t *testing.T) {
	app := newTestApp(t)
	token, id := app.register(t, "Alice", "alice@example.com")

	first := decodeCart(t, app.do(t, http.MethodGet, "/api/cart", token, nil))
	second := decodeCart(t, app.do(t, http.MethodGet, "/api/cart", token, nil))

	require.Equal(t, id, first.UserID)
	require.Equal(t, first.CartID, second.CartID)
	require.Empty(t, first.Items)
}

func TestCart_AdminReadOfNeverCreatedCart(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	_, userID := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodGet, "/api/cart/user/"+userID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "cart not found", decodeError(t, rr)["message"])
}

func TestCart_AdminAddsToAnotherUsersCart(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	productID := app.createProduct(t, adminToken, "Widget")
	userToken, userID := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodPost, "/api/cart/user/"+userID, adminToken, map[string]any{"productGUID": productID, "quantity": 4})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, userID, decodeCart(t, rr).UserID)

	own := decodeCart(t, app.do(t, http.MethodGet, "/api/cart", userToken, nil))
	require.Equal(t, 4, own.TotalItems)

	rr = app.do(t, http.MethodPost, "/api/cart/user/nobody", adminToken, map[string]any{"productGUID": productID, "quantity": 1})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/cart/all", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all []cartBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 1)
}

func TestCart_UserCannotTouchOtherCarts(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := app.register(t, "Alice", "alice@example.com")
	_, bobID := app.register(t, "Bob", "bob@example.com")

	rr := app.do(t, http.MethodGet, "/api/cart/user/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "not authorized to access/modify this cart", decodeError(t, rr)["message"])

	rr = app.do(t, http.MethodPost, "/api/cart/user/"+bobID, aliceToken, map[string]any{
		"productGUID": "6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f", "quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = app.do(t, http.MethodGet, "/api/cart/all", aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCart_ClearWithoutCart(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodDelete, "/api/cart", token, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "cart not found", decodeError(t, rr)["message"])
}

func TestCart_UnknownProduct(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodPost, "/api/cart", token, map[string]any{
		"productGUID": "6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f", "quantity": 1,
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "product not found", decodeError(t, rr)["message"])
}

func TestCart_Validation(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "Alice", "alice@example.com")

	cases := []struct {
		name    string
		method  string
		path    string
		body    any
		wantMsg string
	}{
		{name: "zero add", method: http.MethodPost, path: "/api/cart", body: map[string]any{"productGUID": "6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f", "quantity": 0}, wantMsg: "Quantity must be between 1 and 100"},
		{name: "missing quantity", method: http.MethodPost, path: "/api/cart", body: map[string]any{"productGUID": "6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f"}, wantMsg: "Quantity is required"},
		{name: "bad guid", method: http.MethodPost, path: "/api/cart", body: map[string]any{"productGUID": "nope", "quantity": 1}, wantMsg: "Invalid product GUID format"},
		{name: "negative update", method: http.MethodPut, path: "/api/cart/items/6f1c2d3e-4a5b-4c6d-8e7f-0a1b2c3d4e5f", body: map[string]any{"quantity": -1}, wantMsg: "Quantity cannot be negative"},
		{name: "bad path guid", method: http.MethodDelete, path: "/api/cart/items/nope", wantMsg: "Invalid product GUID format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := app.do(t, tc.method, tc.path, token, tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			body := decodeError(t, rr)
			require.Equal(t, "Validation error", body["message"])
			require.Contains(t, body["errors"], tc.wantMsg)
		})
	}
}

func TestAuth_Rejections(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeError(t, rr)
	require.Equal(t, "Not authorized to access this route", body["message"])
	require.Equal(t, auth.ReasonNoToken, body["error"])

	rr = app.do(t, http.MethodGet, "/api/cart", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, auth.ReasonInvalidToken, decodeError(t, rr)["error"])
}

func TestAuth_DeletedUserTokenRejected(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	userToken, userID := app.register(t, "Alice", "alice@example.com")

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/cart", userToken, nil).Code)

	rr := app.do(t, http.MethodDelete, "/api/users/"+userID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = app.do(t, http.MethodGet, "/api/cart", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, auth.ReasonUserGone, decodeError(t, rr)["error"])
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "ALICE@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "Duplicate email value entered", decodeError(t, rr)["message"])

	rr = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong1"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = app.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "B", "email": "bad", "password": "abcdef"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	errs := decodeError(t, rr)["errors"]
	require.Contains(t, errs, "Name must be between 2 and 50 characters")
	require.Contains(t, errs, "Please provide a valid email")
	require.Contains(t, errs, "Password must contain at least one number")
}

func TestUsers_AccessRules(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	aliceToken, aliceID := app.register(t, "Alice", "alice@example.com")
	_, bobID := app.register(t, "Bob", "bob@example.com")

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/users/"+aliceID, aliceToken, nil).Code)
	require.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/api/users/"+bobID, aliceToken, nil).Code)
	require.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/api/users", aliceToken, nil).Code)
	require.Equal(t, http.StatusForbidden, app.do(t, http.MethodDelete, "/api/users/"+bobID, aliceToken, nil).Code)

	rr := app.do(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 3)
	require.NotContains(t, rr.Body.String(), "password")

	rr = app.do(t, http.MethodPut, "/api/users/"+aliceID, aliceToken, map[string]string{"name": "Alicia"})
	require.Equal(t, http.StatusOK, rr.Code)
	var updated user.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.Equal(t, "Alicia", updated.Name)
	require.Equal(t, "alice@example.com", updated.Email)

	require.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/users/missing", adminToken, nil).Code)
}

func TestProducts_WritesRequireAdmin(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.registerAdmin(t)
	userToken, _ := app.register(t, "Alice", "alice@example.com")

	rr := app.do(t, http.MethodPost, "/api/products", userToken, map[string]any{})
	require.Equal(t, http.StatusForbidden, rr.Code)

	id := app.createProduct(t, adminToken, "Widget")

	rr = app.do(t, http.MethodPut, "/api/products/"+id, adminToken, map[string]any{"supplierPrice": 12.25})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var p catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	require.Equal(t, "Widget", p.Name)
	require.Equal(t, 12.25, p.SupplierPrice)

	rr = app.do(t, http.MethodPut, "/api/products/"+id, adminToken, map[string]any{"supplier": map[string]string{"code": "bad code!"}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, decodeError(t, rr)["errors"], "Supplier code can only contain letters, numbers, and hyphens")

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/products/"+id, userToken, nil).Code)
	require.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, "/api/products/"+id, adminToken, nil).Code)
	require.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/products/"+id, userToken, nil).Code)
	require.Equal(t, http.StatusBadRequest, app.do(t, http.MethodGet, "/api/products/not-a-guid", userToken, nil).Code)
}

func TestMetricsRoute(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.register(t, "Alice", "alice@example.com")
	app.do(t, http.MethodDelete, "/api/cart", token, nil)

	rr := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), `shop_cart_mutations_total{action="clear",outcome="error"} 1`))
}

func TestCorrelationIDOnErrors(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "cid-42")
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)

	require.Equal(t, "cid-42", rr.Header().Get(middleware.HeaderCorrelationID))
	require.Equal(t, "cid-42", decodeError(t, rr)["correlationId"])
}
