package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"etalase/internal/database"
	"etalase/internal/handlers"
	"etalase/internal/middleware"
	"etalase/internal/models"
	"etalase/internal/repositories"
	"etalase/internal/services"
	"etalase/internal/session"
	"etalase/internal/storage"
	"etalase/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shirtID  = "0b4c0e1a-6a8f-4c57-9d1e-2f3a4b5c6d01"
	mugID    = "0b4c0e1a-6a8f-4c57-9d1e-2f3a4b5c6d02"
	laptopID = "0b4c0e1a-6a8f-4c57-9d1e-2f3a4b5c6d03"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	productRepo := repositories.NewGORMProductRepository(db)
	seedProductsForTest(t, productRepo)

	productService := services.NewProductService(productRepo, nil)
	checkoutService := services.NewCheckoutService(nil, nil)
	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	sessions := handlers.NewCartSessions(storage.NewGORMStorage(db), nil)

	app := fiber.New()
	storefront := app.Group("", middleware.Session(session.NewIssuer("test_session_secret", time.Hour)))
	handlers.NewPageHandler(sessions, productService, checkoutService, renderer).RegisterRoutes(storefront)

	apiV1 := storefront.Group("/api/v1")
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewCartHandler(sessions, productService).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(sessions, checkoutService).RegisterRoutes(apiV1)

	return app
}

func seedProductsForTest(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	products := []models.Product{
		{ID: shirtID, Name: "Red Shirt", Tag: "apparel", Price: 20, Image: "/img/shirt.jpg"},
		{ID: mugID, Name: "Blue Mug", Tag: "home", Price: 15, Image: "/img/mug.jpg"},
		{ID: laptopID, Name: "Laptop Pro", Tag: "electronics", Price: 1200, Image: "/img/laptop.jpg"},
	}
	for i := range products {
		require.NoError(t, repo.Create(&products[i]))
	}
}

// browser replays the session cookie across requests.
type browser struct {
	t      *testing.T
	app    *fiber.App
	cookie *http.Cookie
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app}
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			b.cookie = c
		}
	}
	return resp
}

func (b *browser) json(method, target string, body interface{}) *http.Response {
	b.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) form(target string, values url.Values) *http.Response {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) page(target string) string {
	b.t.Helper()
	resp := b.do(httptest.NewRequest(http.MethodGet, target, nil))
	defer resp.Body.Close()
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return string(body)
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestProductAPI_Filter(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	visible := func(query string) []string {
		var payload struct {
			Products []struct {
				Name    string `json:"name"`
				Visible bool   `json:"visible"`
			} `json:"products"`
			VisibleCount int `json:"visible_count"`
		}
		resp := b.json(http.MethodGet, "/api/v1/products"+query, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decode(t, resp, &payload)
		require.Len(t, payload.Products, 3, "every product stays in the grid")

		var names []string
		for _, p := range payload.Products {
			if p.Visible {
				names = append(names, p.Name)
			}
		}
		assert.Equal(t, len(names), payload.VisibleCount)
		return names
	}

	assert.Equal(t, []string{"Red Shirt", "Blue Mug", "Laptop Pro"}, visible(""))
	assert.Equal(t, []string{"Red Shirt"}, visible("?search=SHIRT"))
	assert.Equal(t, []string{"Laptop Pro"}, visible("?price=1000plus"))
	assert.Equal(t, []string{"Blue Mug"}, visible("?tag=home&price=0-100"))
	assert.Empty(t, visible("?tag=apparel&price=500-1000"))
	assert.Equal(t, []string{"Red Shirt", "Blue Mug", "Laptop Pro"}, visible("?price=bogus"))
}

func TestProductAPI_GetByID(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	var product models.Product
	resp := b.json(http.MethodGet, "/api/v1/products/"+mugID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &product)
	assert.Equal(t, "Blue Mug", product.Name)

	resp = b.json(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartAPI_AddTwiceIncrementsQuantity(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	resp := b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: shirtID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var cart handlers.CartResponse
	resp = b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: shirtID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &cart)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "Red Shirt", cart.Items[0].Name)
	assert.Equal(t, 2, cart.Count)
	assert.Equal(t, 1, cart.ItemCount)
	require.Len(t, cart.Notifications, 1)
	assert.Equal(t, services.NotifyItemAdded, cart.Notifications[0].Kind)
}

func TestCartAPI_AddRejectsUnknownAndMissingProduct(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	resp := b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: uuid.NewString()})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = b.json(http.MethodPost, "/api/v1/cart/items", map[string]string{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var cart handlers.CartResponse
	decode(t, b.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Empty(t, cart.Items)
}

func TestCartAPI_QuantityAndRemove(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: shirtID}).Body.Close()
	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: mugID}).Body.Close()

	var cart handlers.CartResponse
	resp := b.json(http.MethodPatch, "/api/v1/cart/items/"+shirtID, map[string]interface{}{"quantity": "3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &cart)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, models.Totals{Subtotal: 75, Tax: 7.5, Total: 82.5}, cart.Totals)

	resp = b.json(http.MethodPatch, "/api/v1/cart/items/"+shirtID, map[string]interface{}{})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	cart = handlers.CartResponse{}
	decode(t, b.json(http.MethodPatch, "/api/v1/cart/items/"+shirtID, map[string]interface{}{"quantity": 0}), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, mugID, cart.Items[0].ID)

	cart = handlers.CartResponse{}
	decode(t, b.json(http.MethodDelete, "/api/v1/cart/items/"+mugID, nil), &cart)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.Count)
}

func TestCartAPI_SessionsAreIsolated(t *testing.T) {
	app := setupApp(t)
	alice := newBrowser(t, app)
	bob := newBrowser(t, app)

	alice.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: mugID}).Body.Close()

	var cart handlers.CartResponse
	decode(t, bob.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Empty(t, cart.Items)

	cart = handlers.CartResponse{}
	decode(t, alice.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Len(t, cart.Items, 1)
}

func TestCheckoutAPI_EmptyCart(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	resp := b.json(http.MethodPost, "/api/v1/checkout", models.CheckoutForm{FirstName: "Ada", LastName: "Lovelace"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var payload struct {
		Notifications []services.Notification `json:"notifications"`
	}
	decode(t, resp, &payload)
	require.Len(t, payload.Notifications, 1)
	assert.Equal(t, services.NotifyCartEmpty, payload.Notifications[0].Kind)
	assert.Equal(t, "Your cart is empty. Checkout cannot proceed.", payload.Notifications[0].Message)

	var cart handlers.CartResponse
	decode(t, b.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Empty(t, cart.Items)
}

func TestCheckoutAPI_RequiresNames(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)
	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: mugID}).Body.Close()

	resp := b.json(http.MethodPost, "/api/v1/checkout", models.CheckoutForm{FirstName: "Ada"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var cart handlers.CartResponse
	decode(t, b.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Len(t, cart.Items, 1, "a refused checkout keeps the cart")
}

func TestCheckoutAPI_Success(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: shirtID}).Body.Close()
	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: shirtID}).Body.Close()
	b.json(http.MethodPost, "/api/v1/cart/items", handlers.AddItemRequest{ProductID: mugID}).Body.Close()

	resp := b.json(http.MethodPost, "/api/v1/checkout", models.CheckoutForm{FirstName: "Ada", LastName: "Lovelace"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Receipt       models.Receipt          `json:"receipt"`
		Notifications []services.Notification `json:"notifications"`
	}
	decode(t, resp, &payload)
	assert.Equal(t, "Ada Lovelace", payload.Receipt.DisplayName)
	assert.Equal(t, 0, payload.Receipt.CartCount)
	assert.Equal(t, "/", payload.Receipt.RedirectTo)
	assert.Equal(t, models.Totals{Subtotal: 55, Tax: 5.5, Total: 60.5}, payload.Receipt.Totals)
	require.Len(t, payload.Notifications, 1)
	assert.Equal(t, services.NotifyCheckoutSuccess, payload.Notifications[0].Kind)
	assert.Contains(t, payload.Notifications[0].Message, "Thank you Ada Lovelace!")
	assert.Contains(t, payload.Notifications[0].Message, "$60.50")

	var cart handlers.CartResponse
	decode(t, b.json(http.MethodGet, "/api/v1/cart", nil), &cart)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.Count)
}

func TestPages_AddToCartFlashShownOnce(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	resp := b.form("/cart/items", url.Values{
		"product_id": {mugID},
		"return_to":  {"/products?tag=home"},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products?tag=home", resp.Header.Get("Location"))

	body := b.page("/products?tag=home")
	assert.Contains(t, body, "Blue Mug has been added to your cart!")
	assert.Contains(t, body, `<span id="cart-count" class="badge">1</span>`)

	body = b.page("/cart")
	assert.NotContains(t, body, "has been added to your cart")
	assert.Contains(t, body, `<span id="total">$16.50</span>`)
}

func TestPages_AddToCartIgnoresForeignReturnPath(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	resp := b.form("/cart/items", url.Values{
		"product_id": {mugID},
		"return_to":  {"//evil.example/"},
	})
	resp.Body.Close()
	assert.Equal(t, "/products", resp.Header.Get("Location"))
}

func TestPages_QuantityFormCoercesInput(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)
	b.form("/cart/items", url.Values{"product_id": {shirtID}}).Body.Close()

	resp := b.form("/cart/items/"+shirtID+"/quantity", url.Values{"quantity": {"4"}})
	resp.Body.Close()
	assert.Equal(t, "/cart", resp.Header.Get("Location"))
	assert.Contains(t, b.page("/cart"), `<span id="subtotal">$80.00</span>`)

	b.form("/cart/items/"+shirtID+"/quantity", url.Values{"quantity": {"abc"}}).Body.Close()
	assert.Contains(t, b.page("/cart"), `<p id="cart-empty-msg">`)
}

func TestPages_CheckoutFlow(t *testing.T) {
	app := setupApp(t)
	b := newBrowser(t, app)

	// Empty cart: back to checkout with the reason.
	resp := b.form("/checkout", url.Values{"firstName": {"Ada"}, "lastName": {"Lovelace"}})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/checkout", resp.Header.Get("Location"))
	assert.Contains(t, b.page("/checkout"), "Your cart is empty. Checkout cannot proceed.")

	b.form("/cart/items", url.Values{"product_id": {laptopID}}).Body.Close()
	b.page("/cart") // consume the item added flash

	resp = b.form("/checkout", url.Values{"firstName": {"Ada"}, "lastName": {"Lovelace"}})
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	home := b.page("/")
	assert.Contains(t, home, "Thank you Ada Lovelace! Your order totaling $1320.00 has been placed successfully.")
	assert.Contains(t, home, `<span id="cart-count" class="badge" hidden>0</span>`)
}
