package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace/internal/notify"
	"marketplace/internal/service"
	"marketplace/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() {
	gin.SetMode(gin.TestMode)
}

// mapCache is an in-memory utils.Cache
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type sentMail struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (s *sentMail) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	cache  *mapCache
	mail   *sentMail
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := store.NewMemoryStore()
	accounts := service.NewAccounts(s, bcrypt.MinCost)
	require.NoError(t, accounts.EnsureAdmin(context.Background(), "admin", "admin"))
	ts := &testServer{store: s, cache: newMapCache(), mail: &sentMail{}}
	ts.router = NewRouter(Deps{
		Accounts:         accounts,
		Catalog:          service.NewCatalog(s),
		Orders:           service.NewOrders(s, ts.mail, "ops@example.com", time.Second),
		Health:           s,
		Cache:            ts.cache,
		JWTSecret:        testSecret,
		MaxImageBytes:    1 << 20,
		ProductsCacheTTL: time.Minute,
	})
	return ts
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
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
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, role, username, password string) string {
	t.Helper()
	w := ts.doJSON(t, http.MethodPost, "/login", "", gin.H{"role": role, "username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (ts *testServer) addProduct(t *testing.T, token string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "tomato.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func tomato(price, available string) map[string]string {
	return map[string]string{
		"name":            "Tomato",
		"price":           price,
		"available":       available,
		"quality":         "A",
		"date_of_produce": "2024-05-01",
		"shelf_life_days": "7",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/users", "", gin.H{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = ts.doJSON(t, http.MethodPost, "/users", "", gin.H{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")

	assert.NotEmpty(t, ts.login(t, "User", "alice", "pw1"))

	w = ts.doJSON(t, http.MethodPost, "/login", "", gin.H{"role": "User", "username": "alice", "password": "pw2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect password")

	w = ts.doJSON(t, http.MethodPost, "/login", "", gin.H{"role": "Admin", "username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")

	w = ts.doJSON(t, http.MethodPost, "/login", "", gin.H{"role": "Seller", "username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.doJSON(t, http.MethodPost, "/users", "", gin.H{"username": "bob", "password": "pw"})
	userToken := ts.login(t, "User", "bob", "pw")

	w := ts.addProduct(t, userToken, tomato("1.50", "100"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.doJSON(t, http.MethodGet, "/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	adminToken := ts.login(t, "Admin", "admin", "admin")
	w = ts.doJSON(t, http.MethodPost, "/admin/users", adminToken, gin.H{"username": "carol", "password": "pw"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, ts.login(t, "Admin", "carol", "pw"))
}

func TestAddProductReplacesByName(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "Admin", "admin", "admin")

	w := ts.addProduct(t, token, tomato("1.50", "100"), pngHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Product added successfully!")

	// Listing is cached after the first read
	w = ts.doJSON(t, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cached":false`)
	w = ts.doJSON(t, http.MethodGet, "/products", "", nil)
	assert.Contains(t, w.Body.String(), `"cached":true`)

	w = ts.addProduct(t, token, tomato("2.00", "50"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Product updated successfully!")

	w = ts.doJSON(t, http.MethodGet, "/products", "", nil)
	var resp struct {
		Products []ProductResponse `json:"products"`
		Cached   bool              `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	require.Len(t, resp.Products, 1)
	p := resp.Products[0]
	assert.Equal(t, "Tomato", p.ProductName)
	assert.Equal(t, "2", p.Price.String())
	assert.Equal(t, 50, p.AvailableQuantity)
	assert.Equal(t, "2024-05-01", p.DateOfProduce)
	assert.Equal(t, "2024-05-08", p.ExpiresOn)
	assert.Empty(t, p.ImageURL)
}

func TestProductImage(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "Admin", "admin", "admin")
	require.Equal(t, http.StatusCreated, ts.addProduct(t, token, tomato("1.50", "100"), pngHeader).Code)

	w := ts.doJSON(t, http.MethodGet, "/products/Tomato/image", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = ts.doJSON(t, http.MethodGet, "/products/Potato/image", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddProductRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "Admin", "admin", "admin")

	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{"negative price", tomato("-1", "10"), nil},
		{"bad price", tomato("cheap", "10"), nil},
		{"negative quantity", tomato("1", "-3"), nil},
		{"missing name", map[string]string{"price": "1"}, nil},
		{"not an image", tomato("1", "10"), []byte("plain text")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.addProduct(t, token, tt.fields, tt.image)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestPlaceOrderFlow(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(t, "Admin", "admin", "admin")
	require.Equal(t, http.StatusCreated, ts.addProduct(t, adminToken, tomato("1.50", "100"), nil).Code)
	ts.doJSON(t, http.MethodPost, "/users", "", gin.H{"username": "alice", "password": "pw1"})
	token := ts.login(t, "User", "alice", "pw1")

	order := gin.H{"product_name": "Tomato", "quantity": 3, "mobile": "0700", "address": "1 Farm Rd", "email": "alice@example.com"}
	w := ts.doJSON(t, http.MethodPost, "/orders", "", order)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.doJSON(t, http.MethodPost, "/orders", token, order)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var conf service.Confirmation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))
	assert.Equal(t, "You have ordered 3 of Tomato.", conf.Message)
	assert.Equal(t, "alice", conf.Order.Username)
	assert.Empty(t, conf.Warnings)

	recipients := make([]string, 0, 2)
	for _, m := range ts.mail.msgs {
		recipients = append(recipients, m.To)
	}
	assert.ElementsMatch(t, []string{"ops@example.com", "alice@example.com"}, recipients)

	missing := gin.H{"product_name": "Potato", "quantity": 1, "mobile": "0700", "address": "1 Farm Rd", "email": "alice@example.com"}
	w = ts.doJSON(t, http.MethodPost, "/orders", token, missing)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.doJSON(t, http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), `"product_name":"Tomato"`))

	// Orders never touch stock
	products, err := ts.store.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, products[0].AvailableQuantity)
}

func TestAdminOrderListingAndStatus(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(t, "Admin", "admin", "admin")
	require.Equal(t, http.StatusCreated, ts.addProduct(t, adminToken, tomato("1.50", "100"), nil).Code)
	ts.doJSON(t, http.MethodPost, "/users", "", gin.H{"username": "alice", "password": "pw1"})
	token := ts.login(t, "User", "alice", "pw1")
	order := gin.H{"product_name": "Tomato", "quantity": 1, "mobile": "0700", "address": "1 Farm Rd", "email": "alice@example.com"}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, ts.doJSON(t, http.MethodPost, "/orders", token, order).Code)
	}

	w := ts.doJSON(t, http.MethodGet, "/admin/orders?page=2&page_size=2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Orders     []json.RawMessage `json:"orders"`
		Total      int               `json:"total"`
		TotalPages int               `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	w = ts.doJSON(t, http.MethodPatch, "/admin/orders/1/status", adminToken, gin.H{"status": "shipped"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.doJSON(t, http.MethodPatch, "/admin/orders/1/status", adminToken, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	w = ts.doJSON(t, http.MethodPatch, "/admin/orders/1/status", adminToken, gin.H{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.doJSON(t, http.MethodPatch, "/admin/orders/99/status", adminToken, gin.H{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	w := ts.doJSON(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = ts.doJSON(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace_http_requests_total")
}

func TestProductImageNameWithSlash(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "Admin", "admin", "admin")
	fields := tomato("3.20", "12")
	fields["name"] = "Apples 1/2 kg"
	require.Equal(t, http.StatusCreated, ts.addProduct(t, token, fields, pngHeader).Code)

	w := ts.doJSON(t, http.MethodGet, "/products", "", nil)
	var resp struct {
		Products []ProductResponse `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	imageURL := resp.Products[0].ImageURL
	assert.Equal(t, "/products/Apples%201%2F2%20kg/image", imageURL)

	w = ts.doJSON(t, http.MethodGet, imageURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, pngHeader, w.Body.Bytes())
}

func TestAdminCannotPlaceOrders(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.login(t, "Admin", "admin", "admin")
	require.Equal(t, http.StatusCreated, ts.addProduct(t, adminToken, tomato("1.50", "100"), nil).Code)

	order := gin.H{"product_name": "Tomato", "quantity": 1, "mobile": "0700", "address": "1 Farm Rd", "email": "admin@example.com"}
	w := ts.doJSON(t, http.MethodPost, "/orders", adminToken, order)
	assert.Equal(t, http.StatusForbidden, w.Code)

	orders, err := ts.store.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}
