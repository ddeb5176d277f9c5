package routes

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/ebookshop-backend/internal/admin"
	"github.com/angelmondragon/ebookshop-backend/internal/cart"
	"github.com/angelmondragon/ebookshop-backend/internal/catalog"
	"github.com/angelmondragon/ebookshop-backend/internal/checkout"
	"github.com/angelmondragon/ebookshop-backend/internal/fulfillment"
	"github.com/angelmondragon/ebookshop-backend/pkg/auth/session"
	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	"github.com/angelmondragon/ebookshop-backend/pkg/logger"
	"github.com/angelmondragon/ebookshop-backend/pkg/metrics"
	"github.com/angelmondragon/ebookshop-backend/pkg/migrate"
	redisclient "github.com/angelmondragon/ebookshop-backend/pkg/redis"
)

const (
	bookReader = "6f1d7a2e-0c1b-4d5e-9a61-3b1f2d4c5e01"
	bookContes = "6f1d7a2e-0c1b-4d5e-9a61-3b1f2d4c5e02"
)

type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

type testServer struct {
	handler http.Handler
	redis   *miniredis.Miniredis
}

func newTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "ebookshop", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60},
		Password: config.PasswordConfig{
			ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
		AuthRateLimit: config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 50, LoginEmailLimit: 3},
		Cart:          config.CartConfig{TTL: time.Hour, CookieName: "ebk_cart"},
		Shop:          config.ShopConfig{Name: "Test Books", Currency: "USD", CurrencySymbol: "$", SupportContact: "help@example.com"},
		CORS:          config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := newTestConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: "debug", Output: io.Discard})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = migrate.Up(context.Background(), sqlDB, migrate.DialectFor("sqlite"))
	require.NoError(t, err)

	srv := miniredis.RunT(t)
	redisClient := redisclient.NewFromClient(redislib.NewClient(&redislib.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = redisClient.Close() })

	reg := prometheus.NewRegistry()
	cartMetrics := metrics.NewCartMetrics(reg)

	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	cartRepo, err := cart.NewRedisRepository(redisClient, cfg.Cart.TTL)
	require.NoError(t, err)
	cartService, err := cart.NewService(cartRepo, catalogService, cartMetrics, logg)
	require.NoError(t, err)
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:    cartService,
		Notifier: fulfillment.NewNoop(logg),
		Sales:    catalogService,
		Metrics:  cartMetrics,
		Logger:   logg,
		Shop:     cfg.Shop,
	})
	require.NoError(t, err)
	sessions, err := session.NewManager(redisClient, cfg.JWT)
	require.NoError(t, err)
	adminService, err := admin.NewService(admin.ServiceParams{
		Repo:           admin.NewRepository(conn),
		Sessions:       sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		AllowRegister:  true,
		Logger:         logg,
	})
	require.NoError(t, err)

	handler := NewRouter(
		cfg,
		logg,
		sqlPinger{db: sqlDB},
		redisClient,
		sessions,
		metrics.NewHTTPMetrics(reg),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		catalogService,
		cartService,
		checkoutService,
		adminService,
	)
	return &testServer{handler: handler, redis: srv}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Error.Code
}

type cartBody struct {
	Items []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Quantity  int    `json:"quantity"`
		LineTotal string `json:"line_total"`
	} `json:"items"`
	Total   string `json:"total"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	live := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "test", live.Header().Get("X-Ebookshop-Env"))

	ready := s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, ready.Code, ready.Body.String())
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, ready, &body)
	assert.Equal(t, map[string]string{"database": "up", "redis": "up"}, body.Checks)

	s.redis.Close()
	down := s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/books?sort=price_asc&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Books []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
			Link  string `json:"link"`
		} `json:"books"`
		Pagination struct {
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	decodeData(t, rec, &list)
	require.Len(t, list.Books, 2)
	assert.Equal(t, bookContes, list.Books[0].ID)
	assert.Empty(t, list.Books[0].Link, "download links stay private on the shop listing")
	assert.Equal(t, 3, list.Pagination.Total)
	assert.True(t, list.Pagination.HasNext)

	bad := s.do(t, http.MethodGet, "/api/v1/books?sort=cheapest", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	detail := s.do(t, http.MethodGet, "/api/v1/books/"+bookReader, "", nil)
	assert.Equal(t, http.StatusOK, detail.Code)

	missing := s.do(t, http.MethodGet, "/api/v1/books/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	malformed := s.do(t, http.MethodGet, "/api/v1/books/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, malformed.Code)

	cats := s.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	var catBody struct {
		Categories []string `json:"categories"`
	}
	decodeData(t, cats, &catBody)
	assert.Equal(t, []string{"cooking", "fiction", "programming"}, catBody.Categories)
}

func TestLocaleEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/locale", "", map[string]string{"Accept-Language": "fr-CA,fr;q=0.9"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Lang    string            `json:"lang"`
		Strings map[string]string `json:"strings"`
	}
	decodeData(t, rec, &body)
	assert.Equal(t, "fr", body.Lang)
	assert.Equal(t, "Panier vidé", body.Strings["cart.cleared"])
}

func TestCartLifecycle(t *testing.T) {
	s := newTestServer(t)
	session := uuid.NewString()
	hdr := map[string]string{"X-Cart-Session": session}

	first := s.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	_, err := uuid.Parse(first.Header().Get("X-Cart-Session"))
	require.NoError(t, err, "a session is minted on first visit")

	add := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookReader+`"}`, hdr)
	require.Equal(t, http.StatusOK, add.Code, add.Body.String())
	again := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookReader+`","quantity":2}`, hdr)
	require.Equal(t, http.StatusOK, again.Code)
	var body cartBody
	decodeData(t, again, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 3, body.Items[0].Quantity)
	assert.Equal(t, "59.97", body.Total)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, "Added to cart", body.Message)

	// The cart survives across requests because it is restored from Redis.
	get := s.do(t, http.MethodGet, "/api/v1/cart", "", hdr)
	body = cartBody{}
	decodeData(t, get, &body)
	assert.Equal(t, 3, body.Count)
	assert.True(t, s.redis.Exists("ebk:cart:"+session))

	patch := s.do(t, http.MethodPatch, "/api/v1/cart/items/"+bookReader, `{"quantity":1}`, hdr)
	require.Equal(t, http.StatusOK, patch.Code)
	body = cartBody{}
	decodeData(t, patch, &body)
	assert.Equal(t, "19.99", body.Total)

	negative := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookReader+`","quantity":-1}`, hdr)
	assert.Equal(t, http.StatusBadRequest, negative.Code)

	unknown := s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+uuid.NewString()+`"}`, hdr)
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	noop := s.do(t, http.MethodDelete, "/api/v1/cart/items/"+uuid.NewString(), "", hdr)
	require.Equal(t, http.StatusOK, noop.Code)
	body = cartBody{}
	decodeData(t, noop, &body)
	assert.Equal(t, 1, body.Count)

	remove := s.do(t, http.MethodDelete, "/api/v1/cart/items/"+bookReader, "", hdr)
	body = cartBody{}
	decodeData(t, remove, &body)
	assert.Equal(t, 0, body.Count)

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookContes+`"}`, hdr)
	clear := s.do(t, http.MethodDelete, "/api/v1/cart", "", map[string]string{"X-Cart-Session": session, "Accept-Language": "es"})
	body = cartBody{}
	decodeData(t, clear, &body)
	assert.Equal(t, 0, body.Count)
	assert.Equal(t, "0", body.Total)
	assert.Equal(t, "Carrito vaciado", body.Message)
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	session := uuid.NewString()
	hdr := map[string]string{"X-Cart-Session": session}
	buyer := `{"name":"Ada Lovelace","email":"ada@example.com","phone":"+1 555 0100 199"}`

	empty := s.do(t, http.MethodPost, "/api/v1/checkout", buyer, map[string]string{"X-Cart-Session": session, "Idempotency-Key": "k0"})
	assert.Equal(t, http.StatusUnprocessableEntity, empty.Code)
	assert.Equal(t, "CART_EMPTY", errorCode(t, empty))

	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookReader+`","quantity":2}`, hdr)
	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookContes+`"}`, hdr)

	noKey := s.do(t, http.MethodPost, "/api/v1/checkout", buyer, hdr)
	assert.Equal(t, http.StatusBadRequest, noKey.Code)

	badBuyer := s.do(t, http.MethodPost, "/api/v1/checkout", `{"name":"Ada","email":"nope","phone":"1"}`, map[string]string{"X-Cart-Session": session, "Idempotency-Key": "k1"})
	assert.Equal(t, http.StatusBadRequest, badBuyer.Code)

	placeHdr := map[string]string{"X-Cart-Session": session, "Idempotency-Key": "k2"}
	placed := s.do(t, http.MethodPost, "/api/v1/checkout", buyer, placeHdr)
	require.Equal(t, http.StatusCreated, placed.Code, placed.Body.String())

	var result struct {
		Message string `json:"message"`
		Order   struct {
			Reference string `json:"reference"`
			Total     string `json:"total"`
			Count     int    `json:"count"`
			Items     []struct {
				Index     int    `json:"index"`
				LineTotal string `json:"line_total"`
				Link      string `json:"link"`
			} `json:"items"`
		} `json:"order"`
		Receipt struct {
			Filename      string `json:"filename"`
			ContentBase64 string `json:"content_base64"`
		} `json:"receipt"`
	}
	decodeData(t, placed, &result)
	assert.Equal(t, "Thank you for your order", result.Message)
	assert.True(t, strings.HasPrefix(result.Order.Reference, "EBK-"))
	assert.Equal(t, "49.48", result.Order.Total)
	assert.Equal(t, 3, result.Order.Count)
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, "39.98", result.Order.Items[0].LineTotal)
	assert.NotEmpty(t, result.Order.Items[0].Link)
	assert.Equal(t, "receipt-15550100199.pdf", result.Receipt.Filename)
	pdf, err := base64.StdEncoding.DecodeString(result.Receipt.ContentBase64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	// The cart was cleared by the order.
	after := s.do(t, http.MethodGet, "/api/v1/cart", "", hdr)
	var body cartBody
	decodeData(t, after, &body)
	assert.Equal(t, 0, body.Count)

	// A double submit replays the confirmation instead of hitting the empty cart.
	replay := s.do(t, http.MethodPost, "/api/v1/checkout", buyer, placeHdr)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, placed.Body.String(), replay.Body.String())
}

func TestCheckoutPDFDownload(t *testing.T) {
	s := newTestServer(t)
	session := uuid.NewString()
	s.do(t, http.MethodPost, "/api/v1/cart/items", `{"book_id":"`+bookReader+`"}`, map[string]string{"X-Cart-Session": session})

	rec := s.do(t, http.MethodPost, "/api/v1/checkout?format=pdf&lang=fr",
		`{"name":"Ada","email":"ada@example.com","phone":"555-0100"}`,
		map[string]string{"X-Cart-Session": session, "Idempotency-Key": "pdf-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="receipt-5550100.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestAdminConsole(t *testing.T) {
	s := newTestServer(t)

	anon := s.do(t, http.MethodGet, "/api/admin/v1/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
	assert.Contains(t, anon.Body.String(), adminLoginPath)

	browser := s.do(t, http.MethodGet, "/api/admin/v1/books", "", map[string]string{"Accept": "text/html"})
	assert.Equal(t, http.StatusSeeOther, browser.Code)
	assert.Equal(t, adminLoginPath, browser.Header().Get("Location"))

	reg := s.do(t, http.MethodPost, "/api/admin/v1/auth/register",
		`{"name":"Root","email":"root@example.com","password":"correct-horse-9"}`,
		map[string]string{"Idempotency-Key": "reg-1"})
	require.Equal(t, http.StatusCreated, reg.Code, reg.Body.String())

	login := s.do(t, http.MethodPost, "/api/admin/v1/auth/login", `{"email":"root@example.com","password":"correct-horse-9"}`, nil)
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, login, &tokens)
	auth := map[string]string{"Authorization": "Bearer " + tokens.AccessToken}

	create := s.do(t, http.MethodPost, "/api/admin/v1/books",
		`{"title":"Hidden Draft","author":"Ann Editor","category":"drafts","price":"7.50","link":"https://files.example.com/draft.pdf","is_active":false}`,
		map[string]string{"Authorization": auth["Authorization"], "Idempotency-Key": "book-1"})
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())
	var created struct {
		ID   string `json:"id"`
		Link string `json:"link"`
	}
	decodeData(t, create, &created)
	assert.Equal(t, "https://files.example.com/draft.pdf", created.Link)

	shop := s.do(t, http.MethodGet, "/api/v1/books/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, shop.Code, "inactive books stay out of the shop")

	list := s.do(t, http.MethodGet, "/api/admin/v1/books", "", auth)
	require.Equal(t, http.StatusOK, list.Code)
	var page struct {
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	decodeData(t, list, &page)
	assert.Equal(t, 4, page.Pagination.Total)

	update := s.do(t, http.MethodPut, "/api/admin/v1/books/"+created.ID, `{"is_active":true}`, auth)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/books/"+created.ID, "", nil).Code)

	del := s.do(t, http.MethodDelete, "/api/admin/v1/books/"+created.ID, "", auth)
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/admin/v1/books/"+created.ID, "", auth).Code)

	refresh := s.do(t, http.MethodPost, "/api/admin/v1/auth/refresh", `{"refresh_token":"`+tokens.RefreshToken+`"}`, auth)
	require.Equal(t, http.StatusOK, refresh.Code, refresh.Body.String())
	var rotated struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(t, refresh, &rotated)

	// The old access token's session was rotated away.
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/v1/books", "", auth).Code)

	newAuth := map[string]string{"Authorization": "Bearer " + rotated.AccessToken}
	logout := s.do(t, http.MethodPost, "/api/admin/v1/auth/logout", "", newAuth)
	assert.Equal(t, http.StatusOK, logout.Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/v1/books", "", newAuth).Code)
}

func TestAdminLoginRateLimited(t *testing.T) {
	s := newTestServer(t)
	body := `{"email":"nobody@example.com","password":"wrong-password-1"}`
	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/admin/v1/auth/login", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	blocked := s.do(t, http.MethodPost, "/api/admin/v1/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, blocked))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/v1/books/"+bookReader, "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ebookshop_http_requests_total{method="GET",route="/api/v1/books/{bookId}",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodOptions, "/api/v1/cart/items", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "X-Cart-Session",
	})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
