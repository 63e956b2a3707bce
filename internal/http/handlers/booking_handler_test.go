package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"driveshare/internal/cache"
	"driveshare/internal/http/handlers"
	"driveshare/internal/repos"
	"driveshare/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if err := repos.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	seed := `
	INSERT INTO users(id,email,name,password_hash,role) VALUES
	  ('u-owner','o@x.test','Owner','h','USER'),
	  ('u-renter','r@x.test','Renter','h','USER'),
	  ('u-other','t@x.test','Other','h','USER');
	INSERT INTO sessions(id,user_id) VALUES
	  ('sid-renter','u-renter'),('sid-owner','u-owner'),('sid-other','u-other');
	INSERT INTO cars(id,owner_id,title,location,price_per_day,available) VALUES
	  ('car-1','u-owner','Civic','College Park',50.0,1);
	`
	if _, err := db.Exec(seed); err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestApp(t *testing.T) (*fiber.App, *cache.Client) {
	t.Helper()
	db := memdb(t)
	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	cc := cache.NewClient(store)

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	deps := handlers.NewDeps(db, cc, authSvc, nil)

	app := fiber.New()
	app.Use(requestid.New())
	api := app.Group("/api/v1")
	api.Get("/cars",
		cache.Middleware(cc, cache.QueryKey("cars", "location", "maxPrice", "limit", "offset")),
		deps.CarHandler.List)
	api.Get("/cars/:id",
		cache.Middleware(cc, func(c *fiber.Ctx) string { return "cars:" + c.Params("id") }),
		deps.CarHandler.Get)
	api.Post("/bookings", handlers.RequireUser(authSvc), deps.BookingHandler.Create)
	api.Get("/bookings", handlers.RequireUser(authSvc), deps.BookingHandler.Mine)
	api.Post("/bookings/:id/cancel", handlers.RequireUser(authSvc), deps.BookingHandler.Cancel)
	api.Post("/payments/callback", deps.BookingHandler.PaymentCallback)
	return app, cc
}

func doJSON(t *testing.T, app *fiber.App, method, path, sid, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func errCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out.Error.Code
}

func TestCreateBookingEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/bookings", "sid-renter",
		`{"carId":"car-1","startDate":"2025-01-01","endDate":"2025-01-05"}`)
	if resp.StatusCode != fiber.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("want 201, got %d: %s", resp.StatusCode, body)
	}
	var b struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if b.ID == "" || b.Status != "PENDING" {
		t.Fatalf("bad booking payload: %+v", b)
	}
}

func TestCreateBookingErrorBodies(t *testing.T) {
	app, _ := newTestApp(t)

	// No session
	resp := doJSON(t, app, "POST", "/api/v1/bookings", "",
		`{"carId":"car-1","startDate":"2025-01-01","endDate":"2025-01-05"}`)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}

	// Reversed range
	resp = doJSON(t, app, "POST", "/api/v1/bookings", "sid-renter",
		`{"carId":"car-1","startDate":"2025-01-05","endDate":"2025-01-01"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	if code := errCode(t, resp); code != "invalid_range" {
		t.Fatalf("want invalid_range, got %q", code)
	}

	// Conflict with an existing booking
	resp = doJSON(t, app, "POST", "/api/v1/bookings", "sid-renter",
		`{"carId":"car-1","startDate":"2025-01-01","endDate":"2025-01-05"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("setup booking failed: %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "POST", "/api/v1/bookings", "sid-other",
		`{"carId":"car-1","startDate":"2025-01-03","endDate":"2025-01-07"}`)
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("want 409, got %d", resp.StatusCode)
	}
	if code := errCode(t, resp); code != "conflict" {
		t.Fatalf("want conflict, got %q", code)
	}
}

func TestCarListCacheFlow(t *testing.T) {
	app, _ := newTestApp(t)

	// Cold read computes and fills.
	resp := doJSON(t, app, "GET", "/api/v1/cars/car-1", "", "")
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Fatalf("cold read: want MISS, got %q", got)
	}
	first, _ := io.ReadAll(resp.Body)

	// Warm read serves the cached bytes.
	resp = doJSON(t, app, "GET", "/api/v1/cars/car-1", "", "")
	if got := resp.Header.Get("X-Cache"); got != "HIT" {
		t.Fatalf("warm read: want HIT, got %q", got)
	}
	second, _ := io.ReadAll(resp.Body)
	if string(first) != string(second) {
		t.Fatalf("cached body differs")
	}

	// A booking against the car invalidates its namespaces.
	resp = doJSON(t, app, "POST", "/api/v1/bookings", "sid-renter",
		`{"carId":"car-1","startDate":"2025-02-01","endDate":"2025-02-03"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("booking failed: %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/v1/cars/car-1", "", "")
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Fatalf("after booking write: want MISS, got %q", got)
	}
}

func TestPaymentCallbackConfirms(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "POST", "/api/v1/bookings", "sid-renter",
		`{"carId":"car-1","startDate":"2025-01-01","endDate":"2025-01-05"}`)
	var b struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}

	resp = doJSON(t, app, "POST", "/api/v1/payments/callback", "",
		`{"bookingId":"`+b.ID+`","status":"paid"}`)
	if resp.StatusCode != fiber.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("want 200, got %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "CONFIRMED" || out.PaymentStatus != "PAID" {
		t.Fatalf("want CONFIRMED/PAID, got %+v", out)
	}
}
