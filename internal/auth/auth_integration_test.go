package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Bookineo/BK-Backend/internal/auth"
	"github.com/Bookineo/BK-Backend/internal/db"
	"github.com/Bookineo/BK-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

// testServer is the shared httptest server for all integration tests.
var testServer *httptest.Server

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/auth/).
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		// No database available — skip all integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect()
	dbAvailable = true

	// Set up auth tables (idempotent).
	auth.Init()

	// Mount auth routes on a chi router, matching production setup in main.go.
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Mount("/auth", auth.SetupRoutes())

	testServer = httptest.NewServer(r)
	defer testServer.Close()

	os.Exit(m.Run())
}

// createTestUser inserts a unique user into the database and registers a cleanup
// function to remove it. Returns the username and plaintext password.
func createTestUser(t *testing.T) (username, password string) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	username = fmt.Sprintf("testuser_%s", uuid.New().String()[:8])
	password = "TestPass123!"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}

	user := auth.User{
		UserID:         uuid.New().String(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: string(hashed),
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.Session{})
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.User{})
	})

	return username, password
}

// newClientWithJar returns an http.Client with a fresh cookie jar that
// automatically carries cookies between requests.
func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{Jar: jar}
}

// loginUser posts to /auth/login and returns the response. The client's cookie
// jar is populated with the session_id cookie on success.
func loginUser(t *testing.T, client *http.Client, username, password string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := client.Post(testServer.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /auth/login: %v", err)
	}
	return resp
}

// TestLoginAndMe verifies the full login → /auth/me round trip.
func TestLoginAndMe(t *testing.T) {
	username, password := createTestUser(t)
	client := newClientWithJar(t)

	resp := loginUser(t, client, username, password)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got %d, want 200", resp.StatusCode)
	}

	meResp, err := client.Get(testServer.URL + "/auth/me")
	if err != nil {
		t.Fatalf("GET /auth/me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("me: got %d, want 200", meResp.StatusCode)
	}

	var me map[string]string
	if err := json.NewDecoder(meResp.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me["username"] != username {
		t.Errorf("me username = %q, want %q", me["username"], username)
	}
}

// TestLoginWrongPassword verifies invalid credentials are rejected.
func TestLoginWrongPassword(t *testing.T) {
	username, _ := createTestUser(t)
	client := newClientWithJar(t)

	resp := loginUser(t, client, username, "not-the-password")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", resp.StatusCode)
	}
}

// TestLogoutInvalidatesSession verifies /auth/me fails after logout.
func TestLogoutInvalidatesSession(t *testing.T) {
	username, password := createTestUser(t)
	client := newClientWithJar(t)

	resp := loginUser(t, client, username, password)
	resp.Body.Close()

	logoutResp, err := client.Post(testServer.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /auth/logout: %v", err)
	}
	logoutResp.Body.Close()
	if logoutResp.StatusCode != http.StatusOK {
		t.Fatalf("logout: got %d, want 200", logoutResp.StatusCode)
	}

	meResp, err := client.Get(testServer.URL + "/auth/me")
	if err != nil {
		t.Fatalf("GET /auth/me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout: got %d, want 401", meResp.StatusCode)
	}
}

// TestUpdateUsername verifies the username patch endpoint.
func TestUpdateUsername(t *testing.T) {
	username, password := createTestUser(t)
	client := newClientWithJar(t)

	resp := loginUser(t, client, username, password)
	resp.Body.Close()

	newName := fmt.Sprintf("renamed_%s", uuid.New().String()[:8])
	body, _ := json.Marshal(map[string]string{"username": newName})
	req, _ := http.NewRequest(http.MethodPatch, testServer.URL+"/auth/username", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	patchResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PATCH /auth/username: %v", err)
	}
	defer patchResp.Body.Close()
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("got %d, want 200", patchResp.StatusCode)
	}

	var user auth.User
	if err := db.DB.First(&user, "username = ?", newName).Error; err != nil {
		t.Errorf("renamed user not found: %v", err)
	}
}
