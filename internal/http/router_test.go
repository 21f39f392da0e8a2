package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/car-api/internal/auth"
	"github.com/redmonkez12/car-api/internal/car"
	"github.com/redmonkez12/car-api/internal/config"
	"github.com/redmonkez12/car-api/internal/logging"
	"github.com/redmonkez12/car-api/internal/ratelimit"
	"github.com/redmonkez12/car-api/internal/upload"
	"github.com/redmonkez12/car-api/internal/user"
)

type apiResponse struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Token   string         `json:"token"`
	Data    map[string]any `json:"data"`
	Car     car.Car        `json:"car"`
	Cars    []car.Car      `json:"cars"`
}

func newTestServer(t *testing.T) (*resty.Client, string) {
	t.Helper()
	return newTestServerWithUploadLimit(t, 1<<20)
}

func newTestServerWithUploadLimit(t *testing.T, maxUploadBytes int64) (*resty.Client, string) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Server.TrustedOrigins = []string{"*"}
	cfg.Storage.PublicPrefix = "uploads"

	uploadDir := filepath.Join(t.TempDir(), "uploads")
	store, err := upload.NewLocalStore(uploadDir, cfg.Storage.PublicPrefix)
	require.NoError(t, err)

	tokens, err := auth.NewJWTService("test-secret", 24*time.Hour)
	require.NoError(t, err)

	logger := logging.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(
		cfg,
		auth.NewHandler(auth.NewService(user.NewMemoryRepository(), tokens), ratelimit.Disabled{}, false),
		auth.NewMiddleware(tokens),
		car.NewHandler(car.NewService(car.NewMemoryRepository(), store), 10, maxUploadBytes, false),
		store,
		logger,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return resty.New().SetBaseURL(srv.URL), uploadDir
}

func signup(t *testing.T, client *resty.Client, name, email, password string) *resty.Response {
	t.Helper()
	resp, err := client.R().
		SetBody(map[string]string{"name": name, "email": email, "password": password}).
		SetResult(&apiResponse{}).
		SetError(&apiResponse{}).
		Post("/api/users/signup")
	require.NoError(t, err)
	return resp
}

func signin(t *testing.T, client *resty.Client, email, password string) string {
	t.Helper()
	resp, err := client.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&apiResponse{}).
		Post("/api/users/signin")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	token := resp.Result().(*apiResponse).Token
	require.NotEmpty(t, token)
	return token
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestHealth(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.R().Get("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"status":"api is running"}`, resp.String())
	assert.Equal(t, "nosniff", resp.Header().Get("X-Content-Type-Options"))
}

func TestCarListingFlow(t *testing.T) {
	client, uploadDir := newTestServer(t)

	resp := signup(t, client, "Ann", "a@x.io", "p1")
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, "User registered successfully", resp.Result().(*apiResponse).Message)

	resp = signup(t, client, "Ann", "a@x.io", "p1")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "User already exists", resp.Error().(*apiResponse).Message)

	token := signin(t, client, "a@x.io", "p1")

	resp, err := client.R().
		SetAuthToken(token).
		SetResult(&apiResponse{}).
		Get("/api/users/get-user")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	me := resp.Result().(*apiResponse).Data
	assert.Equal(t, "a@x.io", me["email"])
	assert.NotContains(t, me, "password")

	// the bare token is accepted as well
	resp, err = client.R().SetHeader("Authorization", token).Get("/api/users/get-user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client.R().
		SetAuthToken(token).
		SetFormData(map[string]string{"title": "Civic", "description": "Reliable", "tags": "sedan, red"}).
		SetFileReader("images", "front.png", bytes.NewReader([]byte("front-bytes"))).
		SetFileReader("images", "back.png", bytes.NewReader([]byte("back-bytes"))).
		SetResult(&apiResponse{}).
		Post("/api/cars")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	created := resp.Result().(*apiResponse).Car
	assert.Equal(t, me["_id"], created.OwnerID)
	assert.Equal(t, []string{"sedan", "red"}, created.Tags)
	require.Len(t, created.Images, 2)
	assert.Equal(t, 2, dirEntries(t, uploadDir))

	resp, err = client.R().Get("/" + created.Images[0])
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "front-bytes", resp.String())

	// a second user sees none of Ann's listings and cannot touch them
	require.Equal(t, http.StatusCreated, signup(t, client, "Bob", "b@x.io", "p2").StatusCode())
	bobToken := signin(t, client, "b@x.io", "p2")

	resp, err = client.R().SetAuthToken(bobToken).SetResult(&apiResponse{}).Get("/api/cars")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Result().(*apiResponse).Cars)

	resp, err = client.R().SetAuthToken(bobToken).Delete("/api/cars/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())

	resp, err = client.R().
		SetAuthToken(token).
		SetFormData(map[string]string{"title": "Civic Type R"}).
		SetResult(&apiResponse{}).
		Put("/api/cars/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	updated := resp.Result().(*apiResponse).Car
	assert.Equal(t, "Civic Type R", updated.Title)
	assert.Equal(t, "Reliable", updated.Description)
	assert.Equal(t, created.Tags, updated.Tags)
	assert.Equal(t, created.Images, updated.Images)

	resp, err = client.R().SetAuthToken(token).SetResult(&apiResponse{}).Get("/api/cars")
	require.NoError(t, err)
	require.Len(t, resp.Result().(*apiResponse).Cars, 1)

	resp, err = client.R().SetAuthToken(token).SetResult(&apiResponse{}).Delete("/api/cars/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "Car deleted successfully", resp.Result().(*apiResponse).Message)
	assert.Zero(t, dirEntries(t, uploadDir))

	resp, err = client.R().Get("/" + created.Images[0])
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, err = client.R().SetAuthToken(token).Get("/api/cars/" + created.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestCarsRequireToken(t *testing.T) {
	client, _ := newTestServer(t)

	resp, err := client.R().SetError(&apiResponse{}).Get("/api/cars")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, "Access denied. No token provided.", resp.Error().(*apiResponse).Message)

	resp, err = client.R().SetAuthToken("forged").SetError(&apiResponse{}).Get("/api/cars")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Equal(t, "Invalid token", resp.Error().(*apiResponse).Message)
}

func TestLargeUploadLeavesNoTempFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	client, uploadDir := newTestServerWithUploadLimit(t, 50<<20)
	require.Equal(t, http.StatusCreated, signup(t, client, "Ann", "a@x.io", "p1").StatusCode())
	token := signin(t, client, "a@x.io", "p1")

	image := bytes.Repeat([]byte("x"), 12<<20)

	resp, err := client.R().
		SetAuthToken(token).
		SetFormData(map[string]string{"title": "Civic", "description": "Reliable"}).
		SetFileReader("images", "big.png", bytes.NewReader(image)).
		SetResult(&apiResponse{}).
		Post("/api/cars")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())
	assert.Equal(t, 1, dirEntries(t, uploadDir))

	created := resp.Result().(*apiResponse).Car

	resp, err = client.R().
		SetAuthToken(token).
		SetFileReader("images", "bigger.png", bytes.NewReader(image)).
		Put("/api/cars/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	leftovers, err := filepath.Glob(filepath.Join(tmp, "multipart-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
