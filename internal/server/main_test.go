package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postboard/internal/config"
	"postboard/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testOrigin = "http://localhost:5173"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Error   json.RawMessage     `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:            "test",
		Port:           "0",
		JWTSecret:      "test-secret-with-enough-length-0123456789",
		DBDriver:       "sqlite",
		AllowedOrigins: testOrigin,
		CORSPaths:      "/api/,/sanctum/csrf-cookie",
		UploadDir:      t.TempDir(),
		ImageMaxSizeKB: 2048,
		BodyLimitMB:    10,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := setupTestDB(t)
	cfg := testConfig(t)
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testServer{srv: srv, app: srv.NewApp(), db: db, cfg: cfg}
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) (*http.Response, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	return ts.do(t, req, token)
}

type formFile struct {
	field, name string
	content     []byte
}

func (ts *testServer) doMultipart(t *testing.T, method, path string, fields map[string]string, file *formFile, token string) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile(file.field, file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(t, req, token)
}

// registerAndLogin creates a user and returns a fresh bearer token.
func (ts *testServer) registerAndLogin(t *testing.T, name, email, password string) string {
	t.Helper()
	resp, _ := ts.doJSON(t, http.MethodPost, "/api/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return ts.login(t, email, password)
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, env := ts.doJSON(t, http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": password,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Equal(t, "Bearer", payload.TokenType)
	require.NotEmpty(t, payload.Token)
	return payload.Token
}
