package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notesync-be/internal/bootstrap"
	"notesync-be/internal/config"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Port: "0", Environment: "test", CorsAllowedOrigins: "http://localhost:5173"},
		Database: config.DatabaseConfig{Driver: "sqlite", TreeCacheTTL: 30 * time.Second},
		Auth:     config.AuthConfig{JWTSecret: testSecret},
		Events:   config.EventsConfig{Topic: "NOTE_EVENTS"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	container := bootstrap.NewContainerWithOptions(testutil.NewTestDB(t), cfg, bootstrap.Options{
		Logger: logger.NewNopLogger(),
	})
	t.Cleanup(container.Close)
	return NewApp(cfg, container)
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestNotesAPI_CreateAndShow(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodPost, "/api/notes", map[string]interface{}{"title": "First", "content": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode(t, body)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "root", created["pid"])
	assert.EqualValues(t, 0, created["deleted"])

	resp, body = do(t, app, http.MethodGet, "/api/notes/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	note := decode(t, body)
	assert.Equal(t, "First", note["title"])
	assert.Equal(t, "hello", note["content"])
}

func TestNotesAPI_ShowRootAndMissing(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodGet, "/api/notes/root", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"root"}`, string(body))

	resp, body = do(t, app, http.MethodGet, "/api/notes/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	errBody := decode(t, body)
	assert.Equal(t, "NOT_FOUND", errBody["error"])
	assert.EqualValues(t, 404, errBody["code"])
}

func TestNotesAPI_SaveLifecycle(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodPost, "/api/notes/save", map[string]interface{}{"id": "01HZTEMPORARY", "title": "Draft", "content": "v1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	id := decode(t, body)["id"].(string)
	assert.NotEqual(t, "01HZTEMPORARY", id)

	resp, body = do(t, app, http.MethodPost, "/api/notes/save", map[string]interface{}{"id": id, "title": "Final"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	updated := decode(t, body)
	assert.Equal(t, "Final", updated["title"])
	assert.Equal(t, "v1", updated["content"])

	resp, body = do(t, app, http.MethodPost, "/api/notes/save", map[string]interface{}{"id": id, "deleted": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"`+id+`","status":"deleted"}`, string(body))

	resp, _ = do(t, app, http.MethodGet, "/api/notes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotesAPI_SaveWithoutChanges(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodPost, "/api/notes/save", map[string]interface{}{"id": "n1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", decode(t, body)["error"])

	resp, body = do(t, app, http.MethodPost, "/api/notes/save", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", decode(t, body)["error"])
}

func TestNotesAPI_EmptyContentKeepsBackup(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodPost, "/api/notes", map[string]interface{}{"id": "n1", "title": "One", "content": "precious"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = do(t, app, http.MethodPost, "/api/notes/n1", map[string]interface{}{"content": ""})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/notes/n1.bak", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "precious", decode(t, body)["content"])
}

func TestNotesAPI_Meta(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodGet, "/api/notes/n1/meta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(body))

	do(t, app, http.MethodPost, "/api/notes", map[string]interface{}{"id": "n1", "title": "One"})

	resp, _ = do(t, app, http.MethodPost, "/api/notes/n1/meta", map[string]interface{}{"pinned": true, "date": "1999-01-01T00:00:00Z"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/notes/n1/meta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	meta := decode(t, body)
	assert.Equal(t, true, meta["pinned"])
	assert.Equal(t, "One", meta["title"])
	assert.NotEqual(t, "1999-01-01T00:00:00Z", meta["date"])
}

func TestTrashAPI(t *testing.T) {
	app := newTestApp(t, testConfig())
	do(t, app, http.MethodPost, "/api/notes", map[string]interface{}{"id": "n1", "title": "One"})

	resp, _ := do(t, app, http.MethodPost, "/api/trash", map[string]interface{}{"action": "delete", "data": map[string]string{"id": "n1"}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := do(t, app, http.MethodGet, "/api/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, decode(t, body)["items"], "n1")

	resp, _ = do(t, app, http.MethodPost, "/api/trash", map[string]interface{}{"action": "restore", "data": map[string]string{"id": "n1"}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/api/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decode(t, body)
	assert.Contains(t, tree["items"], "n1")
	assert.Equal(t, []interface{}{"n1"}, tree["roots"])

	resp, body = do(t, app, http.MethodPost, "/api/trash", map[string]interface{}{"action": "purge", "data": map[string]string{"id": "n1"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "NOT_SUPPORTED", decode(t, body)["error"])

	resp, body = do(t, app, http.MethodPost, "/api/trash", map[string]interface{}{"action": "delete", "data": map[string]string{}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", decode(t, body)["error"])
}

func TestNotesAPI_DeleteIsIdempotent(t *testing.T) {
	app := newTestApp(t, testConfig())
	do(t, app, http.MethodPost, "/api/notes", map[string]interface{}{"id": "n1", "title": "One"})

	resp, _ := do(t, app, http.MethodDelete, "/api/notes/n1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, app, http.MethodDelete, "/api/notes/n1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, testConfig())

	resp, body := do(t, app, http.MethodGet, "/api/nothing-here", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode(t, body)["error"])
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	app := newTestApp(t, cfg)

	resp, body := do(t, app, http.MethodGet, "/api/tree", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode(t, body)["error"])

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp, _ = do(t, app, http.MethodGet, "/api/tree", nil, fiber.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/tree", nil, fiber.HeaderAuthorization, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
