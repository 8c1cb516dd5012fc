package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"gameserver/internal/server/config"
	"gameserver/internal/server/core"
	"gameserver/internal/server/crypt"
	"gameserver/internal/server/service"
	"gameserver/internal/server/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var dbSeq atomic.Int64

func newTestApp(t *testing.T, testMode bool) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:httptest%d?mode=memory&cache=shared", dbSeq.Add(1))
	store, err := storage.NewStore(dsn, false, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitDB())

	docFile := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(docFile, []byte(`{"version":1}`), 0o644))
	docs, err := config.LoadDocuments(map[string]string{"client": docFile})
	require.NoError(t, err)

	svc := service.New(store, zap.NewNop())
	cfg := config.AppConfig{TestMode: testMode, DevMode: true}
	return NewFiberApp(svc, store, docs, zap.NewNop(), cfg)
}

func doGet(t *testing.T, app *fiber.App, path string) *nethttp.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
	require.NoError(t, err)
	return resp
}

func doPost(t *testing.T, app *fiber.App, path string, body any) *nethttp.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return string(body)
}

func registerUser(t *testing.T, app *fiber.App, username, password string) {
	t.Helper()
	resp := doPost(t, app, "/create_user", core.Login{
		Username: username,
		Password: crypt.Encrypt(password, crypt.TransitKey),
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHello(t *testing.T) {
	app := newTestApp(t, false)

	resp := doGet(t, app, "/hello")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello there!", readBody(t, resp))
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, false)

	resp := doGet(t, app, "/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "ok", health["storage"])
}

func TestTestDB(t *testing.T) {
	app := newTestApp(t, false)

	resp := doGet(t, app, "/test_db")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Database up and running", readBody(t, resp))
}

func TestGetConfig(t *testing.T) {
	app := newTestApp(t, false)

	resp := doGet(t, app, "/get_config/client")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"version":1}`, readBody(t, resp))

	resp = doGet(t, app, "/get_config/missing")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateAndVerifyUser(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/verify_user", core.Login{
		Username: "alice",
		Password: crypt.Encrypt("pw1", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doPost(t, app, "/verify_user", core.Login{
		Username: "alice",
		Password: crypt.Encrypt("wrong", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doPost(t, app, "/verify_user", core.Login{
		Username: "nobody",
		Password: crypt.Encrypt("pw1", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateUserRejectsInvalidPayload(t *testing.T) {
	app := newTestApp(t, false)

	resp := doPost(t, app, "/create_user", map[string]string{"username": "alice"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body core.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &body))
	assert.Equal(t, core.CodeBadRequest, body.Code)
}

func TestCreateUserDuplicateForbidden(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/create_user", core.Login{
		Username: "alice",
		Password: crypt.Encrypt("other", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestUpdateUser(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/update_user", []core.Login{
		{Username: "alice", Password: crypt.Encrypt("pw1", crypt.TransitKey)},
		{Username: "alicia", Password: crypt.Encrypt("pw2", crypt.TransitKey)},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doPost(t, app, "/verify_user", core.Login{
		Username: "alicia",
		Password: crypt.Encrypt("pw2", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpdateUserRequiresTwoLogins(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/update_user", []core.Login{
		{Username: "alice", Password: crypt.Encrypt("pw1", crypt.TransitKey)},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGameLifecycle(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")
	registerUser(t, app, "bob", "pw2")

	resp := doPost(t, app, "/create_game", []string{"alice", "bob"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var id int64
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &id))
	require.Greater(t, id, int64(0))

	game := `{"board":[0,1,2]}`
	resp = doGet(t, app, fmt.Sprintf("/update_game/%d/%s", id, url.PathEscape(game)))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doGet(t, app, fmt.Sprintf("/get_game/%d", id))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, game, readBody(t, resp))

	resp = doGet(t, app, "/get_game/99999")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateGameUnknownPlayer(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/create_game", []string{"alice", "nobody"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSetMoveAndListMoves(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")
	registerUser(t, app, "bob", "pw2")

	resp := doPost(t, app, "/create_game", []string{"alice", "bob"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var id int64
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &id))

	move := url.PathEscape(`{"from":"a1","to":"a2"}`)
	resp = doGet(t, app, fmt.Sprintf("/set_move/%d/alice/%s", id, move))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doGet(t, app, fmt.Sprintf("/list_moves/%d/-/-1", id))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list service.MoveList
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &list))
	require.Len(t, list.Moves, 1)
	for moveID, content := range list.Moves {
		assert.Equal(t, `{"from":"a1","to":"a2"}`, content)
		assert.Equal(t, 1, list.IDToNum[moveID])
		assert.Equal(t, "alice", list.IDToUsername[moveID])
	}
}

func TestSetMoveUnknownGame(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doGet(t, app, "/set_move/99999/alice/%7B%7D")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListGames(t *testing.T) {
	app := newTestApp(t, false)
	registerUser(t, app, "alice", "pw1")

	resp := doPost(t, app, "/create_game", []string{"alice"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	readBody(t, resp)

	resp = doGet(t, app, "/list_games/false/-")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list service.GameList
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &list))
	assert.Len(t, list.Started, 1)

	resp = doGet(t, app, "/list_games/notabool/-")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestResetTestDatabase(t *testing.T) {
	app := newTestApp(t, false)
	resp := doGet(t, app, "/reset_test_database")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = newTestApp(t, true)
	registerUser(t, app, "alice", "pw1")

	resp = doGet(t, app, "/reset_test_database")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// The account is gone after the reset.
	resp = doPost(t, app, "/verify_user", core.Login{
		Username: "alice",
		Password: crypt.Encrypt("pw1", crypt.TransitKey),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPostRequiresJSONContentType(t *testing.T) {
	app := newTestApp(t, false)

	req := httptest.NewRequest(fiber.MethodPost, "/create_game", bytes.NewReader([]byte(`["alice"]`)))
	req.Header.Set(fiber.HeaderContentType, "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}
