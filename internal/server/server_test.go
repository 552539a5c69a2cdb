package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glencoden/cards-api/internal/config"
	"github.com/glencoden/cards-api/internal/model"
	"github.com/glencoden/cards-api/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseURL:        "sqlite:" + filepath.Join(t.TempDir(), "cards.db"),
		Port:               3000,
		DBMaxConns:         4,
		DBAcquireTimeout:   5 * time.Second,
		DBStatementTimeout: 10 * time.Second,
		LogLevel:           "info",
		LogFormat:          "text",
		ShutdownTimeout:    time.Second,
	}
}

// newTestServer runs the full stack over a fresh SQLite database.
func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	srv, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func call(t *testing.T, ts *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		dsn    string
		want   string
		sqlite bool
	}{
		{"sqlite:data/cards.db", "data/cards.db", true},
		{"sqlite:///var/lib/cards.db", "/var/lib/cards.db", true},
		{"postgres://u:p@localhost/cards", "", false},
		{"host=localhost dbname=cards", "", false},
	}
	for _, tt := range tests {
		path, ok := sqlitePath(tt.dsn)
		assert.Equal(t, tt.sqlite, ok, tt.dsn)
		if ok {
			assert.Equal(t, tt.want, path)
		}
	}
}

func TestOpenStore_BadSQLitePath(t *testing.T) {
	_, err := OpenStore(context.Background(), "sqlite:", repository.DefaultPoolConfig(), slog.New(slog.DiscardHandler))

	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var body map[string]string
	status := call(t, ts, http.MethodGet, "/health", "", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

// A created user can be read back by its id, and the list contains it.
func TestUserCreateThenRead(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var created model.User
	status := call(t, ts, http.MethodPost, "/users", `{"name":"ann","first":"Ann","last":"Lee","email":"ann@x.io"}`, &created)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(1), created.ID)

	var got model.User
	status = call(t, ts, http.MethodGet, fmt.Sprintf("/users/%d", created.ID), "", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created, got)

	var list []model.User
	status = call(t, ts, http.MethodGet, "/users", "", &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []model.User{created}, list)
}

func TestEmptyListsAreArrays(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	for _, path := range []string{"/users", "/decks", "/cards"} {
		res, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err)
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
		res.Body.Close()

		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.JSONEq(t, `[]`, string(raw), path)
	}
}

// Deck and card round trip, including timestamp text and related order.
func TestDeckAndCardRoundTrip(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var user model.User
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/users",
		`{"name":"ann","first":"","last":"","email":""}`, &user))

	var deck map[string]any
	status := call(t, ts, http.MethodPost, "/decks",
		fmt.Sprintf(`{"user_id":%d,"from":"en","to":"de","seen_at":"2024-01-02T03:04:05.123"}`, user.ID), &deck)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2024-01-02T03:04:05.123", deck["seen_at"])

	body := fmt.Sprintf(`{"user_id":%d,"deck_id":%v,"from":"dog","to":"Hund","example":"",
		"audio_url":"","seen_at":"2024-01-02T03:04:05","seen_for":1500,"rating":3,
		"prev_rating":0,"related":[5,2,5]}`, user.ID, deck["id"])
	var card model.Card
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/cards", body, &card))

	var got model.Card
	status = call(t, ts, http.MethodGet, fmt.Sprintf("/cards/%d", card.ID), "", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int32{5, 2, 5}, got.Related)
	assert.Equal(t, "2024-01-02T03:04:05", got.SeenAt.String())
	assert.Equal(t, int32(1500), got.SeenFor)
}

func TestCreateDeck_UnknownUser(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var res map[string]string
	status := call(t, ts, http.MethodPost, "/decks",
		`{"user_id":42,"from":"en","to":"de","seen_at":"2024-01-02T03:04:05"}`, &res)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", res["error"])

	var decks []model.Deck
	call(t, ts, http.MethodGet, "/decks", "", &decks)
	assert.Empty(t, decks)
}

func TestGet_NotFoundAndBadID(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var res map[string]string
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/users/999", "", &res))
	assert.Equal(t, "user not found with id 999", res["message"])

	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/decks/abc", "", &res))
	assert.Equal(t, "validation_error", res["error"])
}

// Only the canonical decimal form of an id resolves.
func TestGet_SignedIDRejected(t *testing.T) {
	ts := newTestServer(t, testConfig(t))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/users",
		`{"name":"ann","first":"","last":"","email":""}`, nil))

	var res map[string]string
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/users/+1", "", &res))
	assert.Equal(t, "validation_error", res["error"])
}

func TestDeckSeenAt_MicrosecondPrecision(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var user model.User
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/users",
		`{"name":"ann","first":"","last":"","email":""}`, &user))

	var deck map[string]any
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/decks",
		fmt.Sprintf(`{"user_id":%d,"from":"en","to":"de","seen_at":"2023-05-17T09:30:15.123456789"}`, user.ID), &deck))
	assert.Equal(t, "2023-05-17T09:30:15.123456", deck["seen_at"])

	var got map[string]any
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, fmt.Sprintf("/decks/%v", deck["id"]), "", &got))
	assert.Equal(t, "2023-05-17T09:30:15.123456", got["seen_at"])
}

// A rejected body never reaches storage.
func TestCreate_MissingFieldStoresNothing(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var res map[string]string
	status := call(t, ts, http.MethodPost, "/users", `{"name":"ann","first":"Ann","last":"Lee"}`, &res)
	assert.Equal(t, http.StatusBadRequest, status)

	var users []model.User
	call(t, ts, http.MethodGet, "/users", "", &users)
	assert.Empty(t, users)
}

func TestCreateCard_MissingFieldStoresNothing(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var user model.User
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/users",
		`{"name":"ann","first":"","last":"","email":""}`, &user))
	var deck model.Deck
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/decks",
		fmt.Sprintf(`{"user_id":%d,"from":"en","to":"de","seen_at":"2024-01-02T03:04:05"}`, user.ID), &deck))

	// no seen_for
	body := fmt.Sprintf(`{"user_id":%d,"deck_id":%d,"from":"dog","to":"Hund","example":"",
		"audio_url":"","seen_at":"2024-01-02T03:04:05","rating":3,"prev_rating":0,"related":[]}`,
		user.ID, deck.ID)
	var res map[string]string
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/cards", body, &res))
	assert.Equal(t, `missing field "seen_for"`, res["message"])

	var cards []model.Card
	call(t, ts, http.MethodGet, "/cards", "", &cards)
	assert.Empty(t, cards)
}

func TestConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ts := newTestServer(t, testConfig(t))
	const n = 8

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[int32]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var u model.User
			body := fmt.Sprintf(`{"name":"u%d","first":"","last":"","email":""}`, i)
			if call(t, ts, http.MethodPost, "/users", body, &u) == http.StatusOK {
				mu.Lock()
				ids[u.ID] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, n)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	var res map[string]string
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/user", "", &res))
	assert.Equal(t, "not_found", res["error"])

	assert.Equal(t, http.StatusMethodNotAllowed, call(t, ts, http.MethodDelete, "/users/1", "", &res))
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORSAllowedOrigins = "https://app.example"
	ts := newTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/users", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, "https://app.example", res.Header.Get("Access-Control-Allow-Origin"))
}
