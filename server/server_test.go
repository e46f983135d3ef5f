package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brensch/gridmdp/mdp"
	"github.com/brensch/gridmdp/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	p, err := mdp.NewPlanner(mdp.DefaultConfig(), nil)
	require.NoError(t, err)
	s := New(p, nil, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func corridor(id string, agentX int) GameRequest {
	return GameRequest{
		Game: GameInfo{ID: id},
		Turn: agentX,
		Board: Board{
			Width:  5,
			Height: 1,
			Food:   []Coord{{X: 4, Y: 0}},
			Agent:  Coord{X: agentX, Y: 0},
		},
	}
}

func post(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info InfoResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "value-iteration", info.Planner)
}

func TestGameLifecycle(t *testing.T) {
	s, ts := newTestServer(t)

	resp := post(t, ts, "/start", corridor("g1", 0))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, s.Sessions())

	resp = post(t, ts, "/move", corridor("g1", 0))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var move MoveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&move))
	assert.Equal(t, "East", move.Move)
	assert.Equal(t, 0, move.Turn)
	assert.Equal(t, mdp.DefaultSolver.Iterations, move.Sweeps)

	resp = post(t, ts, "/move", corridor("g1", 1))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&move))
	assert.Equal(t, 1, move.Turn)

	resp = post(t, ts, "/end", corridor("g1", 1))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, s.Sessions())

	resp = post(t, ts, "/move", corridor("g1", 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMove_AfterEndOnHeldSession(t *testing.T) {
	s, ts := newTestServer(t)
	require.Equal(t, http.StatusOK, post(t, ts, "/start", corridor("g1", 0)).StatusCode)
	require.Equal(t, http.StatusOK, post(t, ts, "/move", corridor("g1", 0)).StatusCode)

	// A move that looked the session up before /end removed it.
	held := s.lookup("g1")
	require.NotNil(t, held)
	require.Equal(t, http.StatusOK, post(t, ts, "/end", corridor("g1", 1)).StatusCode)

	w, err := toWorld(&GameRequest{Board: corridor("g1", 1).Board})
	require.NoError(t, err)
	d, err := s.step(held, w)
	assert.ErrorIs(t, err, mdp.ErrNoEpisode)
	assert.Equal(t, "Stop", d.Move.String())
	assert.Equal(t, 0, held.ep.Turn, "episode was reset and must not advance")
	assert.Empty(t, held.traces)
}

func TestMove_BadRequests(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/move", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := corridor("", 0)
	assert.Equal(t, http.StatusBadRequest, post(t, ts, "/start", req).StatusCode)

	req = corridor("g2", 0)
	req.Board.Legal = []string{"sideways"}
	assert.Equal(t, http.StatusBadRequest, post(t, ts, "/start", req).StatusCode)

	req = corridor("g3", 0)
	req.Board.Width, req.Board.Height = 0, 0
	assert.Equal(t, http.StatusBadRequest, post(t, ts, "/start", req).StatusCode, "no bounds")
}

func TestMove_AgentOutsideGrid(t *testing.T) {
	_, ts := newTestServer(t)
	require.Equal(t, http.StatusOK, post(t, ts, "/start", corridor("g1", 0)).StatusCode)

	resp := post(t, ts, "/move", corridor("g1", 9))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Stop", body["move"])
}

func TestMove_RespectsLegal(t *testing.T) {
	_, ts := newTestServer(t)
	req := corridor("g1", 2)
	req.Board.Legal = []string{"west"}
	require.Equal(t, http.StatusOK, post(t, ts, "/start", req).StatusCode)

	var move MoveResponse
	require.NoError(t, json.NewDecoder(post(t, ts, "/move", req).Body).Decode(&move))
	assert.Equal(t, "West", move.Move)
}

func TestStream(t *testing.T) {
	s, ts := newTestServer(t)
	require.Equal(t, http.StatusOK, post(t, ts, "/start", corridor("g1", 0)).StatusCode)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream?game=g1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.count("g1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, post(t, ts, "/move", corridor("g1", 0)).StatusCode)
	require.Equal(t, http.StatusOK, post(t, ts, "/end", corridor("g1", 1)).StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Type string `json:"type"`
		Data Frame  `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "frame", frame.Type)
	assert.Equal(t, "East", frame.Data.Move)
	require.Len(t, frame.Data.Utilities, 1)
	require.Len(t, frame.Data.Utilities[0], 5)
	require.NotNil(t, frame.Data.Utilities[0][4])
	assert.Equal(t, 5.0, *frame.Data.Utilities[0][4])

	var end struct {
		Type string  `json:"type"`
		Data EndInfo `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&end))
	assert.Equal(t, "game_end", end.Type)
	assert.Equal(t, 1, end.Data.Turn)
}

func TestStream_RequiresGame(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTraceAndEpisodeLog(t *testing.T) {
	dir := t.TempDir()
	bw, err := store.NewBatchWriter(filepath.Join(dir, "traces"))
	require.NoError(t, err)
	elog, err := store.OpenEpisodeLog(filepath.Join(dir, "episodes.log"))
	require.NoError(t, err)
	defer elog.Close()

	_, ts := newTestServer(t, WithTrace(bw), WithEpisodeLog(elog))
	require.Equal(t, http.StatusOK, post(t, ts, "/start", corridor("g1", 0)).StatusCode)
	for x := 0; x < 3; x++ {
		require.Equal(t, http.StatusOK, post(t, ts, "/move", corridor("g1", x)).StatusCode)
	}
	require.Equal(t, http.StatusOK, post(t, ts, "/end", corridor("g1", 3)).StatusCode)
	assert.Equal(t, 1, elog.Count())

	out, rows, episodes, err := bw.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, episodes)

	got, err := store.ReadTraceParquet(out)
	require.NoError(t, err)
	require.Len(t, got, 3)
	rec, ok := elog.Lookup(got[0].EpisodeID)
	require.True(t, ok)
	assert.Equal(t, 3, rec.Turns)
	assert.Equal(t, "ended", rec.Outcome)
	assert.Equal(t, "East", got[2].Move)
}
