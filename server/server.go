// Package server exposes the planner over HTTP.
//
// A harness calls POST /start once per game, POST /move every turn and
// POST /end when the game finishes. GET /stream?game=<id> upgrades to a
// websocket that receives a "frame" event for every planned move and a
// "game_end" event when the game is over.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
	"github.com/brensch/gridmdp/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Server holds one planning episode per game ID.
type Server struct {
	planner *mdp.Planner
	logger  *slog.Logger
	hub     *hub

	mu       sync.Mutex
	sessions map[string]*session

	trace    *store.BatchWriter
	episodes *store.EpisodeLog

	upgrader websocket.Upgrader
}

type session struct {
	mu     sync.Mutex
	ep     *mdp.Episode
	traces []store.TraceRow
	// closed is set by /end; later moves on this session are refused.
	closed bool
}

// step plans one move on sess. A session closed by /end returns ErrNoEpisode.
func (s *Server) step(sess *session, w *game.World) (mdp.Decision, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return mdp.Decision{Move: game.Stop}, mdp.ErrNoEpisode
	}
	d, err := s.planner.Step(sess.ep, w)
	if err == nil && s.trace != nil {
		sess.traces = append(sess.traces, store.NewTraceRow(d, w, d.Move, 0))
	}
	return d, err
}

// Option configures a Server.
type Option func(*Server)

// WithTrace records every served move and writes each game's rows to bw
// when the game ends.
func WithTrace(bw *store.BatchWriter) Option {
	return func(s *Server) { s.trace = bw }
}

// WithEpisodeLog appends a record of every finished game to l.
func WithEpisodeLog(l *store.EpisodeLog) Option {
	return func(s *Server) { s.episodes = l }
}

func New(planner *mdp.Planner, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		planner:  planner,
		logger:   logger,
		hub:      newHub(),
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleIndex)
	router.POST("/start", s.handleStart)
	router.POST("/move", s.handleMove)
	router.POST("/end", s.handleEnd)
	router.GET("/stream", s.handleStream)
	return router
}

// Sessions returns the number of games currently registered.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		APIVersion: "1",
		Author:     "gridmdp",
		Version:    "1.0.0",
		Planner:    "value-iteration",
	})
}

func bindGame(c *gin.Context) (*GameRequest, *game.World, bool) {
	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	if req.Game.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game.id is required"})
		return nil, nil, false
	}
	w, err := toWorld(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return &req, w, true
}

// handleStart registers a fresh episode for the game, replacing any stale one.
func (s *Server) handleStart(c *gin.Context) {
	req, w, ok := bindGame(c)
	if !ok {
		return
	}
	ep, err := mdp.NewEpisode(w)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.sessions[req.Game.ID] = &session{ep: ep}
	s.mu.Unlock()

	s.logger.Info("game started",
		"game", req.Game.ID,
		"episode", ep.ID,
		"width", ep.Grid.Width,
		"height", ep.Grid.Height,
		"solver", s.planner.Config().SolverFor(ep.Grid).Terminal,
	)
	c.JSON(http.StatusOK, gin.H{"episode_id": ep.ID.String()})
}

func (s *Server) lookup(gameID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[gameID]
}

func (s *Server) handleMove(c *gin.Context) {
	start := time.Now()
	req, w, ok := bindGame(c)
	if !ok {
		return
	}
	sess := s.lookup(req.Game.ID)
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": mdp.ErrNoEpisode.Error()})
		return
	}

	d, err := s.step(sess, w)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, mdp.ErrNoEpisode):
			status = http.StatusNotFound
		case errors.Is(err, mdp.ErrInvalidCoordinate):
			status = http.StatusUnprocessableEntity
		}
		s.logger.Warn("planning failed", "game", req.Game.ID, "turn", req.Turn, "error", err)
		c.JSON(status, gin.H{"error": err.Error(), "move": game.Stop.String()})
		return
	}

	if _, err := s.hub.publish(req.Game.ID, Event{Type: "frame", Data: toFrame(req.Game.ID, d)}); err != nil {
		s.logger.Warn("publish frame", "game", req.Game.ID, "error", err)
	}

	s.logger.Info("move",
		"game", req.Game.ID,
		"turn", d.Turn,
		"move", d.Move,
		"sweeps", d.Stats.Sweeps,
		"elapsed", time.Since(start),
	)
	c.JSON(http.StatusOK, MoveResponse{
		Move:     d.Move.String(),
		Turn:     d.Turn,
		Expected: d.Expected,
		Sweeps:   d.Stats.Sweeps,
	})
}

// handleEnd resets and forgets the game's episode and flushes its trace.
func (s *Server) handleEnd(c *gin.Context) {
	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	sess := s.sessions[req.Game.ID]
	delete(s.sessions, req.Game.ID)
	s.mu.Unlock()
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": mdp.ErrNoEpisode.Error()})
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.closed = true
	info := EndInfo{GameID: req.Game.ID, Turn: sess.ep.Turn, Visited: sess.ep.Visited.Len()}
	episodeID := sess.ep.ID.String()
	s.flush(store.EpisodeRecord{ID: episodeID, Turns: info.Turn, Visited: info.Visited, Outcome: "ended"}, sess.traces)
	sess.ep.Reset()

	if _, err := s.hub.publish(req.Game.ID, Event{Type: "game_end", Data: info}); err != nil {
		s.logger.Warn("publish game_end", "game", req.Game.ID, "error", err)
	}
	s.logger.Info("game ended", "game", req.Game.ID, "episode", episodeID, "turns", info.Turn, "visited", info.Visited)
	c.Status(http.StatusOK)
}

func (s *Server) flush(rec store.EpisodeRecord, rows []store.TraceRow) {
	if s.trace != nil && len(rows) > 0 {
		if err := s.trace.WriteEpisode(rows); err != nil {
			s.logger.Error("write trace", "episode", rec.ID, "error", err)
		}
	}
	if s.episodes != nil {
		if err := s.episodes.Add(rec); err != nil {
			s.logger.Error("append episode log", "episode", rec.ID, "error", err)
		}
	}
}

// handleStream upgrades to a websocket and forwards the game's events until
// either side closes.
func (s *Server) handleStream(c *gin.Context) {
	gameID := c.Query("game")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game query parameter is required"})
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	ch := s.hub.subscribe(gameID)
	defer s.hub.unsubscribe(gameID, ch)
	s.logger.Debug("stream subscribed", "game", gameID)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
