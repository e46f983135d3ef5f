package server

import (
	"fmt"

	"github.com/brensch/gridmdp/game"
	"github.com/brensch/gridmdp/mdp"
)

// InfoResponse is returned from GET /.
type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Version    string `json:"version"`
	Planner    string `json:"planner"`
}

// GameRequest is the body of /start, /move and /end.
type GameRequest struct {
	Game  GameInfo `json:"game"`
	Turn  int      `json:"turn"`
	Board Board    `json:"board"`
}

type GameInfo struct {
	ID string `json:"id"`
}

// Board is the sensed world. Corners may be omitted when Width and Height
// are given.
type Board struct {
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	Corners     []Coord         `json:"corners,omitempty"`
	Walls       []Coord         `json:"walls"`
	Food        []Coord         `json:"food"`
	Capsules    []Coord         `json:"capsules,omitempty"`
	Adversaries []AdversaryInfo `json:"adversaries"`
	Agent       Coord           `json:"agent"`
	// Legal lists the legal move labels. Omitted means unrestricted.
	Legal []string `json:"legal,omitempty"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type AdversaryInfo struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Scared int     `json:"scared,omitempty"`
}

// MoveResponse is the reply to /move.
type MoveResponse struct {
	Move     string     `json:"move"`
	Turn     int        `json:"turn"`
	Expected [4]float64 `json:"expected"`
	Sweeps   int        `json:"sweeps"`
}

// Event is the envelope sent on /stream: {"type": ..., "data": ...}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Frame is the "frame" event payload, one per planned move.
type Frame struct {
	GameID   string     `json:"game_id"`
	Turn     int        `json:"turn"`
	Agent    Coord      `json:"agent"`
	Move     string     `json:"move"`
	Expected [4]float64 `json:"expected"`
	// Utilities is indexed [y][x]; obstacles are null.
	Utilities [][]*float64 `json:"utilities"`
}

// EndInfo is the "game_end" event payload.
type EndInfo struct {
	GameID  string `json:"game_id"`
	Turn    int    `json:"turn"`
	Visited int    `json:"visited"`
}

func toPoints(cs []Coord) []game.Point {
	if len(cs) == 0 {
		return nil
	}
	out := make([]game.Point, len(cs))
	for i, c := range cs {
		out[i] = game.Point{X: c.X, Y: c.Y}
	}
	return out
}

// toWorld converts the request board into a sensed world.
func toWorld(req *GameRequest) (*game.World, error) {
	b := req.Board
	w := &game.World{
		Corners:  toPoints(b.Corners),
		Walls:    toPoints(b.Walls),
		Food:     toPoints(b.Food),
		Capsules: toPoints(b.Capsules),
		Agent:    game.Point{X: b.Agent.X, Y: b.Agent.Y},
		Turn:     req.Turn,
	}
	if len(w.Corners) == 0 && b.Width > 0 && b.Height > 0 {
		w.Corners = game.Corners(b.Width, b.Height)
	}
	for _, a := range b.Adversaries {
		w.Adversaries = append(w.Adversaries, game.Adversary{X: a.X, Y: a.Y, ScaredTimer: a.Scared})
	}
	if b.Legal != nil {
		w.Legal = make([]game.Direction, 0, len(b.Legal))
		for _, s := range b.Legal {
			d, err := game.ParseDirection(s)
			if err != nil {
				return nil, fmt.Errorf("legal: %w", err)
			}
			if d != game.Stop {
				w.Legal = append(w.Legal, d)
			}
		}
	}
	return w, nil
}

func toFrame(gameID string, d mdp.Decision) Frame {
	f := Frame{
		GameID:   gameID,
		Turn:     d.Turn,
		Agent:    Coord{X: d.Agent.X, Y: d.Agent.Y},
		Move:     d.Move.String(),
		Expected: d.Expected,
	}
	if d.Utilities == nil {
		return f
	}
	width, height := d.Utilities.Dims()
	f.Utilities = make([][]*float64, height)
	for y := 0; y < height; y++ {
		row := make([]*float64, width)
		for x := 0; x < width; x++ {
			if v, ok := d.Utilities.UtilityAt(x, y); ok {
				row[x] = &v
			}
		}
		f.Utilities[y] = row
	}
	return f
}
