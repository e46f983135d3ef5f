package mdp

import "errors"

var (
	// ErrInvalidDiscount means the discount factor is outside (0, 1].
	ErrInvalidDiscount = errors.New("mdp: discount factor must be in (0, 1]")
	// ErrInvalidCoordinate means a sensed coordinate fell outside the grid bounds.
	ErrInvalidCoordinate = errors.New("mdp: coordinate outside grid bounds")
	// ErrObstacleCell means a write targeted an obstacle-marked cell.
	ErrObstacleCell = errors.New("mdp: cell is an obstacle")
	// ErrInvalidMotionModel means the action-success probabilities do not form a distribution.
	ErrInvalidMotionModel = errors.New("mdp: motion model probabilities must be in [0, 1] and sum to 1")
	// ErrInvalidBudget means a negative iteration budget or buffer radius.
	ErrInvalidBudget = errors.New("mdp: iteration budget and buffer radius must be non-negative")
	// ErrNoEpisode means Step was called without a registered episode.
	ErrNoEpisode = errors.New("mdp: no active episode")
)
