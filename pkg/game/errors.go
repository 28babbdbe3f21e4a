package game

import "errors"

// Player-caused errors. These are reported back to the offending connection
// only and never change session state.
var (
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameFinished = errors.New("game already finished")
)
