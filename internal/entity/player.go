package entity

// Player is a browser session. Each session plays exactly one game.
type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
}
