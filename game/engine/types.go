package engine

import "slices"

// Mountain identifies one of the six climbing tracks by its dice sum
type Mountain int

const (
	MountainFive  Mountain = 5
	MountainSix   Mountain = 6
	MountainSeven Mountain = 7
	MountainEight Mountain = 8
	MountainNine  Mountain = 9
	MountainTen   Mountain = 10

	MinMountain   = MountainFive
	MaxMountain   = MountainTen
	MountainCount = 6

	// Validation constants
	MinPlayers  = 2
	MaxPlayers  = 4
	DiceCount   = 4
	MinDieValue = 1
	MaxDieValue = 6
	MinChangeTo = 2
	BonusCount  = 4
)

// Mountains lists every mountain in ascending order
var Mountains = [MountainCount]Mountain{
	MountainFive, MountainSix, MountainSeven, MountainEight, MountainNine, MountainTen,
}

var (
	mountainHeights    = [MountainCount]int{4, 4, 3, 3, 2, 2}
	basePointTokens    = [MountainCount]int{12, 11, 10, 9, 8, 7}
	bonusTokenValues   = [BonusCount]int{15, 12, 9, 6}
	playerColorsInTurn = [MaxPlayers]PlayerColor{Black, White, Red, Yellow}
)

// Valid reports whether m is one of the six mountains
func (m Mountain) Valid() bool {
	return m >= MinMountain && m <= MaxMountain
}

// Index returns the position of m in per-mountain arrays
func (m Mountain) Index() int {
	return int(m - MinMountain)
}

// Height returns the number of rows on the mountain
func (m Mountain) Height() int {
	if !m.Valid() {
		return 0
	}
	return mountainHeights[m.Index()]
}

// PlayerColor is the goat color owned by a player
type PlayerColor string

const (
	Black  PlayerColor = "black"
	White  PlayerColor = "white"
	Red    PlayerColor = "red"
	Yellow PlayerColor = "yellow"
)

// Cell is one row of a mountain. Row 0 is the top.
type Cell struct {
	Column     Mountain      `json:"column"`
	RowIndex   int           `json:"row_index"`
	IsTop      bool          `json:"is_top"`
	OccupiedBy []PlayerColor `json:"occupied_by"`
}

// CellRef points at a cell without carrying its occupants
type CellRef struct {
	Mountain Mountain `json:"mountain"`
	Row      int      `json:"row"`
}

// Die is one of the four dice
type Die struct {
	Value     int  `json:"value"`
	Locked    bool `json:"locked"`
	CanChange bool `json:"can_change"`
	Selected  bool `json:"selected"`
	Used      bool `json:"used"`
}

// PointToken is worth its mountain's value
type PointToken struct {
	Value     int  `json:"value"`
	Available bool `json:"available"`
	ClaimedBy *int `json:"claimed_by,omitempty"`
}

// BonusToken is awarded for a complete set of point tokens
type BonusToken struct {
	Value     int  `json:"value"`
	Available bool `json:"available"`
	ClaimedBy *int `json:"claimed_by,omitempty"`
}

// Player is a seat at the table
type Player struct {
	Color         PlayerColor `json:"color"`
	Name          string      `json:"name"`
	Score         int         `json:"score"`
	CellsOccupied []CellRef   `json:"cells_occupied"`
}

// EventKind classifies a game log entry
type EventKind string

const (
	EventGameStarted    EventKind = "game_started"
	EventDiceRolled     EventKind = "dice_rolled"
	EventDieChanged     EventKind = "die_changed"
	EventGoatMoved      EventKind = "goat_moved"
	EventGoatReachedTop EventKind = "goat_reached_top"
	EventTokenClaimed   EventKind = "token_claimed"
	EventBonusClaimed   EventKind = "bonus_claimed"
	EventTurnStarted    EventKind = "turn_started"
	EventGameEnded      EventKind = "game_ended"
)

// EventPayload carries the parameters of a log entry. Only the fields
// relevant to the entry's kind are set.
type EventPayload struct {
	Dice         []int    `json:"dice,omitempty"`
	DieIndex     int      `json:"die_index,omitempty"`
	Value        int      `json:"value,omitempty"`
	Mountain     Mountain `json:"mountain,omitempty"`
	Sum          int      `json:"sum,omitempty"`
	Row          int      `json:"row,omitempty"`
	AlreadyOnTop bool     `json:"already_on_top,omitempty"`
	Winners      []string `json:"winners,omitempty"`
	Score        int      `json:"score,omitempty"`
	NumPlayers   int      `json:"num_players,omitempty"`
}

// LogEntry is one structured record in the game log
type LogEntry struct {
	Turn        int          `json:"turn"`
	PlayerIndex int          `json:"player_index"`
	PlayerName  string       `json:"player_name"`
	Kind        EventKind    `json:"kind"`
	Payload     EventPayload `json:"payload"`
	Timestamp   int64        `json:"timestamp"`
}

// GameState represents the complete game state
type GameState struct {
	NumPlayers         int                          `json:"num_players"`
	Players            []Player                     `json:"players"`
	CurrentPlayerIndex int                          `json:"current_player_index"`
	CurrentTurn        int                          `json:"current_turn"`
	Cells              [MountainCount][]Cell        `json:"cells"`
	PlayerPieces       [MountainCount][]PlayerColor `json:"player_pieces"`
	PointTokens        []PointToken                 `json:"point_tokens"`
	BonusTokens        [BonusCount]BonusToken       `json:"bonus_tokens"`
	Dice               [DiceCount]Die               `json:"dice"`
	GameLog            []LogEntry                   `json:"game_log"`
	GameOver           bool                         `json:"game_over"`

	// End-game grace round bookkeeping
	GameEndTriggered         bool  `json:"game_end_triggered"`
	TurnsSinceEndCondition   int   `json:"turns_since_end_condition"`
	PlayersPlayedInLastRound []int `json:"players_played_in_last_round"`

	// Preferences passed through for the presentation layer
	Language   string `json:"language"`
	SoundMuted bool   `json:"sound_muted"`
}

// MountainCells returns the rows of mountain m, top first
func (gs *GameState) MountainCells(m Mountain) []Cell {
	if !m.Valid() {
		return nil
	}
	return gs.Cells[m.Index()]
}

// Foot returns the colors waiting at the foot of mountain m
func (gs *GameState) Foot(m Mountain) []PlayerColor {
	if !m.Valid() {
		return nil
	}
	return gs.PlayerPieces[m.Index()]
}

// Clone returns a deep copy that shares no memory with gs
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs

	c.Players = make([]Player, len(gs.Players))
	for i, p := range gs.Players {
		p.CellsOccupied = slices.Clone(p.CellsOccupied)
		c.Players[i] = p
	}
	for m := range gs.Cells {
		c.Cells[m] = make([]Cell, len(gs.Cells[m]))
		for row, cell := range gs.Cells[m] {
			cell.OccupiedBy = slices.Clone(cell.OccupiedBy)
			c.Cells[m][row] = cell
		}
		c.PlayerPieces[m] = slices.Clone(gs.PlayerPieces[m])
	}

	c.PointTokens = slices.Clone(gs.PointTokens)
	for i := range c.PointTokens {
		c.PointTokens[i].ClaimedBy = cloneIntPtr(c.PointTokens[i].ClaimedBy)
	}
	for i := range c.BonusTokens {
		c.BonusTokens[i].ClaimedBy = cloneIntPtr(c.BonusTokens[i].ClaimedBy)
	}

	c.GameLog = make([]LogEntry, len(gs.GameLog))
	for i, entry := range gs.GameLog {
		entry.Payload.Dice = slices.Clone(entry.Payload.Dice)
		entry.Payload.Winners = slices.Clone(entry.Payload.Winners)
		c.GameLog[i] = entry
	}
	c.PlayersPlayedInLastRound = slices.Clone(gs.PlayersPlayedInLastRound)
	return &c
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}
