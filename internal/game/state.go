// Package game implements the authoritative table engine: the state model for
// players, zones and cards, the store holding the canonical state per table,
// and the action processor that is the sole mutation path.
package game

import "encoding/json"

// ZoneName identifies one of a player's six zones.
type ZoneName string

const (
	ZoneLibrary     ZoneName = "library"
	ZoneHand        ZoneName = "hand"
	ZoneBattlefield ZoneName = "battlefield"
	ZoneGraveyard   ZoneName = "graveyard"
	ZoneExile       ZoneName = "exile"
	ZoneCommand     ZoneName = "command"
)

// ZoneOrder lists all zones in canonical order. Library index 0 is the top.
var ZoneOrder = []ZoneName{ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneCommand}

// ValidZone reports whether name is one of the six player zones.
func ValidZone(name ZoneName) bool {
	switch name {
	case ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneCommand:
		return true
	}
	return false
}

// Position is a card's location in battlefield space. Meaningful only while
// the card's zone is the battlefield.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TokenData carries the inline display data of a token, replacing the catalog
// lookup a regular card gets through its definition id.
type TokenData struct {
	Name      string   `json:"name"`
	TypeLine  string   `json:"typeLine"`
	Power     string   `json:"power,omitempty"`
	Toughness string   `json:"toughness,omitempty"`
	RulesText string   `json:"rulesText,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	ImageURL  string   `json:"imageUrl,omitempty"`
}

// Card is one card instance on the table. Zone membership is derived from
// which player zone list contains the instance id; it is never stored here.
type Card struct {
	InstanceID   string     `json:"instanceId"`
	DefinitionID string     `json:"definitionId"`
	Position     Position   `json:"position"`
	Rotation     int        `json:"rotation"` // 0, 90, 180 or 270; 90 means tapped
	IsFaceUp     bool       `json:"isFaceUp"`
	IsToken      bool       `json:"isToken"`
	TokenData    *TokenData `json:"tokenData,omitempty"`
}

// Copy returns a deep copy of the card.
func (c *Card) Copy() *Card {
	cp := *c
	if c.TokenData != nil {
		td := *c.TokenData
		td.Colors = append([]string(nil), c.TokenData.Colors...)
		cp.TokenData = &td
	}
	return &cp
}

// ValidRotation reports whether r is one of the discrete rotations.
func ValidRotation(r int) bool {
	return r == 0 || r == 90 || r == 180 || r == 270
}

// DeckListInfo records the metadata of the most recent deck import.
type DeckListInfo struct {
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
}

// Player owns six zones of cards, a life total, and an opaque blob of
// auxiliary counters that the engine stores and returns unopened (commander
// damage, poison, energy and custom counters belong to the presentation
// layer).
type Player struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Life          int                   `json:"life"`
	Zones         map[ZoneName][]string `json:"zones"`
	DeckList      *DeckListInfo         `json:"deckList,omitempty"`
	GameStateInfo json.RawMessage       `json:"gameStateInfo,omitempty"`
}

// NewPlayer creates a player with empty zones.
func NewPlayer(id, name string, life int) *Player {
	zones := make(map[ZoneName][]string, len(ZoneOrder))
	for _, z := range ZoneOrder {
		zones[z] = []string{}
	}
	return &Player{ID: id, Name: name, Life: life, Zones: zones}
}

// Copy returns a deep copy of the player.
func (p *Player) Copy() *Player {
	cp := *p
	cp.Zones = make(map[ZoneName][]string, len(p.Zones))
	for name, ids := range p.Zones {
		cp.Zones[name] = append([]string(nil), ids...)
	}
	if p.DeckList != nil {
		dl := *p.DeckList
		cp.DeckList = &dl
	}
	cp.GameStateInfo = append(json.RawMessage(nil), p.GameStateInfo...)
	return &cp
}

// zoneIndex returns the position of cardID in the named zone, or -1.
func (p *Player) zoneIndex(zone ZoneName, cardID string) int {
	for i, id := range p.Zones[zone] {
		if id == cardID {
			return i
		}
	}
	return -1
}

// CardZone returns the zone containing cardID, if any.
func (p *Player) CardZone(cardID string) (ZoneName, bool) {
	for _, zone := range ZoneOrder {
		if p.zoneIndex(zone, cardID) >= 0 {
			return zone, true
		}
	}
	return "", false
}

// GameState is the root aggregate for one table.
type GameState struct {
	Players []*Player        `json:"players"`
	Cards   map[string]*Card `json:"cards"`
}

// NewGameState creates an empty state for the given players.
func NewGameState(players ...*Player) *GameState {
	return &GameState{
		Players: players,
		Cards:   make(map[string]*Card),
	}
}

// Copy returns a deep copy of the state. Handlers mutate copies; the store
// only ever swaps whole states.
func (s *GameState) Copy() *GameState {
	cp := &GameState{
		Players: make([]*Player, len(s.Players)),
		Cards:   make(map[string]*Card, len(s.Cards)),
	}
	for i, p := range s.Players {
		cp.Players[i] = p.Copy()
	}
	for id, c := range s.Cards {
		cp.Cards[id] = c.Copy()
	}
	return cp
}

// Player returns the player with the given id.
func (s *GameState) Player(id string) (*Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CardOwner returns the player and zone holding cardID.
func (s *GameState) CardOwner(cardID string) (*Player, ZoneName, bool) {
	for _, p := range s.Players {
		if zone, ok := p.CardZone(cardID); ok {
			return p, zone, true
		}
	}
	return nil, "", false
}
