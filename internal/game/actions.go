package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action type tags as they appear on the wire.
const (
	ActionMoveCard            = "move_card"
	ActionRotateCard          = "rotate_card"
	ActionRotateCardsBatch    = "rotate_cards_batch"
	ActionTapCard             = "tap_card"
	ActionUntapCard           = "untap_card"
	ActionFlipCard            = "flip_card"
	ActionUpdateLife          = "update_life"
	ActionUpdateGameStateInfo = "update_game_state_info"
	ActionShuffleLibrary      = "shuffle_library"
	ActionDrawCards           = "draw_cards"
	ActionImportDeck          = "import_deck"
	ActionCreateToken         = "create_token"
	ActionRestart             = "restart"
)

// Library placement values for move_card targeting the library.
const (
	LibraryTop    = "top"
	LibraryBottom = "bottom"
)

// Action is one decoded table mutation. The wire envelope {type, playerId,
// data} is decoded into exactly one variant so dispatch is an exhaustive
// switch instead of a string-keyed table.
type Action interface {
	// Type returns the wire tag of the action.
	Type() string
	// Player returns the acting player id. Every action targets the acting
	// player's own zones only.
	Player() string
}

// actionBase carries the acting player shared by all variants.
type actionBase struct {
	PlayerID string `json:"-"`
}

func (b actionBase) Player() string { return b.PlayerID }

// MoveCard moves one card between two of the acting player's zones. Position
// is required for a battlefield target and clamped to the surface.
// LibraryPlacement chooses the insertion end for a library target.
type MoveCard struct {
	actionBase
	CardID           string    `json:"cardId"`
	FromZone         ZoneName  `json:"fromZone"`
	ToZone           ZoneName  `json:"toZone"`
	Position         *Position `json:"position,omitempty"`
	LibraryPlacement string    `json:"libraryPlacement,omitempty"`
	IsFaceUp         *bool     `json:"isFaceUp,omitempty"`
	IsTapped         *bool     `json:"isTapped,omitempty"`
}

func (MoveCard) Type() string { return ActionMoveCard }

// RotateCard sets the rotation of one battlefield card.
type RotateCard struct {
	actionBase
	CardID   string `json:"cardId"`
	Rotation int    `json:"rotation"`
}

func (RotateCard) Type() string { return ActionRotateCard }

// RotateCardsBatch sets the rotation of several battlefield cards atomically:
// one invalid id rejects the whole batch.
type RotateCardsBatch struct {
	actionBase
	CardIDs  []string `json:"cardIds"`
	Rotation int      `json:"rotation"`
}

func (RotateCardsBatch) Type() string { return ActionRotateCardsBatch }

// TapCard is shorthand for rotation 90.
type TapCard struct {
	actionBase
	CardID string `json:"cardId"`
}

func (TapCard) Type() string { return ActionTapCard }

// UntapCard is shorthand for rotation 0.
type UntapCard struct {
	actionBase
	CardID string `json:"cardId"`
}

func (UntapCard) Type() string { return ActionUntapCard }

// FlipCard sets a card's face-up flag.
type FlipCard struct {
	actionBase
	CardID   string `json:"cardId"`
	IsFaceUp bool   `json:"isFaceUp"`
}

func (FlipCard) Type() string { return ActionFlipCard }

// UpdateLife sets the acting player's life to an absolute value. The client
// computes deltas; life may go negative.
type UpdateLife struct {
	actionBase
	Life int `json:"life"`
}

func (UpdateLife) Type() string { return ActionUpdateLife }

// UpdateGameStateInfo replaces the acting player's opaque counter blob,
// last-writer-wins.
type UpdateGameStateInfo struct {
	actionBase
	GameStateInfo json.RawMessage `json:"gameStateInfo"`
}

func (UpdateGameStateInfo) Type() string { return ActionUpdateGameStateInfo }

// ShuffleLibrary re-orders the acting player's library server-side.
type ShuffleLibrary struct {
	actionBase
}

func (ShuffleLibrary) Type() string { return ActionShuffleLibrary }

// DrawCards moves count cards from the top of the library to the end of the
// hand. A shortfall is a reportable outcome, not a failure.
type DrawCards struct {
	actionBase
	Count int `json:"count"`
}

func (DrawCards) Type() string { return ActionDrawCards }

// ImportCardEntry is one resolved decklist line.
type ImportCardEntry struct {
	DefinitionID string `json:"definitionId"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
}

// ImportDeck rebuilds the acting player's zones from a decklist: library
// filled, every other zone emptied. Other players are untouched. CardData
// carries resolved entries when a catalog was available; otherwise the raw
// decklist text is parsed and card names stand in for definition ids.
type ImportDeck struct {
	actionBase
	DeckListText string            `json:"deckListText"`
	DeckName     string            `json:"deckName"`
	CardData     []ImportCardEntry `json:"cardData,omitempty"`
}

func (ImportDeck) Type() string { return ActionImportDeck }

// CreateToken places a brand-new token card directly onto the battlefield.
type CreateToken struct {
	actionBase
	TokenData TokenData `json:"tokenData"`
	Position  Position  `json:"position"`
}

func (CreateToken) Type() string { return ActionCreateToken }

// Restart replaces the whole table state with a fresh one for the same
// players.
type Restart struct {
	actionBase
}

func (Restart) Type() string { return ActionRestart }

// Envelope is the wire shape of every action.
type Envelope struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId"`
	Data     json.RawMessage `json:"data"`
}

// DecodeAction decodes a wire envelope into its Action variant. Unknown types
// and malformed payloads are transport errors, not engine rejections.
func DecodeAction(raw []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode action envelope: %w", err)
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope decodes an already-parsed envelope.
func DecodeEnvelope(env Envelope) (Action, error) {
	playerID := strings.TrimSpace(env.PlayerID)
	if playerID == "" {
		return nil, fmt.Errorf("action %q missing playerId", env.Type)
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	decode := func(v any) error {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
		}
		return nil
	}

	base := actionBase{PlayerID: playerID}

	switch env.Type {
	case ActionMoveCard:
		a := MoveCard{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionRotateCard:
		a := RotateCard{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionRotateCardsBatch:
		a := RotateCardsBatch{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionTapCard:
		a := TapCard{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionUntapCard:
		a := UntapCard{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionFlipCard:
		a := FlipCard{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionUpdateLife:
		a := UpdateLife{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionUpdateGameStateInfo:
		a := UpdateGameStateInfo{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionShuffleLibrary:
		return ShuffleLibrary{actionBase: base}, nil
	case ActionDrawCards:
		a := DrawCards{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionImportDeck:
		a := ImportDeck{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionCreateToken:
		a := CreateToken{actionBase: base}
		if err := decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionRestart:
		return Restart{actionBase: base}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
}
