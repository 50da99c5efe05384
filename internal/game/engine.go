package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/catalog"
	"github.com/cardtable/tabletop-server-go/internal/geometry"
)

// DefaultStartingLife is used when no table config overrides it.
const DefaultStartingLife = 40

// Result reports the outcome of applying one action. A rejection is not an
// error: the caller's view of the table was stale.
type Result struct {
	Applied bool
	Reason  string // rejection reason, for logs and the issuing client

	// Draw shortfall reporting ("drew 3 of requested 7").
	Drawn          int
	RequestedDraws int

	// TokenID is the instance id allocated by create_token.
	TokenID string
}

// Engine validates and executes actions against a GameState. Apply never
// mutates its input: handlers work on a deep copy and either the copy is
// returned whole or the original state is returned unchanged, which is what
// makes multi-field handlers atomic.
//
// An Engine is not safe for concurrent use. Each table applies actions from
// a single goroutine in arrival order; create one Engine per table.
type Engine struct {
	logger       *zap.Logger
	rng          *rand.Rand
	startingLife int
	newID        func() string
}

// NewEngine creates an engine with a crypto-seeded shuffle rng, so no client
// can predict or influence library order.
func NewEngine(logger *zap.Logger) *Engine {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil && logger != nil {
		logger.Warn("falling back to zero shuffle seed", zap.Error(err))
	}
	return &Engine{
		logger:       logger,
		rng:          rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))),
		startingLife: DefaultStartingLife,
		newID:        uuid.NewString,
	}
}

// SetStartingLife overrides the life total used by restart and new players.
func (e *Engine) SetStartingLife(life int) {
	if life > 0 {
		e.startingLife = life
	}
}

// StartingLife returns the configured starting life total.
func (e *Engine) StartingLife() int { return e.startingLife }

// Apply produces the next state for an action, or the unchanged prior state
// on a validation rejection. No error crosses this boundary; transport
// failures are the caller's concern.
func (e *Engine) Apply(state *GameState, action Action) (*GameState, Result) {
	next := state.Copy()
	res := Result{Applied: true}

	var err error
	switch a := action.(type) {
	case MoveCard:
		err = e.moveCard(next, a)
	case RotateCard:
		err = e.rotateCards(next, a.PlayerID, []string{a.CardID}, a.Rotation)
	case RotateCardsBatch:
		err = e.rotateCards(next, a.PlayerID, a.CardIDs, a.Rotation)
	case TapCard:
		err = e.rotateCards(next, a.PlayerID, []string{a.CardID}, 90)
	case UntapCard:
		err = e.rotateCards(next, a.PlayerID, []string{a.CardID}, 0)
	case FlipCard:
		err = e.flipCard(next, a)
	case UpdateLife:
		err = e.updateLife(next, a)
	case UpdateGameStateInfo:
		err = e.updateGameStateInfo(next, a)
	case ShuffleLibrary:
		err = e.shuffleLibrary(next, a)
	case DrawCards:
		err = e.drawCards(next, a, &res)
	case ImportDeck:
		err = e.importDeck(next, a)
	case CreateToken:
		err = e.createToken(next, a, &res)
	case Restart:
		next = e.restart(next)
	default:
		err = fmt.Errorf("unhandled action type %q", action.Type())
	}

	if err != nil {
		if e.logger != nil {
			e.logger.Debug("action rejected",
				zap.String("action_type", action.Type()),
				zap.String("player_id", action.Player()),
				zap.String("reason", err.Error()),
			)
		}
		return state, Result{Applied: false, Reason: err.Error()}
	}
	return next, res
}

// actingPlayer resolves the acting player; every action targets only the
// acting player's own zones.
func actingPlayer(st *GameState, playerID string) (*Player, error) {
	p, ok := st.Player(playerID)
	if !ok {
		return nil, fmt.Errorf("player %s not at table", playerID)
	}
	return p, nil
}

func (e *Engine) moveCard(st *GameState, a MoveCard) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	if !ValidZone(a.FromZone) || !ValidZone(a.ToZone) {
		return fmt.Errorf("invalid zone %q -> %q", a.FromZone, a.ToZone)
	}
	card, ok := st.Cards[a.CardID]
	if !ok {
		return fmt.Errorf("card %s does not exist", a.CardID)
	}

	// Replay guard: the card must still be where the client thinks it is.
	idx := p.zoneIndex(a.FromZone, a.CardID)
	if idx < 0 {
		return fmt.Errorf("card %s not in %s", a.CardID, a.FromZone)
	}

	from := p.Zones[a.FromZone]
	p.Zones[a.FromZone] = append(from[:idx], from[idx+1:]...)

	switch a.ToZone {
	case ZoneBattlefield:
		if a.Position == nil {
			return fmt.Errorf("battlefield move requires a position")
		}
		// Clients clamp before sending; clamp again to protect against
		// tampered clients.
		clamped := geometry.ClampToBattlefield(a.Position.X, a.Position.Y)
		card.Position = Position{X: clamped.X, Y: clamped.Y}
		p.Zones[ZoneBattlefield] = append(p.Zones[ZoneBattlefield], a.CardID)
	case ZoneLibrary:
		switch a.LibraryPlacement {
		case "", LibraryTop:
			p.Zones[ZoneLibrary] = append([]string{a.CardID}, p.Zones[ZoneLibrary]...)
		case LibraryBottom:
			p.Zones[ZoneLibrary] = append(p.Zones[ZoneLibrary], a.CardID)
		default:
			return fmt.Errorf("invalid library placement %q", a.LibraryPlacement)
		}
	default:
		p.Zones[a.ToZone] = append(p.Zones[a.ToZone], a.CardID)
	}

	if a.IsFaceUp != nil {
		card.IsFaceUp = *a.IsFaceUp
	}
	if a.ToZone == ZoneBattlefield {
		if a.IsTapped != nil {
			if *a.IsTapped {
				card.Rotation = 90
			} else {
				card.Rotation = 0
			}
		}
	} else {
		// Cards leave the battlefield untapped.
		card.Rotation = 0
	}
	return nil
}

// rotateCards backs rotate_card, tap_card, untap_card and the batch variant.
// Validation runs over the whole batch before any card changes, so a single
// stale id leaves every listed card untouched.
func (e *Engine) rotateCards(st *GameState, playerID string, cardIDs []string, rotation int) error {
	p, err := actingPlayer(st, playerID)
	if err != nil {
		return err
	}
	if !ValidRotation(rotation) {
		return fmt.Errorf("invalid rotation %d", rotation)
	}
	if len(cardIDs) == 0 {
		return fmt.Errorf("no cards to rotate")
	}
	for _, id := range cardIDs {
		if p.zoneIndex(ZoneBattlefield, id) < 0 {
			return fmt.Errorf("card %s not on battlefield", id)
		}
	}
	for _, id := range cardIDs {
		st.Cards[id].Rotation = rotation
	}
	return nil
}

func (e *Engine) flipCard(st *GameState, a FlipCard) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	if _, ok := p.CardZone(a.CardID); !ok {
		return fmt.Errorf("card %s not owned by %s", a.CardID, a.PlayerID)
	}
	st.Cards[a.CardID].IsFaceUp = a.IsFaceUp
	return nil
}

func (e *Engine) updateLife(st *GameState, a UpdateLife) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	// Absolute value, computed client-side. Negative life is legal.
	p.Life = a.Life
	return nil
}

func (e *Engine) updateGameStateInfo(st *GameState, a UpdateGameStateInfo) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	// Opaque blob, stored unopened. Last writer wins.
	p.GameStateInfo = append(p.GameStateInfo[:0:0], a.GameStateInfo...)
	return nil
}

func (e *Engine) shuffleLibrary(st *GameState, a ShuffleLibrary) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	lib := p.Zones[ZoneLibrary]
	// Fisher-Yates with the server's rng; clients never see or seed it.
	for i := len(lib) - 1; i > 0; i-- {
		j := e.rng.IntN(i + 1)
		lib[i], lib[j] = lib[j], lib[i]
	}
	return nil
}

func (e *Engine) drawCards(st *GameState, a DrawCards, res *Result) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	if a.Count < 0 {
		return fmt.Errorf("invalid draw count %d", a.Count)
	}

	lib := p.Zones[ZoneLibrary]
	drawn := a.Count
	if drawn > len(lib) {
		// Deck-out is a reportable outcome, not a processing error.
		drawn = len(lib)
	}
	p.Zones[ZoneHand] = append(p.Zones[ZoneHand], lib[:drawn]...)
	p.Zones[ZoneLibrary] = lib[drawn:]

	res.Drawn = drawn
	res.RequestedDraws = a.Count
	return nil
}

func (e *Engine) importDeck(st *GameState, a ImportDeck) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}

	entries := a.CardData
	if len(entries) == 0 {
		parsed, perr := catalog.ParseDeckList(a.DeckListText)
		if perr != nil {
			return fmt.Errorf("decklist unusable: %w", perr)
		}
		for _, line := range parsed {
			// No catalog resolution available: card names stand in for
			// definition ids.
			entries = append(entries, ImportCardEntry{DefinitionID: line.Name, Name: line.Name, Quantity: line.Quantity})
		}
	}
	if len(entries) == 0 {
		return fmt.Errorf("decklist is empty")
	}

	// Full reset for this player only: drop every card they hold, then
	// rebuild the library. The never-destroy-cards invariant is deliberately
	// suspended here.
	for _, zone := range ZoneOrder {
		for _, id := range p.Zones[zone] {
			delete(st.Cards, id)
		}
		p.Zones[zone] = []string{}
	}

	count := 0
	for _, entry := range entries {
		qty := entry.Quantity
		if qty <= 0 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			id := e.newID()
			st.Cards[id] = &Card{
				InstanceID:   id,
				DefinitionID: entry.DefinitionID,
				IsFaceUp:     false,
			}
			p.Zones[ZoneLibrary] = append(p.Zones[ZoneLibrary], id)
			count++
		}
	}

	p.DeckList = &DeckListInfo{Name: a.DeckName, CardCount: count}
	return nil
}

func (e *Engine) createToken(st *GameState, a CreateToken, res *Result) error {
	p, err := actingPlayer(st, a.PlayerID)
	if err != nil {
		return err
	}
	if a.TokenData.Name == "" {
		return fmt.Errorf("token requires a name")
	}

	clamped := geometry.ClampToBattlefield(a.Position.X, a.Position.Y)
	id := e.newID()
	td := a.TokenData
	st.Cards[id] = &Card{
		InstanceID: id,
		Position:   Position{X: clamped.X, Y: clamped.Y},
		IsFaceUp:   true,
		IsToken:    true,
		TokenData:  &td,
	}
	p.Zones[ZoneBattlefield] = append(p.Zones[ZoneBattlefield], id)

	res.TokenID = id
	return nil
}

// restart replaces the state wholesale: same seats, fresh everything else.
func (e *Engine) restart(st *GameState) *GameState {
	players := make([]*Player, len(st.Players))
	for i, p := range st.Players {
		players[i] = NewPlayer(p.ID, p.Name, e.startingLife)
	}
	return NewGameState(players...)
}
