// Package server is the sync transport adapter: it accepts websocket
// clients, delivers their actions to the table engine one at a time, and
// broadcasts the resulting full state to every client of the table.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/catalog"
	"github.com/cardtable/tabletop-server-go/internal/game"
	"github.com/cardtable/tabletop-server-go/internal/session"
)

// ServerMessage is the outbound frame envelope. "state" frames carry the
// full replacement state; there is no diff shape, which keeps client
// reconciliation uniform across action types.
type ServerMessage struct {
	Type       string          `json:"type"`
	TableID    string          `json:"tableId,omitempty"`
	State      *game.GameState `json:"state,omitempty"`
	ActionType string          `json:"actionType,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Drawn      int             `json:"drawn,omitempty"`
	Requested  int             `json:"requested,omitempty"`
	TokenID    string          `json:"tokenId,omitempty"`
}

// Outbound frame types.
const (
	MessageState          = "state"
	MessageActionRejected = "action_rejected"
	MessageDrawResult     = "draw_result"
	MessageError          = "error"
)

// Seat describes one player when creating a table.
type Seat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Hub owns all active tables. Table apply loops live for the hub's context,
// not for any single request or connection.
type Hub struct {
	ctx          context.Context
	logger       *zap.Logger
	sessions     *session.Manager
	catalogRepo  *catalog.Repository // nil when the server runs catalog-less
	startingLife int

	mu     sync.RWMutex
	tables map[string]*tableHub
}

// NewHub creates the hub. catalogRepo may be nil.
func NewHub(ctx context.Context, sessions *session.Manager, catalogRepo *catalog.Repository, startingLife int, logger *zap.Logger) *Hub {
	return &Hub{
		ctx:          ctx,
		logger:       logger,
		sessions:     sessions,
		catalogRepo:  catalogRepo,
		startingLife: startingLife,
		tables:       make(map[string]*tableHub),
	}
}

// CreateTable starts a new table with the given seats and launches its apply
// loop. Actions for one table are applied strictly in arrival order; tables
// are fully independent of each other.
func (h *Hub) CreateTable(name string, seats []Seat) (string, error) {
	if len(seats) == 0 {
		return "", fmt.Errorf("table requires at least one seat")
	}

	engine := game.NewEngine(h.logger)
	engine.SetStartingLife(h.startingLife)

	players := make([]*game.Player, len(seats))
	seen := make(map[string]bool, len(seats))
	for i, seat := range seats {
		if seat.ID == "" {
			return "", fmt.Errorf("seat %d missing player id", i)
		}
		if seen[seat.ID] {
			return "", fmt.Errorf("duplicate player id %s", seat.ID)
		}
		seen[seat.ID] = true
		players[i] = game.NewPlayer(seat.ID, seat.Name, engine.StartingLife())
	}

	t := &tableHub{
		id:          uuid.NewString(),
		name:        name,
		logger:      h.logger,
		engine:      engine,
		store:       game.NewStore(game.NewGameState(players...), h.logger),
		sessions:    h.sessions,
		catalogRepo: h.catalogRepo,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inboundFrame, 64),
		clients:     make(map[*Client]bool),
	}

	h.mu.Lock()
	h.tables[t.id] = t
	h.mu.Unlock()

	go t.run(h.ctx)

	h.logger.Info("table created",
		zap.String("table_id", t.id),
		zap.String("name", name),
		zap.Int("seats", len(seats)),
	)
	return t.id, nil
}

// Table returns a table by id.
func (h *Hub) Table(id string) (*tableHub, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tables[id]
	return t, ok
}

// inboundFrame is one raw client frame awaiting serialized processing.
type inboundFrame struct {
	client *Client
	raw    []byte
}

// tableHub is the per-table serialization point: its run loop is the only
// goroutine that applies actions against the table's store.
type tableHub struct {
	id          string
	name        string
	logger      *zap.Logger
	engine      *game.Engine
	store       *game.Store
	sessions    *session.Manager
	catalogRepo *catalog.Repository

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	clients    map[*Client]bool
}

// ID returns the table id.
func (t *tableHub) ID() string { return t.id }

// Name returns the table name.
func (t *tableHub) Name() string { return t.name }

// State returns a copy of the current table state.
func (t *tableHub) State() *game.GameState { return t.store.State() }

// Snapshot captures the current state for checksum/debug endpoints.
func (t *tableHub) Snapshot() *game.Snapshot {
	return &game.Snapshot{TableID: t.id, State: t.store.State(), Timestamp: time.Now()}
}

func (t *tableHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range t.clients {
				close(client.send)
				delete(t.clients, client)
			}
			return

		case client := <-t.register:
			t.clients[client] = true
			// Late joiners catch up from the full state frame.
			client.enqueue(t.stateFrame())
			t.logger.Info("client joined table",
				zap.String("table_id", t.id),
				zap.String("player_id", client.playerID),
			)

		case client := <-t.unregister:
			if _, ok := t.clients[client]; ok {
				delete(t.clients, client)
				close(client.send)
				t.logger.Info("client left table",
					zap.String("table_id", t.id),
					zap.String("player_id", client.playerID),
				)
			}

		case frame := <-t.inbound:
			t.handleFrame(ctx, frame)
		}
	}
}

// handleFrame decodes and applies one action. Decode failures are transport
// errors reported to the offending client; validation rejections return the
// prior state and are reported without touching anyone else.
func (t *tableHub) handleFrame(ctx context.Context, frame inboundFrame) {
	if frame.client.sessionID != "" {
		t.sessions.Touch(frame.client.sessionID)
	}

	action, err := game.DecodeAction(frame.raw)
	if err != nil {
		t.logger.Warn("undecodable action frame",
			zap.String("table_id", t.id),
			zap.Error(err),
		)
		frame.client.enqueue(encodeMessage(ServerMessage{Type: MessageError, TableID: t.id, Reason: err.Error()}))
		return
	}

	// A connection may only act as the seat it joined with; spectators hold
	// no seat and cannot act at all.
	if action.Player() != frame.client.playerID {
		t.logger.Warn("action player does not match connection",
			zap.String("table_id", t.id),
			zap.String("connection_player_id", frame.client.playerID),
			zap.String("action_player_id", action.Player()),
		)
		frame.client.enqueue(encodeMessage(ServerMessage{
			Type:    MessageError,
			TableID: t.id,
			Reason:  "action player does not match connection",
		}))
		return
	}

	action = t.resolveImport(ctx, action)

	next, res := t.engine.Apply(t.store.State(), action)
	if !res.Applied {
		frame.client.enqueue(encodeMessage(ServerMessage{
			Type:       MessageActionRejected,
			TableID:    t.id,
			ActionType: action.Type(),
			Reason:     res.Reason,
		}))
		return
	}

	t.store.Commit(next)
	state := t.stateFrame()
	for client := range t.clients {
		client.enqueue(state)
	}

	if action.Type() == game.ActionDrawCards && res.Drawn < res.RequestedDraws {
		// Deck-out shortfall: reportable, not an error.
		frame.client.enqueue(encodeMessage(ServerMessage{
			Type:      MessageDrawResult,
			TableID:   t.id,
			Drawn:     res.Drawn,
			Requested: res.RequestedDraws,
		}))
	}
}

// resolveImport fills an import_deck action's card data from the catalog
// when one is configured. Unresolvable names keep the raw name as the
// definition id.
func (t *tableHub) resolveImport(ctx context.Context, action game.Action) game.Action {
	imp, ok := action.(game.ImportDeck)
	if !ok || len(imp.CardData) > 0 || t.catalogRepo == nil {
		return action
	}

	entries, err := catalog.ParseDeckList(imp.DeckListText)
	if err != nil || len(entries) == 0 {
		return action
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resolved, err := t.catalogRepo.ResolveNames(lookupCtx, names)
	if err != nil {
		t.logger.Warn("catalog resolution failed, importing with raw names",
			zap.String("table_id", t.id),
			zap.Error(err),
		)
		return action
	}

	for _, e := range entries {
		defID := e.Name
		if id, ok := resolved[e.Name]; ok {
			defID = id
		}
		imp.CardData = append(imp.CardData, game.ImportCardEntry{
			DefinitionID: defID,
			Name:         e.Name,
			Quantity:     e.Quantity,
		})
	}
	return imp
}

func (t *tableHub) stateFrame() []byte {
	return encodeMessage(ServerMessage{
		Type:    MessageState,
		TableID: t.id,
		State:   t.store.State(),
	})
}

func encodeMessage(msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		// Marshal of our own message types cannot fail at runtime.
		return []byte(`{"type":"error","reason":"internal encoding failure"}`)
	}
	return data
}
