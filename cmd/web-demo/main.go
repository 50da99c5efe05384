// Demo: runs one table in-process and walks through the whole sync story —
// deck import, shuffle, draw, an optimistic drag with the suppression
// window, and a failed commit reverting on the next broadcast. Useful for
// eyeballing the protocol without a browser.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/game"
	"github.com/cardtable/tabletop-server-go/internal/geometry"
	"github.com/cardtable/tabletop-server-go/internal/predictor"
)

const demoDeck = `
4 Lightning Bolt
4 Counterspell
2 Serra Angel
// lands
20 Island
`

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine := game.NewEngine(logger)
	alice := game.NewPlayer("p1", "Alice", engine.StartingLife())
	bob := game.NewPlayer("p2", "Bob", engine.StartingLife())
	store := game.NewStore(game.NewGameState(alice, bob), logger)

	apply := func(raw string) game.Result {
		action, decodeErr := game.DecodeAction([]byte(raw))
		if decodeErr != nil {
			logger.Fatal("bad demo action", zap.Error(decodeErr))
		}
		next, res := engine.Apply(store.State(), action)
		if res.Applied {
			store.Commit(next)
		}
		return res
	}

	// Alice sets up her deck and draws a hand.
	payload, _ := json.Marshal(map[string]any{"deckListText": demoDeck, "deckName": "Demo Burn"})
	apply(fmt.Sprintf(`{"type":"import_deck","playerId":"p1","data":%s}`, payload))
	apply(`{"type":"shuffle_library","playerId":"p1"}`)
	res := apply(`{"type":"draw_cards","playerId":"p1","data":{"count":7}}`)
	logger.Info("opening hand drawn", zap.Int("drawn", res.Drawn))

	// Play the first card to the battlefield.
	state := store.State()
	cardID := state.Players[0].Zones[game.ZoneHand][0]
	apply(fmt.Sprintf(
		`{"type":"move_card","playerId":"p1","data":{"cardId":"%s","fromZone":"hand","toZone":"battlefield","position":{"x":400,"y":300},"isFaceUp":true}}`,
		cardID,
	))

	// Client-side: drag the card optimistically while the server echo is in
	// flight, then observe reconciliation.
	p := predictor.NewCardPredictor(geometry.Point{X: 400, Y: 300}, logger)
	p.StartDrag()
	for i := 1; i <= 5; i++ {
		pos := p.DragTo(400+float64(i)*40, 300+float64(i)*20)
		logger.Info("drag frame", zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
	}
	final := p.Commit()
	apply(fmt.Sprintf(
		`{"type":"move_card","playerId":"p1","data":{"cardId":"%s","fromZone":"battlefield","toZone":"battlefield","position":{"x":%f,"y":%f}}}`,
		cardID, final.X, final.Y,
	))

	// The server echo inside the suppression window is discarded...
	applied := p.ObserveServer(geometry.Point{X: 400, Y: 300})
	logger.Info("echo during window", zap.Bool("applied", applied), zap.Float64("rendered_x", p.Rendered().X))

	// ...and after the window the authoritative position wins.
	time.Sleep(predictor.DefaultSuppressionWindow + 50*time.Millisecond)
	pos := game.Position{}
	if c, ok := store.State().Cards[cardID]; ok {
		pos = c.Position
	}
	p.ObserveServer(geometry.Point{X: pos.X, Y: pos.Y})
	logger.Info("reconciled", zap.Float64("rendered_x", p.Rendered().X), zap.Float64("rendered_y", p.Rendered().Y))

	snapshot := &game.Snapshot{TableID: "demo", State: store.State(), Timestamp: time.Now()}
	checksum, err := snapshot.ComputeChecksum()
	if err != nil {
		logger.Fatal("checksum failed", zap.Error(err))
	}
	logger.Info("final table checksum", zap.String("hash", checksum.Hash))
}
