package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/tabletop-server-go/internal/game"
)

func TestDecodeActionVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"move_card with battlefield position",
			`{"type":"move_card","playerId":"p1","data":{"cardId":"c1","fromZone":"hand","toZone":"battlefield","position":{"x":10,"y":20},"isFaceUp":true}}`,
			game.ActionMoveCard,
		},
		{
			"move_card with library placement",
			`{"type":"move_card","playerId":"p1","data":{"cardId":"c1","fromZone":"hand","toZone":"library","libraryPlacement":"bottom"}}`,
			game.ActionMoveCard,
		},
		{
			"rotate_cards_batch",
			`{"type":"rotate_cards_batch","playerId":"p1","data":{"cardIds":["c1","c2"],"rotation":90}}`,
			game.ActionRotateCardsBatch,
		},
		{
			"shuffle without data",
			`{"type":"shuffle_library","playerId":"p1"}`,
			game.ActionShuffleLibrary,
		},
		{
			"restart without data",
			`{"type":"restart","playerId":"p1"}`,
			game.ActionRestart,
		},
		{
			"update_game_state_info keeps blob opaque",
			`{"type":"update_game_state_info","playerId":"p1","data":{"gameStateInfo":{"anything":["goes",1,true]}}}`,
			game.ActionUpdateGameStateInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := game.DecodeAction([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, action.Type())
			assert.Equal(t, "p1", action.Player())
		})
	}
}

func TestDecodeActionFieldFidelity(t *testing.T) {
	raw := `{"type":"move_card","playerId":"p7","data":{"cardId":"c9","fromZone":"graveyard","toZone":"battlefield","position":{"x":12.5,"y":34.25},"isTapped":true}}`
	action, err := game.DecodeAction([]byte(raw))
	require.NoError(t, err)

	move, ok := action.(game.MoveCard)
	require.True(t, ok)
	assert.Equal(t, "c9", move.CardID)
	assert.Equal(t, game.ZoneGraveyard, move.FromZone)
	assert.Equal(t, game.ZoneBattlefield, move.ToZone)
	require.NotNil(t, move.Position)
	assert.Equal(t, 12.5, move.Position.X)
	require.NotNil(t, move.IsTapped)
	assert.True(t, *move.IsTapped)
	assert.Nil(t, move.IsFaceUp)
}

func TestDecodeActionErrors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		_, err := game.DecodeAction([]byte(`{"type":"cast_fireball","playerId":"p1"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown action type")
	})

	t.Run("missing playerId", func(t *testing.T) {
		_, err := game.DecodeAction([]byte(`{"type":"draw_cards","data":{"count":1}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "playerId")
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := game.DecodeAction([]byte(`{"type":`))
		require.Error(t, err)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := game.DecodeAction([]byte(`{"type":"draw_cards","playerId":"p1","data":{"count":"seven"}}`))
		require.Error(t, err)
	})
}
