package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSnapshot() *Snapshot {
	alice := NewPlayer("player1", "Alice", 40)
	bob := NewPlayer("player2", "Bob", 38)
	alice.GameStateInfo = json.RawMessage(`{"poison":2}`)

	st := NewGameState(alice, bob)
	st.Cards["card1"] = &Card{InstanceID: "card1", DefinitionID: "def-bolt", IsFaceUp: true, Position: Position{X: 120, Y: 340}}
	st.Cards["card2"] = &Card{InstanceID: "card2", DefinitionID: "def-bear", Rotation: 90}
	st.Cards["card3"] = &Card{
		InstanceID: "card3",
		IsToken:    true,
		IsFaceUp:   true,
		TokenData:  &TokenData{Name: "Soldier", TypeLine: "Token Creature — Soldier", Power: "1", Toughness: "1"},
	}
	alice.Zones[ZoneBattlefield] = []string{"card1", "card3"}
	bob.Zones[ZoneBattlefield] = []string{"card2"}

	return &Snapshot{
		TableID:   "table-1",
		State:     st,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestComputeChecksum verifies that checksums are computed correctly
func TestComputeChecksum(t *testing.T) {
	snapshot := createTestSnapshot()

	checksum, err := snapshot.ComputeChecksum()
	require.NoError(t, err)
	assert.NotEmpty(t, checksum.Hash)
	assert.Equal(t, 1, checksum.Version)
	assert.NotEmpty(t, checksum.Timestamp)
}

// TestDeterministicChecksum verifies that identical snapshots produce identical checksums
// regardless of map iteration order (which is randomized in Go)
func TestDeterministicChecksum(t *testing.T) {
	checksums := make([]string, 10)
	for i := 0; i < 10; i++ {
		snapshot := createTestSnapshot()
		checksum, err := snapshot.ComputeChecksum()
		require.NoError(t, err)
		checksums[i] = checksum.Hash
	}

	expected := checksums[0]
	for i := 1; i < len(checksums); i++ {
		assert.Equal(t, expected, checksums[i],
			"Checksum %d differs from checksum 0 - not deterministic", i)
	}
}

// TestChecksumIgnoresTimestamp verifies that capture time does not affect the hash
func TestChecksumIgnoresTimestamp(t *testing.T) {
	snapshot1 := createTestSnapshot()
	checksum1, err := snapshot1.ComputeChecksum()
	require.NoError(t, err)

	snapshot2 := createTestSnapshot()
	snapshot2.Timestamp = snapshot2.Timestamp.Add(1 * time.Hour)
	checksum2, err := snapshot2.ComputeChecksum()
	require.NoError(t, err)

	assert.Equal(t, checksum1.Hash, checksum2.Hash)
}

// TestChecksumDetectsStateChanges verifies that every mutated field moves the hash
func TestChecksumDetectsStateChanges(t *testing.T) {
	base, err := createTestSnapshot().ComputeChecksum()
	require.NoError(t, err)

	mutations := map[string]func(*Snapshot){
		"player life":   func(s *Snapshot) { s.State.Players[0].Life = 10 },
		"counter blob":  func(s *Snapshot) { s.State.Players[0].GameStateInfo = json.RawMessage(`{"poison":9}`) },
		"card position": func(s *Snapshot) { s.State.Cards["card1"].Position.X = 121 },
		"card rotation": func(s *Snapshot) { s.State.Cards["card2"].Rotation = 0 },
		"zone order":    func(s *Snapshot) { s.State.Players[0].Zones[ZoneBattlefield] = []string{"card3", "card1"} },
		"zone move": func(s *Snapshot) {
			s.State.Players[0].Zones[ZoneBattlefield] = []string{"card1"}
			s.State.Players[0].Zones[ZoneGraveyard] = []string{"card3"}
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			snapshot := createTestSnapshot()
			mutate(snapshot)
			checksum, err := snapshot.ComputeChecksum()
			require.NoError(t, err)
			assert.NotEqual(t, base.Hash, checksum.Hash)
		})
	}
}

// TestSerializationRoundtrip verifies gob round-trips preserve the checksum
func TestSerializationRoundtrip(t *testing.T) {
	snapshot := createTestSnapshot()
	require.NoError(t, ValidateSerializationRoundtrip(snapshot))

	data, err := snapshot.SerializeToBytes()
	require.NoError(t, err)

	restored, err := DeserializeFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot.TableID, restored.TableID)
	assert.Equal(t, snapshot.State.Players[0].Life, restored.State.Players[0].Life)
	assert.Equal(t, snapshot.State.Cards["card3"].TokenData.Name, restored.State.Cards["card3"].TokenData.Name)
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := DeserializeFromBytes([]byte("not a gob stream"))
	require.Error(t, err)
}
