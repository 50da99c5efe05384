package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Snapshot is a point-in-time capture of one table's state, used for
// integrity checks and debugging. The checksum guards against divergent
// state across broadcast and replay.
type Snapshot struct {
	TableID   string
	State     *GameState
	Timestamp time.Time
}

// Checksum is a deterministic digest of a snapshot.
type Checksum struct {
	Hash      string // SHA-256 of the canonical representation
	Timestamp string
	Version   int // serialization version for forward compatibility
}

// ComputeChecksum generates a deterministic checksum of the snapshot,
// independent of map iteration order and of when it was captured.
func (s *Snapshot) ComputeChecksum() (*Checksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonicalRepresentation())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &Checksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: s.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

// canonicalRepresentation builds a canonical string form of the state:
// players in seat order, zones in declared order (zone order is game
// information, so it is never sorted), cards sorted by instance id.
func (s *Snapshot) canonicalRepresentation() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("TABLE:%s\n", s.TableID))

	for _, p := range s.State.Players {
		buf.WriteString(fmt.Sprintf("PLAYER:%s|%s|%d|%s\n", p.ID, p.Name, p.Life, string(p.GameStateInfo)))
		for _, zone := range ZoneOrder {
			buf.WriteString(fmt.Sprintf("  %s:", strings.ToUpper(string(zone))))
			buf.WriteString(strings.Join(p.Zones[zone], ","))
			buf.WriteString("\n")
		}
	}

	cardIDs := make([]string, 0, len(s.State.Cards))
	for id := range s.State.Cards {
		cardIDs = append(cardIDs, id)
	}
	sort.Strings(cardIDs)

	for _, id := range cardIDs {
		card := s.State.Cards[id]
		buf.WriteString(fmt.Sprintf("CARD:%s|%s|%.2f|%.2f|%d|%t|%t\n",
			id,
			card.DefinitionID,
			card.Position.X,
			card.Position.Y,
			card.Rotation,
			card.IsFaceUp,
			card.IsToken,
		))
		if card.TokenData != nil {
			buf.WriteString(fmt.Sprintf("  TOKEN:%s|%s|%s/%s\n",
				card.TokenData.Name,
				card.TokenData.TypeLine,
				card.TokenData.Power,
				card.TokenData.Toughness,
			))
		}
	}

	return buf.String()
}

// VerifyChecksum reports whether the snapshot still matches the expected
// checksum.
func (s *Snapshot) VerifyChecksum(expected *Checksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes encodes the snapshot with gob.
func (s *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a gob-encoded snapshot.
func DeserializeFromBytes(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// ValidateSerializationRoundtrip verifies a snapshot survives a gob
// round-trip without data loss by comparing checksums.
func ValidateSerializationRoundtrip(snapshot *Snapshot) error {
	original, err := snapshot.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}

	data, err := snapshot.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}

	deserialized, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}

	roundtripped, err := deserialized.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}

	if original.Hash != roundtripped.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, roundtripped.Hash)
	}
	return nil
}
