// Package predictor implements the client side of the sync protocol: a card
// being dragged moves on screen every frame while the authoritative copy is
// still catching up over the network, and server echoes are reconciled
// without visible snap-back.
package predictor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/geometry"
)

// DefaultSuppressionWindow is how long server position updates for a card
// are ignored after an optimistic commit, covering the round trip until the
// server's own echo arrives. Fixed, not per-action.
const DefaultSuppressionWindow = 500 * time.Millisecond

// Phase is the per-card prediction phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseCommitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseDragging:
		return "DRAGGING"
	case PhaseCommitting:
		return "COMMITTING"
	default:
		return "UNKNOWN"
	}
}

// CardPredictor runs the prediction state machine for one card. State is
// per card, never process-global, so concurrent drags of different cards
// cannot interfere.
type CardPredictor struct {
	logger *zap.Logger
	now    func() time.Time
	window time.Duration

	mu            sync.Mutex
	phase         Phase
	local         geometry.Point // rendered position
	server        geometry.Point // last known authoritative position
	suppressUntil time.Time
}

// NewCardPredictor creates a predictor starting at the server-known position.
func NewCardPredictor(serverPos geometry.Point, logger *zap.Logger) *CardPredictor {
	return &CardPredictor{
		logger: logger,
		now:    time.Now,
		window: DefaultSuppressionWindow,
		local:  serverPos,
		server: serverPos,
	}
}

// SetClock overrides the clock; tests drive the suppression window with it.
func (p *CardPredictor) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// SetWindow overrides the suppression window duration.
func (p *CardPredictor) SetWindow(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.window = d
	}
}

// Phase returns the current phase.
func (p *CardPredictor) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Rendered returns the position the card should be drawn at right now.
func (p *CardPredictor) Rendered() geometry.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.local
}

// StartDrag enters the dragging phase. While dragging, server updates for
// this card are ignored and nothing is sent.
func (p *CardPredictor) StartDrag() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseDragging
}

// DragTo updates the rendered position from pointer movement, clamped for
// live feedback. Network is bypassed entirely.
func (p *CardPredictor) DragTo(x, y float64) geometry.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != PhaseDragging {
		return p.local
	}
	p.local = geometry.ClampToBattlefield(x, y)
	return p.local
}

// Commit ends the drag: the final clamped position is applied optimistically,
// the suppression window opens, and the returned position is what the caller
// sends to the server as a single move action.
func (p *CardPredictor) Commit() geometry.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseCommitting
	p.suppressUntil = p.now().Add(p.window)
	return p.local
}

// CommitFailed clears the suppression window immediately, so the very next
// server broadcast (which still holds the pre-drag position) is applied and
// the view self-corrects without a dedicated rollback path.
func (p *CardPredictor) CommitFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseIdle
	p.suppressUntil = time.Time{}
	if p.logger != nil {
		p.logger.Debug("commit failed, suppression window cleared")
	}
}

// ObserveServer feeds an authoritative position for this card. It is
// discarded while dragging or inside the suppression window; otherwise it
// becomes the rendered position. Returns whether the update was applied.
func (p *CardPredictor) ObserveServer(pos geometry.Point) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.server = pos

	if p.phase == PhaseDragging {
		return false
	}
	if p.now().Before(p.suppressUntil) {
		return false
	}

	p.phase = PhaseIdle
	p.local = pos
	return true
}

// ScalarPredictor applies the same idle/committing/reconciled shape to a
// single-valued prediction such as a life total. No timed window: a scalar
// commit has one value, not a stream of intermediate frames, so the first
// resolution (ack or failure) ends suppression.
type ScalarPredictor struct {
	mu         sync.Mutex
	committing bool
	local      int
	server     int
}

// NewScalarPredictor creates a predictor starting at the server-known value.
func NewScalarPredictor(serverValue int) *ScalarPredictor {
	return &ScalarPredictor{local: serverValue, server: serverValue}
}

// Rendered returns the value to display.
func (s *ScalarPredictor) Rendered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// Predict applies a value optimistically and returns it for sending.
func (s *ScalarPredictor) Predict(value int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = true
	s.local = value
	return value
}

// Resolve ends the in-flight commit. On failure the local value falls back
// to the last server value.
func (s *ScalarPredictor) Resolve(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if !ok {
		s.local = s.server
	}
}

// ObserveServer feeds the authoritative value; preferred unless a commit is
// still in flight.
func (s *ScalarPredictor) ObserveServer(value int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.server = value
	if s.committing {
		return false
	}
	s.local = value
	return true
}
