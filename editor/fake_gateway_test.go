package editor

import (
	"context"
	"errors"
	"sync"

	"flyingbus/gateway"
	"flyingbus/models"
)

var errServer = errors.New("server error")

// fakeGateway records calls. Setting a gate channel blocks calls until it is
// closed.
type fakeGateway struct {
	mu sync.Mutex

	nextID         string
	upserts        []models.DraftRecord
	transitions    []string
	upsertErrs     []error
	transitionErrs []error
	upsertGate     chan struct{}
	transitionGate chan struct{}

	inFlight    int
	maxInFlight int
}

func newFakeGateway(nextID string) *fakeGateway {
	return &fakeGateway{nextID: nextID}
}

func (g *fakeGateway) UpsertDraft(ctx context.Context, rec models.DraftRecord) gateway.Result {
	g.mu.Lock()
	g.upserts = append(g.upserts, rec)
	g.inFlight++
	if g.inFlight > g.maxInFlight {
		g.maxInFlight = g.inFlight
	}
	var err error
	if len(g.upsertErrs) > 0 {
		err, g.upsertErrs = g.upsertErrs[0], g.upsertErrs[1:]
	}
	gate := g.upsertGate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight--

	if err != nil {
		return gateway.Fail(err)
	}
	id := rec.ID
	if id == "" {
		id = g.nextID
	}
	return gateway.OK(id)
}

func (g *fakeGateway) TransitionStatus(ctx context.Context, id string) gateway.Result {
	g.mu.Lock()
	g.transitions = append(g.transitions, id)
	var err error
	if len(g.transitionErrs) > 0 {
		err, g.transitionErrs = g.transitionErrs[0], g.transitionErrs[1:]
	}
	gate := g.transitionGate
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return gateway.Fail(err)
	}
	return gateway.OK(id)
}

func (g *fakeGateway) failUpserts(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertErrs = append(g.upsertErrs, errs...)
}

func (g *fakeGateway) failTransitions(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transitionErrs = append(g.transitionErrs, errs...)
}

func (g *fakeGateway) blockUpserts() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upsertGate = make(chan struct{})
	return g.upsertGate
}

func (g *fakeGateway) blockTransitions() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transitionGate = make(chan struct{})
	return g.transitionGate
}

func (g *fakeGateway) upsertCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.upserts)
}

func (g *fakeGateway) upsertAt(i int) models.DraftRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.upserts[i]
}

func (g *fakeGateway) transitionCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.transitions...)
}

func (g *fakeGateway) peakInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxInFlight
}
