package gateway

import (
	"context"
	"errors"
	"fmt"

	"flyingbus/models"
)

// DraftWriter is the in-process article store.
type DraftWriter interface {
	SaveDraft(ctx context.Context, authorID uint, record models.DraftRecord) (string, error)
	SubmitForReview(ctx context.Context, authorID uint, id string) error
}

// StoreGateway writes through the article service on behalf of one author.
type StoreGateway struct {
	writer   DraftWriter
	authorID uint
}

func NewStoreGateway(writer DraftWriter, authorID uint) *StoreGateway {
	return &StoreGateway{writer: writer, authorID: authorID}
}

func (g *StoreGateway) UpsertDraft(ctx context.Context, record models.DraftRecord) Result {
	id, err := g.writer.SaveDraft(ctx, g.authorID, record)
	if err != nil {
		return Fail(err)
	}
	if id == "" {
		return Fail(fmt.Errorf("%w: store returned no id", ErrMalformedResponse))
	}
	if record.ID != "" && id != record.ID {
		return Fail(fmt.Errorf("%w: store returned id %q for draft %q", ErrMalformedResponse, id, record.ID))
	}
	return OK(id)
}

func (g *StoreGateway) TransitionStatus(ctx context.Context, id string) Result {
	if id == "" {
		return Fail(errors.New("gateway: transition needs a draft id"))
	}
	if err := g.writer.SubmitForReview(ctx, g.authorID, id); err != nil {
		return Fail(err)
	}
	return OK(id)
}
