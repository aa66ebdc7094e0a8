package services

import (
	"context"
	"sync"
	"time"

	"flyingbus/config"
	"flyingbus/editor"
	"flyingbus/gateway"
	"flyingbus/logger"
	"flyingbus/models"

	"github.com/google/uuid"
)

// GatewayFactory builds the gateway an editing session persists through,
// acting as the given user.
type GatewayFactory func(userID uint, token string) gateway.Gateway

// NewGatewayFactory picks the gateway implementation from GATEWAY_MODE.
func NewGatewayFactory(cfg *config.Config, writer gateway.DraftWriter) GatewayFactory {
	if cfg.GatewayMode == config.GatewayModeRPC {
		return func(_ uint, token string) gateway.Gateway {
			return gateway.NewRPCGateway(cfg.RPCBaseURL, cfg.RPCAPIKey, token, cfg.RPCTimeout)
		}
	}
	return func(userID uint, _ string) gateway.Gateway {
		return gateway.NewStoreGateway(writer, userID)
	}
}

// DraftLoader fetches an existing article for editing.
type DraftLoader interface {
	GetDraft(ctx context.Context, id string, userID uint) (models.DraftRecord, error)
}

type EditorService interface {
	Open(ctx context.Context, userID uint, token, articleID string) (*editor.Session, error)
	Get(sessionID string, userID uint) (*editor.Session, error)
	View(sessionID string, userID uint) (models.SessionView, error)
	Apply(sessionID string, userID uint, patch models.DraftPatch) (models.SessionView, error)
	Save(ctx context.Context, sessionID string, userID uint) (models.SessionView, error)
	Submit(ctx context.Context, sessionID string, userID uint) (models.SessionView, error)
	Close(sessionID string, userID uint) error
	CloseAll()
	ReapIdle(maxIdle time.Duration) int
}

type editorService struct {
	loader   DraftLoader
	gateways GatewayFactory
	opts     editor.Options
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*editor.Session
}

func NewEditorService(loader DraftLoader, gateways GatewayFactory, interval time.Duration, log *logger.Logger) EditorService {
	if log == nil {
		log = logger.Default()
	}
	return &editorService{
		loader:   loader,
		gateways: gateways,
		opts: editor.Options{
			AutosaveInterval: interval,
			Validator:        editor.NewValidator(),
			Logger:           log,
		},
		log:      log,
		sessions: make(map[string]*editor.Session),
	}
}

// Open starts a session on a new draft, or on an existing article the user
// owns. A user reopening an article that already has a live session gets
// that session back.
func (s *editorService) Open(ctx context.Context, userID uint, token, articleID string) (*editor.Session, error) {
	var initial models.DraftRecord
	if articleID != "" {
		if sess := s.findByArticle(userID, articleID); sess != nil {
			return sess, nil
		}
		rec, err := s.loader.GetDraft(ctx, articleID, userID)
		if err != nil {
			return nil, err
		}
		initial = rec
	}

	sess := editor.NewSession(uuid.NewString(), userID, initial, s.gateways(userID, token), s.opts)

	s.mu.Lock()
	if articleID != "" {
		// Another open of the same article may have won while this one loaded.
		if existing := s.liveSession(userID, articleID); existing != nil {
			s.mu.Unlock()
			sess.Close()
			return existing, nil
		}
	}
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	s.log.WithSession(sess.ID()).WithField("author_id", userID).WithField("article_id", articleID).Info("editor session opened")
	return sess, nil
}

func (s *editorService) Get(sessionID string, userID uint) (*editor.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, models.ErrorNotFound{Message: "editor session not found"}
	}
	if sess.AuthorID() != userID {
		return nil, models.ErrorForbidden{Message: "editor session belongs to another user"}
	}
	return sess, nil
}

func (s *editorService) View(sessionID string, userID uint) (models.SessionView, error) {
	sess, err := s.Get(sessionID, userID)
	if err != nil {
		return models.SessionView{}, err
	}
	return sess.View(), nil
}

func (s *editorService) Apply(sessionID string, userID uint, patch models.DraftPatch) (models.SessionView, error) {
	sess, err := s.Get(sessionID, userID)
	if err != nil {
		return models.SessionView{}, err
	}
	if err := sess.Apply(patch); err != nil {
		return sess.View(), err
	}
	return sess.View(), nil
}

func (s *editorService) Save(ctx context.Context, sessionID string, userID uint) (models.SessionView, error) {
	sess, err := s.Get(sessionID, userID)
	if err != nil {
		return models.SessionView{}, err
	}
	_, err = sess.Save(ctx)
	return sess.View(), err
}

func (s *editorService) Submit(ctx context.Context, sessionID string, userID uint) (models.SessionView, error) {
	sess, err := s.Get(sessionID, userID)
	if err != nil {
		return models.SessionView{}, err
	}
	_, err = sess.Submit(ctx)
	return sess.View(), err
}

func (s *editorService) Close(sessionID string, userID uint) error {
	sess, err := s.Get(sessionID, userID)
	if err != nil {
		return err
	}
	s.remove(sess)
	return nil
}

func (s *editorService) CloseAll() {
	s.mu.Lock()
	sessions := make([]*editor.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*editor.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// ReapIdle closes sessions with no activity for maxIdle and returns how many
// were closed.
func (s *editorService) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*editor.Session
	for id, sess := range s.sessions {
		if sess.LastActivity().Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
		s.log.WithSession(sess.ID()).Info("idle editor session closed")
	}
	return len(idle)
}

func (s *editorService) findByArticle(userID uint, articleID string) *editor.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveSession(userID, articleID)
}

// liveSession must be called with s.mu held.
func (s *editorService) liveSession(userID uint, articleID string) *editor.Session {
	for _, sess := range s.sessions {
		if sess.AuthorID() == userID && sess.Store().ID() == articleID && !sess.Submitted() {
			return sess
		}
	}
	return nil
}

func (s *editorService) remove(sess *editor.Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()

	sess.Close()
	s.log.WithSession(sess.ID()).Info("editor session closed")
}
