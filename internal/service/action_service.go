package service

import (
	"context"
	"errors"
	"time"

	"AgentAction/internal/archive"
	dom "AgentAction/internal/domain"
	"AgentAction/internal/repo"
	"AgentAction/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	ActionProcess = "process"

	// BadgeErrorMessage is returned to the agent when rendering fails.
	BadgeErrorMessage = "Error generating badge"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	sideEffectTimeout   = 5 * time.Second
)

var ErrHistoryDisabled = errors.New("invocation history is not configured")

// BadgeRenderer renders a two-line badge as a base64 PNG.
type BadgeRenderer interface {
	Render(line1, line2 string) (string, error)
}

// BadgeCache is the subset of cache.BadgeCache the service needs.
type BadgeCache interface {
	Get(ctx context.Context, line1, line2 string) (string, error)
	Set(ctx context.Context, line1, line2, badge string) error
}

// Result is what the process action hands back to the agent.
type Result struct {
	InvocationID string
	Status       string
	Message      string
}

type ActionService struct {
	renderer BadgeRenderer
	title    string
	cache    BadgeCache
	history  repo.InvocationRepo
	archiver archive.Archiver
	logger   *zap.Logger
	sf       singleflight.Group
	newID    func() string
}

// ActionOption customises an ActionService.
type ActionOption func(*ActionService)

// WithBadgeCache enables caching of rendered badges.
func WithBadgeCache(c BadgeCache) ActionOption {
	return func(s *ActionService) { s.cache = c }
}

// WithHistory records every invocation.
func WithHistory(r repo.InvocationRepo) ActionOption {
	return func(s *ActionService) { s.history = r }
}

// WithArchiver sends successful badges to a.
func WithArchiver(a archive.Archiver) ActionOption {
	return func(s *ActionService) { s.archiver = a }
}

func WithLogger(l *zap.Logger) ActionOption {
	return func(s *ActionService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewActionService creates an ActionService. title is the badge's first line.
func NewActionService(r BadgeRenderer, title string, opts ...ActionOption) *ActionService {
	s := &ActionService{
		renderer: r,
		title:    title,
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process builds the "deployed by" badge for name. A rendering failure is
// reported in the message, not as an error, so the agent always gets a reply.
func (s *ActionService) Process(ctx context.Context, name string) (Result, error) {
	res := Result{InvocationID: s.newID()}
	log := s.logger.With(zap.String("invocation_id", res.InvocationID))
	log.Info("received query", zap.String("name", name))

	b64, err := s.badge(ctx, name)
	if err != nil {
		log.Error("error generating badge", zap.Error(err))
		res.Status = dom.StatusFailed
		res.Message = BadgeErrorMessage
	} else {
		res.Status = dom.StatusSucceeded
		res.Message = archive.ImgTag(b64)
		s.archive(ctx, log, archive.Badge{InvocationID: res.InvocationID, Name: name, Base64: b64})
	}

	s.record(ctx, log, dom.Invocation{
		ID:     res.InvocationID,
		Action: ActionProcess,
		Name:   name,
		Status: res.Status,
		Error:  errString(err),
	})

	log.Info("result", zap.String("status", res.Status), zap.Int("message_bytes", len(res.Message)))
	return res, nil
}

// History returns the most recent invocations, newest first.
func (s *ActionService) History(ctx context.Context, limit int) ([]dom.Invocation, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListRecent(ctx, utils.ClampLimit(limit, defaultHistoryLimit, maxHistoryLimit))
}

func (s *ActionService) badge(ctx context.Context, name string) (string, error) {
	line2 := "Deployed by " + name
	if s.cache == nil {
		return s.renderer.Render(s.title, line2)
	}

	v, err, _ := s.sf.Do(line2, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, s.title, line2)
		if err != nil {
			s.logger.Warn("badge cache get failed", zap.Error(err))
		} else if cached != "" {
			return cached, nil
		}
		b64, err := s.renderer.Render(s.title, line2)
		if err != nil {
			return "", err
		}
		if err := s.cache.Set(ctx, s.title, line2, b64); err != nil {
			s.logger.Warn("badge cache set failed", zap.Error(err))
		}
		return b64, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Side effects outlive a cancelled request briefly so history stays complete.
func (s *ActionService) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func (s *ActionService) archive(ctx context.Context, log *zap.Logger, b archive.Badge) {
	if s.archiver == nil {
		return
	}
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()
	if err := s.archiver.Archive(ctx, b); err != nil {
		log.Warn("archive badge failed", zap.Error(err))
		return
	}
	log.Debug("archived badge")
}

func (s *ActionService) record(ctx context.Context, log *zap.Logger, inv dom.Invocation) {
	if s.history == nil {
		return
	}
	ctx, cancel := s.sideEffectContext(ctx)
	defer cancel()
	if _, err := s.history.Create(ctx, inv); err != nil {
		log.Warn("record invocation failed", zap.Error(err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
