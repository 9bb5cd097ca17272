package service

import (
	"context"
	"errors"
	"io"

	"careconnect/internal/dto"
	"careconnect/internal/pkg/logger"
	"careconnect/internal/repository/contract"
	"careconnect/pkg/ingest"
	"careconnect/pkg/store"

	"github.com/google/uuid"
)

// Ingester extracts prompt chunks from an uploaded document.
type Ingester interface {
	Ingest(ctx context.Context, filename string, r io.Reader) ([]string, error)
}

type ISessionService interface {
	Create(ctx context.Context) (*dto.SessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, req dto.UpdateSettingsRequest) (*dto.SessionResponse, error)
	ClearHistory(ctx context.Context, id uuid.UUID) error
	AttachDocument(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*dto.AttachDocumentResponse, error)
	DetachDocument(ctx context.Context, id uuid.UUID) error
}

type sessionService struct {
	repo     contract.SessionRepository
	catalog  ICatalogService
	ingester Ingester
	locks    *SessionLocks
	logger   logger.ILogger
}

func NewSessionService(
	repo contract.SessionRepository,
	catalog ICatalogService,
	ingester Ingester,
	locks *SessionLocks,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		repo:     repo,
		catalog:  catalog,
		ingester: ingester,
		locks:    locks,
		logger:   log,
	}
}

// Create reads the catalog defaults on every call so a reloaded catalog
// applies to new sessions.
func (s *sessionService) Create(ctx context.Context) (*dto.SessionResponse, error) {
	session := store.NewSession(s.catalog.DefaultSettings())
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("SESSION", "Session created", map[string]interface{}{
		"session_id": session.ID.String(),
		"model":      session.Settings.ModelName,
	})
	return toSessionResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) UpdateSettings(ctx context.Context, id uuid.UUID, req dto.UpdateSettingsRequest) (*dto.SessionResponse, error) {
	if err := s.catalog.ValidateModel(req.ModelName); err != nil {
		return nil, err
	}
	if err := s.catalog.ValidateCategory(ctx, req.Category); err != nil {
		return nil, err
	}

	var out *dto.SessionResponse
	err := s.modify(ctx, id, func(session *store.Session) {
		session.Settings = store.Settings{
			ModelName: req.ModelName,
			Category:  req.Category,
			UseRAG:    req.UseRAG != nil && *req.UseRAG,
		}
		out = toSessionResponse(session)
	})
	return out, err
}

func (s *sessionService) ClearHistory(ctx context.Context, id uuid.UUID) error {
	return s.modify(ctx, id, func(session *store.Session) {
		session.Conversation.Clear()
	})
}

// AttachDocument replaces the session's uploaded document. Extraction
// failures leave the session without one and come back as a warning;
// only unsupported formats are errors.
func (s *sessionService) AttachDocument(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*dto.AttachDocumentResponse, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	chunks, extractErr := s.ingester.Ingest(ctx, filename, r)
	if errors.Is(extractErr, ingest.ErrUnsupportedFormat) {
		return nil, extractErr
	}

	res := &dto.AttachDocumentResponse{Name: filename, Chunks: len(chunks)}
	err := s.modify(ctx, id, func(session *store.Session) {
		if extractErr != nil || len(chunks) == 0 {
			session.Supplementary = nil
			return
		}
		session.Supplementary = &store.Supplementary{Name: filename, Chunks: chunks}
	})
	if err != nil {
		return nil, err
	}

	if extractErr != nil {
		res.Warning = extractErr.Error()
	}
	return res, nil
}

func (s *sessionService) DetachDocument(ctx context.Context, id uuid.UUID) error {
	return s.modify(ctx, id, func(session *store.Session) {
		session.Supplementary = nil
	})
}

// modify loads, mutates and saves a session under its lock.
func (s *sessionService) modify(ctx context.Context, id uuid.UUID, fn func(*store.Session)) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(session)
	session.Touch()
	return s.repo.Save(ctx, session)
}

func toSessionResponse(session *store.Session) *dto.SessionResponse {
	hist := session.Conversation.History()
	messages := make([]dto.MessageDTO, 0, len(hist))
	for _, m := range hist {
		messages = append(messages, dto.MessageDTO{Role: m.Role, Content: m.Content})
	}

	res := &dto.SessionResponse{
		Id: session.ID,
		Settings: dto.SettingsDTO{
			ModelName: session.Settings.ModelName,
			Category:  session.Settings.Category,
			UseRAG:    session.Settings.UseRAG,
		},
		History:   messages,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if session.Supplementary != nil {
		res.Supplementary = &dto.SupplementaryDTO{
			Name:   session.Supplementary.Name,
			Chunks: len(session.Supplementary.Chunks),
		}
	}
	return res
}
