package service

import (
	"context"
	"strings"

	"careconnect/internal/dto"
	"careconnect/internal/pkg/logger"
	"careconnect/internal/repository/contract"
	"careconnect/pkg/events"
	"careconnect/pkg/rag/completion"

	"github.com/google/uuid"
)

// ErrorText is the assistant message recorded when the completion fails.
const ErrorText = "Sorry, I encountered an error processing your request."

const retrievalWarning = "Document search is unavailable right now; this answer was generated without your documents."

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (completion.Answer, error)
	DocumentURL(ctx context.Context, path string) string
}

type IChatService interface {
	Ask(ctx context.Context, id uuid.UUID, question string) (*dto.AskResponse, error)
	DocumentURL(ctx context.Context, path string) dto.DocumentURLResponse
}

type chatService struct {
	repo      contract.SessionRepository
	completer Completer
	publisher IPublisherService
	locks     *SessionLocks
	logger    logger.ILogger
}

func NewChatService(
	repo contract.SessionRepository,
	completer Completer,
	publisher IPublisherService,
	locks *SessionLocks,
	log logger.ILogger,
) IChatService {
	return &chatService{
		repo:      repo,
		completer: completer,
		publisher: publisher,
		locks:     locks,
		logger:    log,
	}
}

// Ask runs one turn. The user question and the assistant reply are appended
// together after the completion returns, so a failed turn still leaves a
// user/assistant pair in the history.
func (s *chatService) Ask(ctx context.Context, id uuid.UUID, question string) (*dto.AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, completion.Request{
		Question:      question,
		ModelName:     session.Settings.ModelName,
		UseRAG:        session.Settings.UseRAG,
		Category:      session.Settings.Category,
		Supplementary: session.SupplementaryChunks(),
		History:       session.Conversation.History(),
	})
	if err != nil {
		s.logger.Error("CHAT", "Completion failed", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
		answer = completion.Answer{Text: ErrorText, Sources: []string{}}
	}

	session.Conversation.AddTurn(question, answer.Text)
	session.Touch()
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	res := &dto.AskResponse{
		SessionId: id,
		Question:  question,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		Related:   s.related(ctx, answer.Sources),
		Fallback:  answer.Fallback,
	}
	if res.Sources == nil {
		res.Sources = []string{}
	}
	if answer.RetrievalErr != nil {
		res.Warning = retrievalWarning
	}

	turn := events.TurnCompleted{
		SessionID: id.String(),
		Question:  question,
		Answer:    answer.Text,
		Sources:   res.Sources,
		Fallback:  answer.Fallback,
		Warning:   res.Warning,
	}
	if err := s.publisher.Publish(ctx, turn.Event()); err != nil {
		s.logger.Warn("CHAT", "Failed to publish turn event", map[string]interface{}{
			"session_id": id.String(),
			"error":      err.Error(),
		})
	}

	return res, nil
}

// related resolves presigned links, skipping paths without one.
func (s *chatService) related(ctx context.Context, sources []string) []dto.RelatedDocumentDTO {
	docs := make([]dto.RelatedDocumentDTO, 0, len(sources))
	for _, path := range sources {
		url := s.completer.DocumentURL(ctx, path)
		if url == "" {
			continue
		}
		docs = append(docs, dto.RelatedDocumentDTO{Path: path, URL: url})
	}
	return docs
}

func (s *chatService) DocumentURL(ctx context.Context, path string) dto.DocumentURLResponse {
	return dto.DocumentURLResponse{Path: path, URL: s.completer.DocumentURL(ctx, path)}
}
