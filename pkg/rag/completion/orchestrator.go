// Package completion turns a question into an answer: optional retrieval,
// prompt assembly, one completion call, source collection.
package completion

import (
	"context"
	"errors"
	"fmt"

	"careconnect/internal/pkg/logger"
	"careconnect/pkg/llm"
	"careconnect/pkg/rag/history"
	"careconnect/pkg/rag/prompt"
	"careconnect/pkg/rag/retrieval"
	"careconnect/pkg/warehouse"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FallbackText replaces the answer when the completion returns no rows.
const FallbackText = "Sorry, I couldn't generate a response."

const DefaultURLTTL = 360

type Retriever interface {
	Search(ctx context.Context, query, category string) ([]retrieval.SearchResult, error)
}

// URLResolver issues time-limited links to staged documents.
type URLResolver interface {
	PresignedURL(ctx context.Context, path string) (string, error)
}

type Request struct {
	Question  string
	ModelName string
	UseRAG    bool
	Category  string
	// Supplementary holds the chunks of the uploaded document, if any.
	Supplementary []string
	History       []history.Message
}

type Answer struct {
	Text string
	// Sources are the distinct relative paths of the retrieved fragments, in
	// first-seen order.
	Sources  []string
	Fallback bool
	// RetrievalErr is set when search failed and the answer was built
	// without retrieved context.
	RetrievalErr error
}

type Orchestrator struct {
	retriever Retriever
	llm       llm.LLMProvider
	urls      URLResolver
	logger    logger.ILogger
}

func NewOrchestrator(retriever Retriever, provider llm.LLMProvider, urls URLResolver, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		llm:       provider,
		urls:      urls,
		logger:    log,
	}
}

// BuildPrompt returns the prompt for req and the source paths it draws on.
// Retrieval failures are reported through retrievalErr, never returned as
// a hard error.
func (o *Orchestrator) BuildPrompt(ctx context.Context, req Request) (text string, sources []string, retrievalErr error) {
	if !req.UseRAG {
		return prompt.Simple(req.Question), []string{}, nil
	}

	results, err := o.retriever.Search(ctx, req.Question, req.Category)
	if err != nil {
		retrievalErr = err
		results = nil
	}

	fragments := make([]string, 0, len(results))
	sources = make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		fragments = append(fragments, r.Chunk)
		if r.RelativePath == "" {
			continue
		}
		if _, dup := seen[r.RelativePath]; dup {
			continue
		}
		seen[r.RelativePath] = struct{}{}
		sources = append(sources, r.RelativePath)
	}

	text = prompt.NewContextualBuilder(req.Question, req.History).
		WithFragments(fragments).
		WithSupplementary(req.Supplementary).
		Build()
	return text, sources, retrievalErr
}

// Complete answers one question. It has no side effects; the caller records
// the turn in the conversation.
func (o *Orchestrator) Complete(ctx context.Context, req Request) (Answer, error) {
	ctx, span := otel.Tracer("careconnect/rag").Start(ctx, "completion.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("completion.model", req.ModelName),
		attribute.Bool("completion.use_rag", req.UseRAG),
	)

	text, sources, retrievalErr := o.BuildPrompt(ctx, req)
	if retrievalErr != nil {
		o.logger.Warn("COMPLETION", "Answering without retrieved context", map[string]interface{}{
			"error": retrievalErr.Error(),
		})
	}

	response, err := o.llm.Generate(ctx, text, llm.WithModel(req.ModelName))
	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		o.logger.Warn("COMPLETION", "Completion returned no rows", map[string]interface{}{
			"model": req.ModelName,
		})
		return Answer{Text: FallbackText, Sources: sources, Fallback: true, RetrievalErr: retrievalErr}, nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		o.logger.Error("COMPLETION", "Completion failed", map[string]interface{}{
			"error": err.Error(),
			"model": req.ModelName,
		})
		return Answer{}, fmt.Errorf("complete: %w", err)
	}

	o.logger.Info("COMPLETION", "Answer generated", map[string]interface{}{
		"model":   req.ModelName,
		"use_rag": req.UseRAG,
		"sources": len(sources),
	})
	return Answer{Text: response, Sources: sources, RetrievalErr: retrievalErr}, nil
}

// DocumentURL returns a presigned link to path, or "" when the link cannot
// be issued.
func (o *Orchestrator) DocumentURL(ctx context.Context, path string) string {
	url, err := o.urls.PresignedURL(ctx, path)
	if err != nil {
		o.logger.Error("COMPLETION", "Error getting document URL", map[string]interface{}{
			"error": err.Error(),
			"path":  path,
		})
		return ""
	}
	return url
}

// StageResolver issues presigned URLs for files on one warehouse stage.
type StageResolver struct {
	q     warehouse.Querier
	stage string
	ttl   int
}

func NewStageResolver(q warehouse.Querier, stage string, ttlSeconds int) *StageResolver {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultURLTTL
	}
	return &StageResolver{q: q, stage: stage, ttl: ttlSeconds}
}

func (s *StageResolver) PresignedURL(ctx context.Context, path string) (string, error) {
	return warehouse.PresignedURL(ctx, s.q, s.stage, path, s.ttl)
}
