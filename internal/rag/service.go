// Package rag wires the query path end to end: embed, search, route,
// assemble, and hand off to generation.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/generation"
	"github.com/guardianai/guardian/internal/retriever"
	"github.com/guardianai/guardian/internal/router"
)

// Answer is the final response for a question, with source attributions.
type Answer struct {
	Text    string
	Sources []string
	UsedWeb bool
}

// Service processes each query in a single task end to end. The only
// blocking points are the embedding call and the (optional) web-search call;
// everything in between is in-memory and synchronous.
type Service struct {
	retriever *retriever.Retriever
	router    *router.Router
	assembler *assembler.Assembler
	generator generation.Generator
	k         int
	logger    *slog.Logger
}

// New creates the service. generator may be nil for retrieval-only
// deployments; Ask then returns an error while Search keeps working.
func New(
	ret *retriever.Retriever,
	rtr *router.Router,
	asm *assembler.Assembler,
	gen generation.Generator,
	k int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if k <= 0 {
		k = 3
	}
	return &Service{
		retriever: ret,
		router:    rtr,
		assembler: asm,
		generator: gen,
		k:         k,
		logger:    logger,
	}
}

// Search runs retrieval, routing, and assembly, returning the bounded
// context bundle. router.ErrEmptyResult propagates so callers can report
// "no answer available" instead of handing generation an empty bundle.
func (s *Service) Search(ctx context.Context, query string, mode assembler.Mode) (assembler.Bundle, bool, error) {
	start := time.Now()

	local, err := s.retriever.Query(ctx, query, s.k)
	if err != nil {
		return assembler.Bundle{}, false, fmt.Errorf("local retrieval: %w", err)
	}

	result, err := s.router.Resolve(ctx, query, local)
	if err != nil {
		return assembler.Bundle{}, false, err
	}

	bundle := s.assembler.Assemble(result, mode)

	s.logger.Debug("context assembled",
		"passages", len(bundle.Passages),
		"chars", bundle.TotalChars,
		"used_web", result.UsedWeb,
		"duration", time.Since(start),
	)

	return bundle, result.UsedWeb, nil
}

// Ask answers a question from the assembled context.
func (s *Service) Ask(ctx context.Context, query string, mode assembler.Mode) (Answer, error) {
	if s.generator == nil {
		return Answer{}, fmt.Errorf("no generator configured")
	}

	bundle, usedWeb, err := s.Search(ctx, query, mode)
	if err != nil {
		return Answer{}, err
	}

	text, err := s.generator.Generate(ctx, query, bundle, mode)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]string, 0, len(bundle.Passages))
	for _, p := range bundle.Passages {
		sources = append(sources, fmt.Sprintf("%s:%s", p.Origin, p.Ref))
	}

	return Answer{Text: text, Sources: sources, UsedWeb: usedWeb}, nil
}
