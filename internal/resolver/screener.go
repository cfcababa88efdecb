package resolver

import (
	"context"
	"fmt"
)

// Screener answers screening questions, consulting the per-user answer
// cache before falling back to the resolver, and caching fresh answers.
type Screener struct {
	resolver FieldResolver
	cache    AnswerCache
}

func NewScreener(resolver FieldResolver, cache AnswerCache) *Screener {
	return &Screener{resolver: resolver, cache: cache}
}

// Answer returns the cached or freshly resolved answer for a question.
// Skipped answers are not cached so the question can be retried later.
func (s *Screener) Answer(ctx context.Context, userID string, req *Request) (*Answer, error) {
	question := req.Field.Label
	if question == "" {
		question = req.Field.Name
	}

	if s.cache != nil && question != "" {
		if cached, ok, err := s.cache.Get(ctx, userID, question); err == nil && ok {
			return &Answer{Value: cached}, nil
		} else if err != nil {
			return nil, fmt.Errorf("answer cache lookup: %w", err)
		}
	}

	answer, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && question != "" && !answer.Skip && answer.Value != "" {
		if err := s.cache.Put(ctx, userID, question, answer.Value); err != nil {
			return nil, fmt.Errorf("answer cache store: %w", err)
		}
	}

	return answer, nil
}
