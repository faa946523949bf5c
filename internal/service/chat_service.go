package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/ai"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

const (
	chatTopK       = 3
	excerptChars   = 200
	queryCacheSize = 4096
	queryCacheTTL  = 2 * time.Hour
)

type ChatService struct {
	documents     DocumentStore
	embedder      ai.IEmbedder
	generator     ai.IGenerator
	queryCache    *expirable.LRU[string, []float32]
	timeout       time.Duration
	maxInputChars int
}

func NewChatService(documents DocumentStore, embedder ai.IEmbedder, generator ai.IGenerator, timeout time.Duration, maxInputChars int) *ChatService {
	return &ChatService{
		documents:     documents,
		embedder:      embedder,
		generator:     generator,
		queryCache:    expirable.NewLRU[string, []float32](queryCacheSize, nil, queryCacheTTL),
		timeout:       timeout,
		maxInputChars: maxInputChars,
	}
}

// Source is one cited retrieval hit.
type Source struct {
	Document string `json:"document"`
	Excerpt  string `json:"excerpt"`
	Page     int    `json:"page,omitempty"`
}

type ChatAnswer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Answer embeds the question, retrieves the top matches within the class
// and asks the model to answer from that context alone. Stateless: no
// conversation memory is kept between calls.
func (s *ChatService) Answer(ctx context.Context, userID, classID, question string) (*ChatAnswer, error) {
	if userID == "" {
		return nil, appErr.ErrUnauthorized
	}
	question = strings.TrimSpace(question)
	if question == "" || classID == "" {
		return nil, appErr.ErrInvalid
	}
	if s.maxInputChars > 0 && len(question) > s.maxInputChars {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("class_id", classID))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	queryEmb, err := s.embedQuery(ctx, question)
	if err != nil {
		logger.Error("failed to embed question", zap.Error(err))
		return nil, fmt.Errorf("%w: embed question: %v", appErr.ErrUpstream, err)
	}

	docs, err := s.documents.SearchSimilar(ctx, userID, classID, queryEmb, chatTopK)
	if err != nil {
		logger.Error("similarity search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: similarity search: %v", appErr.ErrUpstream, err)
	}

	contents := make([]string, 0, len(docs))
	sources := make([]Source, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
		sources = append(sources, Source{
			Document: doc.Name,
			Excerpt:  excerpt(doc.Content),
			Page:     doc.PageCount,
		})
	}

	prompt := buildChatPrompt(strings.Join(contents, "\n\n"), question)
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("chat completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: chat completion: %v", appErr.ErrUpstream, err)
	}
	logger.Info("chat answered", zap.Int("sources", len(sources)))
	return &ChatAnswer{Response: answer, Sources: sources}, nil
}

func (s *ChatService) embedQuery(ctx context.Context, question string) ([]float32, error) {
	hash := sha256.Sum256([]byte(question))
	cacheKey := hex.EncodeToString(hash[:])
	if cached, ok := s.queryCache.Get(cacheKey); ok {
		return cached, nil
	}
	emb, err := s.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(cacheKey, emb)
	return emb, nil
}

func buildChatPrompt(contextBlock, question string) string {
	return fmt.Sprintf(`You are a helpful study assistant. Use the following context from course materials to answer the user's question.
If you use information from the context, make sure to cite it in your response.

CONTEXT:
%s

QUESTION:
%s`, contextBlock, question)
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptChars {
		return content + "..."
	}
	return string(runes[:excerptChars]) + "..."
}
