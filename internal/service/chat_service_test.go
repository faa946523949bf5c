package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bartek717/passionproject/internal/model"
	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

func TestChatAnswerCitesRetrievedDocuments(t *testing.T) {
	documents := newFakeDocumentStore()
	documents.similar = []model.Document{
		{
			ID:        "doc-1",
			Name:      "cell-biology.pdf",
			Content:   "Mitochondria are the powerhouse of the cell. " + strings.Repeat("They produce ATP. ", 20),
			PageCount: 12,
		},
	}
	generator := &fakeGenerator{answer: "Mitochondria produce ATP."}
	svc := NewChatService(documents, &fakeEmbedder{}, generator, time.Minute, 0)

	answer, err := svc.Answer(context.Background(), "user-1", "class-1", "What do mitochondria do?")
	require.NoError(t, err)
	require.Equal(t, "Mitochondria produce ATP.", answer.Response)
	require.Len(t, answer.Sources, 1)
	require.Equal(t, "cell-biology.pdf", answer.Sources[0].Document)
	require.Equal(t, 12, answer.Sources[0].Page)
	require.True(t, strings.HasPrefix(answer.Sources[0].Excerpt, "Mitochondria"))
	require.True(t, strings.HasSuffix(answer.Sources[0].Excerpt, "..."))
	require.LessOrEqual(t, len([]rune(answer.Sources[0].Excerpt)), excerptChars+3)

	require.Contains(t, generator.lastPrompt, "CONTEXT:")
	require.Contains(t, generator.lastPrompt, "QUESTION:")
	require.Contains(t, generator.lastPrompt, "Mitochondria are the powerhouse")
	require.Contains(t, generator.lastPrompt, "What do mitochondria do?")
}

func TestChatAnswerValidation(t *testing.T) {
	svc := NewChatService(newFakeDocumentStore(), &fakeEmbedder{}, &fakeGenerator{}, 0, 0)

	_, err := svc.Answer(context.Background(), "", "class-1", "question")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	_, err = svc.Answer(context.Background(), "user-1", "", "question")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Answer(context.Background(), "user-1", "class-1", "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatAnswerQuestionTooLong(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := NewChatService(newFakeDocumentStore(), embedder, &fakeGenerator{}, 0, 16)

	_, err := svc.Answer(context.Background(), "user-1", "class-1", strings.Repeat("q", 17))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, embedder.calls)
}

func TestChatAnswerNoDocuments(t *testing.T) {
	generator := &fakeGenerator{answer: "I could not find anything about that in your materials."}
	svc := NewChatService(newFakeDocumentStore(), &fakeEmbedder{}, generator, 0, 0)

	answer, err := svc.Answer(context.Background(), "user-1", "class-1", "anything?")
	require.NoError(t, err)
	require.NotEmpty(t, answer.Response)
	require.Empty(t, answer.Sources)
}

func TestChatAnswerEmbedFailure(t *testing.T) {
	svc := NewChatService(newFakeDocumentStore(), &fakeEmbedder{err: errBoom}, &fakeGenerator{}, 0, 0)
	_, err := svc.Answer(context.Background(), "user-1", "class-1", "question")
	require.ErrorIs(t, err, appErr.ErrUpstream)
}

func TestChatAnswerGenerateFailure(t *testing.T) {
	svc := NewChatService(newFakeDocumentStore(), &fakeEmbedder{}, &fakeGenerator{err: errBoom}, 0, 0)
	_, err := svc.Answer(context.Background(), "user-1", "class-1", "question")
	require.ErrorIs(t, err, appErr.ErrUpstream)
}

func TestChatQueryEmbeddingCached(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := NewChatService(newFakeDocumentStore(), embedder, &fakeGenerator{answer: "ok"}, 0, 0)

	_, err := svc.Answer(context.Background(), "user-1", "class-1", "same question")
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), "user-1", "class-1", "same question")
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)
}

func TestExcerpt(t *testing.T) {
	short := "brief"
	require.Equal(t, "brief...", excerpt(short))

	long := strings.Repeat("é", excerptChars+50)
	got := excerpt(long)
	require.Equal(t, excerptChars+3, len([]rune(got)))
	require.True(t, strings.HasSuffix(got, "..."))
}
