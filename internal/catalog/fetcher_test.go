package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchQuestionSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"questions": [
			{"id": 0, "question": "Pick one", "options": ["a", "b"], "answer": ["a"]},
			{"id": 1, "question": "The * is blue", "options": ["sky", "sun"], "correctAnswers": ["sky"]}
		]}`))
	}))
	defer srv.Close()

	fetcher := NewFetcher(nil)
	questions, err := fetcher.FetchQuestionSet(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, []string{"a"}, questions[0].Answer)
	assert.Equal(t, []string{"sky"}, questions[1].CorrectAnswers)
}

func TestFetchQuestionSetFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewFetcher(nil).FetchQuestionSet(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrFetchFailure)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := NewFetcher(nil).FetchQuestionSet(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrFetchFailure)
	})

	t.Run("empty question set", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"questions": []}`))
		}))
		defer srv.Close()

		_, err := NewFetcher(nil).FetchQuestionSet(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrFetchFailure)
	})

	t.Run("unreachable origin", func(t *testing.T) {
		_, err := NewFetcher(nil).FetchQuestionSet(context.Background(), "http://127.0.0.1:1")
		assert.ErrorIs(t, err, ErrFetchFailure)
	})
}

func TestCachingFetcherServesFromCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"questions": [{"id": 0, "question": "q", "options": ["a"], "answer": ["a"]}]}`))
	}))
	defer srv.Close()

	cache := NewCache(newTestRedis(t), 0)
	fetcher := NewCachingFetcher(NewFetcher(nil), cache)
	ctx := context.Background()

	first, err := fetcher.FetchQuestionSet(ctx, srv.URL)
	require.NoError(t, err)
	second, err := fetcher.FetchQuestionSet(ctx, srv.URL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits)
}

func TestCachingFetcherNilCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"questions": [{"id": 0, "question": "q", "options": ["a"], "answer": ["a"]}]}`))
	}))
	defer srv.Close()

	fetcher := NewCachingFetcher(NewFetcher(nil), nil)
	_, err := fetcher.FetchQuestionSet(context.Background(), srv.URL)
	assert.NoError(t, err)
}
