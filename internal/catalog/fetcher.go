package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrFetchFailure wraps any question-set download problem. The level stays
// unselected; the user retries by selecting the level again.
var ErrFetchFailure = errors.New("question set fetch failed")

// QuestionFetcher loads a level's question set from its resource locator.
type QuestionFetcher interface {
	FetchQuestionSet(ctx context.Context, url string) ([]Question, error)
}

// Fetcher downloads question sets over HTTP at level-select time.
type Fetcher struct {
	httpClient *http.Client
}

var _ QuestionFetcher = (*Fetcher)(nil)

// NewFetcher creates a question set fetcher. httpClient may be nil.
func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Fetcher{httpClient: httpClient}
}

type questionSetPayload struct {
	Questions []Question `json:"questions"`
}

// FetchQuestionSet retrieves and decodes a question set resource.
func (f *Fetcher) FetchQuestionSet(ctx context.Context, url string) ([]Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailure, resp.StatusCode)
	}

	var payload questionSetPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: empty question set", ErrFetchFailure)
	}
	return payload.Questions, nil
}
