package progress

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used by unit tests and local runs
// without Redis. It mirrors the Redis store's semantics, including snapshot
// fan-out to subscribers.
type MemoryStore struct {
	mu          sync.Mutex
	docs        map[string]*UserProgress
	subscribers map[string]map[int]func(UserProgress)
	nextSubID   int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:        make(map[string]*UserProgress),
		subscribers: make(map[string]map[int]func(UserProgress)),
	}
}

func (s *MemoryStore) Read(ctx context.Context, key string) (*UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Init(ctx context.Context, key string, doc *UserProgress) error {
	s.mu.Lock()
	if _, ok := s.docs[key]; ok {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	s.docs[key] = doc.Clone()
	snapshot := *doc.Clone()
	s.mu.Unlock()

	s.notify(key, snapshot)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, mutate func(doc *UserProgress) error) (*UserProgress, error) {
	s.mu.Lock()
	current, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	doc := current.Clone()
	score := doc.FinalScore
	if err := mutate(doc); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	doc.FinalScore = score
	s.docs[key] = doc
	snapshot := *doc.Clone()
	s.mu.Unlock()

	s.notify(key, snapshot)
	return doc.Clone(), nil
}

func (s *MemoryStore) IncrementScore(ctx context.Context, key string, delta int) (int, error) {
	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}
	doc.FinalScore += delta
	total := doc.FinalScore
	snapshot := *doc.Clone()
	s.mu.Unlock()

	s.notify(key, snapshot)
	return total, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, key string, fn func(UserProgress)) (UnsubscribeFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[int]func(UserProgress))
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[key], id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *MemoryStore) notify(key string, snapshot UserProgress) {
	s.mu.Lock()
	fns := make([]func(UserProgress), 0, len(s.subscribers[key]))
	for _, fn := range s.subscribers[key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
