package timeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultPageSize = 50

// MemoryStore is the dev-mode and unit-test Store implementation.
type MemoryStore struct {
	mu       sync.Mutex
	tweets   map[string]Tweet
	likes    map[string]map[string]struct{} // tweetID -> userID set
	retweets map[string]map[string]struct{} // source tweetID -> userID set
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tweets:   make(map[string]Tweet),
		likes:    make(map[string]map[string]struct{}),
		retweets: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) CreateTweet(ctx context.Context, id, authorID, content string, now time.Time) (Tweet, error) {
	if err := ctx.Err(); err != nil {
		return Tweet{}, err
	}
	content, err := validateContent(content)
	if err != nil {
		return Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := Tweet{ID: id, AuthorID: authorID, Content: content, CreatedAt: now}
	s.tweets[id] = t
	return t, nil
}

func (s *MemoryStore) GetTweet(ctx context.Context, id string) (Tweet, error) {
	if err := ctx.Err(); err != nil {
		return Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[id]
	if !ok {
		return Tweet{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) ListTweets(ctx context.Context, q ListQuery) ([]Tweet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Tweet, 0, len(s.tweets))
	for _, t := range s.tweets {
		if search != "" && !strings.Contains(strings.ToLower(t.Content), search) {
			continue
		}
		out = append(out, t)
	}
	// ULIDs are time-ordered, so ID order is creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteTweet(ctx context.Context, id, authorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[id]
	if !ok {
		return ErrNotFound
	}
	if t.AuthorID != authorID {
		return ErrNotOwner
	}
	delete(s.tweets, id)
	delete(s.likes, id)
	delete(s.retweets, id)
	return nil
}

func (s *MemoryStore) Like(ctx context.Context, tweetID, userID string, now time.Time) (Tweet, error) {
	if err := ctx.Err(); err != nil {
		return Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return Tweet{}, ErrNotFound
	}
	set := s.likes[tweetID]
	if set == nil {
		set = make(map[string]struct{})
		s.likes[tweetID] = set
	}
	if _, dup := set[userID]; dup {
		return Tweet{}, ErrAlreadyLiked
	}
	set[userID] = struct{}{}

	t.LikeCount = len(set)
	s.tweets[tweetID] = t
	return t, nil
}

func (s *MemoryStore) Retweet(ctx context.Context, newID, tweetID, userID string, now time.Time) (Tweet, error) {
	if err := ctx.Err(); err != nil {
		return Tweet{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.tweets[tweetID]
	if !ok {
		return Tweet{}, ErrNotFound
	}
	set := s.retweets[tweetID]
	if set == nil {
		set = make(map[string]struct{})
		s.retweets[tweetID] = set
	}
	if _, dup := set[userID]; dup {
		return Tweet{}, ErrAlreadyRetweeted
	}
	set[userID] = struct{}{}

	src.RetweetCount = len(set)
	s.tweets[tweetID] = src

	ref := src.ID
	rt := Tweet{
		ID:        newID,
		AuthorID:  userID,
		Content:   src.Content,
		RetweetOf: &ref,
		CreatedAt: now,
	}
	s.tweets[newID] = rt
	return rt, nil
}
