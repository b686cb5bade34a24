package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chirp/cmd/identity"
)

func TestMemoryStoreCreateListDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "hello world", now)
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	second, err := s.CreateTweet(ctx, identity.NewULID(), "u2", "second tweet", now.Add(time.Second))
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}

	list, err := s.ListTweets(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("ListTweets: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tweets, got %d", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", list[0].ID, list[1].ID)
	}

	if err := s.DeleteTweet(ctx, first.ID, "u2"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := s.DeleteTweet(ctx, first.ID, "u1"); err != nil {
		t.Fatalf("DeleteTweet: %v", err)
	}
	if _, err := s.GetTweet(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreContentValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "   ", now); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank content: expected ErrInvalidInput, got %v", err)
	}
	long := strings.Repeat("x", MaxContentRunes+1)
	if _, err := s.CreateTweet(ctx, identity.NewULID(), "u1", long, now); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("long content: expected ErrInvalidInput, got %v", err)
	}
	// Exactly the cap is allowed.
	if _, err := s.CreateTweet(ctx, identity.NewULID(), "u1", strings.Repeat("y", MaxContentRunes), now); err != nil {
		t.Fatalf("content at cap: %v", err)
	}
}

func TestMemoryStoreSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "Gophers assemble", now); err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}
	if _, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "unrelated", now); err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}

	list, err := s.ListTweets(ctx, ListQuery{Search: "gopher"})
	if err != nil {
		t.Fatalf("ListTweets: %v", err)
	}
	if len(list) != 1 || !strings.Contains(list[0].Content, "Gophers") {
		t.Fatalf("unexpected search result: %+v", list)
	}
}

func TestMemoryStoreLike(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	tw, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "like me", now)
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}

	liked, err := s.Like(ctx, tw.ID, "u2", now)
	if err != nil {
		t.Fatalf("Like: %v", err)
	}
	if liked.LikeCount != 1 {
		t.Fatalf("expected 1 like, got %d", liked.LikeCount)
	}
	if _, err := s.Like(ctx, tw.ID, "u2", now); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	if _, err := s.Like(ctx, "missing", "u2", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRetweet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	src, err := s.CreateTweet(ctx, identity.NewULID(), "u1", "original take", now)
	if err != nil {
		t.Fatalf("CreateTweet: %v", err)
	}

	rt, err := s.Retweet(ctx, identity.NewULID(), src.ID, "u2", now.Add(time.Second))
	if err != nil {
		t.Fatalf("Retweet: %v", err)
	}
	if rt.Content != src.Content {
		t.Fatalf("retweet must copy content, got %q", rt.Content)
	}
	if rt.RetweetOf == nil || *rt.RetweetOf != src.ID {
		t.Fatalf("retweet must reference the source, got %v", rt.RetweetOf)
	}

	if _, err := s.Retweet(ctx, identity.NewULID(), src.ID, "u2", now); !errors.Is(err, ErrAlreadyRetweeted) {
		t.Fatalf("expected ErrAlreadyRetweeted, got %v", err)
	}

	got, err := s.GetTweet(ctx, src.ID)
	if err != nil {
		t.Fatalf("GetTweet: %v", err)
	}
	if got.RetweetCount != 1 {
		t.Fatalf("expected retweet count 1, got %d", got.RetweetCount)
	}
}
