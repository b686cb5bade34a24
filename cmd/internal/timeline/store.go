package timeline

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound         = errors.New("timeline: tweet not found")
	ErrNotOwner         = errors.New("timeline: not the tweet author")
	ErrAlreadyLiked     = errors.New("timeline: tweet already liked")
	ErrAlreadyRetweeted = errors.New("timeline: tweet already retweeted")
	ErrInvalidInput     = errors.New("timeline: invalid input")
)

// MaxContentRunes bounds tweet content length.
const MaxContentRunes = 280

// Tweet is one timeline entry. RetweetOf points at the source tweet when
// the entry was produced by a retweet.
type Tweet struct {
	ID           string
	AuthorID     string
	Content      string
	RetweetOf    *string
	LikeCount    int
	RetweetCount int
	CreatedAt    time.Time
}

// ListQuery bounds timeline reads. Zero Limit means the default page size.
type ListQuery struct {
	Limit  int
	Search string
}

// Store is the timeline persistence boundary.
type Store interface {
	// CreateTweet persists a new tweet authored by authorID.
	CreateTweet(ctx context.Context, id, authorID, content string, now time.Time) (Tweet, error)

	// GetTweet loads one tweet. Returns ErrNotFound when missing.
	GetTweet(ctx context.Context, id string) (Tweet, error)

	// ListTweets returns tweets newest first, optionally filtered by a
	// case-insensitive content substring.
	ListTweets(ctx context.Context, q ListQuery) ([]Tweet, error)

	// DeleteTweet removes a tweet. Returns ErrNotFound when missing and
	// ErrNotOwner when authorID does not match.
	DeleteTweet(ctx context.Context, id, authorID string) error

	// Like records a like. Double-likes return ErrAlreadyLiked.
	Like(ctx context.Context, tweetID, userID string, now time.Time) (Tweet, error)

	// Retweet creates a new tweet referencing tweetID with copied content.
	// A second retweet of the same source by the same user returns
	// ErrAlreadyRetweeted.
	Retweet(ctx context.Context, newID, tweetID, userID string, now time.Time) (Tweet, error)
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrInvalidInput
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return "", ErrInvalidInput
	}
	return content, nil
}
