package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chirp/cmd/identity"

	authapi "chirp/cmd/internal/auth/api"
)

// fakeGuard authenticates every request as userID without tokens.
func fakeGuard(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authapi.ContextWithUserID(r.Context(), userID)))
		})
	}
}

func newTestTimeline(t *testing.T, userID string) (*http.ServeMux, identity.Store) {
	t.Helper()
	t.Setenv("CHIRP_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("CHIRP_ARGON2_ITERATIONS", "1")
	t.Setenv("CHIRP_ARGON2_PARALLELISM", "1")

	idStore := identity.NewMemoryStore()
	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewMemoryStore(), idStore, 1<<20)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux, fakeGuard(userID))
	return mux, idStore
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createTweet(t *testing.T, mux *http.ServeMux, content string) tweetResponse {
	t.Helper()
	rec := do(t, mux, http.MethodPost, "/tweets", createTweetRequest{Content: content})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tweet: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp tweetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode tweet: %v", err)
	}
	return resp
}

func TestCreateAndListTweets(t *testing.T) {
	mux, _ := newTestTimeline(t, "u1")

	first := createTweet(t, mux, "hello world")
	time.Sleep(2 * time.Millisecond)
	second := createTweet(t, mux, "second post")

	rec := do(t, mux, http.MethodGet, "/tweets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var list tweetListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tweets) != 2 {
		t.Fatalf("expected 2 tweets, got %d", len(list.Tweets))
	}
	if list.Tweets[0].ID != second.ID || list.Tweets[1].ID != first.ID {
		t.Fatalf("expected newest first")
	}
}

func TestCreateTweetRejectsBadContent(t *testing.T) {
	mux, _ := newTestTimeline(t, "u1")

	rec := do(t, mux, http.MethodPost, "/tweets", createTweetRequest{Content: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank content, got %d", rec.Code)
	}
}

func TestGetAndDeleteTweet(t *testing.T) {
	mux, _ := newTestTimeline(t, "u1")
	tw := createTweet(t, mux, "delete me")

	rec := do(t, mux, http.MethodGet, "/tweets/"+tw.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	del := do(t, mux, http.MethodDelete, "/tweets/"+tw.ID, nil)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d body %s", del.Code, del.Body.String())
	}

	gone := do(t, mux, http.MethodGet, "/tweets/"+tw.ID, nil)
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestDeleteForeignTweetForbidden(t *testing.T) {
	// Two muxes over the same handler, authenticated as different users.
	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewMemoryStore(), identity.NewMemoryStore(), 1<<20)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	muxA := http.NewServeMux()
	h.Register(muxA, fakeGuard("u1"))
	muxB := http.NewServeMux()
	h.Register(muxB, fakeGuard("u2"))

	tw := createTweet(t, muxA, "not yours")
	rec := do(t, muxB, http.MethodDelete, "/tweets/"+tw.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 deleting another author's tweet, got %d", rec.Code)
	}
}

func TestLikeAndRetweetEndpoints(t *testing.T) {
	mux, _ := newTestTimeline(t, "u1")
	tw := createTweet(t, mux, "popular take")

	like := do(t, mux, http.MethodPost, "/tweets/"+tw.ID+"/like", nil)
	if like.Code != http.StatusOK {
		t.Fatalf("like: status %d body %s", like.Code, like.Body.String())
	}
	again := do(t, mux, http.MethodPost, "/tweets/"+tw.ID+"/like", nil)
	if again.Code != http.StatusBadRequest {
		t.Fatalf("double like: expected 400, got %d", again.Code)
	}

	rt := do(t, mux, http.MethodPost, "/tweets/"+tw.ID+"/retweet", nil)
	if rt.Code != http.StatusCreated {
		t.Fatalf("retweet: status %d body %s", rt.Code, rt.Body.String())
	}
	var rtResp tweetResponse
	if err := json.Unmarshal(rt.Body.Bytes(), &rtResp); err != nil {
		t.Fatalf("decode retweet: %v", err)
	}
	if rtResp.Content != tw.Content {
		t.Fatalf("retweet must copy content")
	}
	rtAgain := do(t, mux, http.MethodPost, "/tweets/"+tw.ID+"/retweet", nil)
	if rtAgain.Code != http.StatusBadRequest {
		t.Fatalf("double retweet: expected 400, got %d", rtAgain.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	mux, _ := newTestTimeline(t, "u1")
	createTweet(t, mux, "gopher content")
	createTweet(t, mux, "something else")

	rec := do(t, mux, http.MethodGet, "/tweets?search=gopher", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d", rec.Code)
	}
	var list tweetListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tweets) != 1 {
		t.Fatalf("expected 1 match, got %d", len(list.Tweets))
	}
}

func TestProfileEndpoints(t *testing.T) {
	mux, idStore := newTestTimeline(t, "")

	u, err := idStore.CreateUser(context.Background(), identity.CreateUserInput{
		Username: "navid",
		Email:    "navid@example.com",
		Password: "Sup3r-secret!",
		Now:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Rebind the mux with the real user ID.
	h, err := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewMemoryStore(), idStore, 1<<20)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	mux = http.NewServeMux()
	h.Register(mux, fakeGuard(u.ID))

	rec := do(t, mux, http.MethodGet, "/profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get profile: status %d body %s", rec.Code, rec.Body.String())
	}

	bio := "gopher at large"
	upd := do(t, mux, http.MethodPut, "/profile", updateProfileRequest{Bio: &bio})
	if upd.Code != http.StatusOK {
		t.Fatalf("update profile: status %d body %s", upd.Code, upd.Body.String())
	}
	var prof profileResponse
	if err := json.Unmarshal(upd.Body.Bytes(), &prof); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if prof.Bio == nil || *prof.Bio != bio {
		t.Fatalf("bio not updated: %+v", prof)
	}
}
