package timeline

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chirp/cmd/identity"

	authapi "chirp/cmd/internal/auth/api"
)

// Handler wires the timeline endpoints. Routes must be registered behind
// the auth middleware so UserIDFromContext is populated.
type Handler struct {
	log      *slog.Logger
	store    Store
	identity identity.Store

	maxBodyBytes int64
}

// NewHandler constructs a timeline Handler.
func NewHandler(log *slog.Logger, store Store, idStore identity.Store, maxBodyBytes int64) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("timeline: nil store")
	}
	if idStore == nil {
		return nil, errors.New("timeline: nil identity store")
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{log: log, store: store, identity: idStore, maxBodyBytes: maxBodyBytes}, nil
}

// Register wires timeline routes onto mux, each wrapped with guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	if h == nil || mux == nil {
		return
	}
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, guard(fn))
	}

	handle("POST /tweets", h.handleCreate)
	handle("GET /tweets", h.handleList)
	handle("GET /tweets/{id}", h.handleGet)
	handle("DELETE /tweets/{id}", h.handleDelete)
	handle("POST /tweets/{id}/like", h.handleLike)
	handle("POST /tweets/{id}/retweet", h.handleRetweet)
	handle("GET /profile", h.handleGetProfile)
	handle("PUT /profile", h.handleUpdateProfile)
}

// ---- models ----

type createTweetRequest struct {
	Content string `json:"content"`
}

type updateProfileRequest struct {
	DisplayName    *string `json:"display_name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

type tweetResponse struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	RetweetOf    *string   `json:"retweet_of,omitempty"`
	LikeCount    int       `json:"like_count"`
	RetweetCount int       `json:"retweet_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type tweetListResponse struct {
	Tweets []tweetResponse `json:"tweets"`
}

type profileResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	DisplayName    *string   `json:"display_name"`
	Bio            *string   `json:"bio"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

func toTweetResponse(t Tweet) tweetResponse {
	return tweetResponse{
		ID:           t.ID,
		AuthorID:     t.AuthorID,
		Content:      t.Content,
		RetweetOf:    t.RetweetOf,
		LikeCount:    t.LikeCount,
		RetweetCount: t.RetweetCount,
		CreatedAt:    t.CreatedAt,
	}
}

func toProfileResponse(u identity.User) profileResponse {
	return profileResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

// ---- handlers ----

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req createTweetRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	t, err := h.store.CreateTweet(r.Context(), identity.NewULID(), userID, req.Content, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", "content must be 1-280 characters")
			return
		}
		h.log.Error("timeline.create.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toTweetResponse(t))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{Search: r.URL.Query().Get("search")}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be 1-200")
			return
		}
		q.Limit = n
	}

	tweets, err := h.store.ListTweets(r.Context(), q)
	if err != nil {
		h.log.Error("timeline.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	out := make([]tweetResponse, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, toTweetResponse(t))
	}
	writeJSON(w, http.StatusOK, tweetListResponse{Tweets: out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTweet(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "tweet not found")
			return
		}
		h.log.Error("timeline.get.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toTweetResponse(t))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	err := h.store.DeleteTweet(r.Context(), r.PathValue("id"), userID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tweet not found")
	case errors.Is(err, ErrNotOwner):
		writeError(w, http.StatusForbidden, "forbidden", "only the author can delete a tweet")
	default:
		h.log.Error("timeline.delete.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	t, err := h.store.Like(r.Context(), r.PathValue("id"), userID, time.Now().UTC())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toTweetResponse(t))
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tweet not found")
	case errors.Is(err, ErrAlreadyLiked):
		writeError(w, http.StatusBadRequest, "already_liked", "tweet already liked")
	default:
		h.log.Error("timeline.like.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func (h *Handler) handleRetweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	t, err := h.store.Retweet(r.Context(), identity.NewULID(), r.PathValue("id"), userID, time.Now().UTC())
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, toTweetResponse(t))
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tweet not found")
	case errors.Is(err, ErrAlreadyRetweeted):
		writeError(w, http.StatusBadRequest, "already_retweeted", "tweet already retweeted")
	default:
		h.log.Error("timeline.retweet.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	u, err := h.identity.GetUserByID(r.Context(), userID)
	if err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
			return
		}
		h.log.Error("timeline.profile.get.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authapi.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req updateProfileRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.identity.UpdateProfile(r.Context(), userID, identity.UpdateProfileInput{
		DisplayName:    req.DisplayName,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		switch {
		case identity.IsNotFound(err):
			writeError(w, http.StatusUnauthorized, "unauthorized", "user not found")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid profile fields")
		default:
			h.log.Error("timeline.profile.update.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u))
}

// ---- JSON plumbing ----

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
