// Package hackertest provides an in-memory stand-in for the remote
// Hack-or-Snooze service. It speaks the same REST contract over a real
// httptest listener so client code is exercised over actual HTTP.
package hackertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"hackersnooze/models"
)

// Server holds the fake service state: stories in service order (newest
// first), accounts, and issued tokens.
type Server struct {
	mu       sync.Mutex
	stories  []models.Story
	users    map[string]*account
	tokens   map[string]string // token -> username
	requests int

	srv *httptest.Server
}

type account struct {
	name      string
	password  string
	createdAt time.Time
	updatedAt time.Time
	favorites []string // story ids, insertion order
}

type userRecord struct {
	Username  string         `json:"username"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Favorites []models.Story `json:"favorites"`
	Stories   []models.Story `json:"stories"`
}

// NewServer starts the fake service on a local listener. Callers must
// Close it.
func NewServer() *Server {
	s := &Server{
		users:  make(map[string]*account),
		tokens: make(map[string]string),
	}

	r := mux.NewRouter()
	r.Use(s.countingMiddleware)
	r.Use(corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/stories", s.handleListStories).Methods(http.MethodGet)
	r.HandleFunc("/stories", s.handleCreateStory).Methods(http.MethodPost)
	r.HandleFunc("/stories/{storyId}", s.handleDeleteStory).Methods(http.MethodDelete)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/users/{username}", s.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{username}/favorites/{storyId}", s.handleAddFavorite).Methods(http.MethodPost)
	r.HandleFunc("/users/{username}/favorites/{storyId}", s.handleRemoveFavorite).Methods(http.MethodDelete)

	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the fake service.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.srv.Close()
}

// Requests returns how many HTTP requests the fake service has seen.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// SeedUser registers an account without going through /signup.
func (s *Server) SeedUser(username, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.users[username] = &account{
		name:      name,
		password:  password,
		createdAt: now,
		updatedAt: now,
	}
}

// SeedStory inserts a story at the front of the service's list, the way a
// fresh submission would land, and returns the full record.
func (s *Server) SeedStory(author, title, url, username string) models.Story {
	s.mu.Lock()
	defer s.mu.Unlock()
	story := s.newStoryLocked(author, title, url, username)
	s.stories = append([]models.Story{story}, s.stories...)
	return story
}

// SeedFavorite marks an existing story as a favorite of the given user.
func (s *Server) SeedFavorite(username, storyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.users[username]; ok {
		acct.favorites = append(acct.favorites, storyID)
	}
}

// Token issues a valid token for an already-seeded user.
func (s *Server) Token(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "token-" + uuid.NewString()
	s.tokens[token] = username
	return token
}

func (s *Server) newStoryLocked(author, title, url, username string) models.Story {
	now := time.Now().UTC()
	return models.Story{
		Author:    author,
		Title:     title,
		URL:       url,
		Username:  username,
		StoryID:   uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Server) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// CORS middleware to allow cross-origin requests, like the real service
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"status":  status,
		},
	})
}

func (s *Server) usernameForTokenLocked(token string) (string, bool) {
	username, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	if _, ok := s.users[username]; !ok {
		return "", false
	}
	return username, true
}

func (s *Server) userRecordLocked(username string) userRecord {
	acct := s.users[username]
	rec := userRecord{
		Username:  username,
		Name:      acct.name,
		CreatedAt: acct.createdAt,
		UpdatedAt: acct.updatedAt,
		Favorites: []models.Story{},
		Stories:   []models.Story{},
	}
	for _, id := range acct.favorites {
		for _, story := range s.stories {
			if story.StoryID == id {
				rec.Favorites = append(rec.Favorites, story)
				break
			}
		}
	}
	for _, story := range s.stories {
		if story.Username == username {
			rec.Stories = append(rec.Stories, story)
		}
	}
	return rec
}

func (s *Server) handleListStories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"stories": s.stories})
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string            `json:"token"`
		Story models.StoryDraft `json:"story"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.usernameForTokenLocked(body.Token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if body.Story.Title == "" || body.Story.URL == "" {
		writeError(w, http.StatusBadRequest, "story requires title and url")
		return
	}

	story := s.newStoryLocked(body.Story.Author, body.Story.Title, body.Story.URL, username)
	s.stories = append([]models.Story{story}, s.stories...)

	writeJSON(w, http.StatusCreated, map[string]any{"story": story})
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	storyID := mux.Vars(r)["storyId"]

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.usernameForTokenLocked(body.Token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	idx := -1
	for i, story := range s.stories {
		if story.StoryID == storyID {
			idx = i
			break
		}
	}
	if idx == -1 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("story %s not found", storyID))
		return
	}
	if s.stories[idx].Username != username {
		writeError(w, http.StatusForbidden, "story belongs to another user")
		return
	}

	s.stories = append(s.stories[:idx], s.stories[idx+1:]...)
	for _, acct := range s.users {
		for i, id := range acct.favorites {
			if id == storyID {
				acct.favorites = append(acct.favorites[:i], acct.favorites[i+1:]...)
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "story deleted"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Name     string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if body.User.Username == "" || body.User.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if _, exists := s.users[body.User.Username]; exists {
		writeError(w, http.StatusConflict, fmt.Sprintf("username %s already taken", body.User.Username))
		return
	}

	now := time.Now().UTC()
	s.users[body.User.Username] = &account{
		name:      body.User.Name,
		password:  body.User.Password,
		createdAt: now,
		updatedAt: now,
	}
	token := "token-" + uuid.NewString()
	s.tokens[token] = body.User.Username

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  s.userRecordLocked(body.User.Username),
		"token": token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.users[body.User.Username]
	if !ok || acct.password != body.User.Password {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token := "token-" + uuid.NewString()
	s.tokens[token] = body.User.Username

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  s.userRecordLocked(body.User.Username),
		"token": token,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	token := r.URL.Query().Get("token")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usernameForTokenLocked(token); !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if _, ok := s.users[username]; !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("user %s not found", username))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": s.userRecordLocked(username)})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.handleFavorite(w, r, true)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.handleFavorite(w, r, false)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request, add bool) {
	vars := mux.Vars(r)
	username := vars["username"]
	storyID := vars["storyId"]

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokenUser, ok := s.usernameForTokenLocked(body.Token)
	if !ok || tokenUser != username {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	found := false
	for _, story := range s.stories {
		if story.StoryID == storyID {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("story %s not found", storyID))
		return
	}

	acct := s.users[username]
	if add {
		for _, id := range acct.favorites {
			if id == storyID {
				writeJSON(w, http.StatusOK, map[string]any{"user": s.userRecordLocked(username)})
				return
			}
		}
		acct.favorites = append(acct.favorites, storyID)
	} else {
		for i, id := range acct.favorites {
			if id == storyID {
				acct.favorites = append(acct.favorites[:i], acct.favorites[i+1:]...)
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": s.userRecordLocked(username)})
}
