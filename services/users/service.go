package users

import (
	"context"
	"errors"
	"log"

	"hackersnooze/models"
	"hackersnooze/services/hacker"
)

// userClient is the subset of the API client the user service needs.
type userClient interface {
	Signup(ctx context.Context, username, password, name string) (*hacker.AuthResult, error)
	Login(ctx context.Context, username, password string) (*hacker.AuthResult, error)
	GetUser(ctx context.Context, token, username string) (*hacker.UserRecord, error)
	AddFavorite(ctx context.Context, token, username, storyID string) error
	RemoveFavorite(ctx context.Context, token, username, storyID string) error
}

var _ userClient = (*hacker.Client)(nil)

// ErrNotLoggedIn is returned when a call that needs a token is made on an
// anonymous user.
var ErrNotLoggedIn = errors.New("user is not logged in")

// Service owns account and session operations: signup, login, session
// restore, profile refresh, and favorite toggling.
type Service struct {
	api userClient
}

// NewService returns a user service backed by the given API client.
func NewService(api userClient) *Service {
	return &Service{api: api}
}

// Create signs up a new account and returns the authenticated user.
func (s *Service) Create(ctx context.Context, username, password, name string) (*models.User, error) {
	res, err := s.api.Signup(ctx, username, password, name)
	if err != nil {
		return nil, err
	}
	log.Printf("[users] signed up username=%s", res.User.Username)
	return userFromRecord(&res.User, res.Token), nil
}

// Login authenticates an existing account and returns the user with
// favorites and own stories populated from the response.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	log.Printf("[users] logged in username=%s", res.User.Username)
	return userFromRecord(&res.User, res.Token), nil
}

// LoggedInUser restores a session from a persisted token and username.
// When either is empty there is no session to restore: it returns
// (nil, nil) without making a request. An invalid or expired token
// surfaces as an auth error from the profile fetch.
func (s *Service) LoggedInUser(ctx context.Context, token, username string) (*models.User, error) {
	if token == "" || username == "" {
		return nil, nil
	}

	rec, err := s.api.GetUser(ctx, token, username)
	if err != nil {
		return nil, err
	}
	return userFromRecord(rec, token), nil
}

// RefreshProfile re-fetches the user's profile and overwrites the local
// name, timestamps, favorites, and own stories in place.
func (s *Service) RefreshProfile(ctx context.Context, user *models.User) error {
	if !user.Authenticated() {
		return ErrNotLoggedIn
	}

	rec, err := s.api.GetUser(ctx, user.LoginToken, user.Username)
	if err != nil {
		return err
	}

	user.Name = rec.Name
	user.CreatedAt = rec.CreatedAt
	user.UpdatedAt = rec.UpdatedAt
	user.Favorites = copyStories(rec.Favorites)
	user.OwnStories = copyStories(rec.Stories)
	return nil
}

// AddFavorite marks the story as a favorite and then refreshes the whole
// profile. Refreshing instead of patching locally costs a round trip but
// keeps favorites and own stories exactly in step with the service.
func (s *Service) AddFavorite(ctx context.Context, user *models.User, storyID string) error {
	if !user.Authenticated() {
		return ErrNotLoggedIn
	}

	if err := s.api.AddFavorite(ctx, user.LoginToken, user.Username, storyID); err != nil {
		return err
	}
	return s.RefreshProfile(ctx, user)
}

// RemoveFavorite unmarks the story and refreshes the profile, mirroring
// AddFavorite.
func (s *Service) RemoveFavorite(ctx context.Context, user *models.User, storyID string) error {
	if !user.Authenticated() {
		return ErrNotLoggedIn
	}

	if err := s.api.RemoveFavorite(ctx, user.LoginToken, user.Username, storyID); err != nil {
		return err
	}
	return s.RefreshProfile(ctx, user)
}

func userFromRecord(rec *hacker.UserRecord, token string) *models.User {
	return &models.User{
		Username:   rec.Username,
		Name:       rec.Name,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		LoginToken: token,
		Favorites:  copyStories(rec.Favorites),
		OwnStories: copyStories(rec.Stories),
	}
}

func copyStories(stories []models.Story) []models.Story {
	out := make([]models.Story, len(stories))
	copy(out, stories)
	return out
}
