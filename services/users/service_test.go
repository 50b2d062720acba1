package users_test

import (
	"context"
	"errors"
	"testing"

	"hackersnooze/internal/hackertest"
	"hackersnooze/models"
	"hackersnooze/services/hacker"
	"hackersnooze/services/users"
)

func newFixture(t *testing.T) (*hackertest.Server, *users.Service) {
	t.Helper()
	srv := hackertest.NewServer()
	t.Cleanup(srv.Close)
	return srv, users.NewService(hacker.NewClient(srv.URL()))
}

func TestLoginPopulatesCollections(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")
	own := srv.SeedStory("Alice", "mine", "https://example.com/mine", "alice")
	liked := srv.SeedStory("Ben", "liked", "https://example.com/liked", "ben")
	srv.SeedFavorite("alice", liked.StoryID)

	user, err := svc.Login(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if user.Username != "alice" {
		t.Fatalf("username = %q, want %q", user.Username, "alice")
	}
	if user.LoginToken == "" {
		t.Fatalf("expected a login token")
	}
	if len(user.OwnStories) != 1 || user.OwnStories[0].StoryID != own.StoryID {
		t.Fatalf("ownStories = %+v, want %q", user.OwnStories, own.StoryID)
	}
	if len(user.Favorites) != 1 || user.Favorites[0].StoryID != liked.StoryID {
		t.Fatalf("favorites = %+v, want %q", user.Favorites, liked.StoryID)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")

	_, err := svc.Login(context.Background(), "alice", "nope")
	if !hacker.IsAuth(err) {
		t.Fatalf("error = %v, want auth failure", err)
	}
}

func TestCreateReturnsAuthenticatedUser(t *testing.T) {
	_, svc := newFixture(t)

	user, err := svc.Create(context.Background(), "carol", "secret", "Carol")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !user.Authenticated() {
		t.Fatalf("expected new user to hold a token")
	}
	if len(user.Favorites) != 0 || len(user.OwnStories) != 0 {
		t.Fatalf("new account has non-empty collections: %+v", user)
	}
}

func TestLoggedInUserNoSessionMakesNoRequest(t *testing.T) {
	srv, svc := newFixture(t)

	for _, tc := range []struct{ token, username string }{
		{"", "alice"},
		{"token-x", ""},
		{"", ""},
	} {
		user, err := svc.LoggedInUser(context.Background(), tc.token, tc.username)
		if err != nil {
			t.Fatalf("LoggedInUser(%q, %q) error = %v", tc.token, tc.username, err)
		}
		if user != nil {
			t.Fatalf("LoggedInUser(%q, %q) = %+v, want nil", tc.token, tc.username, user)
		}
	}

	if n := srv.Requests(); n != 0 {
		t.Fatalf("service saw %d requests, want 0", n)
	}
}

func TestLoggedInUserRestoresSession(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")
	own := srv.SeedStory("Alice", "mine", "https://example.com/mine", "alice")
	token := srv.Token("alice")

	user, err := svc.LoggedInUser(context.Background(), token, "alice")
	if err != nil {
		t.Fatalf("LoggedInUser() error = %v", err)
	}
	if user.LoginToken != token {
		t.Fatalf("token = %q, want the persisted one", user.LoginToken)
	}
	if len(user.OwnStories) != 1 || user.OwnStories[0].StoryID != own.StoryID {
		t.Fatalf("ownStories = %+v, want %q", user.OwnStories, own.StoryID)
	}
}

func TestLoggedInUserRejectedToken(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")

	_, err := svc.LoggedInUser(context.Background(), "token-expired", "alice")
	if !hacker.IsAuth(err) {
		t.Fatalf("error = %v, want auth failure", err)
	}
}

func TestAddFavoriteRefreshesProfile(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")
	story := srv.SeedStory("Ben", "story42", "https://example.com/42", "ben")

	user, err := svc.Login(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.AddFavorite(context.Background(), user, story.StoryID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}
	if !user.HasFavorite(story.StoryID) {
		t.Fatalf("favorites = %+v, want %q present", user.Favorites, story.StoryID)
	}

	if err := svc.RemoveFavorite(context.Background(), user, story.StoryID); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if user.HasFavorite(story.StoryID) {
		t.Fatalf("favorites = %+v, want %q gone", user.Favorites, story.StoryID)
	}
}

func TestAddFavoriteUnknownStory(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")

	user, err := svc.Login(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	err = svc.AddFavorite(context.Background(), user, "missing")
	if !hacker.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestRefreshProfilePicksUpNewStories(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")

	user, err := svc.Login(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if len(user.OwnStories) != 0 {
		t.Fatalf("expected empty ownStories after fresh login")
	}

	added := srv.SeedStory("Alice", "late arrival", "https://example.com/late", "alice")

	if err := svc.RefreshProfile(context.Background(), user); err != nil {
		t.Fatalf("RefreshProfile() error = %v", err)
	}
	if len(user.OwnStories) != 1 || user.OwnStories[0].StoryID != added.StoryID {
		t.Fatalf("ownStories = %+v, want %q", user.OwnStories, added.StoryID)
	}
}

func TestMutationsRequireToken(t *testing.T) {
	_, svc := newFixture(t)
	anon := &models.User{Username: "alice"}

	if err := svc.AddFavorite(context.Background(), anon, "story42"); !errors.Is(err, users.ErrNotLoggedIn) {
		t.Fatalf("AddFavorite error = %v, want ErrNotLoggedIn", err)
	}
	if err := svc.RemoveFavorite(context.Background(), anon, "story42"); !errors.Is(err, users.ErrNotLoggedIn) {
		t.Fatalf("RemoveFavorite error = %v, want ErrNotLoggedIn", err)
	}
	if err := svc.RefreshProfile(context.Background(), anon); !errors.Is(err, users.ErrNotLoggedIn) {
		t.Fatalf("RefreshProfile error = %v, want ErrNotLoggedIn", err)
	}
}
