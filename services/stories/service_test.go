package stories_test

import (
	"context"
	"errors"
	"testing"

	"hackersnooze/internal/hackertest"
	"hackersnooze/models"
	"hackersnooze/services/hacker"
	"hackersnooze/services/stories"
)

func newFixture(t *testing.T) (*hackertest.Server, *stories.Service) {
	t.Helper()
	srv := hackertest.NewServer()
	t.Cleanup(srv.Close)
	return srv, stories.NewService(hacker.NewClient(srv.URL()))
}

func TestFetchAllOrderAndUniqueness(t *testing.T) {
	srv, svc := newFixture(t)

	first := srv.SeedStory("Ann", "first", "https://example.com/1", "ann")
	second := srv.SeedStory("Ben", "second", "https://example.com/2", "ben")

	list, err := svc.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if list.Len() != 2 {
		t.Fatalf("len = %d, want 2", list.Len())
	}
	if list.Stories[0].StoryID != second.StoryID || list.Stories[1].StoryID != first.StoryID {
		t.Fatalf("order = [%s %s], want [%s %s]",
			list.Stories[0].StoryID, list.Stories[1].StoryID, second.StoryID, first.StoryID)
	}

	seen := make(map[string]bool)
	for _, s := range list.Stories {
		if seen[s.StoryID] {
			t.Fatalf("duplicate storyId %q", s.StoryID)
		}
		seen[s.StoryID] = true
	}
}

func TestAddPrependsToListAndOwnStories(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("bob", "pw", "Bob")
	srv.SeedStory("Ann", "existing", "https://example.com/1", "ann")

	user := &models.User{Username: "bob", LoginToken: srv.Token("bob")}

	list, err := svc.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	listLen, ownLen := list.Len(), len(user.OwnStories)

	story, err := svc.Add(context.Background(), list, user, models.StoryDraft{
		Author: "Bob", Title: "fresh", URL: "https://example.com/fresh",
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if story.StoryID == "" {
		t.Fatalf("expected service-assigned story id")
	}
	if story.Username != "bob" {
		t.Fatalf("poster = %q, want %q", story.Username, "bob")
	}
	if list.Len() != listLen+1 || len(user.OwnStories) != ownLen+1 {
		t.Fatalf("lengths = (%d, %d), want (%d, %d)",
			list.Len(), len(user.OwnStories), listLen+1, ownLen+1)
	}
	if list.Stories[0].StoryID != story.StoryID {
		t.Fatalf("list front = %q, want %q", list.Stories[0].StoryID, story.StoryID)
	}
	if user.OwnStories[0].StoryID != story.StoryID {
		t.Fatalf("ownStories front = %q, want %q", user.OwnStories[0].StoryID, story.StoryID)
	}
}

func TestAddRequiresLogin(t *testing.T) {
	_, svc := newFixture(t)

	list := models.NewStoryList(nil)
	_, err := svc.Add(context.Background(), list, &models.User{Username: "bob"}, models.StoryDraft{
		Title: "nope", URL: "https://example.com",
	})
	if !errors.Is(err, stories.ErrNotLoggedIn) {
		t.Fatalf("error = %v, want ErrNotLoggedIn", err)
	}
	if list.Len() != 0 {
		t.Fatalf("list mutated on failed add")
	}
}

func TestDeletePurgesAllThreeCollections(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")
	story := srv.SeedStory("Alice", "story42", "https://example.com/42", "alice")
	other := srv.SeedStory("Ben", "keep", "https://example.com/keep", "ben")
	srv.SeedFavorite("alice", story.StoryID)

	user := &models.User{
		Username:   "alice",
		LoginToken: srv.Token("alice"),
		OwnStories: []models.Story{story},
		Favorites:  []models.Story{story, other},
	}

	list, err := svc.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	listLen := list.Len()

	if err := svc.Delete(context.Background(), list, user, story.StoryID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if list.Len() != listLen-1 {
		t.Fatalf("list len = %d, want %d", list.Len(), listLen-1)
	}
	for _, s := range list.Stories {
		if s.StoryID == story.StoryID {
			t.Fatalf("deleted story still in list")
		}
	}
	for _, s := range user.OwnStories {
		if s.StoryID == story.StoryID {
			t.Fatalf("deleted story still in ownStories")
		}
	}
	for _, s := range user.Favorites {
		if s.StoryID == story.StoryID {
			t.Fatalf("deleted story still in favorites")
		}
	}
	// Unrelated favorite survives the purge.
	if len(user.Favorites) != 1 || user.Favorites[0].StoryID != other.StoryID {
		t.Fatalf("favorites = %+v, want only %q", user.Favorites, other.StoryID)
	}
}

func TestDeleteUnknownStoryIsNotFound(t *testing.T) {
	srv, svc := newFixture(t)
	srv.SeedUser("alice", "pw123", "Alice")

	user := &models.User{Username: "alice", LoginToken: srv.Token("alice")}
	err := svc.Delete(context.Background(), models.NewStoryList(nil), user, "missing")
	if !hacker.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}
