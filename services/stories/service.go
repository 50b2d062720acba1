package stories

import (
	"context"
	"errors"
	"log"

	"hackersnooze/models"
	"hackersnooze/services/hacker"
)

// storyClient is the subset of the API client the story service needs.
type storyClient interface {
	Stories(ctx context.Context) ([]models.Story, error)
	CreateStory(ctx context.Context, token string, draft models.StoryDraft) (*models.Story, error)
	DeleteStory(ctx context.Context, token, storyID string) error
}

var _ storyClient = (*hacker.Client)(nil)

// ErrNotLoggedIn is returned when a mutating call is attempted without a
// login token.
var ErrNotLoggedIn = errors.New("user is not logged in")

// Service owns the front-page story collection operations: fetching the
// list and adding/removing entries while keeping the user's own
// collections in step.
type Service struct {
	api storyClient
}

// NewService returns a story service backed by the given API client.
func NewService(api storyClient) *Service {
	return &Service{api: api}
}

// FetchAll retrieves the current story collection and wraps it in a fresh
// StoryList, preserving the service-provided order.
func (s *Service) FetchAll(ctx context.Context) (*models.StoryList, error) {
	records, err := s.api.Stories(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewStoryList(records), nil
}

// Add submits a draft on behalf of user and, on success, prepends the
// assigned story to both the list and the user's own stories so the two
// collections stay in step. Returns the story the service assigned.
func (s *Service) Add(ctx context.Context, list *models.StoryList, user *models.User, draft models.StoryDraft) (*models.Story, error) {
	if !user.Authenticated() {
		return nil, ErrNotLoggedIn
	}

	story, err := s.api.CreateStory(ctx, user.LoginToken, draft)
	if err != nil {
		return nil, err
	}

	list.Prepend(*story)
	user.PrependOwn(*story)

	log.Printf("[stories] added story id=%s title=%q by=%s", story.StoryID, story.Title, story.Username)
	return story, nil
}

// Delete removes the story by id on the service and then purges it from
// the list, the user's own stories, and the user's favorites. The
// favorites sweep is required: an author deleting a story other users
// favorited leaves stale entries otherwise, and the same holds for the
// author's own favorites copy.
func (s *Service) Delete(ctx context.Context, list *models.StoryList, user *models.User, storyID string) error {
	if !user.Authenticated() {
		return ErrNotLoggedIn
	}

	if err := s.api.DeleteStory(ctx, user.LoginToken, storyID); err != nil {
		return err
	}

	list.RemoveByID(storyID)
	user.PurgeStory(storyID)

	log.Printf("[stories] deleted story id=%s", storyID)
	return nil
}
