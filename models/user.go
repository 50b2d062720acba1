package models

import "time"

// User models the authenticated actor: profile fields, the login token
// issued by the service, and the user's two story collections. OwnStories
// and Favorites are independent copies; a story may appear in both and in
// the front-page list at the same time.
type User struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// LoginToken is the opaque credential issued at signup/login. Empty
	// while anonymous. Required for every mutating operation.
	LoginToken string `json:"-"`

	Favorites  []Story `json:"favorites"`
	OwnStories []Story `json:"stories"`
}

// Authenticated reports whether the user holds a login token. It says
// nothing about whether the token is still accepted by the service;
// expiry only surfaces as a failed request.
func (u *User) Authenticated() bool {
	return u != nil && u.LoginToken != ""
}

// PrependOwn inserts a story at the front of the user's own stories.
func (u *User) PrependOwn(story Story) {
	u.OwnStories = append([]Story{story}, u.OwnStories...)
}

// PurgeStory removes the story with the given id from both OwnStories and
// Favorites. A story someone favorited can be deleted by its author, so
// both collections have to be swept.
func (u *User) PurgeStory(storyID string) {
	u.OwnStories, _ = removeStory(u.OwnStories, storyID)
	u.Favorites, _ = removeStory(u.Favorites, storyID)
}

// HasFavorite reports whether the given story id is in the favorites list.
func (u *User) HasFavorite(storyID string) bool {
	if u == nil {
		return false
	}
	for _, s := range u.Favorites {
		if s.StoryID == storyID {
			return true
		}
	}
	return false
}
