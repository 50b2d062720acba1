package models

import "time"

// Story models one submitted link as returned by the remote service.
// Fields are copied verbatim from the service payload; the client never
// rewrites or validates them.
type Story struct {
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	StoryID   string    `json:"storyId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoryDraft carries the caller-supplied fields of a new submission.
// The service fills in the rest (id, poster, timestamps).
type StoryDraft struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// StoryList is the front-page collection in service order, newest first
// after local inserts. It only lives in memory; every fetch builds a
// fresh one.
type StoryList struct {
	Stories []Story
}

// NewStoryList wraps an already-ordered slice of stories.
func NewStoryList(stories []Story) *StoryList {
	return &StoryList{Stories: stories}
}

// Prepend inserts a story at the front of the list.
func (l *StoryList) Prepend(story Story) {
	l.Stories = append([]Story{story}, l.Stories...)
}

// RemoveByID drops the story with the given id and reports whether it
// was present.
func (l *StoryList) RemoveByID(storyID string) bool {
	filtered, removed := removeStory(l.Stories, storyID)
	l.Stories = filtered
	return removed
}

// Len returns the number of stories currently held.
func (l *StoryList) Len() int {
	return len(l.Stories)
}

func removeStory(stories []Story, storyID string) ([]Story, bool) {
	for i, s := range stories {
		if s.StoryID == storyID {
			return append(stories[:i:i], stories[i+1:]...), true
		}
	}
	return stories, false
}
