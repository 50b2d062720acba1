// Command hackersnooze is a terminal client for a Hack-or-Snooze style
// link-sharing service: browse the front page, submit and delete stories,
// and toggle favorites. The login session persists across invocations in
// a local SQLite store.
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-password/password"
	"github.com/sourcegraph/conc"
	"gopkg.in/natefinch/lumberjack.v2"

	"hackersnooze/config"
	"hackersnooze/internal/database"
	"hackersnooze/models"
	"hackersnooze/services/hacker"
	"hackersnooze/services/stories"
	"hackersnooze/services/users"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: hackersnooze <command> [args]

commands:
  stories                     show the front page
  login <username> <password> log in and persist the session
  signup <username> <name> [password]
                              create an account; omit password to generate one
  logout                      clear the persisted session
  submit <title> <url> [author]
                              post a new story
  delete <storyId>            delete one of your stories
  favorite <storyId>          mark a story as favorite
  unfavorite <storyId>        unmark a favorite
  favorites                   list your favorites
  mine                        list your own stories
  whoami                      show the logged-in user
`)
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	dataDir := os.Getenv("HACKERSNOOZE_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".hackersnooze")
	}

	cfg := config.NewManager(dataDir)
	settings, err := cfg.Load()
	if err != nil {
		return err
	}
	if v := os.Getenv("HACKERSNOOZE_API_URL"); v != "" {
		settings.APIBaseURL = v
	}

	// Keep the terminal clean; the log goes to a rotating file.
	log.SetOutput(&lumberjack.Logger{
		Filename:   settings.LogPath,
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
	})

	db, err := database.NewDB(database.Config{DatabasePath: settings.DatabasePath})
	if err != nil {
		return err
	}
	defer db.Close()

	client := hacker.NewClient(settings.APIBaseURL)
	client.SetTimeout(time.Duration(settings.RequestTimeoutSeconds) * time.Second)

	a := &app{
		db:      db,
		users:   users.NewService(client),
		stories: stories.NewService(client),
	}

	ctx := context.Background()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "stories":
		return a.showStories(ctx)
	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("login needs <username> <password>")
		}
		return a.login(ctx, rest[0], rest[1])
	case "signup":
		if len(rest) < 2 || len(rest) > 3 {
			return fmt.Errorf("signup needs <username> <name> [password]")
		}
		pass := ""
		if len(rest) == 3 {
			pass = rest[2]
		}
		return a.signup(ctx, rest[0], rest[1], pass)
	case "logout":
		return a.logout()
	case "submit":
		if len(rest) < 2 || len(rest) > 3 {
			return fmt.Errorf("submit needs <title> <url> [author]")
		}
		author := ""
		if len(rest) == 3 {
			author = rest[2]
		}
		return a.submit(ctx, rest[0], rest[1], author)
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("delete needs <storyId>")
		}
		return a.deleteStory(ctx, rest[0])
	case "favorite":
		if len(rest) != 1 {
			return fmt.Errorf("favorite needs <storyId>")
		}
		return a.toggleFavorite(ctx, rest[0], true)
	case "unfavorite":
		if len(rest) != 1 {
			return fmt.Errorf("unfavorite needs <storyId>")
		}
		return a.toggleFavorite(ctx, rest[0], false)
	case "favorites":
		return a.showFavorites(ctx)
	case "mine":
		return a.showOwnStories(ctx)
	case "whoami":
		return a.whoami(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

type app struct {
	db      *database.DB
	users   *users.Service
	stories *stories.Service
}

// currentUser restores the persisted session, if any. An expired token
// clears the stale session and reports it, rather than leaving every
// later command failing with 401s.
func (a *app) currentUser(ctx context.Context) (*models.User, error) {
	sess, err := a.db.Sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	user, err := a.users.LoggedInUser(ctx, sess.Token, sess.Username)
	if hacker.IsAuth(err) {
		log.Printf("[cli] persisted token for %s rejected, clearing session", sess.Username)
		if clearErr := a.db.Sessions.Clear(); clearErr != nil {
			return nil, clearErr
		}
		return nil, fmt.Errorf("session expired, please log in again")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// requireUser is currentUser for commands that make no sense anonymously.
func (a *app) requireUser(ctx context.Context) (*models.User, error) {
	user, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("not logged in")
	}
	return user, nil
}

func (a *app) showStories(ctx context.Context) error {
	// The front page and the session restore are independent round
	// trips; run them together.
	var (
		list    *models.StoryList
		user    *models.User
		listErr error
		userErr error
	)
	var wg conc.WaitGroup
	wg.Go(func() { list, listErr = a.stories.FetchAll(ctx) })
	wg.Go(func() { user, userErr = a.currentUser(ctx) })
	wg.Wait()

	if listErr != nil {
		return listErr
	}
	if userErr != nil {
		log.Printf("[cli] session restore failed: %v", userErr)
		user = nil
	}

	printStories(list.Stories, user)
	return nil
}

func (a *app) login(ctx context.Context, username, pass string) error {
	user, err := a.users.Login(ctx, username, pass)
	if err != nil {
		return err
	}
	if err := a.db.Sessions.Save(user.Username, user.LoginToken); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", user.Username, user.Name)
	return nil
}

func (a *app) signup(ctx context.Context, username, name, pass string) error {
	generated := false
	if pass == "" {
		p, err := password.Generate(16, 4, 4, false, false)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
		pass = p
		generated = true
	}

	user, err := a.users.Create(ctx, username, pass, name)
	if err != nil {
		return err
	}
	if err := a.db.Sessions.Save(user.Username, user.LoginToken); err != nil {
		return err
	}

	fmt.Printf("account created, logged in as %s\n", user.Username)
	if generated {
		fmt.Printf("generated password: %s\n", pass)
	}
	return nil
}

func (a *app) logout() error {
	if err := a.db.Sessions.Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func (a *app) submit(ctx context.Context, title, storyURL, author string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if author == "" {
		author = user.Name
	}

	list := models.NewStoryList(nil)
	story, err := a.stories.Add(ctx, list, user, models.StoryDraft{
		Author: author,
		Title:  title,
		URL:    storyURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("submitted %s (%s)\n", story.Title, story.StoryID)
	return nil
}

func (a *app) deleteStory(ctx context.Context, storyID string) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	list := models.NewStoryList(nil)
	if err := a.stories.Delete(ctx, list, user, storyID); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", storyID)
	return nil
}

func (a *app) toggleFavorite(ctx context.Context, storyID string, add bool) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	if add {
		err = a.users.AddFavorite(ctx, user, storyID)
	} else {
		err = a.users.RemoveFavorite(ctx, user, storyID)
	}
	if err != nil {
		return err
	}

	if add {
		fmt.Printf("favorited %s\n", storyID)
	} else {
		fmt.Printf("unfavorited %s\n", storyID)
	}
	return nil
}

func (a *app) showFavorites(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if len(user.Favorites) == 0 {
		fmt.Println("no favorites yet")
		return nil
	}
	printStories(user.Favorites, user)
	return nil
}

func (a *app) showOwnStories(ctx context.Context) error {
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if len(user.OwnStories) == 0 {
		fmt.Println("no stories submitted yet")
		return nil
	}
	printStories(user.OwnStories, user)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s (%s) — %d stories, %d favorites\n",
		user.Username, user.Name, len(user.OwnStories), len(user.Favorites))
	return nil
}

func printStories(list []models.Story, user *models.User) {
	for _, story := range list {
		marker := " "
		if user.HasFavorite(story.StoryID) {
			marker = "*"
		}
		fmt.Printf("%s %s (%s) by %s  [%s]\n", marker, story.Title, hostname(story.URL), story.Author, story.StoryID)
	}
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
