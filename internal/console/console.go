// Package console is the golive admin REPL. It drives the services built by
// internal/app on behalf of one acting user at a time.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/golive/internal/app"
	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/filex"
	"github.com/dmitrijs2005/golive/internal/identity"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/dmitrijs2005/golive/internal/services"
)

const (
	sessionValidity = time.Hour
	showComments    = 10
	maxUploadBytes  = 4 << 30
)

var errNotLoggedIn = errors.New("not logged in (use 'login' or 'as <user>')")

// readFile is a test seam for loading upload payloads.
var readFile = func(path string) ([]byte, error) {
	return filex.ReadUpload(path, maxUploadBytes)
}

type Console struct {
	app    *app.App
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer

	userID string
	// reactions holds the per-video like/dislike buttons of this session.
	// Dislikes are never persisted.
	reactions map[string]models.Reaction
}

func New(a *app.App, in io.Reader, out io.Writer) *Console {
	return &Console{
		app:       a,
		logger:    a.Logger.With("module", "console"),
		reader:    bufio.NewReader(in),
		out:       out,
		reactions: make(map[string]models.Reaction),
	}
}

// Run blocks until the user exits or input ends.
func (c *Console) Run(ctx context.Context) {
	printlnFn("Welcome to golive console (type 'help' for commands)")
	runREPL(ctx, c, c.status, c.reader)
}

func (c *Console) status() string {
	if c.userID == "" {
		return ""
	}
	return "(" + c.userID + ")"
}

func (c *Console) isLoggedIn() bool {
	return c.userID != ""
}

func (c *Console) arg(args []string, i int, prompt string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	v, err := GetSimpleText(c.reader, prompt, c.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s: empty input", strings.ToLower(prompt))
	}
	return v, nil
}

// Login resolves the acting user. "login" asks for a bearer token from the
// identity provider; "as <user>" mints a short-lived local token with the
// shared secret, for operators.
func (c *Console) Login(ctx context.Context, args []string) error {
	var token string
	var err error

	if len(args) > 0 && args[0] == "as" {
		user, err := c.arg(args, 1, "User ID")
		if err != nil {
			return err
		}
		token, err = identity.GenerateToken(user, []byte(c.app.Config.JWTSecret), sessionValidity)
		if err != nil {
			return err
		}
	} else {
		token, err = GetSecret(c.reader, "Token", c.out)
		if err != nil {
			return err
		}
	}

	userID, err := c.app.Identity.UserID(ctx, token)
	if err != nil {
		c.logger.Warn(ctx, "login rejected", "error", err)
		return err
	}
	if userID != c.userID {
		c.reactions = make(map[string]models.Reaction)
	}
	c.userID = userID
	fmt.Fprintf(c.out, "Acting as %s\n", userID)
	return nil
}

func (c *Console) Logout(_ context.Context, _ []string) error {
	c.userID = ""
	c.reactions = make(map[string]models.Reaction)
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *Console) Publish(ctx context.Context, _ []string) error {
	if !c.isLoggedIn() {
		return errNotLoggedIn
	}

	videoPath, err := GetSimpleText(c.reader, "Video file", c.out)
	if err != nil {
		return err
	}
	thumbPath, err := GetSimpleText(c.reader, "Thumbnail file", c.out)
	if err != nil {
		return err
	}
	title, err := GetSimpleText(c.reader, "Title", c.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(c.reader, "Description", c.out)
	if err != nil {
		return err
	}
	category, err := GetSimpleText(c.reader, "Category", c.out)
	if err != nil {
		return err
	}

	video, err := readFile(videoPath)
	if err != nil {
		return fmt.Errorf("read video: %w", err)
	}
	thumb, err := readFile(thumbPath)
	if err != nil {
		return fmt.Errorf("read thumbnail: %w", err)
	}

	v, err := c.app.Upload.Publish(ctx, services.PublishRequest{
		Video:       video,
		Thumbnail:   thumb,
		Title:       title,
		Description: description,
		Category:    category,
		OwnerID:     c.userID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Published %s (%s)\n", v.ID, v.VideoAssetPath)
	return nil
}

func (c *Console) Like(ctx context.Context, args []string) error {
	if !c.isLoggedIn() {
		return errNotLoggedIn
	}
	videoID, err := c.arg(args, 0, "Video ID")
	if err != nil {
		return err
	}

	liked, err := c.app.Engagement.ToggleLike(ctx, videoID, c.userID)
	if err != nil {
		return err
	}
	c.reactions[videoID] = c.reactions[videoID].WithLiked(liked)

	if liked {
		fmt.Fprintln(c.out, "Liked")
	} else {
		fmt.Fprintln(c.out, "Like removed")
	}
	return nil
}

// Dislike flips the session-local dislike. It never touches the persisted
// like; it only hides it.
func (c *Console) Dislike(_ context.Context, args []string) error {
	if !c.isLoggedIn() {
		return errNotLoggedIn
	}
	videoID, err := c.arg(args, 0, "Video ID")
	if err != nil {
		return err
	}

	next := c.reactions[videoID].ToggleDislike()
	c.reactions[videoID] = next

	if next.Disliked {
		fmt.Fprintln(c.out, "Disliked")
	} else {
		fmt.Fprintln(c.out, "Dislike removed")
	}
	return nil
}

func (c *Console) Comment(ctx context.Context, args []string) error {
	if !c.isLoggedIn() {
		return errNotLoggedIn
	}
	videoID, err := c.arg(args, 0, "Video ID")
	if err != nil {
		return err
	}
	content, err := GetMultiline(c.reader, "Comment", c.out)
	if err != nil {
		return err
	}

	cm, err := c.app.Engagement.AddComment(ctx, videoID, c.userID, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Comment %s added\n", cm.ID)
	return nil
}

// View records a view in the background; it never fails the caller.
func (c *Console) View(ctx context.Context, args []string) error {
	videoID, err := c.arg(args, 0, "Video ID")
	if err != nil {
		return err
	}
	c.app.Engagement.IncrementViews(ctx, videoID)
	fmt.Fprintln(c.out, "View recorded")
	return nil
}

func (c *Console) Show(ctx context.Context, args []string) error {
	videoID, err := c.arg(args, 0, "Video ID")
	if err != nil {
		return err
	}

	page, err := c.app.Catalog.VideoPage(ctx, videoID, c.userID, showComments)
	if err != nil {
		return err
	}

	v := page.Video
	fmt.Fprintf(c.out, "%s [%s]\n", v.Title, v.Category)
	if page.Channel != nil {
		fmt.Fprintf(c.out, "Channel: %s (%d subscribers)\n", page.Channel.Name, page.Channel.SubscriberCount)
	} else {
		fmt.Fprintf(c.out, "Channel: %s\n", v.OwnerID)
	}
	fmt.Fprintf(c.out, "Views: %d  Likes: %d\n", v.ViewCount, page.Likes)
	if c.isLoggedIn() {
		r := c.reactions[videoID].Visible(page.Liked)
		fmt.Fprintf(c.out, "You: liked=%t disliked=%t\n", r.Liked, r.Disliked)
	}
	fmt.Fprintf(c.out, "Video: %s\n", page.VideoURL)
	fmt.Fprintf(c.out, "Thumbnail: %s\n", page.ThumbnailURL)
	if v.Description != "" {
		fmt.Fprintln(c.out, v.Description)
	}

	fmt.Fprintf(c.out, "Comments (%d):\n", len(page.Comments))
	for _, cm := range page.Comments {
		fmt.Fprintf(c.out, "  %s  %s: %s\n", cm.CreatedAt.Format(time.DateTime), cm.UserID, cm.Content)
	}
	return nil
}

func (c *Console) List(ctx context.Context, args []string) error {
	category := ""
	if len(args) > 0 {
		category = strings.Join(args, " ")
	}
	videos, err := c.app.Catalog.ListVideos(ctx, category, 0)
	if err != nil {
		return err
	}
	c.printVideos(videos)
	return nil
}

// Channel shows a channel and its videos. "channel set" edits the acting
// user's own profile.
func (c *Console) Channel(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "set" {
		return c.saveChannel(ctx)
	}

	id := c.userID
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return errNotLoggedIn
	}

	ch, err := c.app.Catalog.GetChannel(ctx, id)
	switch {
	case err == nil:
		fmt.Fprintf(c.out, "%s (%d subscribers)\n", ch.Name, ch.SubscriberCount)
		if ch.Description != "" {
			fmt.Fprintln(c.out, ch.Description)
		}
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintf(c.out, "%s (no profile)\n", id)
	default:
		return err
	}

	videos, err := c.app.Catalog.ListChannelVideos(ctx, id, 0)
	if err != nil {
		return err
	}
	c.printVideos(videos)
	return nil
}

func (c *Console) saveChannel(ctx context.Context) error {
	if !c.isLoggedIn() {
		return errNotLoggedIn
	}
	name, err := GetSimpleText(c.reader, "Channel name", c.out)
	if err != nil {
		return err
	}
	description, err := GetMultiline(c.reader, "Channel description", c.out)
	if err != nil {
		return err
	}

	if err := c.app.Catalog.SaveChannel(ctx, &models.Channel{ID: c.userID, Name: name, Description: description}); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Channel saved")
	return nil
}

func (c *Console) printVideos(videos []*models.Video) {
	if len(videos) == 0 {
		fmt.Fprintln(c.out, "No videos")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tOWNER\tVIEWS\tCREATED")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			v.ID, v.Title, v.Category, v.OwnerID, v.ViewCount, v.CreatedAt.Format(time.DateTime))
	}
	tw.Flush()
}
