// Package editor holds the state of one post being written: the form
// fields, the body history used for undo and redo, and the draft and publish
// flows that hand the finished post to a Store.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"highrise/internal/models"
)

type State int

const (
	Idle State = iota
	Populated
	Dirty
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Populated:
		return "populated"
	case Dirty:
		return "dirty"
	case Submitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Mode int

const (
	Draft Mode = iota
	Publish
)

// Store is the persistence the editor needs.
type Store interface {
	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error
}

type Fields struct {
	Title           string
	Slug            string
	Category        models.Category
	Tags            []string
	MetaDescription string
	PublishDate     *time.Time
	CoverImage      string
	Content         string
}

// Result tells the caller where to send the visitor after a successful
// submit or delete.
type Result struct {
	PostID   string
	Redirect string
}

const ListingPath = "/community"

// PostPath is the detail route of a post.
func PostPath(id string) string {
	return ListingPath + "/" + id
}

// Editor is safe for concurrent use. While a submit or delete is in flight
// every mutating call fails with ErrBusy.
type Editor struct {
	mu         sync.Mutex
	store      Store
	now        func() time.Time
	wpm        int
	state      State
	original   *models.Post
	fields     Fields
	slugEdited bool
	history    *History
	errs       ValidationErrors
}

type Option func(*Editor)

func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

func WithHistoryDebounce(d time.Duration) Option {
	return func(e *Editor) { e.history = NewHistory(d) }
}

func WithWordsPerMinute(n int) Option {
	return func(e *Editor) { e.wpm = n }
}

// New returns an empty editor for a new post.
func New(store Store, opts ...Option) *Editor {
	e := &Editor{
		store:   store,
		now:     time.Now,
		wpm:     DefaultWordsPerMinute,
		history: NewHistory(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.clear()
	return e
}

func (e *Editor) clear() {
	e.state = Idle
	e.original = nil
	e.fields = Fields{Category: models.CategoryCommunity}
	e.slugEdited = false
	e.errs = nil
	e.history.Reset("")
}

// Load fetches the post with the given id and fills the form with it. On
// failure the form is left empty and the error wraps ErrFetchFailed.
func (e *Editor) Load(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return ErrBusy
	}

	p, err := e.store.FindPostByID(ctx, id)
	if err != nil {
		e.clear()
		return fmt.Errorf("%w %s: %w", ErrFetchFailed, id, err)
	}
	e.clear()
	e.original = p
	e.fields = Fields{
		Title:           p.Title,
		Slug:            p.Slug,
		Category:        p.Category,
		Tags:            append([]string(nil), p.Tags...),
		MetaDescription: p.MetaDescription,
		CoverImage:      p.CoverImage,
		Content:         p.Content,
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		e.fields.PublishDate = &t
	}
	if e.fields.Slug == "" {
		e.fields.Slug = Slugify(p.Title)
	}
	e.slugEdited = e.fields.Slug != Slugify(p.Title)
	e.history.Reset(p.Content)
	e.state = Populated
	return nil
}

// edit runs fn under the lock and marks the form dirty.
func (e *Editor) edit(fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return ErrBusy
	}
	fn()
	e.state = Dirty
	return nil
}

// SetTitle updates the title and, unless the slug was edited by hand,
// re-derives the slug from it.
func (e *Editor) SetTitle(title string) error {
	return e.edit(func() {
		e.fields.Title = title
		if !e.slugEdited {
			e.fields.Slug = Slugify(title)
		}
	})
}

// SetSlug overrides the derived slug. An empty slug returns to deriving it
// from the title.
func (e *Editor) SetSlug(slug string) error {
	return e.edit(func() {
		slug = Slugify(slug)
		if slug == "" {
			e.slugEdited = false
			e.fields.Slug = Slugify(e.fields.Title)
			return
		}
		e.slugEdited = true
		e.fields.Slug = slug
	})
}

func (e *Editor) SetCategory(c models.Category) error {
	return e.edit(func() { e.fields.Category = c })
}

func (e *Editor) SetTags(tags []string) error {
	return e.edit(func() { e.fields.Tags = normalizeTags(tags) })
}

func (e *Editor) SetMetaDescription(s string) error {
	return e.edit(func() { e.fields.MetaDescription = strings.TrimSpace(s) })
}

// SetPublishDate sets the publish time used by Publish; nil means "now".
func (e *Editor) SetPublishDate(t *time.Time) error {
	return e.edit(func() { e.fields.PublishDate = t })
}

func (e *Editor) SetCoverImage(url string) error {
	if url != "" && !validImageURL(url) {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, url)
	}
	return e.edit(func() { e.fields.CoverImage = url })
}

// SetContent replaces the body and records it in the history.
func (e *Editor) SetContent(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return ErrBusy
	}
	e.setContentLocked(content)
	return nil
}

func (e *Editor) setContentLocked(content string) {
	if content == e.fields.Content {
		return
	}
	e.fields.Content = content
	e.history.Add(content, e.now())
	e.state = Dirty
}

// InsertImage appends an image to the body.
func (e *Editor) InsertImage(src, alt string) error {
	if !validImageURL(src) {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, src)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return ErrBusy
	}
	e.setContentLocked(e.fields.Content + ImageTag(src, alt))
	return nil
}

// EmbedYouTube appends a video embed for the given YouTube link. A link
// without a recognisable video id leaves the body untouched.
func (e *Editor) EmbedYouTube(rawURL string) error {
	id, err := YouTubeID(rawURL)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return ErrBusy
	}
	e.setContentLocked(e.fields.Content + EmbedFragment(id))
	return nil
}

// Undo steps the body back one snapshot. It reports whether anything changed.
func (e *Editor) Undo() (bool, error) {
	return e.move((*History).Undo)
}

// Redo re-applies the snapshot undone last.
func (e *Editor) Redo() (bool, error) {
	return e.move((*History).Redo)
}

func (e *Editor) move(step func(*History) (string, bool)) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Submitting {
		return false, ErrBusy
	}
	content, ok := step(e.history)
	if !ok {
		return false, nil
	}
	e.fields.Content = content
	e.state = Dirty
	return true, nil
}

// Validate checks the current form and remembers the outcome for View.
func (e *Editor) Validate() ValidationErrors {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = e.fields.Validate()
	return e.errs
}

// authorize enforces the category and ownership rules for author.
func (e *Editor) authorize(author *models.User) error {
	if author == nil {
		return fmt.Errorf("%w: sign in first", ErrPermissionDenied)
	}
	if e.fields.Category.Restricted() && !author.IsAdmin() {
		return fmt.Errorf("%w: only admins can post in %s", ErrPermissionDenied, e.fields.Category)
	}
	if e.original != nil && e.original.AuthorID != author.ID && !author.IsAdmin() {
		return fmt.Errorf("%w: post %s belongs to another author", ErrPermissionDenied, e.original.ID)
	}
	return nil
}

// Submit validates the form, checks author may file the post, and saves it
// as a draft or published post. Validation failures are returned as
// ValidationErrors; nothing is saved unless every check passes.
func (e *Editor) Submit(ctx context.Context, author *models.User, mode Mode) (Result, error) {
	e.mu.Lock()
	if e.state == Submitting {
		e.mu.Unlock()
		return Result{}, ErrBusy
	}
	if errs := e.fields.Validate(); errs != nil {
		e.errs = errs
		e.mu.Unlock()
		return Result{}, errs
	}
	e.errs = nil
	if err := e.authorize(author); err != nil {
		e.mu.Unlock()
		return Result{}, err
	}

	p := e.buildPost(author, mode)
	editing := e.original != nil
	e.state = Submitting
	e.mu.Unlock()

	var err error
	if editing {
		err = e.store.UpdatePost(ctx, p)
	} else {
		err = e.store.CreatePost(ctx, p)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = Dirty
		return Result{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	e.original = p.Clone()
	e.fields.PublishDate = p.PublishedAt
	e.state = Populated

	res := Result{PostID: p.ID, Redirect: ListingPath}
	if mode == Publish {
		res.Redirect = PostPath(p.ID)
	}
	return res, nil
}

func (e *Editor) buildPost(author *models.User, mode Mode) *models.Post {
	now := e.now()
	p := &models.Post{
		Title:           strings.TrimSpace(e.fields.Title),
		Slug:            e.fields.Slug,
		Content:         e.fields.Content,
		MetaDescription: e.fields.MetaDescription,
		CoverImage:      e.fields.CoverImage,
		Category:        e.fields.Category,
		Tags:            append([]string(nil), e.fields.Tags...),
		UpdatedAt:       now,
	}
	if e.original != nil {
		p.ID = e.original.ID
		p.AuthorID = e.original.AuthorID
		p.CreatedAt = e.original.CreatedAt
	} else {
		p.AuthorID = author.ID
		p.CreatedAt = now
	}
	if mode == Publish {
		at := now
		if e.fields.PublishDate != nil {
			at = *e.fields.PublishDate
		}
		p.PublishedAt = &at
	}
	return p
}

// Delete removes the loaded post. confirmed must be true; the caller asks
// the visitor first. A post already missing from the store counts as
// deleted.
func (e *Editor) Delete(ctx context.Context, author *models.User, confirmed bool) (Result, error) {
	e.mu.Lock()
	if e.state == Submitting {
		e.mu.Unlock()
		return Result{}, ErrBusy
	}
	if e.original == nil {
		e.mu.Unlock()
		return Result{}, ErrNotEditing
	}
	if author == nil || (e.original.AuthorID != author.ID && !author.IsAdmin()) {
		e.mu.Unlock()
		return Result{}, fmt.Errorf("%w: post %s belongs to another author", ErrPermissionDenied, e.original.ID)
	}
	if !confirmed {
		e.mu.Unlock()
		return Result{}, ErrConfirmationRequired
	}
	id := e.original.ID
	prev := e.state
	e.state = Submitting
	e.mu.Unlock()

	err := e.store.DeletePost(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		e.state = prev
		return Result{}, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	e.clear()
	return Result{PostID: id, Redirect: ListingPath}, nil
}

// View is a read-only snapshot of the editor for rendering.
type View struct {
	Fields
	PostID       string
	AuthorID     string
	Editing      bool
	State        State
	Status       models.Status
	SlugEdited   bool
	WordCount    int
	ReadTime     int
	CanUndo      bool
	CanRedo      bool
	HistoryLen   int
	HistoryIndex int
	Errors       ValidationErrors
}

func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	words := WordCount(e.fields.Content)
	v := View{
		Fields:       e.fields,
		State:        e.state,
		Status:       models.StatusDraft,
		SlugEdited:   e.slugEdited,
		WordCount:    words,
		ReadTime:     ReadTime(words, e.wpm),
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
		HistoryLen:   e.history.Len(),
		HistoryIndex: e.history.Index(),
		Errors:       e.errs,
	}
	v.Tags = append([]string(nil), e.fields.Tags...)
	if e.original != nil {
		v.PostID = e.original.ID
		v.AuthorID = e.original.AuthorID
		v.Editing = true
		v.Status = e.original.Status()
	}
	return v
}

// State reports the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
