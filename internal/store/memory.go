package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"highrise/internal/models"
)

// Memory keeps every record in slices, standing in for a database. All
// results are copies. A non-zero latency delays each call to imitate a
// network round trip; the delay aborts when ctx is done.
type Memory struct {
	mu        sync.RWMutex
	latency   time.Duration
	users     []models.User
	posts     []*models.Post
	comments  []models.Comment
	inquiries []models.Inquiry
}

func NewMemory(latency time.Duration) *Memory {
	return &Memory{latency: latency}
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *Memory) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *Memory) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.postIndex(id); i >= 0 {
		return m.posts[i].Clone(), nil
	}
	return nil, models.ErrNotFound
}

func (m *Memory) postIndex(id string) int {
	for i, p := range m.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) ListPosts(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var out []models.Post
	for _, p := range m.posts {
		if f.Match(p) {
			out = append(out, *p.Clone())
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := sortTime(&out[i]), sortTime(&out[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func sortTime(p *models.Post) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

func (m *Memory) ListPostsByCategory(ctx context.Context, c models.Category) ([]models.Post, error) {
	return m.ListPosts(ctx, models.PostFilter{Category: c})
}

func (m *Memory) CreatePost(ctx context.Context, p *models.Post) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.posts = append(m.posts, p.Clone())
	return nil
}

func (m *Memory) UpdatePost(ctx context.Context, p *models.Post) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.postIndex(p.ID)
	if i < 0 {
		return models.ErrNotFound
	}
	m.posts[i] = p.Clone()
	return nil
}

func (m *Memory) DeletePost(ctx context.Context, id string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.postIndex(id)
	if i < 0 {
		return models.ErrNotFound
	}
	m.posts = append(m.posts[:i], m.posts[i+1:]...)
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.PostID != id {
			kept = append(kept, c)
		}
	}
	m.comments = kept
	return nil
}

func (m *Memory) FindCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

// addComment is used by Seed only; comment creation has no public flow.
func (m *Memory) addComment(c models.Comment) {
	m.mu.Lock()
	m.comments = append(m.comments, c)
	m.mu.Unlock()
}

func (m *Memory) CreateInquiry(ctx context.Context, in *models.Inquiry) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	m.inquiries = append(m.inquiries, *in)
	return nil
}

func (m *Memory) ListInquiries(ctx context.Context) ([]models.Inquiry, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := append([]models.Inquiry(nil), m.inquiries...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) Close() error { return nil }
