package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"highrise/internal/config"
	"highrise/internal/models"
)

func plain(pw string) (string, error) { return pw, nil }

// eachStore runs fn against a seeded memory store and a seeded sqlite store.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	builders := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory(0) },
		"sqlite": func(t *testing.T) Store {
			s, err := Open(config.Storage{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "site.db")})
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			s := build(t)
			require.NoError(t, Seed(context.Background(), s, plain))
			fn(t, s)
		})
	}
}

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestSeed(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, Seed(ctx, s, plain), "second seed is a no-op")

		posts, err := s.ListPosts(ctx, models.PostFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "2", "1"}, ids(posts))

		admin, err := s.FindUserByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.Equal(t, FixturePassword, admin.PasswordHash)

		user, err := s.FindUserByID(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", user.Email)
		assert.False(t, user.IsAdmin())

		comments, err := s.FindCommentsByPostID(ctx, "3")
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "1", comments[0].ID)
		assert.Equal(t, "2", comments[1].ID)
	})
}

func TestPostLookups(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p, err := s.FindPostByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Getting Started with Data Analytics", p.Title)
		assert.Equal(t, []string{"beginner", "analytics", "excel"}, p.Tags)
		assert.Equal(t, models.StatusPublished, p.Status())
		assert.WithinDuration(t, day("2023-01-10"), *p.PublishedAt, 0)

		_, err = s.FindPostByID(ctx, "404")
		require.ErrorIs(t, err, models.ErrNotFound)

		tutorials, err := s.ListPostsByCategory(ctx, models.CategoryTutorial)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, ids(tutorials))

		latest, err := s.ListPosts(ctx, models.PostFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "2"}, ids(latest))

		byAdmin, err := s.ListPosts(ctx, models.PostFilter{AuthorID: "1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, ids(byAdmin))
	})
}

func TestDraftsOnlyListedForTheirAuthor(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		draft := &models.Post{
			AuthorID:  "2",
			Title:     "Unfinished thoughts",
			Slug:      "unfinished-thoughts",
			Content:   "<p>Still working on this one.</p>",
			Category:  models.CategoryCommunity,
			Tags:      []string{"wip"},
			CreatedAt: day("2023-02-01"),
			UpdatedAt: day("2023-02-01"),
		}
		require.NoError(t, s.CreatePost(ctx, draft))
		require.NotEmpty(t, draft.ID)

		public, err := s.ListPosts(ctx, models.PostFilter{Category: models.CategoryCommunity})
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, ids(public))

		mine, err := s.ListPosts(ctx, models.PostFilter{Category: models.CategoryCommunity, DraftsOf: "2"})
		require.NoError(t, err)
		assert.Equal(t, []string{draft.ID, "3"}, ids(mine))

		theirs, err := s.ListPosts(ctx, models.PostFilter{DraftsOf: "1"})
		require.NoError(t, err)
		assert.NotContains(t, ids(theirs), draft.ID)

		got, err := s.FindPostByID(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, got.Status())
	})
}

func TestUpdateAndDeletePost(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p, err := s.FindPostByID(ctx, "3")
		require.NoError(t, err)

		p.Title = "Dashboard design, revisited"
		p.Tags = []string{"design", "kpi"}
		p.UpdatedAt = day("2023-03-01")
		require.NoError(t, s.UpdatePost(ctx, p))

		got, err := s.FindPostByID(ctx, "3")
		require.NoError(t, err)
		assert.Equal(t, "Dashboard design, revisited", got.Title)
		assert.Equal(t, []string{"design", "kpi"}, got.Tags)

		ghost := &models.Post{ID: "missing", Title: "x", Content: "x", Category: models.CategoryCommunity}
		require.ErrorIs(t, s.UpdatePost(ctx, ghost), models.ErrNotFound)

		require.NoError(t, s.DeletePost(ctx, "3"))
		_, err = s.FindPostByID(ctx, "3")
		require.ErrorIs(t, err, models.ErrNotFound)
		comments, err := s.FindCommentsByPostID(ctx, "3")
		require.NoError(t, err)
		assert.Empty(t, comments)
		require.ErrorIs(t, s.DeletePost(ctx, "3"), models.ErrNotFound)
	})
}

func TestResultsAreCopies(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p, err := s.FindPostByID(ctx, "2")
		require.NoError(t, err)
		p.Tags[0] = "changed"
		p.Title = "changed"

		again, err := s.FindPostByID(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "announcement", again.Tags[0])
		assert.Equal(t, "New Feature: Advanced Excel Reports", again.Title)
	})
}

func TestUsersByEmail(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		u, err := s.FindUserByEmail(ctx, "Admin@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)

		dup := &models.User{Email: "USER@example.com", PasswordHash: "x", Role: models.RoleUser, CreatedAt: time.Now()}
		require.ErrorIs(t, s.CreateUser(ctx, dup), models.ErrDuplicateEmail)

		fresh := &models.User{Email: "new@example.com", PasswordHash: "x", Role: models.RoleUser, CreatedAt: time.Now()}
		require.NoError(t, s.CreateUser(ctx, fresh))
		assert.NotEmpty(t, fresh.ID)

		_, err = s.FindUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestInquiries(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := &models.Inquiry{Name: "Ada", Email: "ada@example.com", Topic: "audit", Message: "Please audit our reports.", CreatedAt: day("2024-01-01")}
		second := &models.Inquiry{Name: "Grace", Email: "grace@example.com", Company: "Navy", Message: "Dashboards?", CreatedAt: day("2024-01-02")}
		require.NoError(t, s.CreateInquiry(ctx, first))
		require.NoError(t, s.CreateInquiry(ctx, second))
		assert.NotEmpty(t, first.ID)

		all, err := s.ListInquiries(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Grace", all[0].Name)
		assert.Equal(t, "Navy", all[0].Company)
		assert.Equal(t, "audit", all[1].Topic)
	})
}

func TestOrderingUsesInstantsAcrossZones(t *testing.T) {
	eastCoast := time.FixedZone("EST", -5*60*60)
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		early := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		late := time.Date(2024, 3, 1, 8, 0, 0, 0, eastCoast) // 13:00 UTC

		for _, p := range []models.Post{
			{ID: "a", AuthorID: "2", Title: "Posted in UTC", Category: models.CategoryCommunity, CreatedAt: early, UpdatedAt: early, PublishedAt: &early},
			{ID: "b", AuthorID: "2", Title: "Posted in New York", Category: models.CategoryCommunity, CreatedAt: late, UpdatedAt: late, PublishedAt: &late},
		} {
			require.NoError(t, s.CreatePost(ctx, &p))
		}
		posts, err := s.ListPosts(ctx, models.PostFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, ids(posts))

		got, err := s.FindPostByID(ctx, "b")
		require.NoError(t, err)
		assert.True(t, got.PublishedAt.Equal(late))

		require.NoError(t, s.CreateInquiry(ctx, &models.Inquiry{Name: "UTC", Email: "utc@example.com", Message: "hi", CreatedAt: early}))
		require.NoError(t, s.CreateInquiry(ctx, &models.Inquiry{Name: "EST", Email: "est@example.com", Message: "hi", CreatedAt: late}))
		inquiries, err := s.ListInquiries(ctx)
		require.NoError(t, err)
		require.Len(t, inquiries, 2)
		assert.Equal(t, "EST", inquiries[0].Name)
	})
}

func TestMemoryLatencyHonoursContext(t *testing.T) {
	m := NewMemory(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.FindPostByID(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, m.CreatePost(ctx, &models.Post{}), context.Canceled)
}

func TestMemoryLatencyDelays(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	start := time.Now()
	_, err := m.ListPosts(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.Storage{Driver: "postgres"})
	require.ErrorContains(t, err, `unknown storage driver "postgres"`)
}
