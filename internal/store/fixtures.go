package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"highrise/internal/models"
)

// FixturePassword is the password of every seeded account.
const FixturePassword = "password123"

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func published(s string) *time.Time {
	t := day(s)
	return &t
}

func fixtureUsers() []models.User {
	return []models.User{
		{ID: "1", Email: "admin@example.com", Role: models.RoleAdmin, CreatedAt: day("2023-01-01")},
		{ID: "2", Email: "user@example.com", Role: models.RoleUser, CreatedAt: day("2023-01-02")},
	}
}

func fixturePosts() []models.Post {
	return []models.Post{
		{
			ID:              "1",
			AuthorID:        "1",
			Title:           "Getting Started with Data Analytics",
			Slug:            "getting-started-with-data-analytics",
			Content:         "<p>This is a tutorial about getting started with data analytics...</p>",
			MetaDescription: "A first walk through cleaning, shaping and charting business data.",
			Category:        models.CategoryTutorial,
			Tags:            []string{"beginner", "analytics", "excel"},
			CreatedAt:       day("2023-01-10"),
			UpdatedAt:       day("2023-01-10"),
			PublishedAt:     published("2023-01-10"),
		},
		{
			ID:              "2",
			AuthorID:        "1",
			Title:           "New Feature: Advanced Excel Reports",
			Slug:            "new-feature-advanced-excel-reports",
			Content:         "<p>We are excited to announce our new feature: advanced Excel reports...</p>",
			MetaDescription: "Advanced Excel reports are now part of every reporting package.",
			Category:        models.CategoryNews,
			Tags:            []string{"announcement", "excel", "reports"},
			CreatedAt:       day("2023-01-15"),
			UpdatedAt:       day("2023-01-15"),
			PublishedAt:     published("2023-01-15"),
		},
		{
			ID:          "3",
			AuthorID:    "2",
			Title:       "Question about Dashboard Design",
			Slug:        "question-about-dashboard-design",
			Content:     "<p>I have a question about designing effective dashboards...</p>",
			Category:    models.CategoryCommunity,
			Tags:        []string{"question", "dashboard", "design"},
			CreatedAt:   day("2023-01-20"),
			UpdatedAt:   day("2023-01-20"),
			PublishedAt: published("2023-01-20"),
		},
	}
}

func fixtureComments() []models.Comment {
	return []models.Comment{
		{ID: "1", PostID: "3", AuthorID: "1", Body: "Start from the decisions the dashboard has to support, then pick the charts.", CreatedAt: day("2023-01-21")},
		{ID: "2", PostID: "3", AuthorID: "2", Body: "Thanks, that helps a lot!", CreatedAt: day("2023-01-22")},
		{ID: "3", PostID: "1", AuthorID: "2", Body: "Great introduction for beginners.", CreatedAt: day("2023-01-11")},
	}
}

type commentSeeder interface {
	seedComment(ctx context.Context, c models.Comment) error
}

func (m *Memory) seedComment(_ context.Context, c models.Comment) error {
	m.addComment(c)
	return nil
}

func (s *SQL) seedComment(ctx context.Context, c models.Comment) error {
	return models.CreateComment(ctx, s.DB, &c)
}

// Seed loads the demo users, posts and comments unless the admin fixture is
// already present. hash turns FixturePassword into the stored hash.
func Seed(ctx context.Context, s Store, hash func(string) (string, error)) error {
	users := fixtureUsers()
	if _, err := s.FindUserByEmail(ctx, users[0].Email); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	pw, err := hash(FixturePassword)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = pw
		if err := s.CreateUser(ctx, &users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
	}
	for _, p := range fixturePosts() {
		if err := s.CreatePost(ctx, &p); err != nil {
			return fmt.Errorf("seed post %s: %w", p.ID, err)
		}
	}
	if cs, ok := s.(commentSeeder); ok {
		for _, c := range fixtureComments() {
			if err := cs.seedComment(ctx, c); err != nil {
				return fmt.Errorf("seed comment %s: %w", c.ID, err)
			}
		}
	}
	return nil
}
