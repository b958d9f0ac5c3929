package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"highrise/internal/models"
)

// SQL is the sqlite-backed Store.
type SQL struct {
	DB *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{DB: db}
}

func (s *SQL) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return models.GetUserByID(ctx, s.DB, id)
}

func (s *SQL) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return models.GetUserByEmail(ctx, s.DB, email)
}

func (s *SQL) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return models.CreateUser(ctx, s.DB, u)
}

func (s *SQL) FindPostByID(ctx context.Context, id string) (*models.Post, error) {
	return models.GetPost(ctx, s.DB, id)
}

func (s *SQL) ListPosts(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	return models.ListPosts(ctx, s.DB, f)
}

func (s *SQL) ListPostsByCategory(ctx context.Context, c models.Category) ([]models.Post, error) {
	return models.ListPosts(ctx, s.DB, models.PostFilter{Category: c})
}

func (s *SQL) CreatePost(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return models.CreatePost(ctx, s.DB, p)
}

func (s *SQL) UpdatePost(ctx context.Context, p *models.Post) error {
	return models.UpdatePost(ctx, s.DB, p)
}

func (s *SQL) DeletePost(ctx context.Context, id string) error {
	return models.DeletePost(ctx, s.DB, id)
}

func (s *SQL) FindCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	return models.ListComments(ctx, s.DB, postID)
}

func (s *SQL) CreateInquiry(ctx context.Context, in *models.Inquiry) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	return models.CreateInquiry(ctx, s.DB, in)
}

func (s *SQL) ListInquiries(ctx context.Context) ([]models.Inquiry, error) {
	return models.ListInquiries(ctx, s.DB)
}

func (s *SQL) Close() error {
	return s.DB.Close()
}
