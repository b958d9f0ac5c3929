// Package store is the data-access boundary of the site. Every call takes a
// context so the in-memory mock and a real database are interchangeable.
package store

import (
	"context"
	"fmt"

	"highrise/internal/config"
	"highrise/internal/db"
	"highrise/internal/models"
)

type Store interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	FindPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, f models.PostFilter) ([]models.Post, error)
	ListPostsByCategory(ctx context.Context, c models.Category) ([]models.Post, error)
	// CreatePost assigns p.ID when it is empty.
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error

	FindCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)

	CreateInquiry(ctx context.Context, in *models.Inquiry) error
	ListInquiries(ctx context.Context) ([]models.Inquiry, error)

	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.Storage) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(cfg.Latency), nil
	case config.DriverSQLite:
		conn, err := db.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQL(conn), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
