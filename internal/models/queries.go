package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func CreateUser(ctx context.Context, db *sql.DB, u *User) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, profile_image, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.ProfileImage, u.CreatedAt.UTC())
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

const userColumns = `id, email, password_hash, role, profile_image, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.ProfileImage, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, db *sql.DB, id string) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*User, error) {
	return scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// CreatePost inserts the post and its tags in one transaction.
func CreatePost(ctx context.Context, db *sql.DB, p *Post) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO posts
		(id, author_id, title, slug, content, meta_description, cover_image, category, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.Title, p.Slug, p.Content, p.MetaDescription, p.CoverImage, p.Category,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(), nullTime(p))
	if err != nil {
		return err
	}
	if err := insertTags(ctx, tx, p.ID, p.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdatePost rewrites every mutable column and replaces the tag set.
func UpdatePost(ctx context.Context, db *sql.DB, p *Post) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE posts SET
		title = ?, slug = ?, content = ?, meta_description = ?, cover_image = ?, category = ?,
		updated_at = ?, published_at = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Content, p.MetaDescription, p.CoverImage, p.Category,
		p.UpdatedAt.UTC(), nullTime(p), p.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, p.ID); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, p.ID, p.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

func DeletePost(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullTime binds the publish time in UTC. sqlite compares the stored text,
// so every timestamp column holds UTC values.
func nullTime(p *Post) sql.NullTime {
	if p.PublishedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.PublishedAt.UTC(), Valid: true}
}

func insertTags(ctx context.Context, tx *sql.Tx, postID string, tags []string) error {
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag, position) VALUES (?, ?, ?)`, postID, tag, i); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}

const postColumns = `p.id, p.author_id, p.title, p.slug, p.content, p.meta_description, p.cover_image,
	p.category, p.created_at, p.updated_at, p.published_at`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	var published sql.NullTime
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Slug, &p.Content, &p.MetaDescription, &p.CoverImage,
		&p.Category, &p.CreatedAt, &p.UpdatedAt, &published)
	if err != nil {
		return nil, notFound(err)
	}
	if published.Valid {
		p.PublishedAt = &published.Time
	}
	return &p, nil
}

func GetPost(ctx context.Context, db *sql.DB, id string) (*Post, error) {
	p, err := scanPost(db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if p.Tags, err = listTags(ctx, db, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns posts matching f, newest first.
func ListPosts(ctx context.Context, db *sql.DB, f PostFilter) ([]Post, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, `p.category = ?`)
		args = append(args, f.Category)
	}
	if f.AuthorID != "" {
		where = append(where, `p.author_id = ?`)
		args = append(args, f.AuthorID)
	}
	if f.DraftsOf != "" {
		where = append(where, `(p.published_at IS NOT NULL OR p.author_id = ?)`)
		args = append(args, f.DraftsOf)
	} else {
		where = append(where, `p.published_at IS NOT NULL`)
	}
	q := `SELECT ` + postColumns + ` FROM posts p WHERE ` + strings.Join(where, ` AND `) +
		` ORDER BY COALESCE(p.published_at, p.created_at) DESC, p.id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// tags are loaded after the cursor is closed; the pool holds one connection
	for i := range posts {
		if posts[i].Tags, err = listTags(ctx, db, posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func listTags(ctx context.Context, db *sql.DB, postID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT tag FROM post_tags WHERE post_id = ? ORDER BY position`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func CreateComment(ctx context.Context, db *sql.DB, c *Comment) error {
	_, err := db.ExecContext(ctx, `INSERT INTO comments (id, post_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.AuthorID, c.Body, c.CreatedAt.UTC())
	return err
}

func ListComments(ctx context.Context, db *sql.DB, postID string) ([]Comment, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, post_id, author_id, body, created_at FROM comments WHERE post_id = ? ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cs []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

func CreateInquiry(ctx context.Context, db *sql.DB, in *Inquiry) error {
	_, err := db.ExecContext(ctx, `INSERT INTO inquiries (id, name, email, company, topic, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Name, in.Email, in.Company, in.Topic, in.Message, in.CreatedAt.UTC())
	return err
}

func ListInquiries(ctx context.Context, db *sql.DB) ([]Inquiry, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, email, company, topic, message, created_at FROM inquiries ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Inquiry
	for rows.Next() {
		var in Inquiry
		if err := rows.Scan(&in.ID, &in.Name, &in.Email, &in.Company, &in.Topic, &in.Message, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
