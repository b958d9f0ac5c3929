package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	ProfileImage string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Category string

const (
	CategoryTutorial  Category = "Tutorial"
	CategoryNews      Category = "News"
	CategoryCommunity Category = "Community"
)

// Categories lists the closed set of post categories in display order.
var Categories = []Category{CategoryTutorial, CategoryNews, CategoryCommunity}

// ParseCategory returns the category named s, or false if s is not one of
// the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Restricted reports whether only admins may file posts under c.
func (c Category) Restricted() bool {
	return c == CategoryTutorial || c == CategoryNews
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type Post struct {
	ID              string
	AuthorID        string
	Title           string
	Slug            string
	Content         string
	MetaDescription string
	CoverImage      string
	Category        Category
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PublishedAt     *time.Time
}

// Status is derived from PublishedAt: a nil publish time marks a draft.
func (p *Post) Status() Status {
	if p.PublishedAt == nil {
		return StatusDraft
	}
	return StatusPublished
}

// Clone returns a deep copy of p.
func (p *Post) Clone() *Post {
	c := *p
	c.Tags = append([]string(nil), p.Tags...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

// PostFilter narrows ListPosts. Drafts are excluded unless DraftsOf names
// their author.
type PostFilter struct {
	Category Category
	AuthorID string
	DraftsOf string
	Limit    int
}

// Match reports whether p passes the filter.
func (f PostFilter) Match(p *Post) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.AuthorID != "" && p.AuthorID != f.AuthorID {
		return false
	}
	if p.PublishedAt == nil && (f.DraftsOf == "" || p.AuthorID != f.DraftsOf) {
		return false
	}
	return true
}

type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// Inquiry is a message left through the contact form.
type Inquiry struct {
	ID        string
	Name      string
	Email     string
	Company   string
	Topic     string
	Message   string
	CreatedAt time.Time
}
