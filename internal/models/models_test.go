package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		assert.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := ParseCategory("community")
	assert.False(t, ok, "category names are case sensitive")
	_, ok = ParseCategory("")
	assert.False(t, ok)

	assert.True(t, CategoryTutorial.Restricted())
	assert.True(t, CategoryNews.Restricted())
	assert.False(t, CategoryCommunity.Restricted())
}

func TestPostFilterMatch(t *testing.T) {
	now := time.Now()
	published := &Post{AuthorID: "a", Category: CategoryNews, PublishedAt: &now}
	draft := &Post{AuthorID: "a", Category: CategoryCommunity}

	assert.True(t, PostFilter{}.Match(published))
	assert.False(t, PostFilter{}.Match(draft))
	assert.True(t, PostFilter{DraftsOf: "a"}.Match(draft))
	assert.False(t, PostFilter{DraftsOf: "b"}.Match(draft))
	assert.False(t, PostFilter{Category: CategoryTutorial}.Match(published))
	assert.False(t, PostFilter{AuthorID: "b"}.Match(published))
}

func TestPostClone(t *testing.T) {
	now := time.Now()
	p := &Post{Tags: []string{"x"}, PublishedAt: &now}
	c := p.Clone()
	c.Tags[0] = "y"
	*c.PublishedAt = now.Add(time.Hour)
	assert.Equal(t, "x", p.Tags[0])
	assert.Equal(t, now, *p.PublishedAt)
	assert.Equal(t, StatusPublished, c.Status())

	var u *User
	assert.False(t, u.IsAdmin())
}
