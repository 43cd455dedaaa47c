package models

import "time"

// Post is a blog entry owned by exactly one author.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostFields are the client-supplied fields of a new post. The author is
// never part of it; it always comes from the authenticated subject.
type PostFields struct {
	Title     string
	Content   string
	Published bool
}

// PostPatch carries a partial post update. Nil fields are left untouched.
type PostPatch struct {
	Title     *string
	Content   *string
	Published *bool
}

// ApplyTo merges the supplied fields into p, one field at a time.
func (pp PostPatch) ApplyTo(p *Post) {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Content != nil {
		p.Content = *pp.Content
	}
	if pp.Published != nil {
		p.Published = *pp.Published
	}
}
