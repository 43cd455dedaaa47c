package models

import "time"

// AuthorSummary is the public face of a user nested inside a post.
type AuthorSummary struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio,omitempty"`
}

// PostView is a post joined with its author.
type PostView struct {
	Post
	Author AuthorSummary `json:"author"`
}

// UserView is a user without credentials.
type UserView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserProfile is a user joined with the posts they authored.
type UserProfile struct {
	UserView
	Posts []Post `json:"posts"`
}

// NewAuthorSummary strips a user down to the fields shown next to a post.
func NewAuthorSummary(u User) AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, Email: u.Email, Bio: u.Bio}
}

// NewUserView drops the password hash and everything else not meant for clients.
func NewUserView(u User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserViews maps NewUserView over users.
func NewUserViews(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views
}

// AssemblePost joins p with its author.
func AssemblePost(p Post, author User) PostView {
	return PostView{Post: p, Author: NewAuthorSummary(author)}
}

// AssemblePosts joins each post with its author. authors is looked up by
// AuthorID; a post whose author is missing from the lookup is skipped.
func AssemblePosts(posts []Post, authors map[int64]User) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			continue
		}
		views = append(views, AssemblePost(p, author))
	}
	return views
}

// AssembleProfile joins u with the posts they authored.
func AssembleProfile(u User, posts []Post) UserProfile {
	if posts == nil {
		posts = []Post{}
	}
	return UserProfile{UserView: NewUserView(u), Posts: posts}
}
