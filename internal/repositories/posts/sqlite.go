package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/blog-api/internal/common"
	"github.com/isdelr/blog-api/internal/dbx"
	"github.com/isdelr/blog-api/internal/models"
)

const postColumns = `id, title, content, published, author_id, created_at, updated_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*models.Post, error) {
	var p models.Post
	if err := s.Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return &p, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query :=
		`INSERT INTO posts (title, content, published, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Published, post.AuthorID, post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
	if err != nil {
		// The author vanished between authentication and insert.
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) collect(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

func (r *SQLiteRepository) ListPublished(ctx context.Context) ([]models.Post, error) {
	return r.collect(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE published = 1
		 ORDER BY created_at DESC, id DESC`)
}

func (r *SQLiteRepository) ListByAuthor(ctx context.Context, authorID int64) ([]models.Post, error) {
	return r.collect(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE author_id = ?
		 ORDER BY created_at DESC, id DESC`, authorID)
}

func (r *SQLiteRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts SET title = ?, content = ?, published = ?, updated_at = ?
		 WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, post.Title, post.Content, post.Published, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE author_id = ?`, authorID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
