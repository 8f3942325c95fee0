package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = `id, author_id, title, subtitle, slug, date, body, img_url, created_at, updated_at`

func scanPost(row *sql.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body, &p.ImgURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePostParams holds the fields required to create a post.
type CreatePostParams struct {
	AuthorID  int64
	Title     string
	Subtitle  string
	Slug      string
	Date      string
	Body      string
	ImgURL    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePost inserts a new post and returns the created row.
// Fails with a constraint error if the title or slug already exists.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, title, subtitle, slug, date, body, img_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.AuthorID, arg.Title, arg.Subtitle, arg.Slug, arg.Date, arg.Body, arg.ImgURL, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanPost(row)
}

// GetPostByID fetches a post by primary key. Returns sql.ErrNoRows if absent.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPostBySlug fetches a post by its permalink slug. Returns sql.ErrNoRows if absent.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// ListPostsRow is a post joined with its author's display name.
type ListPostsRow struct {
	Post
	AuthorName string
}

// ListPosts returns all posts, newest first, with author names.
func (q *Queries) ListPosts(ctx context.Context) ([]ListPostsRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.title, p.subtitle, p.slug, p.date, p.body, p.img_url, p.created_at, p.updated_at, u.name
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []ListPostsRow
	for rows.Next() {
		var p ListPostsRow
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Subtitle, &p.Slug, &p.Date, &p.Body, &p.ImgURL, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPosts returns the total number of posts.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count)
	return count, err
}

// PostTitleExists returns the number of posts with the given title,
// excluding the post with excludeID (pass 0 for inserts).
func (q *Queries) PostTitleExists(ctx context.Context, title string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE title = ? AND id != ?`, title, excludeID).Scan(&count)
	return count, err
}

// PostSlugExists returns the number of posts with the given slug,
// excluding the post with excludeID (pass 0 for inserts).
func (q *Queries) PostSlugExists(ctx context.Context, slug string, excludeID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&count)
	return count, err
}

// UpdatePostParams holds the fields for UpdatePost. The author is
// reassigned to the editing user.
type UpdatePostParams struct {
	AuthorID  int64
	Title     string
	Subtitle  string
	Slug      string
	Body      string
	ImgURL    string
	UpdatedAt time.Time
	ID        int64
}

// UpdatePost overwrites a post's editable fields and returns the updated row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts
		SET author_id = ?, title = ?, subtitle = ?, slug = ?, body = ?, img_url = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.AuthorID, arg.Title, arg.Subtitle, arg.Slug, arg.Body, arg.ImgURL, arg.UpdatedAt, arg.ID,
	)
	return scanPost(row)
}

// DeletePost removes a post. Comments cascade via the schema's
// ON DELETE CASCADE constraint.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
