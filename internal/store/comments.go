package store

import (
	"context"
	"time"
)

// CreateCommentParams holds the fields required to create a comment.
type CreateCommentParams struct {
	PostID    int64
	AuthorID  int64
	Body      string
	CreatedAt time.Time
}

// CreateComment inserts a new comment and returns the created row.
// Fails with a constraint error if the referenced post or user is absent.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, post_id, author_id, body, created_at`,
		arg.PostID, arg.AuthorID, arg.Body, arg.CreatedAt,
	)
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt)
	return c, err
}

// ListCommentsForPostRow is a comment joined with its author's display name.
type ListCommentsForPostRow struct {
	Comment
	AuthorName string
}

// ListCommentsForPost returns all comments on a post, oldest first.
func (q *Queries) ListCommentsForPost(ctx context.Context, postID int64) ([]ListCommentsForPostRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.body, c.created_at, u.name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.id`,
		postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []ListCommentsForPostRow
	for rows.Next() {
		var c ListCommentsForPostRow
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountCommentsForPost returns the number of comments on a post.
func (q *Queries) CountCommentsForPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	return count, err
}
