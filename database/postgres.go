package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogging-platform/config"
	"blogging-platform/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	author_id  TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC);
CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	author_id  TEXT NOT NULL REFERENCES users(id),
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS comments_post_id_idx ON comments (post_id, created_at);
`

const (
	selectPost = `
		SELECT p.id, p.title, p.content, p.author_id, p.created_at, p.updated_at, u.username, u.email
		FROM posts p JOIN users u ON u.id = p.author_id`
	selectComment = `
		SELECT c.id, c.content, c.author_id, c.post_id, c.created_at, c.updated_at, u.username, u.email
		FROM comments c JOIN users u ON u.id = c.author_id`
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

func (s *PostgresStore) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	poolConfig, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return fmt.Errorf("parse postgres uri: %w", err)
	}

	if cfg.Username != "" {
		poolConfig.ConnConfig.User = cfg.Username
		poolConfig.ConnConfig.Password = cfg.Password
	}
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("postgres ping: %w (host=%s, database=%s)",
			err, poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Database)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return fmt.Errorf("postgres schema: %w", err)
	}

	s.pool = pool
	return nil
}

func (s *PostgresStore) Disconnect(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errNotConnected
	}
	return s.pool.Ping(ctx)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if s.pool == nil {
		return errNotConnected
	}

	id := uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("user with email %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return nil
}

func (s *PostgresStore) findUser(ctx context.Context, where string, arg string) (*models.User, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	var user models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE `+where+` = $1`, arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("user", arg)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id", id)
}

func scanPost(row pgx.Row) (models.Post, error) {
	var post models.Post
	author := &models.Author{}
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID,
		&post.CreatedAt, &post.UpdatedAt, &author.Username, &author.Email)
	author.ID = post.AuthorID
	post.Author = author
	return post, err
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	author := &models.Author{}
	err := row.Scan(&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID,
		&comment.CreatedAt, &comment.UpdatedAt, &author.Username, &author.Email)
	author.ID = comment.AuthorID
	comment.Author = author
	return comment, err
}

func (s *PostgresStore) CreatePost(ctx context.Context, post *models.Post) error {
	if s.pool == nil {
		return errNotConnected
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (id, title, content, author_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		id, post.Title, post.Content, post.AuthorID, now)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return notFound("user", post.AuthorID)
		}
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	post, err := scanPost(s.pool.QueryRow(ctx, selectPost+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("post", id)
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	rows, err := s.pool.Query(ctx, selectPost+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, id, title, content string) (*models.Post, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET title = $2, content = $3, updated_at = $4 WHERE id = $1`,
		id, title, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("post", id)
	}
	return s.GetPost(ctx, id)
}

// DeletePost relies on ON DELETE CASCADE to remove the post's comments.
func (s *PostgresStore) DeletePost(ctx context.Context, id string) error {
	if s.pool == nil {
		return errNotConnected
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("post", id)
	}
	return nil
}

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if s.pool == nil {
		return errNotConnected
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO comments (id, content, author_id, post_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		id, comment.Content, comment.AuthorID, comment.PostID, now)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return notFound("post", comment.PostID)
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = id
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	comment, err := scanComment(s.pool.QueryRow(ctx, selectComment+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("comment", id)
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &comment, nil
}

func (s *PostgresStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	var (
		rows pgx.Rows
		err  error
	)
	if postID == "" {
		rows, err = s.pool.Query(ctx, selectComment+` ORDER BY c.created_at`)
	} else {
		rows, err = s.pool.Query(ctx, selectComment+` WHERE c.post_id = $1 ORDER BY c.created_at`, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *PostgresStore) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	if s.pool == nil {
		return nil, errNotConnected
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		id, content, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, notFound("comment", id)
	}
	return s.GetComment(ctx, id)
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string) error {
	if s.pool == nil {
		return errNotConnected
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("comment", id)
	}
	return nil
}
