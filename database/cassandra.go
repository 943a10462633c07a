package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"blogging-platform/config"
	"blogging-platform/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

var cassandraSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id text PRIMARY KEY, username text, email text, password_hash text, created_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (email text PRIMARY KEY, user_id text)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id text PRIMARY KEY, title text, content text, author_id text, created_at timestamp, updated_at timestamp)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id text PRIMARY KEY, content text, author_id text, post_id text, created_at timestamp, updated_at timestamp)`,
	`CREATE INDEX IF NOT EXISTS comments_post_id ON comments (post_id)`,
}

// CassandraStore keeps email uniqueness with a lightweight transaction on
// users_by_email. Listing reads whole tables and sorts in memory.
type CassandraStore struct {
	session *gocql.Session
}

func NewCassandraStore() *CassandraStore {
	return &CassandraStore{}
}

func (s *CassandraStore) newCluster(cfg config.DatabaseConfig, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.Timeout
	cluster.Consistency = gocql.Quorum
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster
}

func (s *CassandraStore) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	bootstrap, err := s.newCluster(cfg, "").CreateSession()
	if err != nil {
		return fmt.Errorf("cassandra connect: %w", err)
	}

	err = bootstrap.Query(fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, cfg.Name)).
		WithContext(ctx).Exec()
	bootstrap.Close()
	if err != nil {
		return fmt.Errorf("cassandra keyspace: %w", err)
	}

	session, err := s.newCluster(cfg, cfg.Name).CreateSession()
	if err != nil {
		return fmt.Errorf("cassandra connect: %w", err)
	}

	for _, stmt := range cassandraSchema {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			session.Close()
			return fmt.Errorf("cassandra schema: %w", err)
		}
	}

	s.session = session
	return nil
}

func (s *CassandraStore) Disconnect(ctx context.Context) error {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	return nil
}

func (s *CassandraStore) Ping(ctx context.Context) error {
	if s.session == nil || s.session.Closed() {
		return errNotConnected
	}
	return s.session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

func (s *CassandraStore) CreateUser(ctx context.Context, user *models.User) error {
	if s.session == nil {
		return errNotConnected
	}

	id := uuid.NewString()
	applied, err := s.session.Query(
		`INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`,
		user.Email, id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("reserve email: %w", err)
	}
	if !applied {
		return fmt.Errorf("user with email %s: %w", user.Email, models.ErrConflict)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	err = s.session.Query(
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		s.session.Query(`DELETE FROM users_by_email WHERE email = ?`, user.Email).WithContext(ctx).Exec()
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return nil
}

func (s *CassandraStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	var id string
	err := s.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(ctx).Scan(&id)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, notFound("user", email)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *CassandraStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	var user models.User
	err := s.session.Query(
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, id,
	).WithContext(ctx).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, notFound("user", id)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// authors resolves author summaries, querying each distinct id once.
type authors struct {
	store *CassandraStore
	cache map[string]*models.Author
}

func (s *CassandraStore) authorCache() *authors {
	return &authors{store: s, cache: make(map[string]*models.Author)}
}

func (a *authors) get(ctx context.Context, id string) (*models.Author, error) {
	if author, ok := a.cache[id]; ok {
		return author, nil
	}
	user, err := a.store.GetUserByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			a.cache[id] = nil
			return nil, nil
		}
		return nil, err
	}
	a.cache[id] = user.Author()
	return a.cache[id], nil
}

func (s *CassandraStore) CreatePost(ctx context.Context, post *models.Post) error {
	if s.session == nil {
		return errNotConnected
	}

	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	err := s.session.Query(
		`INSERT INTO posts (id, title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, post.Title, post.Content, post.AuthorID, now, now,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (s *CassandraStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	var post models.Post
	err := s.session.Query(
		`SELECT id, title, content, author_id, created_at, updated_at FROM posts WHERE id = ?`, id,
	).WithContext(ctx).Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, notFound("post", id)
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	post.Author, err = s.authorCache().get(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *CassandraStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	iter := s.session.Query(`SELECT id, title, content, author_id, created_at, updated_at FROM posts`).
		WithContext(ctx).Iter()

	posts := make([]models.Post, 0)
	var post models.Post
	for iter.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt) {
		posts = append(posts, post)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	cache := s.authorCache()
	for i := range posts {
		author, err := cache.get(ctx, posts[i].AuthorID)
		if err != nil {
			return nil, err
		}
		posts[i].Author = author
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *CassandraStore) UpdatePost(ctx context.Context, id, title, content string) (*models.Post, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	applied, err := s.session.Query(
		`UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ? IF EXISTS`,
		title, content, time.Now().UTC(), id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if !applied {
		return nil, notFound("post", id)
	}
	return s.GetPost(ctx, id)
}

func (s *CassandraStore) DeletePost(ctx context.Context, id string) error {
	if s.session == nil {
		return errNotConnected
	}

	applied, err := s.session.Query(`DELETE FROM posts WHERE id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if !applied {
		return notFound("post", id)
	}

	iter := s.session.Query(`SELECT id FROM comments WHERE post_id = ?`, id).WithContext(ctx).Iter()
	var commentIDs []string
	var commentID string
	for iter.Scan(&commentID) {
		commentIDs = append(commentIDs, commentID)
	}
	if err := iter.Close(); err != nil {
		return fmt.Errorf("find comments of post %s: %w", id, err)
	}

	for _, commentID := range commentIDs {
		if err := s.session.Query(`DELETE FROM comments WHERE id = ?`, commentID).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("delete comment %s: %w", commentID, err)
		}
	}
	return nil
}

func (s *CassandraStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if s.session == nil {
		return errNotConnected
	}

	var postID string
	err := s.session.Query(`SELECT id FROM posts WHERE id = ?`, comment.PostID).WithContext(ctx).Scan(&postID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return notFound("post", comment.PostID)
		}
		return fmt.Errorf("check post: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	err = s.session.Query(
		`INSERT INTO comments (id, content, author_id, post_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, comment.Content, comment.AuthorID, comment.PostID, now, now,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = id
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

func (s *CassandraStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	var comment models.Comment
	err := s.session.Query(
		`SELECT id, content, author_id, post_id, created_at, updated_at FROM comments WHERE id = ?`, id,
	).WithContext(ctx).Scan(&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID,
		&comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, notFound("comment", id)
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}

	comment.Author, err = s.authorCache().get(ctx, comment.AuthorID)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CassandraStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	var query *gocql.Query
	if postID == "" {
		query = s.session.Query(`SELECT id, content, author_id, post_id, created_at, updated_at FROM comments`)
	} else {
		query = s.session.Query(
			`SELECT id, content, author_id, post_id, created_at, updated_at FROM comments WHERE post_id = ?`, postID)
	}
	iter := query.WithContext(ctx).Iter()

	comments := make([]models.Comment, 0)
	var comment models.Comment
	for iter.Scan(&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID,
		&comment.CreatedAt, &comment.UpdatedAt) {
		comments = append(comments, comment)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	cache := s.authorCache()
	for i := range comments {
		author, err := cache.get(ctx, comments[i].AuthorID)
		if err != nil {
			return nil, err
		}
		comments[i].Author = author
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *CassandraStore) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	if s.session == nil {
		return nil, errNotConnected
	}

	applied, err := s.session.Query(
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? IF EXISTS`,
		content, time.Now().UTC(), id,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if !applied {
		return nil, notFound("comment", id)
	}
	return s.GetComment(ctx, id)
}

func (s *CassandraStore) DeleteComment(ctx context.Context, id string) error {
	if s.session == nil {
		return errNotConnected
	}

	applied, err := s.session.Query(`DELETE FROM comments WHERE id = ? IF EXISTS`, id).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !applied {
		return notFound("comment", id)
	}
	return nil
}
