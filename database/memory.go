package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blogging-platform/config"
	"blogging-platform/models"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs the test suite and
// local runs without a database server.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	emails   map[string]string
	posts    map[string]models.Post
	comments map[string]models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		posts:    make(map[string]models.Post),
		comments: make(map[string]models.Comment),
	}
}

func (s *MemoryStore) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	return nil
}

func (s *MemoryStore) Disconnect(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[user.Email]; exists {
		return fmt.Errorf("user with email %s: %w", user.Email, models.ErrConflict)
	}

	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, notFound("user", email)
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &user, nil
}

func (s *MemoryStore) author(id string) *models.Author {
	if user, ok := s.users[id]; ok {
		return user.Author()
	}
	return nil
}

func (s *MemoryStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Author = nil

	s.posts[post.ID] = *post
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}
	post.Author = s.author(post.AuthorID)
	return &post, nil
}

func (s *MemoryStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		post.Author = s.author(post.AuthorID)
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) UpdatePost(ctx context.Context, id, title, content string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, notFound("post", id)
	}

	post.Title = title
	post.Content = content
	post.UpdatedAt = time.Now().UTC()
	s.posts[id] = post

	post.Author = s.author(post.AuthorID)
	return &post, nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return notFound("post", id)
	}

	delete(s.posts, id)
	for commentID, comment := range s.comments {
		if comment.PostID == id {
			delete(s.comments, commentID)
		}
	}
	return nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return notFound("post", comment.PostID)
	}

	now := time.Now().UTC()
	comment.ID = uuid.NewString()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	comment.Author = nil

	s.comments[comment.ID] = *comment
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}
	comment.Author = s.author(comment.AuthorID)
	return &comment, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, comment := range s.comments {
		if postID != "" && comment.PostID != postID {
			continue
		}
		comment.Author = s.author(comment.AuthorID)
		comments = append(comments, comment)
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, notFound("comment", id)
	}

	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	s.comments[id] = comment

	comment.Author = s.author(comment.AuthorID)
	return &comment, nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return notFound("comment", id)
	}
	delete(s.comments, id)
	return nil
}
