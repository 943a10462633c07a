package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"blogging-platform/config"
	"blogging-platform/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises a connected Store. Backends other than memory
// share one database per test run, so every assertion works on records the
// test created itself.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000000")

	alice := &models.User{Username: "alice", Email: "alice" + suffix + "@x.com", PasswordHash: "hash"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NotEmpty(t, alice.ID)

	t.Run("duplicate email", func(t *testing.T) {
		dup := &models.User{Username: "alice2", Email: alice.Email, PasswordHash: "hash"}
		err := store.CreateUser(ctx, dup)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("user lookups", func(t *testing.T) {
		byEmail, err := store.GetUserByEmail(ctx, alice.Email)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.Email, byID.Email)

		_, err = store.GetUserByEmail(ctx, "nobody"+suffix+"@x.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = store.GetUserByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	post := &models.Post{Title: "T", Content: "C", AuthorID: alice.ID}
	require.NoError(t, store.CreatePost(ctx, post))
	require.NotEmpty(t, post.ID)

	t.Run("post round trip", func(t *testing.T) {
		got, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "C", got.Content)
		assert.Equal(t, alice.ID, got.AuthorID)
		require.NotNil(t, got.Author)
		assert.Equal(t, "alice", got.Author.Username)

		posts, err := store.ListPosts(ctx)
		require.NoError(t, err)
		found := false
		for _, p := range posts {
			if p.ID == post.ID {
				found = true
				require.NotNil(t, p.Author)
				assert.Equal(t, alice.ID, p.Author.ID)
			}
		}
		assert.True(t, found)
	})

	t.Run("post update", func(t *testing.T) {
		updated, err := store.UpdatePost(ctx, post.ID, "T2", "C2")
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.Title)
		assert.Equal(t, "C2", updated.Content)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		_, err = store.UpdatePost(ctx, "missing", "x", "y")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	comment := &models.Comment{Content: "first", AuthorID: alice.ID, PostID: post.ID}
	require.NoError(t, store.CreateComment(ctx, comment))
	require.NotEmpty(t, comment.ID)

	t.Run("comments", func(t *testing.T) {
		got, err := store.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Content)
		assert.Equal(t, post.ID, got.PostID)
		require.NotNil(t, got.Author)
		assert.Equal(t, "alice", got.Author.Username)

		list, err := store.ListComments(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, comment.ID, list[0].ID)

		updated, err := store.UpdateComment(ctx, comment.ID, "edited")
		require.NoError(t, err)
		assert.Equal(t, "edited", updated.Content)

		orphan := &models.Comment{Content: "x", AuthorID: alice.ID, PostID: "missing"}
		assert.ErrorIs(t, store.CreateComment(ctx, orphan), models.ErrNotFound)

		_, err = store.UpdateComment(ctx, "missing", "x")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, store.DeleteComment(ctx, "missing"), models.ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		second := &models.Comment{Content: "second", AuthorID: alice.ID, PostID: post.ID}
		require.NoError(t, store.CreateComment(ctx, second))
		require.NoError(t, store.DeleteComment(ctx, second.ID))
		_, err := store.GetComment(ctx, second.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, store.DeletePost(ctx, post.ID))
		_, err = store.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = store.GetComment(ctx, comment.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.ErrorIs(t, store.DeletePost(ctx, post.ID), models.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	user := &models.User{Username: "u", Email: "u@x.com"}
	require.NoError(t, store.CreateUser(ctx, user))

	var ids []string
	for i := 0; i < 3; i++ {
		post := &models.Post{Title: "t", Content: "c", AuthorID: user.ID}
		require.NoError(t, store.CreatePost(ctx, post))
		ids = append(ids, post.ID)
		time.Sleep(time.Millisecond)
	}

	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, ids[2], posts[0].ID)
	assert.Equal(t, ids[0], posts[2].ID)

	all, err := store.ListComments(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func connectFromEnv(t *testing.T, storeType, env string, build func(string) config.DatabaseConfig) Store {
	t.Helper()
	value := os.Getenv(env)
	if value == "" {
		t.Skipf("%s not set", env)
	}

	cfg := build(value)
	cfg.Type = storeType
	cfg.Timeout = 10 * time.Second

	store, err := NewStore(storeType)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, store.Connect(ctx, cfg))
	t.Cleanup(func() { store.Disconnect(context.Background()) })
	return store
}

func TestMongoDBStore(t *testing.T) {
	store := connectFromEnv(t, config.StoreMongoDB, "BLOG_TEST_MONGO_URI", func(uri string) config.DatabaseConfig {
		return config.DatabaseConfig{URI: uri, Name: "blogging_platform_test"}
	})
	runStoreContract(t, store)
}

func TestPostgresStore(t *testing.T) {
	store := connectFromEnv(t, config.StorePostgres, "BLOG_TEST_POSTGRES_DSN", func(dsn string) config.DatabaseConfig {
		return config.DatabaseConfig{URI: dsn}
	})
	runStoreContract(t, store)
}

func TestCassandraStore(t *testing.T) {
	store := connectFromEnv(t, config.StoreCassandra, "BLOG_TEST_CASSANDRA_HOSTS", func(hosts string) config.DatabaseConfig {
		return config.DatabaseConfig{Hosts: strings.Split(hosts, ","), Name: "blogging_platform_test"}
	})
	runStoreContract(t, store)
}

func TestNewStoreUnknownType(t *testing.T) {
	_, err := NewStore("couchdb")
	assert.Error(t, err)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	assert.Nil(t, m.Store())

	require.NoError(t, m.Connect(ctx, config.DatabaseConfig{Type: config.StoreMemory}))
	require.NotNil(t, m.Store())
	assert.NoError(t, m.Store().Ping(ctx))
	assert.Error(t, m.Connect(ctx, config.DatabaseConfig{Type: config.StoreMemory}))

	require.NoError(t, m.Close(ctx))
	assert.Nil(t, m.Store())
	require.NoError(t, m.Close(ctx))
}
