package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogging-platform/config"
	"blogging-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
)

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Author    primitive.ObjectID `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
	// Filled by the $lookup stage only.
	AuthorDocs []userDocument `bson:"authorDocs,omitempty"`
}

func (d postDocument) toModel() models.Post {
	post := models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.AuthorDocs) > 0 {
		post.Author = d.AuthorDocs[0].toModel().Author()
	}
	return post
}

type commentDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Content    string             `bson:"content"`
	Author     primitive.ObjectID `bson:"author"`
	Post       primitive.ObjectID `bson:"post"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
	AuthorDocs []userDocument     `bson:"authorDocs,omitempty"`
}

func (d commentDocument) toModel() models.Comment {
	comment := models.Comment{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		PostID:    d.Post.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.AuthorDocs) > 0 {
		comment.Author = d.AuthorDocs[0].toModel().Author()
	}
	return comment
}

type MongoDBStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoDBStore() *MongoDBStore {
	return &MongoDBStore{}
}

func (s *MongoDBStore) Connect(ctx context.Context, cfg config.DatabaseConfig) error {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)
	if cfg.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("mongodb ping: %w", err)
	}

	s.client = client
	s.db = client.Database(cfg.Name)

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		s.client, s.db = nil, nil
		return err
	}
	return nil
}

func (s *MongoDBStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = s.db.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create posts index: %w", err)
	}

	_, err = s.db.Collection(commentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create comments index: %w", err)
	}
	return nil
}

func (s *MongoDBStore) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.db = nil, nil
	return err
}

func (s *MongoDBStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return errNotConnected
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Mongo keeps millisecond precision; truncating up front keeps the values
// returned from Create equal to what a later read decodes.
func mongoNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *MongoDBStore) CreateUser(ctx context.Context, user *models.User) error {
	if s.db == nil {
		return errNotConnected
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = mongoNow()
	}
	doc := userDocument{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}

	res, err := s.db.Collection(usersCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoDBStore) findUser(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	var doc userDocument
	err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound("user", key)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoDBStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email}, email)
}

func (s *MongoDBStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("user", id)
	}
	return s.findUser(ctx, bson.M{"_id": oid}, id)
}

// withAuthor appends the stages that populate authorDocs from the users
// collection.
func withAuthor(stages ...bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline(stages)
	return append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         usersCollection,
		"localField":   "author",
		"foreignField": "_id",
		"as":           "authorDocs",
	}}})
}

func (s *MongoDBStore) CreatePost(ctx context.Context, post *models.Post) error {
	if s.db == nil {
		return errNotConnected
	}

	authorID, err := primitive.ObjectIDFromHex(post.AuthorID)
	if err != nil {
		return fmt.Errorf("%w: malformed author id", models.ErrValidation)
	}

	now := mongoNow()
	doc := postDocument{
		Title:     post.Title,
		Content:   post.Content,
		Author:    authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.db.Collection(postsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = res.InsertedID.(primitive.ObjectID).Hex()
	post.CreatedAt = now
	post.UpdatedAt = now
	return nil
}

func (s *MongoDBStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("post", id)
	}

	cursor, err := s.db.Collection(postsCollection).Aggregate(ctx, withAuthor(
		bson.D{{Key: "$match", Value: bson.M{"_id": oid}}},
	))
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}
	if len(docs) == 0 {
		return nil, notFound("post", id)
	}

	post := docs[0].toModel()
	return &post, nil
}

func (s *MongoDBStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	cursor, err := s.db.Collection(postsCollection).Aggregate(ctx, withAuthor(
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toModel())
	}
	return posts, nil
}

func (s *MongoDBStore) UpdatePost(ctx context.Context, id, title, content string) (*models.Post, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("post", id)
	}

	res, err := s.db.Collection(postsCollection).UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":     title,
		"content":   content,
		"updatedAt": mongoNow(),
	}})
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, notFound("post", id)
	}

	return s.GetPost(ctx, id)
}

func (s *MongoDBStore) DeletePost(ctx context.Context, id string) error {
	if s.db == nil {
		return errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("post", id)
	}

	res, err := s.db.Collection(postsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound("post", id)
	}

	if _, err := s.db.Collection(commentsCollection).DeleteMany(ctx, bson.M{"post": oid}); err != nil {
		return fmt.Errorf("delete comments of post %s: %w", id, err)
	}
	return nil
}

func (s *MongoDBStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if s.db == nil {
		return errNotConnected
	}

	authorID, err := primitive.ObjectIDFromHex(comment.AuthorID)
	if err != nil {
		return fmt.Errorf("%w: malformed author id", models.ErrValidation)
	}
	postID, err := primitive.ObjectIDFromHex(comment.PostID)
	if err != nil {
		return notFound("post", comment.PostID)
	}

	count, err := s.db.Collection(postsCollection).CountDocuments(ctx, bson.M{"_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if count == 0 {
		return notFound("post", comment.PostID)
	}

	now := mongoNow()
	doc := commentDocument{
		Content:   comment.Content,
		Author:    authorID,
		Post:      postID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := s.db.Collection(commentsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = res.InsertedID.(primitive.ObjectID).Hex()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return nil
}

func (s *MongoDBStore) findComments(ctx context.Context, match bson.M) ([]models.Comment, error) {
	cursor, err := s.db.Collection(commentsCollection).Aggregate(ctx, withAuthor(
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
	))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, doc.toModel())
	}
	return comments, nil
}

func (s *MongoDBStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("comment", id)
	}

	comments, err := s.findComments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, notFound("comment", id)
	}
	return &comments[0], nil
}

func (s *MongoDBStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	match := bson.M{}
	if postID != "" {
		oid, err := primitive.ObjectIDFromHex(postID)
		if err != nil {
			return []models.Comment{}, nil
		}
		match["post"] = oid
	}
	return s.findComments(ctx, match)
}

func (s *MongoDBStore) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	if s.db == nil {
		return nil, errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("comment", id)
	}

	res, err := s.db.Collection(commentsCollection).UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"content":   content,
		"updatedAt": mongoNow(),
	}})
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, notFound("comment", id)
	}

	return s.GetComment(ctx, id)
}

func (s *MongoDBStore) DeleteComment(ctx context.Context, id string) error {
	if s.db == nil {
		return errNotConnected
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("comment", id)
	}

	res, err := s.db.Collection(commentsCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound("comment", id)
	}
	return nil
}
