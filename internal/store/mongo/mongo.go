// Package mongo implements store.Store on MongoDB. Likes and comments are
// embedded in the post document and mutated with single-document atomic
// updates.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

type userDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	Name     string        `bson:"name"`
	Email    string        `bson:"email"`
	Password string        `bson:"password"`
	Avatar   string        `bson:"avatar"`
	Date     time.Time     `bson:"date"`
}

type likeDoc struct {
	User string `bson:"user"`
}

type commentDoc struct {
	ID     bson.ObjectID `bson:"_id"`
	User   string        `bson:"user"`
	Text   string        `bson:"text"`
	Name   string        `bson:"name"`
	Avatar string        `bson:"avatar"`
	Date   time.Time     `bson:"date"`
}

type postDoc struct {
	ID       bson.ObjectID `bson:"_id"`
	User     string        `bson:"user"`
	Text     string        `bson:"text"`
	Name     string        `bson:"name"`
	Avatar   string        `bson:"avatar"`
	Likes    []likeDoc     `bson:"likes"`
	Comments []commentDoc  `bson:"comments"`
	Date     time.Time     `bson:"date"`
}

// Open connects to uri, verifies the connection and ensures indexes on
// database dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(dbName)
	s := &Store{client: client, users: db.Collection("users"), posts: db.Collection("posts")}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("posts index: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// BSON dates carry millisecond precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	doc := userDoc{
		ID:       bson.NewObjectID(),
		Name:     user.Name,
		Email:    user.Email,
		Password: user.Password,
		Avatar:   user.Avatar,
		Date:     now(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = doc.ID.Hex()
	user.Date = doc.Date
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, store.ErrNotFound
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	return model.User{
		ID:       doc.ID.Hex(),
		Name:     doc.Name,
		Email:    doc.Email,
		Password: doc.Password,
		Avatar:   doc.Avatar,
		Date:     doc.Date,
	}, nil
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	doc := postDoc{
		ID:       bson.NewObjectID(),
		User:     post.User,
		Text:     post.Text,
		Name:     post.Name,
		Avatar:   post.Avatar,
		Likes:    []likeDoc{},
		Comments: []commentDoc{},
		Date:     now(),
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return err
	}
	*post = doc.toModel()
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.Post{}, store.ErrNotFound
	}
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	return doc.toModel(), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]model.Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toModel())
	}
	return posts, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) ([]model.Like, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	filter := bson.D{
		{Key: "_id", Value: oid},
		{Key: "likes.user", Value: bson.D{{Key: "$ne", Value: userID}}},
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "likes", Value: bson.D{
		{Key: "$each", Value: bson.A{likeDoc{User: userID}}},
		{Key: "$position", Value: 0},
	}}}}}
	doc, err := s.updatePost(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOr(ctx, oid, store.ErrAlreadyLiked)
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel().Likes, nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) ([]model.Like, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "likes.user", Value: userID}}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "likes", Value: bson.D{{Key: "user", Value: userID}}}}}}
	doc, err := s.updatePost(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.missOr(ctx, oid, store.ErrNotLiked)
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel().Likes, nil
}

func (s *Store) AddComment(ctx context.Context, postID string, comment *model.Comment) (model.Post, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return model.Post{}, store.ErrNotFound
	}
	c := commentDoc{
		ID:     bson.NewObjectID(),
		User:   comment.User,
		Text:   comment.Text,
		Name:   comment.Name,
		Avatar: comment.Avatar,
		Date:   now(),
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: bson.D{
		{Key: "$each", Value: bson.A{c}},
		{Key: "$position", Value: 0},
	}}}}}
	doc, err := s.updatePost(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Post{}, store.ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	comment.ID = c.ID.Hex()
	comment.Date = c.Date
	return doc.toModel(), nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) ([]model.Comment, error) {
	oid, err := bson.ObjectIDFromHex(postID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	cid, err := bson.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, store.ErrNotFound
	}
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "comments._id", Value: cid}}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "comments", Value: bson.D{{Key: "_id", Value: cid}}}}}}
	doc, err := s.updatePost(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel().Comments, nil
}

// updatePost applies update to the post matching filter and returns the
// document as it is after the update.
func (s *Store) updatePost(ctx context.Context, filter, update bson.D) (postDoc, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc postDoc
	err := s.posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	return doc, err
}

// missOr tells a missing post apart from a failed update precondition.
func (s *Store) missOr(ctx context.Context, oid bson.ObjectID, precondition error) error {
	n, err := s.posts.CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return precondition
}

func (d postDoc) toModel() model.Post {
	p := model.Post{
		ID:       d.ID.Hex(),
		User:     d.User,
		Text:     d.Text,
		Name:     d.Name,
		Avatar:   d.Avatar,
		Date:     d.Date,
		Likes:    make([]model.Like, 0, len(d.Likes)),
		Comments: make([]model.Comment, 0, len(d.Comments)),
	}
	for _, l := range d.Likes {
		p.Likes = append(p.Likes, model.Like{User: l.User})
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, model.Comment{
			ID:     c.ID.Hex(),
			User:   c.User,
			Text:   c.Text,
			Name:   c.Name,
			Avatar: c.Avatar,
			Date:   c.Date,
		})
	}
	return p
}
