// Package mongox: хранилище метаданных поверх MongoDB (коллекции posts, config, keys).
package mongox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kalkafox/ionia-img/internal/domain"
)

const (
	collPosts  = "posts"
	collConfig = "config"
	collKeys   = "keys"
)

type Repo struct {
	logger *log.Logger
	client *mongo.Client
	posts  *mongo.Collection
	config *mongo.Collection
	keys   *mongo.Collection
	// ownsClient: Close отключает клиента только если он не разделяется с GridFS
	ownsClient bool
}

var _ domain.Repo = (*Repo)(nil)

// postItem: документ в коллекции posts.
// bucket_id хранится как ObjectID, если handle им является (GridFS), иначе строкой.
type postItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PostID    string             `bson:"id"`
	BucketID  any                `bson:"bucket_id"`
	MimeType  string             `bson:"mime_type"`
	SizeBytes int64              `bson:"size_bytes,omitempty"`
	CreatedAt time.Time          `bson:"created_at,omitempty"`
}

type configItem struct {
	URLPrefix string `bson:"url_prefix"`
}

type keyItem struct {
	Key string `bson:"key"`
}

func NewRepo(ctx context.Context, logger *log.Logger, client *mongo.Client, dbName string, ownsClient bool) (*Repo, error) {
	db := client.Database(dbName)
	r := &Repo{
		logger:     logger,
		client:     client,
		posts:      db.Collection(collPosts),
		config:     db.Collection(collConfig),
		keys:       db.Collection(collKeys),
		ownsClient: ownsClient,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureIndexes: уникальность posts.id проверяет сама база, это последний рубеж против коллизий id.
func (r *Repo) ensureIndexes(ctx context.Context) error {
	r.logger.Println("ensuring indexes...")
	_, err := r.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("posts_id_unique"),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Printf("posts contain duplicate id values, unique index not built: %v", err)
			return errDuplicatePostIDs(err)
		}
		return fmt.Errorf("create posts index: %w", err)
	}
	_, err = r.keys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetName("keys_key"),
	})
	if err != nil {
		return fmt.Errorf("create keys index: %w", err)
	}
	r.logger.Println("indexes ok")
	return nil
}

// errDuplicatePostIDs: старые данные с повторяющимися id; без чистки индекс не построить
func errDuplicatePostIDs(err error) error {
	return fmt.Errorf("create posts index: collection %q has duplicate \"id\" values, "+
		"remove or rename the duplicates (see db.%s.aggregate([{$group:{_id:\"$id\",n:{$sum:1}}},{$match:{n:{$gt:1}}}])): %w",
		collPosts, collPosts, err)
}

func (r *Repo) CreatePost(ctx context.Context, p domain.Post) error {
	item := postItem{
		PostID:    p.ID,
		BucketID:  handleToBSON(p.BlobHandle),
		MimeType:  p.MIME,
		SizeBytes: p.SizeBytes,
		CreatedAt: p.CreatedAt.UTC(),
	}

	start := time.Now()
	if _, err := r.posts.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Printf("CreatePost duplicate id=%s", p.ID)
			return domain.ErrConflict
		}
		r.logger.Printf("CreatePost error after %s: %v", time.Since(start), err)
		return fmt.Errorf("insert post: %w", err)
	}
	r.logger.Printf("CreatePost ok in %s id=%s", time.Since(start), p.ID)
	return nil
}

func (r *Repo) PostByID(ctx context.Context, id domain.PostID) (domain.Post, error) {
	var item postItem
	start := time.Now()
	err := r.posts.FindOne(ctx, bson.M{"id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, domain.ErrNotFound
		}
		r.logger.Printf("PostByID error after %s: %v", time.Since(start), err)
		return domain.Post{}, fmt.Errorf("find post: %w", err)
	}

	handle, err := handleFromBSON(item.BucketID)
	if err != nil {
		// битая запись не должна валить процесс: отдаём ошибку только этому запросу
		r.logger.Printf("PostByID malformed record id=%s: %v", id, err)
		return domain.Post{}, fmt.Errorf("post %s: %w", id, err)
	}
	return domain.Post{
		ID:         item.PostID,
		BlobHandle: handle,
		MIME:       item.MimeType,
		SizeBytes:  item.SizeBytes,
		CreatedAt:  item.CreatedAt,
	}, nil
}

func (r *Repo) PostExists(ctx context.Context, id domain.PostID) (bool, error) {
	n, err := r.posts.CountDocuments(ctx, bson.M{"id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count posts: %w", err)
	}
	return n > 0, nil
}

func (r *Repo) HasKey(ctx context.Context, key string) (bool, error) {
	var item keyItem
	err := r.keys.FindOne(ctx, bson.M{"key": key}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("find key: %w", err)
	}
	return true, nil
}

func (r *Repo) AddKey(ctx context.Context, key string) error {
	_, err := r.keys.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$setOnInsert": keyItem{Key: key}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert key: %w", err)
	}
	return nil
}

// SiteConfig читает первый документ коллекции config
func (r *Repo) SiteConfig(ctx context.Context) (domain.SiteConfig, bool, error) {
	var item configItem
	err := r.config.FindOne(ctx, bson.D{}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SiteConfig{}, false, nil
		}
		return domain.SiteConfig{}, false, fmt.Errorf("find config: %w", err)
	}
	return domain.SiteConfig{URLPrefix: item.URLPrefix}, true, nil
}

func (r *Repo) SetURLPrefix(ctx context.Context, prefix string) error {
	_, err := r.config.UpdateOne(ctx,
		bson.D{},
		bson.M{"$set": bson.M{"url_prefix": prefix}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert config: %w", err)
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		r.logger.Printf("ping failed: %v", err)
		return err
	}
	return nil
}

func (r *Repo) Close() {
	if !r.ownsClient {
		return
	}
	r.logger.Println("disconnecting...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Disconnect(ctx); err != nil {
		r.logger.Printf("disconnect: %v", err)
		return
	}
	r.logger.Println("disconnected")
}

func handleToBSON(h domain.BlobHandle) any {
	if oid, err := primitive.ObjectIDFromHex(h.String()); err == nil {
		return oid
	}
	return h.String()
}

func handleFromBSON(v any) (domain.BlobHandle, error) {
	switch x := v.(type) {
	case primitive.ObjectID:
		return domain.BlobHandle(x.Hex()), nil
	case string:
		if x == "" {
			return "", errors.New("empty bucket_id")
		}
		return domain.BlobHandle(x), nil
	default:
		return "", fmt.Errorf("unexpected bucket_id type %T", v)
	}
}
