package mongox

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kalkafox/ionia-img/internal/domain"
	"github.com/kalkafox/ionia-img/internal/shortid"
)

func TestHandleBSONRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()

	v := handleToBSON(domain.BlobHandle(oid.Hex()))
	_, isOID := v.(primitive.ObjectID)
	assert.True(t, isOID, "hex handles are stored as ObjectID")

	h, err := handleFromBSON(v)
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), h.String())

	v = handleToBSON("posts/abc")
	h, err = handleFromBSON(v)
	require.NoError(t, err)
	assert.Equal(t, "posts/abc", h.String())

	_, err = handleFromBSON(int32(7))
	assert.Error(t, err)
	_, err = handleFromBSON("")
	assert.Error(t, err)
}

// Интеграционный тест: нужен живой MongoDB в IONIA_TEST_MONGO_URL
func TestDuplicatePostIDsError(t *testing.T) {
	cause := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error collection: ionia-pw.posts index: posts_id_unique"}
	require.True(t, mongo.IsDuplicateKeyError(cause))

	err := errDuplicatePostIDs(cause)
	assert.Contains(t, err.Error(), `duplicate "id" values`)
	assert.Contains(t, err.Error(), "E11000")
	var ce mongo.CommandError
	assert.ErrorAs(t, err, &ce)
	assert.EqualValues(t, 11000, ce.Code)
}

func TestRepoIntegration(t *testing.T) {
	uri := os.Getenv("IONIA_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("IONIA_TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := log.New(io.Discard, "", 0)
	client, err := Connect(ctx, logger, uri)
	require.NoError(t, err)

	dbName := "ionia_test_" + mustID(t)
	repo, err := NewRepo(ctx, logger, client, dbName, true)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		repo.Close()
	})

	id := mustID(t)
	handle := domain.BlobHandle(primitive.NewObjectID().Hex())
	require.NoError(t, repo.CreatePost(ctx, domain.Post{ID: id, BlobHandle: handle, MIME: "text/plain", CreatedAt: time.Now()}))
	assert.ErrorIs(t, repo.CreatePost(ctx, domain.Post{ID: id, BlobHandle: "other", MIME: "x/y"}), domain.ErrConflict)

	got, err := repo.PostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, handle, got.BlobHandle)
	assert.Equal(t, "text/plain", got.MIME)

	_, err = repo.PostByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := repo.HasKey(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, repo.AddKey(ctx, "k1"))
	require.NoError(t, repo.AddKey(ctx, "k1"))
	ok, err = repo.HasKey(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := repo.SiteConfig(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, repo.SetURLPrefix(ctx, "https://x.test"))
	cfg, found, err := repo.SiteConfig(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://x.test", cfg.URLPrefix)
}

func mustID(t *testing.T) string {
	t.Helper()
	id, err := shortid.New(8)
	require.NoError(t, err)
	return id
}

func TestNewRepoRejectsDuplicateLegacyIDs(t *testing.T) {
	uri := os.Getenv("IONIA_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("IONIA_TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := log.New(io.Discard, "", 0)
	client, err := Connect(ctx, logger, uri)
	require.NoError(t, err)
	dbName := "ionia_test_" + mustID(t)
	t.Cleanup(func() {
		_ = client.Database(dbName).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	posts := client.Database(dbName).Collection(collPosts)
	_, err = posts.InsertMany(ctx, []any{
		postItem{PostID: "dupdupdupdupdup1", BucketID: "a", MimeType: "text/plain"},
		postItem{PostID: "dupdupdupdupdup1", BucketID: "b", MimeType: "text/plain"},
	})
	require.NoError(t, err)

	_, err = NewRepo(ctx, logger, client, dbName, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate "id" values`)
}
