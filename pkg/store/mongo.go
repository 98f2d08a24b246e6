package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// DefaultMongoDatabase is the database used when a URI names none.
const DefaultMongoDatabase = "memefactory"

const mongoCollection = "memes"

// MongoStore keeps memes in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and ensures the collection's indexes. An empty
// database means [DefaultMongoDatabase].
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}

	s := &MongoStore{client: client, coll: client.Database(database).Collection(mongoCollection)}
	_, err = s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "votes", Value: -1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create mongo indexes")
	}
	return s, nil
}

func (s *MongoStore) Save(ctx context.Context, m *Meme) error {
	if err := prepare(m); err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save meme")
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]Meme, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	order := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	if opts.Sort == SortTop {
		order = append(bson.D{{Key: "votes", Value: -1}}, order...)
	}
	find := options.Find().
		SetSort(order).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))

	cur, err := s.coll.Find(ctx, bson.D{}, find)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list memes")
	}
	out := make([]Meme, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode memes")
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Meme, error) {
	var m Meme
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&m)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get meme")
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (s *MongoStore) Vote(ctx context.Context, id string, delta int) (int, error) {
	var m Meme
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "votes", Value: delta}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return 0, notFound(id)
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "vote")
	}
	return m.Votes, nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "count memes")
	}
	return int(n), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// drop removes the collection. Tests use it to start clean.
func (s *MongoStore) drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}
