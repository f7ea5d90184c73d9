package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gogotex/widgets/internal/widget"
)

// codeNamespaceExists is returned by createCollection for an existing collection.
const codeNamespaceExists = 48

// mongoWidget is the stored shape: the widget fields inline (id as _id) plus
// an _etag rotated on every write so replaces can be made conditional.
type mongoWidget struct {
	widget.Widget `bson:",inline"`
	ETag          string `bson:"_etag"`
}

func (d mongoWidget) record() *Record {
	return &Record{Widget: d.Widget, ETag: d.ETag}
}

func newMongoWidget(w widget.Widget) mongoWidget {
	return mongoWidget{Widget: w, ETag: uuid.NewString()}
}

// ConnectMongo opens a connection and verifies it with a ping. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// MongoRepo implements Store on a MongoDB collection.
type MongoRepo struct {
	db         *mongo.Database
	collection string
}

func NewMongoRepo(db *mongo.Database, collection string) *MongoRepo {
	return &MongoRepo{db: db, collection: collection}
}

func (m *MongoRepo) col() *mongo.Collection {
	return m.db.Collection(m.collection)
}

// EnsureDatabase reports whether the database was missing. MongoDB creates
// databases lazily, so the database materializes with EnsureContainer.
func (m *MongoRepo) EnsureDatabase(ctx context.Context) (bool, error) {
	names, err := m.db.Client().ListDatabaseNames(ctx, bson.M{"name": m.db.Name()})
	if err != nil {
		return false, fmt.Errorf("list databases: %w", err)
	}
	return len(names) == 0, nil
}

func (m *MongoRepo) EnsureContainer(ctx context.Context) (bool, error) {
	err := m.db.CreateCollection(ctx, m.collection)
	if err == nil {
		return true, nil
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
		return false, nil
	}
	return false, fmt.Errorf("create collection %s: %w", m.collection, err)
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

func (m *MongoRepo) List(ctx context.Context) ([]widget.Widget, error) {
	cur, err := m.col().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find widgets: %w", err)
	}
	defer cur.Close(ctx)
	out := []widget.Widget{}
	for cur.Next(ctx) {
		var d mongoWidget
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode widget: %w", err)
		}
		out = append(out, d.record().Widget)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate widgets: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*Record, error) {
	var d mongoWidget
	err := m.col().FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find widget %s: %w", id, err)
	}
	return d.record(), nil
}

func (m *MongoRepo) Create(ctx context.Context, w widget.Widget) (*Record, error) {
	d := newMongoWidget(w)
	if _, err := m.col().InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert widget %s: %w", w.ID, err)
	}
	return d.record(), nil
}

func (m *MongoRepo) Replace(ctx context.Context, w widget.Widget, ifMatch string) (*Record, error) {
	filter := bson.M{"_id": w.ID}
	if ifMatch != "" {
		filter["_etag"] = ifMatch
	}
	d := newMongoWidget(w)
	res, err := m.col().ReplaceOne(ctx, filter, d)
	if err != nil {
		return nil, fmt.Errorf("replace widget %s: %w", w.ID, err)
	}
	if res.MatchedCount == 0 {
		if ifMatch == "" {
			return nil, ErrNotFound
		}
		n, err := m.col().CountDocuments(ctx, bson.M{"_id": w.ID})
		if err != nil {
			return nil, fmt.Errorf("count widget %s: %w", w.ID, err)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrPreconditionFailed
	}
	return d.record(), nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete widget %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*MongoRepo)(nil)
