package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shop-scraper/models"
)

// MongoWriter mirrors a dataset into one collection per kind.
type MongoWriter struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoWriter connects to uri and pings the server.
func NewMongoWriter(uri, database string) (*MongoWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoWriter{client: client, db: client.Database(database)}, nil
}

func (m *MongoWriter) Name() string { return "mongodb" }

// Write drops the previous run's documents and inserts the current ones.
func (m *MongoWriter) Write(ds *models.Dataset) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for name, docs := range mongoDocuments(ds) {
		coll := m.db.Collection(name)
		if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("mongodb clear %s: %w", name, err)
		}
		if len(docs) == 0 {
			continue
		}
		if _, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
			return fmt.Errorf("mongodb insert %s: %w", name, err)
		}
	}
	return nil
}

// mongoDocuments keys each collection name to its documents. A position
// field keeps collection order queryable.
func mongoDocuments(ds *models.Dataset) map[string][]any {
	products := make([]any, len(ds.Products))
	for i, p := range ds.Products {
		products[i] = bson.D{{Key: "position", Value: i}, {Key: "title", Value: p.Title}, {Key: "price", Value: p.Price}}
	}
	testimonials := make([]any, len(ds.Testimonials))
	for i, t := range ds.Testimonials {
		testimonials[i] = bson.D{{Key: "position", Value: i}, {Key: "text", Value: t.Text}, {Key: "rating", Value: t.Rating}}
	}
	reviews := make([]any, len(ds.Reviews))
	for i, r := range ds.Reviews {
		doc := bson.D{
			{Key: "position", Value: i},
			{Key: "date", Value: r.Date},
			{Key: "text", Value: r.Text},
			{Key: "rating", Value: r.Rating},
		}
		if r.Enriched() {
			doc = append(doc,
				bson.E{Key: "sentiment_label", Value: string(r.SentimentLabel)},
				bson.E{Key: "confidence", Value: r.Confidence})
		}
		reviews[i] = doc
	}
	return map[string][]any{
		"products":     products,
		"testimonials": testimonials,
		"reviews":      reviews,
	}
}

func (m *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
