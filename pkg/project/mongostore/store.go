// Package mongostore serves the portfolio document from a MongoDB collection.
//
// Each project is one document. A "position" field keeps the list order,
// which the arrow-key navigation depends on.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/collage/pkg/errors"
	"github.com/matzehuels/collage/pkg/project"
)

const connectTimeout = 10 * time.Second

// record is the stored form of a project.
type record struct {
	Position        int `bson:"position"`
	project.Project `bson:",inline"`
}

// Store implements [project.Source] over a collection.
type Store struct {
	coll   *mongo.Collection
	client *mongo.Client
}

// Connect dials uri and returns a store for db.collection.
func Connect(ctx context.Context, uri, db, collection string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := New(client.Database(db).Collection(collection))
	s.client = client
	return s, nil
}

// New wraps an existing collection. The caller keeps ownership of its client.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Load reads every project ordered by position and validates the result.
func (s *Store) Load(ctx context.Context) (*project.Document, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cur.Close(ctx)

	var records []record
	if err := cur.All(ctx, &records); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDocument, err, "decode projects")
	}

	doc := &project.Document{Projects: make([]project.Project, 0, len(records))}
	for _, r := range records {
		if r.Images == nil {
			r.Images = []string{}
		}
		doc.Projects = append(doc.Projects, r.Project)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Replace validates doc and swaps the collection contents for it.
func (s *Store) Replace(ctx context.Context, doc *project.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear projects: %w", err)
	}
	if len(doc.Projects) == 0 {
		return nil
	}

	docs := make([]any, len(doc.Projects))
	for i, p := range doc.Projects {
		docs[i] = record{Position: i, Project: p}
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert projects: %w", err)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ project.Source = (*Store)(nil)
