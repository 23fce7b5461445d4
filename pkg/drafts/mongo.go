package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civisense/pkg/complaint"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "complaint_drafts"
	opTimeout      = 5 * time.Second
)

// FieldCipher seals contact fields before they are written.
type FieldCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// MongoStore keeps forms in MongoDB. Contact details are stored encrypted
// and forms expire through a TTL index on updated_at.
type MongoStore struct {
	coll   *mongo.Collection
	cipher FieldCipher
	ttl    time.Duration
}

func NewMongoStore(db *mongo.Database, cipher FieldCipher, ttl time.Duration) *MongoStore {
	return &MongoStore{
		coll:   db.Collection(collectionName),
		cipher: cipher,
		ttl:    ttl,
	}
}

// EnsureIndexes creates the expiry index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("draft_ttl").SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create draft ttl index: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, f *complaint.Form) error {
	doc, err := s.seal(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*complaint.Form, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc complaint.Form
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, complaint.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return s.open(&doc)
}

func (s *MongoStore) Save(ctx context.Context, f *complaint.Form) error {
	doc, err := s.seal(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": f.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if res.MatchedCount == 0 {
		return complaint.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// seal returns a copy of f with contact fields encrypted.
func (s *MongoStore) seal(f *complaint.Form) (*complaint.Form, error) {
	doc := clone(f)
	for _, field := range contactFields(&doc.Draft) {
		v, err := s.cipher.EncryptString(*field)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt contact details: %w", err)
		}
		*field = v
	}
	return doc, nil
}

func (s *MongoStore) open(doc *complaint.Form) (*complaint.Form, error) {
	for _, field := range contactFields(&doc.Draft) {
		v, err := s.cipher.DecryptString(*field)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt contact details: %w", err)
		}
		*field = v
	}
	return doc, nil
}

func contactFields(d *complaint.Draft) []*string {
	return []*string{&d.Name, &d.Phone, &d.Email}
}
