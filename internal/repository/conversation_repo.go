package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"neon-nexus/internal/domain"
)

var (
	// ErrInvalidID indica una referencia que no es un ObjectID válido.
	ErrInvalidID = errors.New("invalid document id")
	// ErrNotFound indica que el documento no existe para ese filtro.
	ErrNotFound = errors.New("document not found")
)

// ConversationRepository define el contrato de persistencia para conversaciones.
type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) (string, error)
	GetByIDAndOwner(ctx context.Context, id, ownerEmail string) (domain.Conversation, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]domain.ConversationSummary, error)
	TouchUpdatedAt(ctx context.Context, id string) error
}

type conversationDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserEmail string        `bson:"user_email"`
	Title     string        `bson:"title"`
	CreatedAt bson.DateTime `bson:"created_at"`
	UpdatedAt bson.DateTime `bson:"updated_at"`
}

// MongoConversationRepository implementa ConversationRepository sobre la
// colección "conversations".
type MongoConversationRepository struct {
	coll *mongo.Collection
}

func NewMongoConversationRepository(database *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{coll: database.Collection("conversations")}
}

func (r *MongoConversationRepository) Create(ctx context.Context, conv domain.Conversation) (string, error) {
	doc := conversationDoc{
		UserEmail: conv.UserEmail,
		Title:     conv.Title,
		CreatedAt: bson.NewDateTimeFromTime(conv.CreatedAt),
		UpdatedAt: bson.NewDateTimeFromTime(conv.UpdatedAt),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// GetByIDAndOwner resuelve existencia y pertenencia en una sola consulta:
// un id ajeno y un id inexistente son indistinguibles para el caller.
func (r *MongoConversationRepository) GetByIDAndOwner(ctx context.Context, id, ownerEmail string) (domain.Conversation, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.Conversation{}, ErrNotFound
	}

	var doc conversationDoc
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "user_email", Value: ownerEmail}}
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Conversation{}, ErrNotFound
		}
		return domain.Conversation{}, fmt.Errorf("find conversation: %w", err)
	}

	return domain.Conversation{
		ID:        doc.ID.Hex(),
		UserEmail: doc.UserEmail,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt.Time().UTC(),
		UpdatedAt: doc.UpdatedAt.Time().UTC(),
	}, nil
}

// ListByOwner devuelve solo id y título, ordenado por _id descendente:
// los ObjectID crecen con la creación, así que lo más nuevo va primero.
func (r *MongoConversationRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]domain.ConversationSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetProjection(bson.D{{Key: "title", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "user_email", Value: ownerEmail}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []domain.ConversationSummary{}
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode conversation: %w", err)
		}
		summaries = append(summaries, domain.ConversationSummary{
			ID:    doc.ID.Hex(),
			Title: doc.Title,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return summaries, nil
}

func (r *MongoConversationRepository) TouchUpdatedAt(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "updated_at", Value: bson.NewDateTimeFromTime(time.Now().UTC())}}}}
	_, err = r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
