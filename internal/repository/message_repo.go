package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"neon-nexus/internal/domain"
)

// MessageRepository define el contrato de persistencia para mensajes.
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) (string, error)
	ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error)
}

type messageDoc struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	ConversationID bson.ObjectID `bson:"conversation_id"`
	Role           string        `bson:"role"`
	Content        string        `bson:"content"`
	CreatedAt      bson.DateTime `bson:"created_at"`
}

// MongoMessageRepository implementa MessageRepository sobre la colección
// "messages".
type MongoMessageRepository struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(database *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{coll: database.Collection("messages")}
}

func (r *MongoMessageRepository) Create(ctx context.Context, message domain.Message) (string, error) {
	oid, err := bson.ObjectIDFromHex(message.ConversationID)
	if err != nil {
		return "", ErrInvalidID
	}

	doc := messageDoc{
		ConversationID: oid,
		Role:           message.Role,
		Content:        message.Content,
		CreatedAt:      bson.NewDateTimeFromTime(message.CreatedAt),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

func (r *MongoMessageRepository) ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	oid, err := bson.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, ErrInvalidID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "conversation_id", Value: oid}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, domain.Message{
			ID:             doc.ID.Hex(),
			ConversationID: doc.ConversationID.Hex(),
			Role:           doc.Role,
			Content:        doc.Content,
			CreatedAt:      doc.CreatedAt.Time().UTC(),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
