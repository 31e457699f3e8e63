package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
)

const (
	collectionClients = "usuarios"
	collectionAgents  = "agentes"
)

// UserRepository implements ports.UserRepository across the two identity
// collections.
type UserRepository struct {
	clients *mongo.Collection
	agents  *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		clients: db.Collection(collectionClients),
		agents:  db.Collection(collectionAgents),
	}
}

type mongoUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Nombre        string             `bson:"nombre"`
	Correo        string             `bson:"correo"`
	Contrasena    string             `bson:"contraseña"`
	Telefono      string             `bson:"telefono,omitempty"`
	Rol           string             `bson:"rol,omitempty"`
	Activo        *bool              `bson:"activo,omitempty"`
	FechaCreacion time.Time          `bson:"fechaCreacion,omitempty"`
}

// userFromDoc maps a raw identity document to the domain type. The default
// role is an explicit rule, not a property of optional-field access:
// documents from usuarios are always cliente; documents from agentes with no
// rol field default to agente. A missing activo flag means active.
func userFromDoc(m *mongoUser, fallbackRole string) *domain.User {
	role := m.Rol
	if fallbackRole == domain.RoleClient {
		role = domain.RoleClient
	} else if role == "" {
		role = fallbackRole
	}

	active := true
	if m.Activo != nil {
		active = *m.Activo
	}

	return &domain.User{
		ID:           m.ID.Hex(),
		Name:         m.Nombre,
		Email:        m.Correo,
		PasswordHash: m.Contrasena,
		Phone:        m.Telefono,
		Role:         role,
		Active:       active,
		CreatedAt:    m.FechaCreacion,
	}
}

// FindByEmail looks the account up in usuarios first, then agentes.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoUser
	err := r.clients.FindOne(ctx, bson.M{"correo": email}).Decode(&m)
	if err == nil {
		return userFromDoc(&m, domain.RoleClient), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find client: %w", err)
	}

	err = r.agents.FindOne(ctx, bson.M{"correo": email}).Decode(&m)
	if err == nil {
		return userFromDoc(&m, domain.RoleAgent), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find agent: %w", err)
	}
	return nil, domain.ErrUserNotFound
}

// FindByID resolves a token subject across both collections.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var m mongoUser
	err = r.clients.FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if err == nil {
		return userFromDoc(&m, domain.RoleClient), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find client: %w", err)
	}

	err = r.agents.FindOne(ctx, bson.M{"_id": oid}).Decode(&m)
	if err == nil {
		return userFromDoc(&m, domain.RoleAgent), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find agent: %w", err)
	}
	return nil, domain.ErrUserNotFound
}

// CreateClient inserts a new account into usuarios.
func (r *UserRepository) CreateClient(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	active := user.Active
	doc := mongoUser{
		ID:            primitive.NewObjectID(),
		Nombre:        user.Name,
		Correo:        user.Email,
		Contrasena:    user.PasswordHash,
		Telefono:      user.Phone,
		Activo:        &active,
		FechaCreacion: user.CreatedAt,
	}

	if _, err := r.clients.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}

	created := *user
	created.ID = doc.ID.Hex()
	created.Role = domain.RoleClient
	return &created, nil
}

// EnsureIndexes enforces correo uniqueness on both identity collections.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "correo", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	if _, err := r.clients.Indexes().CreateOne(ctx, unique); err != nil {
		return err
	}
	_, err := r.agents.Indexes().CreateOne(ctx, unique)
	return err
}
