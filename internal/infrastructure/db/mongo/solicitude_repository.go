package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neocdt/cdt-bank-api/internal/core/domain"
	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

const collectionSolicitudes = "solicitudes_cdt"

// SolicitudeRepository implements ports.SolicitudeRepository on MongoDB.
type SolicitudeRepository struct {
	col *mongo.Collection
}

func NewSolicitudeRepository(db *mongo.Database) *SolicitudeRepository {
	return &SolicitudeRepository{col: db.Collection(collectionSolicitudes)}
}

// mongoSolicitude is the wire schema of a solicitude document. Field names
// follow the original collection layout; the mapping to domain types happens
// only here.
type mongoSolicitude struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UsuarioID     primitive.ObjectID `bson:"usuario_id"`
	Monto         int64              `bson:"monto"`
	PlazoMeses    int                `bson:"plazo_meses"`
	Tasa          float64            `bson:"tasa"`
	Estado        string             `bson:"estado"`
	FechaCreacion time.Time          `bson:"fechaCreacion"`
	FechaActual   time.Time          `bson:"fechaActualizacion"`
	RazonCancel   string             `bson:"razon_cancelacion,omitempty"`
	MotivoRechazo string             `bson:"motivo_rechazo,omitempty"`
	Eliminada     bool               `bson:"eliminada"`
	FechaElim     *time.Time         `bson:"fechaEliminacion,omitempty"`
}

func toDomain(m *mongoSolicitude) *domain.Solicitude {
	return &domain.Solicitude{
		ID:           m.ID.Hex(),
		OwnerID:      m.UsuarioID.Hex(),
		Amount:       m.Monto,
		TermMonths:   m.PlazoMeses,
		Rate:         m.Tasa,
		State:        domain.SolicitudeState(m.Estado),
		CreatedAt:    m.FechaCreacion,
		UpdatedAt:    m.FechaActual,
		CancelReason: m.RazonCancel,
		RejectMotive: m.MotivoRechazo,
		Deleted:      m.Eliminada,
		DeletedAt:    m.FechaElim,
	}
}

// objectID parses a hex id, mapping malformed input to domain.ErrInvalidID.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

// Insert persists a new solicitude and assigns its id.
func (r *SolicitudeRepository) Insert(ctx context.Context, s *domain.Solicitude) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ownerID, err := objectID(s.OwnerID)
	if err != nil {
		return err
	}

	doc := mongoSolicitude{
		ID:            primitive.NewObjectID(),
		UsuarioID:     ownerID,
		Monto:         s.Amount,
		PlazoMeses:    s.TermMonths,
		Tasa:          s.Rate,
		Estado:        string(s.State),
		FechaCreacion: s.CreatedAt,
		FechaActual:   s.UpdatedAt,
		Eliminada:     false,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return err
	}
	s.ID = doc.ID.Hex()
	return nil
}

// FindByID retrieves a solicitude by id, soft-deleted included. When ownerID
// is non-empty an additional usuario_id filter is applied, so a record owned
// by someone else is indistinguishable from a missing one.
func (r *SolicitudeRepository) FindByID(ctx context.Context, id string, ownerID string) (*domain.Solicitude, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid}
	if ownerID != "" {
		owner, err := objectID(ownerID)
		if err != nil {
			return nil, err
		}
		filter["usuario_id"] = owner
	}

	var m mongoSolicitude
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSolicitudeNotFound
		}
		return nil, err
	}
	return toDomain(&m), nil
}

// List returns one page of non-deleted solicitudes plus the total count,
// ordered by fechaCreacion descending with _id ascending as the
// deterministic tie-break.
func (r *SolicitudeRepository) List(ctx context.Context, f ports.ListSolicitudesFilter) ([]*domain.Solicitude, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"eliminada": bson.M{"$ne": true}}

	if f.OwnerID != "" {
		owner, err := objectID(f.OwnerID)
		if err != nil {
			return nil, 0, err
		}
		filter["usuario_id"] = owner
	}
	var estado []bson.M
	if f.State != "" {
		estado = append(estado, bson.M{"estado": string(f.State)})
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lte"] = f.To
	}
	if len(created) > 0 {
		filter["fechaCreacion"] = created
	}
	if f.MinAmount > 0 {
		filter["monto"] = bson.M{"$gte": f.MinAmount}
	}
	if f.Search != "" {
		// Narrow full-text substitute: the estado field only.
		estado = append(estado, bson.M{"estado": bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}})
	}
	switch len(estado) {
	case 1:
		for k, v := range estado[0] {
			filter[k] = v
		}
	case 2:
		filter["$and"] = estado
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "fechaCreacion", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Solicitude
	for cursor.Next(ctx) {
		var m mongoSolicitude
		if err := cursor.Decode(&m); err != nil {
			return nil, 0, err
		}
		out = append(out, toDomain(&m))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListReviewable returns the agent queue: non-deleted solicitudes in
// borrador or en_validacion.
func (r *SolicitudeRepository) ListReviewable(ctx context.Context) ([]*domain.Solicitude, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"estado":    bson.M{"$in": []string{string(domain.StateDraft), string(domain.StateInReview)}},
		"eliminada": bson.M{"$ne": true},
	}
	opts := options.Find().SetSort(bson.D{{Key: "fechaCreacion", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Solicitude
	for cursor.Next(ctx) {
		var m mongoSolicitude
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, toDomain(&m))
	}
	return out, cursor.Err()
}

// UpdateDraft patches monto/plazo/tasa only while the document is still an
// owned, non-deleted borrador. The guard lives in the filter so the check
// and the write are one atomic operation.
func (r *SolicitudeRepository) UpdateDraft(ctx context.Context, id, ownerID string, patch ports.DraftPatch) (*domain.Solicitude, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"tasa":               patch.Rate,
		"fechaActualizacion": patch.Now,
	}
	if patch.Amount != nil {
		set["monto"] = *patch.Amount
	}
	if patch.TermMonths != nil {
		set["plazo_meses"] = *patch.TermMonths
	}

	filter := bson.M{
		"_id":        oid,
		"usuario_id": owner,
		"estado":     string(domain.StateDraft),
		"eliminada":  bson.M{"$ne": true},
	}

	var m mongoSolicitude
	err = r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotEditable
		}
		return nil, err
	}
	return toDomain(&m), nil
}

// ApplyStateChange performs the conditional transition as one atomic update:
// the filter encodes the allowed prior states (and the owner when given).
// The pre-update document is returned so callers can report estado_anterior.
func (r *SolicitudeRepository) ApplyStateChange(ctx context.Context, ch ports.StateChange) (*domain.Solicitude, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(ch.ID)
	if err != nil {
		return nil, err
	}

	from := make([]string, len(ch.From))
	for i, s := range ch.From {
		from[i] = string(s)
	}

	filter := bson.M{
		"_id":       oid,
		"estado":    bson.M{"$in": from},
		"eliminada": bson.M{"$ne": true},
	}
	if ch.OwnerID != "" {
		owner, err := objectID(ch.OwnerID)
		if err != nil {
			return nil, err
		}
		filter["usuario_id"] = owner
	}

	set := bson.M{
		"estado":             string(ch.To),
		"fechaActualizacion": ch.Now,
	}
	if ch.CancelReason != "" {
		set["razon_cancelacion"] = ch.CancelReason
	}
	if ch.RejectMotive != "" {
		set["motivo_rechazo"] = ch.RejectMotive
	}

	var m mongoSolicitude
	err = r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSolicitudeNotFound
		}
		return nil, err
	}
	return toDomain(&m), nil
}

// SoftDelete flips the visibility flag on an owned record. State is left
// untouched.
func (r *SolicitudeRepository) SoftDelete(ctx context.Context, id, ownerID string, now time.Time) (*domain.Solicitude, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":        oid,
		"usuario_id": owner,
		"eliminada":  bson.M{"$ne": true},
	}
	update := bson.M{"$set": bson.M{
		"eliminada":          true,
		"fechaEliminacion":   now,
		"fechaActualizacion": now,
	}}

	var m mongoSolicitude
	err = r.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSolicitudeNotFound
		}
		return nil, err
	}
	return toDomain(&m), nil
}

// SweepExpiredDrafts escalates every non-deleted draft created at or before
// cutoff. One UpdateMany keeps the operation idempotent and safe against
// concurrent per-solicitude transitions: a draft a user just submitted or
// cancelled no longer matches the filter.
func (r *SolicitudeRepository) SweepExpiredDrafts(ctx context.Context, cutoff, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"estado":        string(domain.StateDraft),
		"fechaCreacion": bson.M{"$lte": cutoff},
		"eliminada":     bson.M{"$ne": true},
	}
	update := bson.M{"$set": bson.M{
		"estado":             string(domain.StateInReview),
		"fechaActualizacion": now,
	}}

	res, err := r.col.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates the indexes the list and sweep paths rely on.
func (r *SolicitudeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "usuario_id", Value: 1}}},
		{Keys: bson.D{{Key: "estado", Value: 1}}},
		{Keys: bson.D{{Key: "fechaCreacion", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
