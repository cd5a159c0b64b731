package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stemsi/recordclean/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecordRepository reads and rewrites record documents in one collection.
type MongoRecordRepository struct {
	coll *mongo.Collection
}

func NewMongoRecordRepository(db *mongo.Database, collection string) *MongoRecordRepository {
	return &MongoRecordRepository{coll: db.Collection(collection)}
}

type mongoRecord struct {
	ID        bson.RawValue    `bson:"_id"`
	UserID    bson.RawValue    `bson:"userId"`
	Semesters []model.Semester `bson:"semesters"`
}

func (r *MongoRecordRepository) Name() string {
	return r.coll.Name()
}

// FetchAll returns every record in natural order. Documents that cannot be
// decoded are reported as skipped instead of failing the scan.
func (r *MongoRecordRepository) FetchAll(ctx context.Context) ([]model.Record, []model.SkippedRecord, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, nil, fmt.Errorf("find %s: %w", r.coll.Name(), err)
	}
	defer cur.Close(ctx)

	var (
		records []model.Record
		skipped []model.SkippedRecord
	)
	for cur.Next(ctx) {
		rec, err := decodeMongoRecord(cur.Current)
		if err != nil {
			skipped = append(skipped, model.SkippedRecord{
				RecordID: rawString(cur.Current.Lookup("_id")),
				Reason:   err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", r.coll.Name(), err)
	}
	return records, skipped, nil
}

// decodeMongoRecord decodes one stored document. The raw semesters array is
// kept as the record's revision; raw is owned by the cursor, so it is copied.
func decodeMongoRecord(raw bson.Raw) (model.Record, error) {
	var doc mongoRecord
	if err := model.UnmarshalPayload(raw, &doc); err != nil {
		return model.Record{}, err
	}

	rec := model.Record{
		ID:        rawString(doc.ID),
		UserID:    rawString(doc.UserID),
		Semesters: doc.Semesters,
	}
	if sem, err := raw.LookupErr("semesters"); err == nil && sem.Type == bson.TypeArray {
		rec.Revision = bytes.Clone(sem.Value)
	}
	return rec, nil
}

// ReplaceSemesters sets the semesters field of one record and reports
// whether the document actually changed. With a revision the write only
// matches while the stored array is byte-for-byte the one that was read.
// A record that already holds the new semesters reports false; one that
// changed in any other way returns ErrStaleRecord and is left untouched.
func (r *MongoRecordRepository) ReplaceSemesters(ctx context.Context, id string, revision []byte, semesters []model.Semester) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		replaceFilter(id, revision),
		bson.D{{Key: "$set", Value: bson.D{{Key: "semesters", Value: semestersOrEmpty(semesters)}}}},
	)
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", r.coll.Name(), id, err)
	}
	return replaceOutcome(res, func() (storedState, error) {
		return r.inspect(ctx, id, semesters)
	})
}

func (r *MongoRecordRepository) inspect(ctx context.Context, id string, want []model.Semester) (storedState, error) {
	raw, err := r.coll.FindOne(ctx,
		bson.D{{Key: "_id", Value: objectIDOrString(id)}},
		options.FindOne().SetProjection(bson.D{{Key: "semesters", Value: 1}}),
	).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return stateMissing, nil
	}
	if err != nil {
		return stateMissing, fmt.Errorf("check %s/%s: %w", r.coll.Name(), id, err)
	}

	current, err := decodeMongoRecord(raw)
	if err != nil {
		return stateChanged, nil
	}
	same, err := sameSemesters(current.Semesters, want)
	if err != nil {
		return stateMissing, err
	}
	if same {
		return stateClean, nil
	}
	return stateChanged, nil
}

// Insert stores a new record and returns its id.
func (r *MongoRecordRepository) Insert(ctx context.Context, rec model.Record) (string, error) {
	doc := bson.D{
		{Key: "userId", Value: objectIDOrString(rec.UserID)},
		{Key: "semesters", Value: rec.Semesters},
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", r.coll.Name(), err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func replaceFilter(id string, revision []byte) bson.D {
	filter := bson.D{{Key: "_id", Value: objectIDOrString(id)}}
	if revision != nil {
		filter = append(filter, bson.E{Key: "semesters", Value: bson.RawValue{Type: bson.TypeArray, Value: revision}})
	}
	return filter
}

// replaceOutcome maps an update result onto the ReplaceSemesters contract.
// inspect is only consulted when the filter matched nothing.
func replaceOutcome(res *mongo.UpdateResult, inspect func() (storedState, error)) (bool, error) {
	if res.MatchedCount > 0 {
		return res.ModifiedCount > 0, nil
	}
	state, err := inspect()
	if err != nil {
		return false, err
	}
	return false, state.err()
}

// sameSemesters compares two semester lists by value. JSON sorts the keys
// of unknown fields, so field order in the stored document does not matter.
func sameSemesters(a, b []model.Semester) (bool, error) {
	ja, err := json.Marshal(semestersOrEmpty(a))
	if err != nil {
		return false, err
	}
	jb, err := json.Marshal(semestersOrEmpty(b))
	if err != nil {
		return false, err
	}
	return bytes.Equal(ja, jb), nil
}

func semestersOrEmpty(semesters []model.Semester) []model.Semester {
	if semesters == nil {
		return []model.Semester{}
	}
	return semesters
}

func rawString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case 0, bson.TypeNull, bson.TypeUndefined:
		return ""
	default:
		return v.String()
	}
}

func objectIDOrString(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
