package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stemsi/recordclean/internal/model"
)

func TestRawString(t *testing.T) {
	oid := primitive.NewObjectID()
	mustValue := func(v any) bson.RawValue {
		typ, data, err := bson.MarshalValue(v)
		require.NoError(t, err)
		return bson.RawValue{Type: typ, Value: data}
	}

	assert.Equal(t, oid.Hex(), rawString(mustValue(oid)))
	assert.Equal(t, "u-42", rawString(mustValue("u-42")))
	assert.Equal(t, "", rawString(bson.RawValue{}))
	assert.Equal(t, "", rawString(bson.RawValue{Type: bson.TypeNull}))
	assert.Contains(t, rawString(mustValue(int32(42))), "42")
}

func TestObjectIDOrString(t *testing.T) {
	oid := primitive.NewObjectID()

	assert.Equal(t, oid, objectIDOrString(oid.Hex()))
	assert.Equal(t, "row-7", objectIDOrString("row-7"))
	assert.Equal(t, "", objectIDOrString(""))
}

func TestDecodeMongoRecord(t *testing.T) {
	id, userID, subID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: userID},
		{Key: "semesters", Value: bson.A{
			bson.D{
				{Key: "semester", Value: int32(1)},
				{Key: "_id", Value: subID},
				{Key: "months", Value: bson.A{bson.D{
					{Key: "month", Value: int32(9)},
					{Key: "subjects", Value: bson.A{bson.D{
						{Key: "subjectCode", Value: "MA101"},
						{Key: "subjectName", Value: "Matematika"},
						{Key: "attendedClasses", Value: int32(12)},
						{Key: "totalClasses", Value: "No Data"},
						{Key: "meta", Value: bson.D{{Key: "source", Value: "upload"}}},
					}}},
				}}},
			},
			bson.D{{Key: "semester", Value: "3"}},
		}},
	})
	require.NoError(t, err)

	rec, err := decodeMongoRecord(raw)
	require.NoError(t, err)

	assert.Equal(t, id.Hex(), rec.ID)
	assert.Equal(t, userID.Hex(), rec.UserID)
	require.Len(t, rec.Semesters, 2)
	assert.Equal(t, model.Int(1), rec.Semesters[0].Semester)
	assert.Equal(t, subID, rec.Semesters[0].Extra["_id"])
	sub := rec.Semesters[0].Months[0].Subjects[0]
	assert.Equal(t, model.Count{Raw: "No Data"}, sub.TotalClasses)
	assert.Equal(t, bson.M{"source": "upload"}, sub.Extra["meta"])
	assert.Equal(t, model.Count{Raw: "3"}, rec.Semesters[1].Semester)

	want := bytes.Clone(bson.Raw(raw).Lookup("semesters").Value)
	assert.Equal(t, want, rec.Revision)

	// The cursor reuses its buffer between documents.
	raw[len(raw)-2] ^= 0xff
	assert.Equal(t, want, rec.Revision)
}

func TestDecodeMongoRecord_WithoutSemesters(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: "plain-id"}, {Key: "userId", Value: "u1"}})
	require.NoError(t, err)

	rec, err := decodeMongoRecord(raw)
	require.NoError(t, err)

	assert.Equal(t, "plain-id", rec.ID)
	assert.Empty(t, rec.Semesters)
	assert.Nil(t, rec.Revision)
}

func TestDecodeMongoRecord_MalformedSemesters(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: "bad"}, {Key: "semesters", Value: "not an array"}})
	require.NoError(t, err)

	_, err = decodeMongoRecord(raw)

	assert.Error(t, err)
}

func TestReplaceFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	plain := replaceFilter(oid.Hex(), nil)
	require.Len(t, plain, 1)
	assert.Equal(t, oid, plain[0].Value)

	stored, err := bson.Marshal(bson.D{{Key: "semesters", Value: bson.A{bson.D{{Key: "semester", Value: int32(2)}}}}})
	require.NoError(t, err)
	revision := bson.Raw(stored).Lookup("semesters").Value

	guarded := replaceFilter(oid.Hex(), revision)
	require.Len(t, guarded, 2)
	assert.Equal(t, "semesters", guarded[1].Key)

	data, err := bson.Marshal(guarded)
	require.NoError(t, err)
	got := bson.Raw(data).Lookup("semesters")
	assert.Equal(t, bson.TypeArray, got.Type)
	assert.Equal(t, revision, got.Value)
}

func TestReplaceOutcome(t *testing.T) {
	errCheck := errors.New("find failed")
	tests := []struct {
		name     string
		res      mongo.UpdateResult
		state    storedState
		stateErr error
		modified bool
		wantErr  error
		inspects bool
	}{
		{name: "modified", res: mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, modified: true},
		{name: "matched, identical", res: mongo.UpdateResult{MatchedCount: 1}},
		{name: "missing", state: stateMissing, wantErr: ErrRecordNotFound, inspects: true},
		{name: "changed since read", state: stateChanged, wantErr: ErrStaleRecord, inspects: true},
		{name: "already clean", state: stateClean, inspects: true},
		{name: "inspect fails", stateErr: errCheck, wantErr: errCheck, inspects: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspected := false
			modified, err := replaceOutcome(&tt.res, func() (storedState, error) {
				inspected = true
				return tt.state, tt.stateErr
			})

			assert.Equal(t, tt.modified, modified)
			assert.Equal(t, tt.inspects, inspected)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSemestersOrEmpty(t *testing.T) {
	out := semestersOrEmpty(nil)
	require.NotNil(t, out)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	doc, err := bson.Marshal(bson.D{{Key: "semesters", Value: out}})
	require.NoError(t, err)
	assert.Equal(t, bson.TypeArray, bson.Raw(doc).Lookup("semesters").Type)
}

func TestSameSemesters(t *testing.T) {
	a := []model.Semester{{Semester: model.Int(1), Extra: model.Extra{"_id": "x", "note": "n"}}}
	b := []model.Semester{{Semester: model.Int(1), Extra: model.Extra{"note": "n", "_id": "x"}}}
	c := []model.Semester{{Semester: model.Count{Raw: "1"}, Extra: model.Extra{"_id": "x", "note": "n"}}}

	same, err := sameSemesters(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = sameSemesters(a, c)
	require.NoError(t, err)
	assert.False(t, same)

	same, err = sameSemesters(nil, []model.Semester{})
	require.NoError(t, err)
	assert.True(t, same)
}

func TestStoredStateErr(t *testing.T) {
	assert.ErrorIs(t, stateMissing.err(), ErrRecordNotFound)
	assert.ErrorIs(t, stateChanged.err(), ErrStaleRecord)
	assert.NoError(t, stateClean.err())
}

func TestJSONBParam(t *testing.T) {
	assert.Nil(t, jsonbParam(nil))
	assert.Equal(t, `[{"semester": 1}]`, jsonbParam([]byte(`[{"semester": 1}]`)))
}
