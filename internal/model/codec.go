package model

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// MarshalPayload encodes a plan or job for redis. BSON keeps the types of
// unknown record fields (object ids, dates, int32 vs int64) intact between
// the dry run and the write, which JSON would flatten.
func MarshalPayload(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// UnmarshalPayload decodes a MarshalPayload value. Nested documents in
// Extra come back as bson.M so they render as JSON objects.
func UnmarshalPayload(data []byte, v any) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return err
	}
	dec.DefaultDocumentM()
	return dec.Decode(v)
}
