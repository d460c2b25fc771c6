// Package model defines the records kept in the metadata table and the
// tables owned by the identity provider
package model

// RecordType is the discriminator stored next to every row of the
// metadata table
type RecordType string

const (
	TypeFile          RecordType = "FILE"
	TypeUploadSession RecordType = "UPLOAD_SESSION"
	TypeResetCode     RecordType = "RESET_CODE"
)

// Key addresses one row of the metadata table
type Key struct {
	OwnerID  string
	RecordID string
}

// Record is one of the shapes that can occupy a key in the metadata
// table. The storage adapter uses Type to decode rows back into the
// right shape.
type Record interface {
	Key() Key
	Type() RecordType
}

// Normalizer is implemented by records holding derived fields that have
// to be recomputed after a partial update
type Normalizer interface {
	Normalize()
}
