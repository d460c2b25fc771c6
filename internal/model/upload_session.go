package model

import (
	"sort"
	"time"
)

type SessionStatus string

const (
	StatusInitiated  SessionStatus = "initiated"
	StatusAssembling SessionStatus = "assembling"
	StatusComplete   SessionStatus = "complete"
)

// UploadSession tracks a chunked upload. Chunks maps a chunk index to the
// blob key holding its bytes.
type UploadSession struct {
	ID             string         `json:"uploadId"`
	OwnerID        string         `json:"ownerId"`
	FileID         string         `json:"actualFileId"`
	FileName       string         `json:"fileName"`
	MimeType       string         `json:"fileType"`
	DeclaredSize   int64          `json:"fileSize"`
	TotalChunks    int            `json:"totalChunks"`
	UploadedChunks int            `json:"uploadedChunks"`
	Chunks         map[int]string `json:"chunks"`
	Status         SessionStatus  `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func (s *UploadSession) Key() Key         { return Key{OwnerID: s.OwnerID, RecordID: s.ID} }
func (s *UploadSession) Type() RecordType { return TypeUploadSession }

// Normalize keeps UploadedChunks equal to the size of the chunk map
func (s *UploadSession) Normalize() {
	if s.Chunks == nil {
		s.Chunks = map[int]string{}
	}

	s.UploadedChunks = len(s.Chunks)
}

// Complete reports whether every declared chunk has been received
func (s *UploadSession) Complete() bool {
	return s.UploadedChunks >= s.TotalChunks
}

// SortedIndices returns the received chunk indices in numeric order
func (s *UploadSession) SortedIndices() []int {
	indices := make([]int, 0, len(s.Chunks))
	for i := range s.Chunks {
		indices = append(indices, i)
	}

	sort.Ints(indices)
	return indices
}
