package model

import (
	"path"
	"strings"
	"time"
)

// File is a finalized, downloadable file. BlobKey always points to a
// fully assembled object.
type File struct {
	ID         string      `json:"fileId"`
	OwnerID    string      `json:"ownerId"`
	Name       string      `json:"fileName"`
	MimeType   string      `json:"mimeType"`
	Size       int64       `json:"byteSize"`
	BlobKey    string      `json:"blobKey"`
	Extension  string      `json:"fileExtension"`
	UploadedAt time.Time   `json:"uploadedAt"`
	SharedWith StringSlice `json:"sharedWith"`
}

func (f *File) Key() Key         { return Key{OwnerID: f.OwnerID, RecordID: f.ID} }
func (f *File) Type() RecordType { return TypeFile }

func (f *File) Category() Category {
	return CategoryOf(f.MimeType, f.Name)
}

// IsSharedWith reports whether email is in the share list. Addresses are
// compared case-insensitively.
func (f *File) IsSharedWith(email string) bool {
	if email == "" {
		return false
	}

	for _, e := range f.SharedWith {
		if strings.EqualFold(e, email) {
			return true
		}
	}

	return false
}

// ExtensionOf returns the lowercased extension of name including the dot
func ExtensionOf(name string) string {
	return strings.ToLower(path.Ext(name))
}
