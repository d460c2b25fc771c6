package model

import "time"

// CategoryUsage is the storage used by one category
type CategoryUsage struct {
	Size       int64      `json:"size"`
	LatestDate *time.Time `json:"latestDate"`
}

// Stats aggregates a user's storage usage
type Stats struct {
	Used     int64         `json:"used"`
	All      int64         `json:"all"`
	Image    CategoryUsage `json:"image"`
	Document CategoryUsage `json:"document"`
	Video    CategoryUsage `json:"video"`
	Audio    CategoryUsage `json:"audio"`
	Other    CategoryUsage `json:"other"`
}

// Add accounts one file into the totals
func (s *Stats) Add(f *File) {
	s.Used += f.Size

	var u *CategoryUsage
	switch f.Category() {
	case CategoryImage:
		u = &s.Image
	case CategoryDocument:
		u = &s.Document
	case CategoryVideo:
		u = &s.Video
	case CategoryAudio:
		u = &s.Audio
	default:
		u = &s.Other
	}

	u.Size += f.Size
	if u.LatestDate == nil || f.UploadedAt.After(*u.LatestDate) {
		t := f.UploadedAt
		u.LatestDate = &t
	}
}
