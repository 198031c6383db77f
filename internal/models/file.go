// Package models defines the data shared between the stores, the upload
// pipeline and the lifecycle machine.
package models

import (
	"strings"
	"time"
)

// File is one user-owned stored object as recorded in the metadata store.
//
// StoragePath is immutable and the only key used against the object store.
// ShareURL is non-empty iff IsShared; TrashedAt is non-nil iff IsTrashed.
type File struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"user_id"`
	DisplayName  string     `json:"file_name"`
	StoragePath  string     `json:"file_path"`
	SizeBytes    int64      `json:"file_size"`
	MIMEType     string     `json:"mime_type"`
	UploadedAt   time.Time  `json:"upload_date"`
	IsShared     bool       `json:"is_shared"`
	ShareURL     string     `json:"share_url,omitempty"`
	IsTrashed    bool       `json:"is_trashed"`
	TrashedAt    *time.Time `json:"trashed_date,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
}

// NewFile carries the fields written at the commit point of an upload.
// The store assigns ID and UploadedAt.
type NewFile struct {
	OwnerID      string
	DisplayName  string
	StoragePath  string
	SizeBytes    int64
	MIMEType     string
	ThumbnailURL string
}

// Category buckets a file for the sidebar views.
type Category string

const (
	CategoryImages    Category = "images"
	CategoryDocuments Category = "documents"
	CategoryVideos    Category = "videos"
	CategoryOthers    Category = "others"
)

// IsImageType reports whether a MIME type gets a thumbnail at creation.
func IsImageType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// CategoryOf maps a MIME type onto a Category.
func CategoryOf(mimeType string) Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return CategoryImages
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideos
	case mimeType == "application/pdf",
		mimeType == "text/plain",
		mimeType == "text/csv",
		strings.Contains(mimeType, "document"),
		strings.Contains(mimeType, "word"),
		strings.Contains(mimeType, "spreadsheet"),
		strings.Contains(mimeType, "excel"),
		strings.Contains(mimeType, "presentation"),
		strings.Contains(mimeType, "powerpoint"):
		return CategoryDocuments
	default:
		return CategoryOthers
	}
}

func (f File) Category() Category {
	return CategoryOf(f.MIMEType)
}
