package state

import (
	"time"

	"github.com/dmitrijs2005/skydrive/internal/models"
)

// FileList is the cached projection of the user's records, newest first.
// Elements are values so a published slice can never change under a reader.
type FileList = []models.File

// FileStore is the store holding the shared file list.
type FileStore = Store[FileList]

func NewFileStore() *FileStore {
	return NewStore[FileList](FileList{})
}

// Prepend returns a new list with f first.
func Prepend(list FileList, f models.File) FileList {
	out := make(FileList, 0, len(list)+1)
	out = append(out, f)
	return append(out, list...)
}

// Find returns a copy of the record with id.
func Find(list FileList, id string) (models.File, bool) {
	for _, f := range list {
		if f.ID == id {
			return f, true
		}
	}
	return models.File{}, false
}

// Modify returns a new list with fn applied to the record with id.
// The list is returned as is when id is absent.
func Modify(list FileList, id string, fn func(*models.File)) FileList {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		out := make(FileList, len(list))
		copy(out, list)
		fn(&out[i])
		return out
	}
	return list
}

// RemoveWhere returns a new list without the records matching drop.
func RemoveWhere(list FileList, drop func(models.File) bool) FileList {
	out := make(FileList, 0, len(list))
	for _, f := range list {
		if !drop(f) {
			out = append(out, f)
		}
	}
	return out
}

// Remove returns a new list without the record with id.
func Remove(list FileList, id string) FileList {
	return RemoveWhere(list, func(f models.File) bool { return f.ID == id })
}

func filter(list FileList, keep func(models.File) bool) FileList {
	out := make(FileList, 0)
	for _, f := range list {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// Active lists every non-trashed record.
func Active(list FileList) FileList {
	return filter(list, func(f models.File) bool { return !f.IsTrashed })
}

// Trash lists trashed records.
func Trash(list FileList) FileList {
	return filter(list, func(f models.File) bool { return f.IsTrashed })
}

// Shared lists shared records outside the trash.
func Shared(list FileList) FileList {
	return filter(list, func(f models.File) bool { return f.IsShared && !f.IsTrashed })
}

// Recent lists non-trashed records uploaded within the last window before now.
func Recent(list FileList, now time.Time, window time.Duration) FileList {
	since := now.Add(-window)
	return filter(list, func(f models.File) bool { return !f.IsTrashed && f.UploadedAt.After(since) })
}

// ByCategory lists non-trashed records of category c.
func ByCategory(list FileList, c models.Category) FileList {
	return filter(list, func(f models.File) bool { return !f.IsTrashed && f.Category() == c })
}

// UsedBytes sums the sizes of non-trashed records.
func UsedBytes(list FileList) int64 {
	var n int64
	for _, f := range list {
		if !f.IsTrashed {
			n += f.SizeBytes
		}
	}
	return n
}
