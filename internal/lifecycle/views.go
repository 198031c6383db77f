package lifecycle

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/state"
)

// Section names a sidebar view over the file list.
type Section string

const (
	SectionAll       Section = "all"
	SectionShared    Section = "shared"
	SectionRecent    Section = "recent"
	SectionTrash     Section = "trash"
	SectionImages    Section = "images"
	SectionDocuments Section = "documents"
	SectionVideos    Section = "videos"
	SectionOthers    Section = "others"
)

// RecentWindow bounds the recent uploads view.
const RecentWindow = 7 * 24 * time.Hour

type SortBy string

const (
	SortByDate SortBy = "date"
	SortByName SortBy = "name"
	SortBySize SortBy = "size"
)

// Query selects and orders records for display. The zero value lists every
// active record newest first.
type Query struct {
	Section Section
	Search  string
	Sort    SortBy
	Asc     bool
}

// ParseSection accepts the sidebar names used by the CLI.
func ParseSection(s string) (Section, error) {
	switch sec := Section(strings.ToLower(strings.TrimSpace(s))); sec {
	case "", "my-files":
		return SectionAll, nil
	case SectionAll, SectionShared, SectionRecent, SectionTrash,
		SectionImages, SectionDocuments, SectionVideos, SectionOthers:
		return sec, nil
	default:
		return "", fmt.Errorf("unknown view %q: %w", s, common.ErrorPrecondition)
	}
}

// View applies q to list at time now. The trash view is ordered by trash
// time, newest first, unless an explicit sort is given.
func View(list state.FileList, q Query, now time.Time) state.FileList {
	var out state.FileList
	switch q.Section {
	case SectionTrash:
		out = state.Trash(list)
	case SectionShared:
		out = state.Shared(list)
	case SectionRecent:
		out = state.Recent(list, now, RecentWindow)
	case SectionImages, SectionDocuments, SectionVideos, SectionOthers:
		out = state.ByCategory(list, models.Category(q.Section))
	default:
		out = state.Active(list)
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		out = slices.DeleteFunc(out, func(f models.File) bool {
			return !strings.Contains(strings.ToLower(f.DisplayName), needle)
		})
	}

	if q.Section == SectionTrash && q.Sort == "" {
		slices.SortStableFunc(out, func(a, b models.File) int {
			return trashedAt(b).Compare(trashedAt(a))
		})
		return out
	}

	slices.SortStableFunc(out, func(a, b models.File) int {
		var c int
		switch q.Sort {
		case SortByName:
			c = strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
		case SortBySize:
			c = cmp.Compare(a.SizeBytes, b.SizeBytes)
		default:
			c = a.UploadedAt.Compare(b.UploadedAt)
		}
		if !q.Asc {
			c = -c
		}
		return c
	})
	return out
}

func trashedAt(f models.File) time.Time {
	if f.TrashedAt == nil {
		return time.Time{}
	}
	return *f.TrashedAt
}

// Usage is the storage meter: bytes held by non-trashed records against the
// per-user quota.
type Usage struct {
	Used  int64
	Quota int64
}

func (u Usage) Percent() float64 {
	if u.Quota <= 0 {
		return 0
	}
	return float64(u.Used) * 100 / float64(u.Quota)
}

func UsageOf(list state.FileList, quota int64) Usage {
	if quota <= 0 {
		quota = common.StorageQuota
	}
	return Usage{Used: state.UsedBytes(list), Quota: quota}
}

// Files returns the current list filtered by q.
func (m *Machine) Files(q Query) state.FileList {
	return View(m.files.Snapshot().Value, q, m.now())
}

func (m *Machine) Usage(quota int64) Usage {
	return UsageOf(m.files.Snapshot().Value, quota)
}
