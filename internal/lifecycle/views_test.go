package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/skydrive/internal/common"
	"github.com/dmitrijs2005/skydrive/internal/models"
	"github.com/dmitrijs2005/skydrive/internal/state"
)

func ids(list state.FileList) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	return out
}

func TestView(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	list := state.FileList{
		{ID: "img", DisplayName: "Beach.png", MIMEType: "image/png", SizeBytes: 300, UploadedAt: now.Add(-1 * day)},
		{ID: "doc", DisplayName: "report.pdf", MIMEType: "application/pdf", SizeBytes: 100, UploadedAt: now.Add(-10 * day), IsShared: true},
		{ID: "vid", DisplayName: "clip.mp4", MIMEType: "video/mp4", SizeBytes: 900, UploadedAt: now.Add(-2 * day)},
		{ID: "zip", DisplayName: "archive.zip", MIMEType: "application/zip", SizeBytes: 50, UploadedAt: now.Add(-3 * day)},
		{ID: "t1", DisplayName: "old.txt", MIMEType: "text/plain", UploadedAt: now.Add(-30 * day), IsTrashed: true, TrashedAt: at(5 * day)},
		{ID: "t2", DisplayName: "older.txt", MIMEType: "text/plain", UploadedAt: now.Add(-40 * day), IsTrashed: true, TrashedAt: at(1 * day), IsShared: true},
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all newest first", Query{}, []string{"img", "vid", "zip", "doc"}},
		{"shared skips trash", Query{Section: SectionShared}, []string{"doc"}},
		{"recent week", Query{Section: SectionRecent}, []string{"img", "vid", "zip"}},
		{"trash by trash time", Query{Section: SectionTrash}, []string{"t2", "t1"}},
		{"images", Query{Section: SectionImages}, []string{"img"}},
		{"documents", Query{Section: SectionDocuments}, []string{"doc"}},
		{"videos", Query{Section: SectionVideos}, []string{"vid"}},
		{"others", Query{Section: SectionOthers}, []string{"zip"}},
		{"search is case insensitive", Query{Search: "BEACH"}, []string{"img"}},
		{"name ascending", Query{Sort: SortByName, Asc: true}, []string{"zip", "img", "vid", "doc"}},
		{"size descending", Query{Sort: SortBySize}, []string{"vid", "img", "doc", "zip"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(View(list, tc.q, now)))
		})
	}

	assert.Equal(t, "img", list[0].ID, "input list untouched")
}

func TestParseSection(t *testing.T) {
	s, err := ParseSection("")
	require.NoError(t, err)
	assert.Equal(t, SectionAll, s)

	s, err = ParseSection("Trash")
	require.NoError(t, err)
	assert.Equal(t, SectionTrash, s)

	_, err = ParseSection("profile")
	require.ErrorIs(t, err, common.ErrorPrecondition)
}

func TestUsage(t *testing.T) {
	list := state.FileList{
		{SizeBytes: 1 << 30},
		{SizeBytes: 1 << 30, IsTrashed: true},
		{SizeBytes: 512 << 20},
	}

	u := UsageOf(list, 0)
	assert.Equal(t, int64(1<<30+512<<20), u.Used)
	assert.Equal(t, common.StorageQuota, u.Quota)
	assert.InDelta(t, 30.0, u.Percent(), 0.001)

	assert.Zero(t, Usage{Used: 1}.Percent())
	assert.Equal(t, models.CategoryImages, models.CategoryOf("image/gif"))
}
