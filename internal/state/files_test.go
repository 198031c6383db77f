package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/skydrive/internal/models"
)

var baseTime = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func file(id string) models.File {
	return models.File{ID: id, OwnerID: "u1", DisplayName: id + ".txt", StoragePath: "u1/" + id, MIMEType: "text/plain", UploadedAt: baseTime}
}

func TestPrependAndFind(t *testing.T) {
	list := FileList{file("a")}
	out := Prepend(list, file("b"))

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Len(t, list, 1)

	f, ok := Find(out, "a")
	require.True(t, ok)
	assert.Equal(t, "a.txt", f.DisplayName)

	_, ok = Find(out, "zzz")
	assert.False(t, ok)
}

func TestModify_AbsentIDReturnsSameList(t *testing.T) {
	list := FileList{file("a")}
	out := Modify(list, "nope", func(f *models.File) { f.IsShared = true })
	assert.Equal(t, list, out)
	assert.False(t, list[0].IsShared)
}

func TestRemove(t *testing.T) {
	list := FileList{file("a"), file("b"), file("c")}
	out := Remove(list, "b")
	assert.Equal(t, []string{"a", "c"}, ids(out))
	assert.Len(t, list, 3)
}

func TestViews(t *testing.T) {
	trashedAt := baseTime
	img := file("img")
	img.MIMEType = "image/png"
	img.SizeBytes = 10
	doc := file("doc")
	doc.MIMEType = "application/pdf"
	doc.SizeBytes = 20
	doc.IsShared = true
	doc.ShareURL = "https://site/share/doc"
	old := file("old")
	old.UploadedAt = baseTime.Add(-30 * 24 * time.Hour)
	old.SizeBytes = 5
	gone := file("gone")
	gone.IsTrashed = true
	gone.TrashedAt = &trashedAt
	gone.IsShared = true
	gone.ShareURL = "https://site/share/gone"
	gone.SizeBytes = 1000

	list := FileList{img, doc, old, gone}

	assert.Equal(t, []string{"img", "doc", "old"}, ids(Active(list)))
	assert.Equal(t, []string{"gone"}, ids(Trash(list)))
	assert.Equal(t, []string{"doc"}, ids(Shared(list)))
	assert.Equal(t, []string{"img", "doc"}, ids(Recent(list, baseTime.Add(time.Hour), 7*24*time.Hour)))
	assert.Equal(t, []string{"img"}, ids(ByCategory(list, models.CategoryImages)))
	assert.Equal(t, []string{"doc"}, ids(ByCategory(list, models.CategoryDocuments)))
	assert.Equal(t, int64(35), UsedBytes(list))
}

func TestTasks(t *testing.T) {
	list := AddTasks(TaskList{}, models.UploadTask{ID: "t1"}, models.UploadTask{ID: "t2"})
	list = ModifyTask(list, "t2", func(task *models.UploadTask) { task.Progress = 50 })

	got, ok := FindTask(list, "t2")
	require.True(t, ok)
	assert.Equal(t, 50, got.Progress)

	list = RemoveTask(list, "t1")
	require.Len(t, list, 1)
	assert.Equal(t, "t2", list[0].ID)
}

func ids(list FileList) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	return out
}
