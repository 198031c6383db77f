package models

import "testing"

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		mime string
		want Category
	}{
		{"image/png", CategoryImages},
		{"video/mp4", CategoryVideos},
		{"application/pdf", CategoryDocuments},
		{"text/csv", CategoryDocuments},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryDocuments},
		{"application/vnd.ms-excel", CategoryDocuments},
		{"application/vnd.ms-powerpoint", CategoryDocuments},
		{"application/zip", CategoryOthers},
		{"", CategoryOthers},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.mime); got != tt.want {
			t.Errorf("CategoryOf(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestIsImageType(t *testing.T) {
	if !IsImageType("image/jpeg") {
		t.Fatal("image/jpeg must be an image")
	}
	if IsImageType("application/pdf") {
		t.Fatal("application/pdf is not an image")
	}
}

func TestTaskState_Terminal(t *testing.T) {
	for _, s := range []TaskState{TaskPending, TaskTransferring, TaskCommitting} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
	for _, s := range []TaskState{TaskDone, TaskFailed} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}
