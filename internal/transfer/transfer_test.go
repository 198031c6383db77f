package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/skydrive/internal/common"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want Strategy
	}{
		{"empty", 0, Standard},
		{"small", 5 * 1000 * 1000, Standard},
		{"exactly threshold", 20 * 1024 * 1024, Standard},
		{"one byte over", 20*1024*1024 + 1, Resumable},
		{"large", 30 * 1024 * 1024, Resumable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.size, common.ResumableThreshold))
		})
	}
}

func TestChunkCount(t *testing.T) {
	assert.Equal(t, int64(5), ChunkCount(30*1024*1024, common.ChunkSize))
	assert.Equal(t, int64(6), ChunkCount(30*1024*1024+1, common.ChunkSize))
	assert.Equal(t, int64(0), ChunkCount(0, common.ChunkSize))
}

func TestReportNeverBlocks(t *testing.T) {
	ch := make(chan int)
	report(ch, 50)
	report(nil, 50)
}
