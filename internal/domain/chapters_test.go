package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortChapters_NumericAware(t *testing.T) {
	chapters := []Chapter{
		{ID: "c", Filename: "track10.mp3"},
		{ID: "a", Filename: "track2.mp3"},
		{ID: "b", Filename: "track1.mp3"},
	}

	SortChapters(chapters)

	require.Len(t, chapters, 3)
	assert.Equal(t, "track1.mp3", chapters[0].Filename)
	assert.Equal(t, "track2.mp3", chapters[1].Filename)
	assert.Equal(t, "track10.mp3", chapters[2].Filename)
}

func TestSortChapters_CaseInsensitive(t *testing.T) {
	chapters := []Chapter{
		{Filename: "Chapter 02.mp3"},
		{Filename: "chapter 01.mp3"},
	}

	SortChapters(chapters)

	assert.Equal(t, "chapter 01.mp3", chapters[0].Filename)
}

func TestSortChapters_StableOnTies(t *testing.T) {
	chapters := []Chapter{
		{ID: "first", Filename: "same.mp3"},
		{ID: "second", Filename: "same.mp3"},
		{ID: "third", Filename: "same.mp3"},
	}

	SortChapters(chapters)

	assert.Equal(t, "first", chapters[0].ID)
	assert.Equal(t, "second", chapters[1].ID)
	assert.Equal(t, "third", chapters[2].ID)
}

func TestNextChapterIndex(t *testing.T) {
	tests := []struct {
		name    string
		current int
		count   int
		want    int
		wantOK  bool
	}{
		{"middle advances", 1, 3, 2, true},
		{"first advances", 0, 3, 1, true},
		{"last is terminal", 2, 3, 2, false},
		{"single chapter is terminal", 0, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextChapterIndex(tt.current, tt.count)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreviousChapterIndex(t *testing.T) {
	got, ok := PreviousChapterIndex(2)
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	got, ok = PreviousChapterIndex(0)
	assert.False(t, ok)
	assert.Equal(t, 0, got)
}
