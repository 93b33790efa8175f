package domain

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// chapterCollator compares filenames with numeric awareness so that
// "track2.mp3" sorts before "track10.mp3". Case differences are ignored.
// Collators are not safe for concurrent use, so construct per call site.
func chapterCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric, collate.IgnoreCase)
}

// SortChapters orders chapters by filename using numeric-aware comparison.
// The sort is stable: equal filenames keep their original input order.
// This ordering is computed once at import time and is the sole sequencing
// authority for auto-advance.
func SortChapters(chapters []Chapter) {
	c := chapterCollator()
	slices.SortStableFunc(chapters, func(a, b Chapter) int {
		return c.CompareString(a.Filename, b.Filename)
	})
}

// NextChapterIndex returns the index following current, or false when current
// is the last chapter.
func NextChapterIndex(current, count int) (int, bool) {
	if current+1 < count {
		return current + 1, true
	}
	return current, false
}

// PreviousChapterIndex returns the index preceding current, or false when
// current is the first chapter.
func PreviousChapterIndex(current int) (int, bool) {
	if current > 0 {
		return current - 1, true
	}
	return current, false
}
