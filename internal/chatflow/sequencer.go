package chatflow

import (
	"cmp"
	"slices"

	"github.com/set-night/copydesk/internal/domain"
)

// SortQuestions returns a copy of qs ordered by Order. Ties keep their original relative position.
func SortQuestions(qs []domain.Question) []domain.Question {
	sorted := slices.Clone(qs)
	slices.SortStableFunc(sorted, func(a, b domain.Question) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return sorted
}

// NextQuestion returns the question at position cursor in presentation order.
// It reports false once every question has been answered.
func NextQuestion(qs []domain.Question, cursor int) (domain.Question, bool) {
	if cursor < 0 || cursor >= len(qs) {
		return domain.Question{}, false
	}
	return SortQuestions(qs)[cursor], true
}
