// internal/service/export.go
package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/examgen/backend/internal/domain/question"
	"github.com/examgen/backend/internal/domain/quizsession"
	"github.com/examgen/backend/internal/grader"
)

var resultsHeader = []string{"question_id", "exam_name", "selected", "correct", "submitted", "is_correct"}

// WriteResultsCSV writes one row per question of the session. Answers are
// written as letters (A, B, ...) joined by ";"; is_correct is empty for
// questions without a result.
func WriteResultsCSV(w io.Writer, s *quizsession.Session, qs []question.Question) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	preferOriginal := s.Config.PrefersOriginal()
	for _, q := range qs {
		isCorrect := ""
		if correct, ok := s.Result(q.ID); ok {
			isCorrect = strconv.FormatBool(correct)
		}
		row := []string{
			q.ID,
			q.ExamName,
			letters(s.Answers[q.ID]),
			letters(grader.CorrectIndexSet(q, preferOriginal)),
			strconv.FormatBool(s.IsSubmitted(q.ID)),
			isCorrect,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", q.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func letters(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = Letter(idx)
	}
	return strings.Join(parts, ";")
}

// Letter labels an answer index: 0 is "A", 25 is "Z", 26 is "AA".
func Letter(i int) string {
	if i < 0 {
		return ""
	}
	s := ""
	for {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
		if i < 0 {
			return s
		}
	}
}
