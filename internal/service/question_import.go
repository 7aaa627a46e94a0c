package service

import (
	"regexp"
	"strings"

	"github.com/nec-exams/examportal-backend/internal/model"
)

// Bulk import accepts plain document text in the format teachers already
// keep their question banks in:
//
//	Q1: What is the time complexity of binary search?
//	A. O(n)
//	B. O(log n) *
//	C. O(n log n)
//	D. O(1)
//
// An option line starts with A-D (case-insensitive) followed by "." or ")".
// The correct option is flagged with a trailing "*" or, alternatively, with
// an "Answer: B" line after the options. Blocks that end up with fewer than
// two options or no marked answer are dropped, not errored, so one sloppy
// question never sinks a whole import.
var (
	questionLineRe = regexp.MustCompile(`(?i)^q\s*\d+\s*[:.)]\s*(.+)$`)
	optionLineRe   = regexp.MustCompile(`(?i)^([a-d])\s*[.)]\s*(.+)$`)
	answerLineRe   = regexp.MustCompile(`(?i)^answer\s*[:=]\s*([a-d])\b`)
)

type parsedQuestion struct {
	text    string
	options []string
	correct int
}

// parseQuestionText extracts the well-formed questions from raw import text.
func parseQuestionText(text string) []parsedQuestion {
	var questions []parsedQuestion
	var current *parsedQuestion

	flush := func() {
		if current != nil && current.text != "" && len(current.options) >= 2 && current.correct >= 0 {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if m := questionLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &parsedQuestion{text: strings.TrimSpace(m[1]), correct: -1}
			continue
		}
		if current == nil {
			continue
		}

		if m := answerLineRe.FindStringSubmatch(line); m != nil {
			idx := letterIndex(m[1])
			if idx < len(current.options) {
				current.correct = idx
			}
			continue
		}

		if m := optionLineRe.FindStringSubmatch(line); m != nil && len(current.options) < 4 {
			optText := strings.TrimSpace(m[2])
			if strings.HasSuffix(optText, "*") {
				current.correct = len(current.options)
				optText = strings.TrimSpace(strings.TrimSuffix(optText, "*"))
			}
			current.options = append(current.options, optText)
			continue
		}

		// Continuation of the question text before any option appeared.
		if len(current.options) == 0 {
			current.text += " " + line
		}
	}
	flush()

	return questions
}

func letterIndex(letter string) int {
	return int(strings.ToUpper(letter)[0] - 'A')
}

// buildImportedQuestions turns parsed questions into model questions under
// the import's exam key and section, with the default mark value.
func buildImportedQuestions(parsed []parsedQuestion, key model.ExamKey, section string) []model.Question {
	questions := make([]model.Question, 0, len(parsed))
	for _, p := range parsed {
		questions = append(questions, model.Question{
			ExamKey:       key,
			Section:       section,
			QuestionText:  p.text,
			Options:       p.options,
			CorrectAnswer: p.correct,
			Marks:         1,
		})
	}
	return questions
}
