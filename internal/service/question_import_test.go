package service

import "testing"

func TestParseQuestionTextStarMarker(t *testing.T) {
	text := `
Q1: What is the capital of France?
A. Berlin
B. Paris *
C. Madrid
D. Rome

Q2) Which planet is largest?
a) Mars
b) Jupiter *
c) Venus
`
	questions := parseQuestionText(text)
	if len(questions) != 2 {
		t.Fatalf("parsed %d questions, want 2", len(questions))
	}

	if questions[0].text != "What is the capital of France?" {
		t.Errorf("q1 text = %q", questions[0].text)
	}
	if len(questions[0].options) != 4 || questions[0].correct != 1 {
		t.Errorf("q1 options = %v, correct = %d", questions[0].options, questions[0].correct)
	}
	if questions[0].options[1] != "Paris" {
		t.Errorf("marker not stripped: %q", questions[0].options[1])
	}

	if len(questions[1].options) != 3 || questions[1].correct != 1 {
		t.Errorf("q2 options = %v, correct = %d", questions[1].options, questions[1].correct)
	}
}

func TestParseQuestionTextAnswerTrailer(t *testing.T) {
	text := `
Q1: 2 + 2 equals?
A) 3
B) 4
C) 5
Answer: B
`
	questions := parseQuestionText(text)
	if len(questions) != 1 {
		t.Fatalf("parsed %d questions, want 1", len(questions))
	}
	if questions[0].correct != 1 {
		t.Errorf("correct = %d, want 1", questions[0].correct)
	}
}

func TestParseQuestionTextMultilineQuestion(t *testing.T) {
	text := `
Q1: A train leaves at 9am travelling 60 km/h.
How far has it gone by 11am?
A. 60 km
B. 120 km *
`
	questions := parseQuestionText(text)
	if len(questions) != 1 {
		t.Fatalf("parsed %d questions, want 1", len(questions))
	}
	want := "A train leaves at 9am travelling 60 km/h. How far has it gone by 11am?"
	if questions[0].text != want {
		t.Errorf("text = %q, want %q", questions[0].text, want)
	}
}

func TestParseQuestionTextDropsMalformedBlocks(t *testing.T) {
	text := `
Q1: Only one option, dropped
A. lonely *

Q2: No answer marked, dropped
A. first
B. second

Q3: Well formed, kept
A. yes *
B. no
`
	questions := parseQuestionText(text)
	if len(questions) != 1 {
		t.Fatalf("parsed %d questions, want 1, got %+v", len(questions), questions)
	}
	if questions[0].text != "Well formed, kept" {
		t.Errorf("kept wrong question: %q", questions[0].text)
	}
}

func TestParseQuestionTextIgnoresNoiseBeforeFirstQuestion(t *testing.T) {
	text := `
Mid-Semester Examination
Department of Computer Science

Q1: Valid question?
A. yes *
B. no
`
	questions := parseQuestionText(text)
	if len(questions) != 1 {
		t.Fatalf("parsed %d questions, want 1", len(questions))
	}
}

func TestParseQuestionTextEmpty(t *testing.T) {
	if got := parseQuestionText(""); len(got) != 0 {
		t.Errorf("parsed %d questions from empty text", len(got))
	}
}
