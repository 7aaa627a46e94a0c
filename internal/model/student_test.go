package model

import "testing"

func TestNormalizeRollNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "21CS042", "21CS042"},
		{"lowercase", "21cs042", "21CS042"},
		{"surrounding spaces", "  21CS042  ", "21CS042"},
		{"interior whitespace", "21 CS 042", "21CS042"},
		{"tabs and mixed case", "\t21cs\t042", "21CS042"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRollNumber(tt.in); got != tt.want {
				t.Errorf("NormalizeRollNumber(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStudentNormalize(t *testing.T) {
	s := &Student{
		RollNumber: " 21cs042 ",
		Name:       "  jane doe ",
		Branch:     "cse ",
		Section:    " a",
	}
	s.Normalize()

	if s.RollNumber != "21CS042" {
		t.Errorf("RollNumber = %q", s.RollNumber)
	}
	if s.Name != "JANE DOE" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.Branch != "CSE" {
		t.Errorf("Branch = %q", s.Branch)
	}
	if s.Section != "A" {
		t.Errorf("Section = %q", s.Section)
	}
}

func TestExamKeyNormalize(t *testing.T) {
	k := ExamKey{Branch: " cse", Year: " 3 ", Semester: "5 ", Subject: "dbms "}
	got := k.Normalize()
	want := ExamKey{Branch: "CSE", Year: "3", Semester: "5", Subject: "DBMS"}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}
