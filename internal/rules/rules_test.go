// internal/rules/rules_test.go
// Package rules provides unit tests for the eligibility rule engine.
package rules

import (
	"testing"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

func class10Profile(marks ...int) model.ContributorProfile {
	subjects := []string{"Maths", "Science", "English", "Hindi", "Social Science", "Sanskrit"}
	entries := make([]model.SubjectMark, len(marks))
	for i, m := range marks {
		entries[i] = model.SubjectMark{Subject: subjects[i%len(subjects)], Marks: m}
	}
	return model.ContributorProfile{Class: "10", SubjectMarks: entries}
}

func class12Profile(stream string, marks map[string]int) model.ContributorProfile {
	entries := make([]model.SubjectMark, 0, len(marks))
	for subject, m := range marks {
		entries = append(entries, model.SubjectMark{Subject: subject, Marks: m})
	}
	return model.ContributorProfile{Class: "12", Stream: stream, SubjectMarks: entries}
}

// TestTrack10Eligible verifies that a Class 10 record with five subjects,
// every mark at or above 85 and a mean at or above 90, is eligible.
func TestTrack10Eligible(t *testing.T) {
	v := Evaluate(class10Profile(90, 88, 87, 92, 95))
	if !v.Eligible {
		t.Fatalf("expected eligible, got reason %q", v.Reason)
	}
}

// TestTrack10LowSubject verifies that the first subject below the per-subject
// threshold is reported by name.
func TestTrack10LowSubject(t *testing.T) {
	v := Evaluate(class10Profile(90, 88, 80, 92, 95))
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if v.Reason != "Low marks in English" {
		t.Errorf("unexpected reason: %q", v.Reason)
	}
}

// TestTrack10SubjectCount verifies that a Class 10 record needs exactly five
// subject entries.
func TestTrack10SubjectCount(t *testing.T) {
	for _, n := range []int{4, 6} {
		marks := make([]int, n)
		for i := range marks {
			marks[i] = 95
		}
		v := Evaluate(class10Profile(marks...))
		if v.Eligible {
			t.Errorf("expected ineligible with %d subjects", n)
		}
		if v.Reason != "Class 10 must have 5 subjects" {
			t.Errorf("unexpected reason with %d subjects: %q", n, v.Reason)
		}
	}
}

// TestTrack10LowAverage verifies the mean threshold: all subjects pass
// individually, but the average falls short of 90.
func TestTrack10LowAverage(t *testing.T) {
	v := Evaluate(class10Profile(86, 87, 88, 85, 86))
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if v.Reason != "Average below Class 10 topper criteria" {
		t.Errorf("unexpected reason: %q", v.Reason)
	}
}

// TestTrack12MissingCore verifies that a Science record without Chemistry is
// ineligible regardless of its mean.
func TestTrack12MissingCore(t *testing.T) {
	v := Evaluate(class12Profile("SCIENCE", map[string]int{
		"Physics": 99,
		"Maths":   99,
		"English": 99,
	}))
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if v.Reason != "Missing core subject: Chemistry" {
		t.Errorf("unexpected reason: %q", v.Reason)
	}
}

// TestTrack12CoreBelowThreshold verifies the per-core-subject threshold and
// that missing-core takes precedence over the mean check.
func TestTrack12CoreBelowThreshold(t *testing.T) {
	v := Evaluate(class12Profile("SCIENCE", map[string]int{
		"Physics":   84,
		"Chemistry": 95,
		"Maths":     95,
	}))
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if v.Reason != "Physics marks below criteria" {
		t.Errorf("unexpected reason: %q", v.Reason)
	}
}

// TestTrack12CommerceAverage reproduces the end-to-end scenario: Accountancy
// 90, Business Studies 88, Economics 91, mean 89.67 below the required 90.
func TestTrack12CommerceAverage(t *testing.T) {
	v := Evaluate(class12Profile("COMMERCE", map[string]int{
		"Accountancy":      90,
		"Business Studies": 88,
		"Economics":        91,
	}))
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if v.Reason != "Average below topper criteria" {
		t.Errorf("unexpected reason: %q", v.Reason)
	}
}

// TestTrack12ArtsThresholds verifies the relaxed Arts thresholds (80 per
// subject, 85 average).
func TestTrack12ArtsThresholds(t *testing.T) {
	v := Evaluate(class12Profile("ARTS", map[string]int{
		"History":           82,
		"Political Science": 84,
		"Geography":         90,
	}))
	if !v.Eligible {
		t.Fatalf("expected eligible, got reason %q", v.Reason)
	}
}

// TestInvalidStream verifies that unrecognized tracks and streams are
// rejected with the fixed reason string.
func TestInvalidStream(t *testing.T) {
	cases := []model.ContributorProfile{
		{Class: "12", Stream: "ENGINEERING"},
		{Class: "11", Stream: "SCIENCE"},
		{Class: ""},
	}
	for _, p := range cases {
		v := Evaluate(p)
		if v.Eligible {
			t.Errorf("expected ineligible for class=%q stream=%q", p.Class, p.Stream)
		}
		if v.Reason != "invalid stream" {
			t.Errorf("unexpected reason for class=%q stream=%q: %q", p.Class, p.Stream, v.Reason)
		}
	}
}

// TestEvaluateDeterministic verifies that repeated evaluation of the same
// record yields the same verdict.
func TestEvaluateDeterministic(t *testing.T) {
	p := class12Profile("COMMERCE", map[string]int{
		"Accountancy":      95,
		"Business Studies": 93,
		"Economics":        91,
	})
	first := Evaluate(p)
	for i := 0; i < 10; i++ {
		if got := Evaluate(p); got != first {
			t.Fatalf("verdict changed on iteration %d: %+v vs %+v", i, got, first)
		}
	}
}

// TestSubjectAllowed verifies the per-stream upload allow-list and that
// Track10 is unrestricted.
func TestSubjectAllowed(t *testing.T) {
	if !SubjectAllowed(Track12Science, "Biology") {
		t.Error("Biology should be allowed for Science")
	}
	if SubjectAllowed(Track12Commerce, "Physics") {
		t.Error("Physics should not be allowed for Commerce")
	}
	if !SubjectAllowed(Track10, "Anything") {
		t.Error("Track10 uploads are not stream-restricted")
	}
}
