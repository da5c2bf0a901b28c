// internal/rules/rules.go
// Package rules implements the publishing-eligibility rule engine for
// contributor academic records. Evaluation is pure: no I/O, deterministic
// given identical input, and safe to call repeatedly.
package rules

import (
	"fmt"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// Track is the closed set of academic track variants a contributor can
// submit under. Keying the criteria tables on Track (instead of raw
// class/stream strings) gives compile-time exhaustiveness over rule sets.
type Track int

const (
	TrackUnknown Track = iota
	Track10
	Track12Science
	Track12Commerce
	Track12Arts
)

// String returns the track name for logs and error details.
func (t Track) String() string {
	switch t {
	case Track10:
		return "Track10"
	case Track12Science:
		return "Track12Science"
	case Track12Commerce:
		return "Track12Commerce"
	case Track12Arts:
		return "Track12Arts"
	default:
		return "TrackUnknown"
	}
}

// ResolveTrack maps the stored class/stream strings onto the closed Track
// variant. Unrecognized combinations resolve to TrackUnknown.
func ResolveTrack(class, stream string) Track {
	switch class {
	case "10":
		return Track10
	case "12":
		switch stream {
		case "SCIENCE":
			return Track12Science
		case "COMMERCE":
			return Track12Commerce
		case "ARTS":
			return Track12Arts
		}
	}
	return TrackUnknown
}

// criteria is one track's eligibility rule set.
type criteria struct {
	// RequiredSubjectCount applies to Track10: the record must carry
	// exactly this many subject entries.
	RequiredSubjectCount int
	// CoreSubjects applies to Track12 streams: each must be present and
	// individually meet MinSubjectPercent.
	CoreSubjects      []string
	MinSubjectPercent int
	MinAveragePercent int
}

// criteriaByTrack is the rule-set table, keyed on the closed Track variant.
var criteriaByTrack = map[Track]criteria{
	Track10: {
		RequiredSubjectCount: 5,
		MinSubjectPercent:    85,
		MinAveragePercent:    90,
	},
	Track12Science: {
		CoreSubjects:      []string{"Physics", "Chemistry"},
		MinSubjectPercent: 85,
		MinAveragePercent: 90,
	},
	Track12Commerce: {
		CoreSubjects:      []string{"Accountancy", "Business Studies", "Economics"},
		MinSubjectPercent: 85,
		MinAveragePercent: 90,
	},
	Track12Arts: {
		CoreSubjects:      []string{"History", "Political Science", "Geography"},
		MinSubjectPercent: 80,
		MinAveragePercent: 85,
	},
}

// streamSubjects lists the subjects a class-12 contributor may upload
// documents for, per stream.
var streamSubjects = map[Track][]string{
	Track12Science:  {"Physics", "Chemistry", "Maths", "Biology"},
	Track12Commerce: {"Accountancy", "Business Studies", "Economics", "Maths"},
	Track12Arts:     {"History", "Political Science", "Geography", "Economics"},
}

// Verdict is the outcome of evaluating one academic record. Reason is empty
// when Eligible and otherwise names the first failing criterion.
type Verdict struct {
	Eligible bool
	Reason   string
}

func eligible() Verdict           { return Verdict{Eligible: true} }
func ineligible(r string) Verdict { return Verdict{Reason: r} }

// Evaluate applies the eligibility criteria for the profile's track to its
// subject marks. The first failing criterion wins: for Track12 streams,
// missing-core and below-threshold checks run subject-by-subject before the
// mean check.
func Evaluate(profile model.ContributorProfile) Verdict {
	track := ResolveTrack(profile.Class, profile.Stream)
	c, ok := criteriaByTrack[track]
	if !ok {
		return ineligible("invalid stream")
	}

	marks := profile.SubjectMarks
	switch track {
	case Track10:
		if len(marks) != c.RequiredSubjectCount {
			return ineligible(fmt.Sprintf("Class 10 must have %d subjects", c.RequiredSubjectCount))
		}
		for _, s := range marks {
			if s.Marks < c.MinSubjectPercent {
				return ineligible(fmt.Sprintf("Low marks in %s", s.Subject))
			}
		}
		if average(marks) < float64(c.MinAveragePercent) {
			return ineligible("Average below Class 10 topper criteria")
		}
	default:
		for _, core := range c.CoreSubjects {
			entry, found := findSubject(marks, core)
			if !found {
				return ineligible(fmt.Sprintf("Missing core subject: %s", core))
			}
			if entry.Marks < c.MinSubjectPercent {
				return ineligible(fmt.Sprintf("%s marks below criteria", core))
			}
		}
		if len(marks) == 0 || average(marks) < float64(c.MinAveragePercent) {
			return ineligible("Average below topper criteria")
		}
	}
	return eligible()
}

// AllowedUploadSubjects returns the subjects the track may publish documents
// for. Track10 contributors are not stream-restricted; a nil slice means no
// restriction applies.
func AllowedUploadSubjects(track Track) []string {
	return streamSubjects[track]
}

// SubjectAllowed reports whether the track may upload documents for the
// given subject.
func SubjectAllowed(track Track, subject string) bool {
	allowed := streamSubjects[track]
	if allowed == nil {
		return true
	}
	for _, s := range allowed {
		if s == subject {
			return true
		}
	}
	return false
}

func findSubject(marks []model.SubjectMark, subject string) (model.SubjectMark, bool) {
	for _, s := range marks {
		if s.Subject == subject {
			return s, true
		}
	}
	return model.SubjectMark{}, false
}

func average(marks []model.SubjectMark) float64 {
	sum := 0
	for _, s := range marks {
		sum += s.Marks
	}
	return float64(sum) / float64(len(marks))
}
