// internal/access/access_test.go
// Package access provides unit tests for the content-disclosure policy.
package access

import (
	"fmt"
	"testing"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

func docWithPages(n int) model.Document {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("previews/doc-1-page-%d.pdf", i+1)
	}
	return model.Document{
		ID:                 "doc-1",
		PDFPath:            "notes/doc-1.pdf",
		PageCount:          n,
		PreviewPages:       pages,
		PublicPreviewCount: 3,
	}
}

// TestRevealAdminFullAccess verifies that admins see the entire preview
// sequence plus a reference to the full artifact.
func TestRevealAdminFullAccess(t *testing.T) {
	doc := docWithPages(10)
	v := Reveal(doc, model.RoleAdmin, false, 0.25)
	if !v.FullArtifact {
		t.Fatal("admin should get full artifact access")
	}
	if v.ArtifactPath != doc.PDFPath {
		t.Errorf("artifact path = %q, want %q", v.ArtifactPath, doc.PDFPath)
	}
	if len(v.Pages) != 10 {
		t.Errorf("admin pages = %d, want all 10", len(v.Pages))
	}
}

// TestRevealPurchased verifies that any purchaser gets full-artifact access
// without preview slicing.
func TestRevealPurchased(t *testing.T) {
	doc := docWithPages(10)
	for _, role := range []model.Role{model.RoleStudent, model.RoleTopper} {
		v := Reveal(doc, role, true, 0.30)
		if !v.FullArtifact {
			t.Errorf("purchaser with role %q should get full artifact", role)
		}
		if len(v.Pages) != 0 {
			t.Errorf("purchaser gets the artifact, not sliced previews; got %d pages", len(v.Pages))
		}
	}
}

// TestRevealFractions verifies the per-call-site fractions for a ten-page
// document: a quarter and three tenths both yield exactly three pages.
func TestRevealFractions(t *testing.T) {
	doc := docWithPages(10)
	cases := []struct {
		fraction float64
		want     int
	}{
		{0.25, 3},
		{0.30, 3},
		{0.10, 1},
		{1.0, 10},
	}
	for _, tc := range cases {
		v := Reveal(doc, model.RoleStudent, false, tc.fraction)
		if len(v.Pages) != tc.want {
			t.Errorf("fraction %.2f: pages = %d, want %d", tc.fraction, len(v.Pages), tc.want)
		}
		if v.FullArtifact {
			t.Errorf("fraction %.2f: unpurchased viewer must not get the artifact", tc.fraction)
		}
		if v.TotalPages != 10 {
			t.Errorf("fraction %.2f: total pages = %d, want 10", tc.fraction, v.TotalPages)
		}
	}
}

// TestRevealNeverExceedsPageCount verifies that the slice is bounded by the
// number of available preview pages, and is never empty for a non-empty
// preview sequence.
func TestRevealNeverExceedsPageCount(t *testing.T) {
	for pages := 1; pages <= 12; pages++ {
		doc := docWithPages(pages)
		for _, fraction := range []float64{0.01, 0.25, 0.30, 0.99, 2.0} {
			v := Reveal(doc, model.RoleAnonymous, false, fraction)
			if len(v.Pages) > pages {
				t.Fatalf("pages=%d fraction=%.2f revealed %d", pages, fraction, len(v.Pages))
			}
			if len(v.Pages) < 1 {
				t.Fatalf("pages=%d fraction=%.2f revealed nothing", pages, fraction)
			}
		}
	}
}

// TestRevealStoredUsesUploadCount verifies that the raw preview endpoint
// honors the per-document count fixed at upload time.
func TestRevealStoredUsesUploadCount(t *testing.T) {
	doc := docWithPages(10)
	doc.PublicPreviewCount = 5
	v := RevealStored(doc, model.RoleStudent, false)
	if len(v.Pages) != 5 {
		t.Errorf("stored preview pages = %d, want 5", len(v.Pages))
	}

	// The stored count never reveals more pages than exist.
	doc.PublicPreviewCount = 50
	v = RevealStored(doc, model.RoleAnonymous, false)
	if len(v.Pages) != 10 {
		t.Errorf("stored preview pages = %d, want clamp to 10", len(v.Pages))
	}
}

// TestDerivedPreviewCount verifies the upload-time default: one image or a
// quarter of the pages, whichever is larger.
func TestDerivedPreviewCount(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 2, 10: 3, 12: 3, 16: 4}
	for pages, want := range cases {
		if got := DerivedPreviewCount(pages); got != want {
			t.Errorf("DerivedPreviewCount(%d) = %d, want %d", pages, got, want)
		}
	}
}
