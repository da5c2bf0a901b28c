// internal/access/access.go
// Package access implements the tiered content-disclosure policy: given a
// document, the viewer's role, and their purchase state, it computes which
// slice of the preview material may be revealed. Pure computation, no I/O.
package access

import (
	"math"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// Fractions are the per-call-site preview fractions. The three call sites
// intentionally use different fractions (marketplace thumbnails, the detail
// page, and the raw preview endpoint's per-upload count); they are kept
// independently configurable rather than unified.
type Fractions struct {
	// Listing is the marketplace-listing fraction of pageCount.
	Listing float64
	// Detail is the single-document detail-page fraction of pageCount.
	Detail float64
}

// DefaultFractions mirrors the historical call-site behavior: one quarter on
// listings, three tenths on the detail page.
func DefaultFractions() Fractions {
	return Fractions{Listing: 0.25, Detail: 0.30}
}

// VisibleSlice is the disclosure decision for one viewer on one document.
type VisibleSlice struct {
	// FullArtifact is set for admins and purchasers: the viewer gets a
	// reference to the complete PDF and preview slicing does not apply.
	FullArtifact bool
	// ArtifactPath is the relative path of the full PDF when FullArtifact
	// is set. URL resolution happens at the edge.
	ArtifactPath string
	// Pages is the revealed ordered preview subset (relative paths).
	Pages []string
	// TotalPages echoes the document's page count so clients can show
	// "N of M pages".
	TotalPages int
}

// Reveal computes the visible preview slice for a fractional call site.
// It never reveals more pages than exist and never fewer than one (when any
// preview material exists at all).
func Reveal(doc model.Document, role model.Role, hasPurchased bool, fraction float64) VisibleSlice {
	if role == model.RoleAdmin {
		return VisibleSlice{
			FullArtifact: true,
			ArtifactPath: doc.PDFPath,
			Pages:        doc.PreviewPages,
			TotalPages:   doc.PageCount,
		}
	}
	if hasPurchased {
		return VisibleSlice{
			FullArtifact: true,
			ArtifactPath: doc.PDFPath,
			TotalPages:   doc.PageCount,
		}
	}
	return VisibleSlice{
		Pages:      clampSlice(doc.PreviewPages, fractionCount(doc.PageCount, fraction)),
		TotalPages: doc.PageCount,
	}
}

// RevealStored computes the visible preview slice for the raw preview
// endpoint, which uses the per-document preview count fixed at upload time
// instead of a fraction.
func RevealStored(doc model.Document, role model.Role, hasPurchased bool) VisibleSlice {
	if role == model.RoleAdmin || hasPurchased {
		return Reveal(doc, role, hasPurchased, 0)
	}
	return VisibleSlice{
		Pages:      clampSlice(doc.PreviewPages, maxInt(1, doc.PublicPreviewCount)),
		TotalPages: doc.PageCount,
	}
}

// DerivedPreviewCount is the default public preview count assigned at upload
// when none is configured: one image or a quarter of the pages, whichever is
// larger.
func DerivedPreviewCount(pageCount int) int {
	return fractionCount(pageCount, 0.25)
}

// fractionCount is max(1, ceil(pageCount * fraction)).
func fractionCount(pageCount int, fraction float64) int {
	n := int(math.Ceil(float64(pageCount) * fraction))
	return maxInt(1, n)
}

func clampSlice(pages []string, n int) []string {
	if n > len(pages) {
		n = len(pages)
	}
	if n <= 0 {
		return []string{}
	}
	return pages[:n]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
