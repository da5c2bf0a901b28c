// internal/service/document.go
// Document lifecycle and read surfaces: upload, publish decision, the
// public marketplace, the detail page, raw previews, and the buyer list.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Kb28022004/toperNoteBackend/internal/access"
	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/rules"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

// UploadDocument registers a new document for review. The uploader must be
// an approved, verified contributor and the subject must be allowed for
// their stream. Preview derivation is best-effort: a rasterizer failure
// leaves the preview list empty but does not block the upload.
func (s *Service) UploadDocument(ctx context.Context, viewer model.Viewer, req model.UploadDocumentRequest, raw []byte) (*model.Document, error) {
	if viewer.IsAnonymous() {
		return nil, errors.Authn("sign in to upload notes")
	}
	profile, err := s.store.GetProfileByUser(ctx, viewer.UserID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.Authz("only approved contributors can upload")
		}
		return nil, errors.Dependency("load contributor", err)
	}
	if profile.Status != model.ProfileApproved || !profile.Verified {
		return nil, errors.Authz("only approved contributors can upload")
	}

	if err := s.validator.ValidateDocumentUpload(raw); err != nil {
		return nil, errors.NewWithDetails(errors.MKT_SCHEMA_REJECT,
			"upload failed validation", "", err.Error())
	}
	if req.PDFPath == "" {
		return nil, errors.Validation("a PDF upload is required")
	}

	track := rules.ResolveTrack(profile.Class, profile.Stream)
	if !rules.SubjectAllowed(track, req.Subject) {
		return nil, errors.Validation(
			fmt.Sprintf("subject %q is not allowed for your stream", req.Subject))
	}

	pageCount, err := s.raster.PageCount(ctx, req.PDFPath)
	if err != nil || pageCount < 1 {
		return nil, errors.Validation("uploaded PDF is unreadable")
	}

	previewCount := req.PublicPreviewCount
	if previewCount <= 0 {
		previewCount = access.DerivedPreviewCount(pageCount)
	}
	if previewCount > pageCount {
		previewCount = pageCount
	}

	docID := uuid.NewString()
	previewDir := filepath.Join(s.opts.UploadDir, "previews", docID)
	previews, rerr := s.raster.ExtractPreviewPages(ctx, req.PDFPath, previewDir, previewCount)
	if rerr != nil {
		s.logger.Warn("preview derivation failed, continuing without previews",
			"document", docID, "error", rerr)
		previews = nil
	}
	relative := make([]string, len(previews))
	for i, name := range previews {
		relative[i] = filepath.ToSlash(filepath.Join("previews", docID, name))
	}

	doc := model.Document{
		ID:                 docID,
		ContributorID:      viewer.UserID,
		Subject:            req.Subject,
		ChapterName:        req.ChapterName,
		Class:              req.Class,
		Board:              req.Board,
		Price:              req.Price,
		PDFPath:            req.PDFPath,
		PageCount:          pageCount,
		PreviewPages:       relative,
		PublicPreviewCount: previewCount,
		Tags:               req.Tags,
		Status:             model.DocumentUnderReview,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, errors.Dependency("save document", err)
	}
	return &doc, nil
}

// PublishDecision applies an admin decision to a document under review.
// Approval additionally requires the owning contributor to still be approved
// and the document to have at least one page.
func (s *Service) PublishDecision(ctx context.Context, admin model.Viewer, documentID string, approve bool, remark string) (*model.Document, error) {
	if admin.Role != model.RoleAdmin {
		return nil, errors.Authz("only admins decide publications")
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("document not found")
		}
		return nil, errors.Dependency("load document", err)
	}
	if doc.Status != model.DocumentUnderReview {
		return nil, errors.State(
			fmt.Sprintf("document is %s, only documents under review can be decided", doc.Status))
	}

	status := model.DocumentRejected
	if approve {
		owner, err := s.store.GetProfileByUser(ctx, doc.ContributorID)
		if err != nil {
			return nil, errors.Dependency("load contributor", err)
		}
		if owner.Status != model.ProfileApproved {
			return nil, errors.State("owning contributor is no longer approved")
		}
		if doc.PageCount < 1 {
			return nil, errors.State("document has no pages")
		}
		status = model.DocumentPublished
	}

	if err := s.store.UpdateDocumentDecision(ctx, documentID, status, remark); err != nil {
		return nil, errors.Dependency("record decision", err)
	}
	s.metrics.DocumentDecisionsTotal.WithLabelValues(string(status)).Inc()

	keys := []string{
		cache.DocumentListingKey(model.DocumentUnderReview),
		cache.DocumentListingKey(status),
	}
	if status == model.DocumentPublished {
		if err := s.store.AddProfileCounters(ctx, doc.ContributorID,
			storage.CounterDelta{TotalDocuments: 1}); err != nil {
			s.logger.Warn("document counter update failed",
				"contributor", doc.ContributorID, "error", err)
		}
		keys = append(keys, cache.DirectoryKey())
		s.publish(ctx, event.TypeDocumentPublished, event.DocumentPublished{
			DocumentID:    doc.ID,
			ContributorID: doc.ContributorID,
			Subject:       doc.Subject,
			Status:        string(status),
		})
	}
	s.cache.Invalidate(ctx, keys...)

	doc.Status = status
	doc.AdminRemark = remark
	return doc, nil
}

// ListDocumentsByStatus serves the admin document queue through the cache.
func (s *Service) ListDocumentsByStatus(ctx context.Context, admin model.Viewer, status model.DocumentStatus) ([]model.ListingEntry, error) {
	if admin.Role != model.RoleAdmin {
		return nil, errors.Authz("only admins view the review queue")
	}

	entries, err := cache.GetOrCompute(ctx, s.cache, cache.DocumentListingKey(status), s.opts.TTLs.Listing,
		func(ctx context.Context) ([]model.ListingEntry, error) {
			docs, err := s.store.ListDocumentsByStatus(ctx, status)
			if err != nil {
				return nil, errors.Dependency("list documents", err)
			}
			entries := make([]model.ListingEntry, 0, len(docs))
			for _, d := range docs {
				entries = append(entries, model.ListingEntry{
					ID:          d.ID,
					Kind:        "document",
					Title:       d.ChapterName,
					Subject:     d.Subject,
					Class:       d.Class,
					Board:       d.Board,
					Price:       d.Price,
					Status:      string(d.Status),
					ArtifactURL: d.PDFPath, // relative until resolved below
					CreatedAt:   d.CreatedAt,
				})
			}
			return entries, nil
		})
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].ArtifactURL = s.resolve(ctx, entries[i].ArtifactURL)
	}
	return entries, nil
}

// GetMarketplace returns one page of the public marketplace. Only anonymous
// traffic is served from the cache; signed-in reads always compute fresh so
// they never observe another viewer's page shape.
func (s *Service) GetMarketplace(ctx context.Context, viewer model.Viewer, filter model.MarketplaceFilter, page, limit int) (*model.MarketplacePage, error) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}

	compute := func(ctx context.Context) (model.MarketplacePage, error) {
		docs, total, err := s.store.ListPublished(ctx, filter, page, limit)
		if err != nil {
			return model.MarketplacePage{}, errors.Dependency("list marketplace", err)
		}
		cards := make([]model.DocumentCard, 0, len(docs))
		for _, d := range docs {
			cards = append(cards, s.cardFor(d))
		}
		pages := (total + limit - 1) / limit
		return model.MarketplacePage{
			Documents:  cards,
			Pagination: model.Pagination{Total: total, Page: page, Pages: pages, Limit: limit},
		}, nil
	}

	var result model.MarketplacePage
	var err error
	if viewer.IsAnonymous() {
		result, err = cache.GetOrCompute(ctx, s.cache,
			cache.MarketplaceKey(filter, page, limit), s.opts.TTLs.Marketplace, compute)
	} else {
		result, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}

	for i := range result.Documents {
		result.Documents[i].CoverImage = s.resolve(ctx, result.Documents[i].CoverImage)
		result.Documents[i].PreviewPages = s.resolveAll(ctx, result.Documents[i].PreviewPages)
	}
	return &result, nil
}

// detailPayload is the identity-independent portion of the detail page that
// is safe to cache for all viewers.
type detailPayload struct {
	Document model.Document `json:"document"`
	Reviews  []model.Review `json:"reviews"`
}

// GetDocumentDetail returns the single-document page. The document and its
// reviews are cached once for all viewers; the purchase check and the
// preview slice for this viewer are computed on every request.
func (s *Service) GetDocumentDetail(ctx context.Context, viewer model.Viewer, documentID string) (*model.DocumentDetail, error) {
	payload, err := cache.GetOrCompute(ctx, s.cache, cache.DetailKey(documentID), s.opts.TTLs.Detail,
		func(ctx context.Context) (detailPayload, error) {
			doc, err := s.store.GetDocument(ctx, documentID)
			if err != nil {
				if stderrors.Is(err, storage.ErrNotFound) {
					return detailPayload{}, errors.NotFound("document not found")
				}
				return detailPayload{}, errors.Dependency("load document", err)
			}
			if doc.Status != model.DocumentPublished {
				return detailPayload{}, errors.NotFound("document not found")
			}
			reviews, err := s.store.ListReviewsByDocument(ctx, documentID)
			if err != nil {
				return detailPayload{}, errors.Dependency("list reviews", err)
			}
			return detailPayload{Document: *doc, Reviews: reviews}, nil
		})
	if err != nil {
		return nil, err
	}
	doc := payload.Document

	hasPurchased := false
	if !viewer.IsAnonymous() && viewer.UserID != doc.ContributorID {
		hasPurchased, err = s.store.OrderExists(ctx, documentID, viewer.UserID, model.PaymentSuccess)
		if err != nil {
			return nil, errors.Dependency("check purchase", err)
		}
	}
	// Owners see their own document in full.
	if viewer.UserID == doc.ContributorID {
		hasPurchased = true
	}

	slice := access.Reveal(doc, viewer.Role, hasPurchased, s.opts.Fractions.Detail)
	detail := &model.DocumentDetail{
		ID:            doc.ID,
		ContributorID: doc.ContributorID,
		Title:         doc.ChapterName,
		Subject:       doc.Subject,
		ChapterName:   doc.ChapterName,
		Class:         doc.Class,
		Board:         doc.Board,
		Price:         doc.Price,
		PageCount:     doc.PageCount,
		Stats:         doc.Stats,
		HasPurchased:  hasPurchased,
		PreviewPages:  s.resolveAll(ctx, slice.Pages),
		Reviews:       payload.Reviews,
	}
	if slice.FullArtifact {
		detail.FullPDFURL = s.resolve(ctx, slice.ArtifactPath)
	}
	return detail, nil
}

// GetDocumentPreview returns the raw preview slice sized by the document's
// stored public preview count.
func (s *Service) GetDocumentPreview(ctx context.Context, viewer model.Viewer, documentID string) ([]string, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("document not found")
		}
		return nil, errors.Dependency("load document", err)
	}
	// Admins and the owning contributor may preview before publication.
	isOwner := !viewer.IsAnonymous() && viewer.UserID == doc.ContributorID
	if doc.Status != model.DocumentPublished && viewer.Role != model.RoleAdmin && !isOwner {
		return nil, errors.NotFound("document not found")
	}

	hasPurchased := false
	if !viewer.IsAnonymous() {
		hasPurchased, err = s.store.OrderExists(ctx, documentID, viewer.UserID, model.PaymentSuccess)
		if err != nil {
			return nil, errors.Dependency("check purchase", err)
		}
	}
	slice := access.RevealStored(*doc, viewer.Role, hasPurchased)
	return s.resolveAll(ctx, slice.Pages), nil
}

// GetDocumentBuyers lists successful purchases of a document. Only the
// owning contributor and admins may see it.
func (s *Service) GetDocumentBuyers(ctx context.Context, viewer model.Viewer, documentID string) ([]model.BuyerEntry, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("document not found")
		}
		return nil, errors.Dependency("load document", err)
	}
	if viewer.Role != model.RoleAdmin && viewer.UserID != doc.ContributorID {
		return nil, errors.Authz("only the document owner can view buyers")
	}

	orders, err := s.store.ListOrdersByDocument(ctx, documentID, model.PaymentSuccess)
	if err != nil {
		return nil, errors.Dependency("list orders", err)
	}
	buyers := make([]model.BuyerEntry, 0, len(orders))
	for _, o := range orders {
		buyers = append(buyers, model.BuyerEntry{
			StudentID:   o.StudentID,
			PurchasedAt: o.CreatedAt,
			AmountPaid:  o.AmountPaid,
		})
	}
	return buyers, nil
}
