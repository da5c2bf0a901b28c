// internal/service/purchase.go
// Checkout, payment confirmation, and reviews. Purchase confirmation is
// idempotent by gateway order id, and the durable write is shielded from
// request cancellation: once the signature verifies, the order completes.
package service

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/payment"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

// CreateOrder opens a checkout for a published document: a gateway order is
// created and a Pending local order records it.
func (s *Service) CreateOrder(ctx context.Context, viewer model.Viewer, documentID string) (*model.CheckoutSession, error) {
	if viewer.IsAnonymous() {
		return nil, errors.Authn("sign in to purchase notes")
	}
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("document not found")
		}
		return nil, errors.Dependency("load document", err)
	}
	if doc.Status != model.DocumentPublished {
		return nil, errors.NotFound("document not found")
	}
	if doc.ContributorID == viewer.UserID {
		return nil, errors.Validation("cannot purchase your own notes")
	}
	if doc.Price <= 0 {
		return nil, errors.Validation("this document does not require checkout")
	}

	purchased, err := s.store.OrderExists(ctx, documentID, viewer.UserID, model.PaymentSuccess)
	if err != nil {
		return nil, errors.Dependency("check purchase", err)
	}
	if purchased {
		return nil, errors.State("document already purchased")
	}

	receipt := ulid.Make().String()
	// Gateway amounts are in the smallest currency unit.
	gwOrder, err := s.gateway.CreateOrder(ctx, doc.Price*100, receipt)
	if err != nil {
		return nil, errors.Dependency("create gateway order", err)
	}

	order := model.Order{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		ContributorID:  doc.ContributorID,
		StudentID:      viewer.UserID,
		AmountPaid:     doc.Price,
		Receipt:        receipt,
		GatewayOrderID: gwOrder.OrderID,
		PaymentStatus:  model.PaymentPending,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, errors.Dependency("save order", err)
	}
	return &model.CheckoutSession{
		OrderID:        order.ID,
		GatewayOrderID: gwOrder.OrderID,
		Amount:         gwOrder.Amount,
		Currency:       gwOrder.Currency,
		KeyID:          gwOrder.KeyID,
	}, nil
}

// ConfirmPurchase verifies the gateway signature and finalizes the order.
// Replaying a confirmation for an already-successful order returns the
// existing order without side effects. From the moment the signature
// verifies, the write proceeds even if the caller disconnects.
func (s *Service) ConfirmPurchase(ctx context.Context, viewer model.Viewer, gatewayOrderID, paymentID, signature string) (*model.Order, error) {
	order, err := s.store.GetOrderByGatewayID(ctx, gatewayOrderID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("order not found")
		}
		return nil, errors.Dependency("load order", err)
	}
	if !viewer.IsAnonymous() && viewer.UserID != order.StudentID {
		return nil, errors.Authz("order belongs to a different student")
	}
	if order.PaymentStatus == model.PaymentSuccess {
		s.metrics.PurchasesTotal.WithLabelValues("replay").Inc()
		return order, nil
	}
	if order.PaymentStatus != model.PaymentPending {
		return nil, errors.State("order payment is already finalized")
	}

	// A mismatch leaves the order Pending: a garbled callback must not
	// finalize the order and lock out a later correctly signed one.
	if !payment.VerifySignature(s.opts.GatewaySecret, gatewayOrderID, paymentID, signature) {
		s.metrics.PurchasesTotal.WithLabelValues("signature_mismatch").Inc()
		return nil, errors.Signature("payment signature verification failed")
	}

	// The payment is real; do not let a dropped connection abort the
	// durable write halfway through.
	wctx := context.WithoutCancel(ctx)
	if err := s.store.MarkOrderPayment(wctx, order.ID, model.PaymentSuccess, paymentID, signature); err != nil {
		if stderrors.Is(err, storage.ErrConflict) {
			// A concurrent delivery of this confirmation won the
			// transition; only the winner updates the counters.
			final, ferr := s.store.GetOrderByGatewayID(wctx, gatewayOrderID)
			if ferr == nil && final.PaymentStatus == model.PaymentSuccess {
				s.metrics.PurchasesTotal.WithLabelValues("replay").Inc()
				return final, nil
			}
			return nil, errors.State("order payment is already finalized")
		}
		return nil, errors.Dependency("finalize order", err)
	}
	if err := s.store.AddDocumentSold(wctx, order.DocumentID, 1); err != nil {
		s.logger.Warn("sold counter update failed", "document", order.DocumentID, "error", err)
	}
	if err := s.store.AddProfileCounters(wctx, order.ContributorID,
		storage.CounterDelta{TotalSold: 1}); err != nil {
		s.logger.Warn("contributor sold counter update failed",
			"contributor", order.ContributorID, "error", err)
	}
	s.metrics.PurchasesTotal.WithLabelValues("confirmed").Inc()

	s.cache.Invalidate(wctx, cache.ProfileKey(order.ContributorID))
	s.publish(wctx, event.TypePurchaseConfirmed, event.PurchaseConfirmed{
		OrderID:       order.ID,
		DocumentID:    order.DocumentID,
		ContributorID: order.ContributorID,
		StudentID:     order.StudentID,
		AmountPaid:    order.AmountPaid,
	})

	order.PaymentStatus = model.PaymentSuccess
	order.GatewayPaymentID = paymentID
	order.GatewaySignature = signature
	return order, nil
}

// UpsertReview records or replaces the viewer's review of a document, then
// recomputes the document aggregate and the contributor's weighted
// aggregate from the stored reviews.
func (s *Service) UpsertReview(ctx context.Context, viewer model.Viewer, documentID string, rating int, comment string) (*model.Review, error) {
	if viewer.IsAnonymous() {
		return nil, errors.Authn("sign in to review notes")
	}
	if rating < 1 || rating > 5 {
		return nil, errors.Validation("rating must be between 1 and 5")
	}
	if len(comment) > 500 {
		return nil, errors.Validation("comment must be at most 500 characters")
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound("document not found")
		}
		return nil, errors.Dependency("load document", err)
	}
	if doc.Status != model.DocumentPublished {
		return nil, errors.NotFound("document not found")
	}
	if doc.ContributorID == viewer.UserID {
		return nil, errors.Validation("cannot review your own notes")
	}

	purchased, err := s.store.OrderExists(ctx, documentID, viewer.UserID, model.PaymentSuccess)
	if err != nil {
		return nil, errors.Dependency("check purchase", err)
	}

	review, err := s.store.UpsertReview(ctx, model.Review{
		DocumentID:         documentID,
		StudentID:          viewer.UserID,
		Rating:             rating,
		Comment:            comment,
		IsVerifiedPurchase: purchased,
	})
	if err != nil {
		return nil, errors.Dependency("save review", err)
	}

	avg, count, err := s.store.DocumentRating(ctx, documentID)
	if err != nil {
		return nil, errors.Dependency("aggregate ratings", err)
	}
	if err := s.store.SetDocumentRating(ctx, documentID, avg, count); err != nil {
		return nil, errors.Dependency("store document rating", err)
	}

	keys := []string{cache.DetailKey(documentID)}
	changed, err := s.recomputeContributorRating(ctx, doc.ContributorID)
	if err != nil {
		return nil, err
	}
	if changed {
		keys = append(keys, cache.ProfileKey(doc.ContributorID))
	}
	s.cache.Invalidate(ctx, keys...)
	return review, nil
}

// recomputeContributorRating rebuilds the contributor's rating from their
// published documents, weighting each document's average by its review
// count. It reports whether the stored aggregate actually changed.
func (s *Service) recomputeContributorRating(ctx context.Context, contributorID string) (bool, error) {
	profile, err := s.store.GetProfileByUser(ctx, contributorID)
	if err != nil {
		return false, errors.Dependency("load contributor", err)
	}
	docs, err := s.store.ListPublishedByContributor(ctx, contributorID, 0)
	if err != nil {
		return false, errors.Dependency("list contributor documents", err)
	}
	avg, count := weightedRating(docs)
	if profile.Stats.RatingAverage == avg && profile.Stats.RatingCount == count {
		return false, nil
	}
	if err := s.store.SetProfileRating(ctx, contributorID, avg, count); err != nil {
		return false, errors.Dependency("store contributor rating", err)
	}
	return true, nil
}
