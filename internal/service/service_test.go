package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kb28022004/toperNoteBackend/internal/access"
	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/media"
	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/payment"
	"github.com/Kb28022004/toperNoteBackend/internal/schema"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

const testGatewaySecret = "gateway-test-secret"

// fakeRasterizer avoids touching real PDFs in unit tests.
type fakeRasterizer struct {
	pages int
	fail  bool
}

func (f fakeRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	if f.fail {
		return 0, fmt.Errorf("corrupt file")
	}
	return f.pages, nil
}

func (f fakeRasterizer) ExtractPreviewPages(ctx context.Context, path, outDir string, n int) ([]string, error) {
	if f.fail {
		return nil, fmt.Errorf("corrupt file")
	}
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("page-%d.pdf", i))
	}
	return names, nil
}

func newTestService(t *testing.T, rast fakeRasterizer) (*Service, storage.Store, *cache.Coordinator) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	store := storage.NewMemory()
	coordinator := cache.NewCoordinator(cache.NewMemory(), logger, m, 0)
	validator, err := schema.NewValidator()
	if err != nil {
		t.Fatalf("schema.NewValidator() error = %v", err)
	}
	svc := New(store, coordinator, rast, media.NewLocal("http://test/media"),
		payment.NewMock("key_test"), event.NewNoop(), validator, m, logger,
		Options{
			Fractions:     access.DefaultFractions(),
			GatewaySecret: testGatewaySecret,
			UploadDir:     t.TempDir(),
		})
	return svc, store, coordinator
}

var (
	admin   = model.Viewer{UserID: "admin-1", Role: model.RoleAdmin}
	student = model.Viewer{UserID: "student-1", Role: model.RoleStudent, Class: "12", Stream: "COMMERCE"}
	topper  = model.Viewer{UserID: "topper-1", Role: model.RoleStudent, Class: "12", Stream: "COMMERCE"}
)

func commerceRecord() model.SubmissionRecord {
	return model.SubmissionRecord{
		FirstName: "Riya",
		LastName:  "Shah",
		Class:     "12",
		Stream:    "COMMERCE",
		Board:     "CBSE",
		SubjectMarks: []model.SubjectMark{
			{Subject: "Accountancy", Marks: 95},
			{Subject: "Business Studies", Marks: 92},
			{Subject: "Economics", Marks: 91},
			{Subject: "Maths", Marks: 88},
		},
		MarksheetPath: "marksheets/topper-1.pdf",
	}
}

func submitJSON(t *testing.T, record model.SubmissionRecord) []byte {
	t.Helper()
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return raw
}

func uploadJSON(t *testing.T, req model.UploadDocumentRequest) []byte {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal upload: %v", err)
	}
	return raw
}

// approveContributor walks a viewer through submission and approval.
func approveContributor(t *testing.T, svc *Service, viewer model.Viewer, record model.SubmissionRecord) *model.ContributorProfile {
	t.Helper()
	ctx := context.Background()
	profile, err := svc.SubmitForReview(ctx, viewer, record, submitJSON(t, record))
	if err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}
	decided, err := svc.DecideContributor(ctx, admin, profile.ID, true, "")
	if err != nil {
		t.Fatalf("DecideContributor() error = %v", err)
	}
	if decided.Status != model.ProfileApproved {
		t.Fatalf("decision status = %s, want APPROVED (%s)", decided.Status, decided.AdminRemark)
	}
	return decided
}

// publishDocument uploads and approves a document for the given contributor.
func publishDocument(t *testing.T, svc *Service, contributor model.Viewer, subject string, price int) *model.Document {
	t.Helper()
	ctx := context.Background()
	req := model.UploadDocumentRequest{
		Subject:     subject,
		ChapterName: "Chapter One",
		Class:       "12",
		Board:       "CBSE",
		Price:       price,
		PDFPath:     "uploads/notes.pdf",
	}
	doc, err := svc.UploadDocument(ctx, contributor, req, uploadJSON(t, req))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	published, err := svc.PublishDecision(ctx, admin, doc.ID, true, "")
	if err != nil {
		t.Fatalf("PublishDecision() error = %v", err)
	}
	if published.Status != model.DocumentPublished {
		t.Fatalf("publish status = %s, want PUBLISHED", published.Status)
	}
	return published
}

// purchase walks a student through checkout and a signed confirmation.
func purchase(t *testing.T, svc *Service, buyer model.Viewer, documentID string) *model.Order {
	t.Helper()
	ctx := context.Background()
	session, err := svc.CreateOrder(ctx, buyer, documentID)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	sig := payment.Sign(testGatewaySecret, session.GatewayOrderID, "pay-1")
	order, err := svc.ConfirmPurchase(ctx, buyer, session.GatewayOrderID, "pay-1", sig)
	if err != nil {
		t.Fatalf("ConfirmPurchase() error = %v", err)
	}
	return order
}

func TestEndToEndCommerceFlow(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Accountancy", 99)

	// Anonymous marketplace shows the document with a quarter-sized preview.
	page, err := svc.GetMarketplace(ctx, model.Viewer{}, model.MarketplaceFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("GetMarketplace() error = %v", err)
	}
	if len(page.Documents) != 1 {
		t.Fatalf("marketplace has %d documents, want 1", len(page.Documents))
	}
	if got := len(page.Documents[0].PreviewPages); got != 3 {
		t.Errorf("listing preview pages = %d, want 3 (ceil(10*0.25))", got)
	}

	order := purchase(t, svc, student, doc.ID)
	if order.PaymentStatus != model.PaymentSuccess {
		t.Fatalf("order status = %s, want SUCCESS", order.PaymentStatus)
	}

	// The purchaser now gets the full artifact on the detail page.
	detail, err := svc.GetDocumentDetail(ctx, student, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentDetail() error = %v", err)
	}
	if !detail.HasPurchased || detail.FullPDFURL == "" {
		t.Errorf("purchaser detail = purchased %v fullPDF %q, want access", detail.HasPurchased, detail.FullPDFURL)
	}

	// Review lands in both aggregates.
	if _, err := svc.UpsertReview(ctx, student, doc.ID, 5, "excellent notes"); err != nil {
		t.Fatalf("UpsertReview() error = %v", err)
	}
	detail, err = svc.GetDocumentDetail(ctx, model.Viewer{}, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentDetail() after review error = %v", err)
	}
	if detail.Stats.RatingAverage != 5 || detail.Stats.RatingCount != 1 {
		t.Errorf("detail rating = (%v, %d), want (5, 1)", detail.Stats.RatingAverage, detail.Stats.RatingCount)
	}
	profile, err := svc.GetContributorProfile(ctx, model.Viewer{}, topper.UserID)
	if err != nil {
		t.Fatalf("GetContributorProfile() error = %v", err)
	}
	if profile.Stats.RatingAverage != 5 || profile.Stats.TotalSold != 1 {
		t.Errorf("contributor stats = %+v, want rating 5 and 1 sold", profile.Stats)
	}
}

func TestApproveIneligibleRecordsRejection(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	record := commerceRecord()
	record.SubjectMarks = []model.SubjectMark{
		{Subject: "Accountancy", Marks: 70}, // below the core threshold
		{Subject: "Business Studies", Marks: 92},
		{Subject: "Economics", Marks: 91},
	}
	profile, err := svc.SubmitForReview(ctx, topper, record, submitJSON(t, record))
	if err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}

	decided, err := svc.DecideContributor(ctx, admin, profile.ID, true, "")
	if err != nil {
		t.Fatalf("DecideContributor() error = %v", err)
	}
	if decided.Status != model.ProfileRejected {
		t.Errorf("status = %s, want REJECTED", decided.Status)
	}
	if decided.AdminRemark == "" {
		t.Error("rejection remark is empty, want the engine reason")
	}
}

func TestAdminRejectionIsNotEngineGated(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	// A fully eligible record can still be rejected by the admin.
	profile, err := svc.SubmitForReview(ctx, topper, commerceRecord(), submitJSON(t, commerceRecord()))
	if err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}
	decided, err := svc.DecideContributor(ctx, admin, profile.ID, false, "marksheet unreadable")
	if err != nil {
		t.Fatalf("DecideContributor() error = %v", err)
	}
	if decided.Status != model.ProfileRejected || decided.AdminRemark != "marksheet unreadable" {
		t.Errorf("decision = %s %q, want REJECTED with admin remark", decided.Status, decided.AdminRemark)
	}
}

func TestDecisionInvalidatesPendingQueue(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	profile, err := svc.SubmitForReview(ctx, topper, commerceRecord(), submitJSON(t, commerceRecord()))
	if err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}

	// Warm the pending queue cache.
	pending, err := svc.ListContributorsByStatus(ctx, admin, model.ProfilePending)
	if err != nil {
		t.Fatalf("ListContributorsByStatus() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending queue has %d entries, want 1", len(pending))
	}

	if _, err := svc.DecideContributor(ctx, admin, profile.ID, false, "no"); err != nil {
		t.Fatalf("DecideContributor() error = %v", err)
	}

	// The very next read must not serve the stale cached queue.
	pending, err = svc.ListContributorsByStatus(ctx, admin, model.ProfilePending)
	if err != nil {
		t.Fatalf("ListContributorsByStatus() after decision error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending queue still has %d entries after decision", len(pending))
	}
	rejected, err := svc.ListContributorsByStatus(ctx, admin, model.ProfileRejected)
	if err != nil {
		t.Fatalf("ListContributorsByStatus(rejected) error = %v", err)
	}
	if len(rejected) != 1 {
		t.Errorf("rejected queue has %d entries, want 1", len(rejected))
	}
}

func TestConfirmPurchaseIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)

	session, err := svc.CreateOrder(ctx, student, doc.ID)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	sig := payment.Sign(testGatewaySecret, session.GatewayOrderID, "pay-1")

	for i := 0; i < 3; i++ {
		order, err := svc.ConfirmPurchase(ctx, student, session.GatewayOrderID, "pay-1", sig)
		if err != nil {
			t.Fatalf("ConfirmPurchase() attempt %d error = %v", i+1, err)
		}
		if order.PaymentStatus != model.PaymentSuccess {
			t.Fatalf("attempt %d status = %s", i+1, order.PaymentStatus)
		}
	}

	got, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Stats.SoldCount != 1 {
		t.Errorf("SoldCount = %d, want 1 (replays must not double-count)", got.Stats.SoldCount)
	}
	profile, err := store.GetProfileByUser(ctx, topper.UserID)
	if err != nil {
		t.Fatalf("GetProfileByUser() error = %v", err)
	}
	if profile.Stats.TotalSold != 1 {
		t.Errorf("TotalSold = %d, want 1", profile.Stats.TotalSold)
	}
}

func TestConfirmPurchaseBadSignature(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)

	session, err := svc.CreateOrder(ctx, student, doc.ID)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	_, err = svc.ConfirmPurchase(ctx, student, session.GatewayOrderID, "pay-1", "forged")
	if !errors.HasCode(err, errors.MKT_SIGNATURE) {
		t.Fatalf("ConfirmPurchase() error = %v, want MKT_SIGNATURE", err)
	}

	order, err := store.GetOrderByGatewayID(ctx, session.GatewayOrderID)
	if err != nil {
		t.Fatalf("GetOrderByGatewayID() error = %v", err)
	}
	if order.PaymentStatus != model.PaymentPending {
		t.Errorf("order status = %s after mismatch, want PENDING", order.PaymentStatus)
	}
	got, _ := store.GetDocument(ctx, doc.ID)
	if got.Stats.SoldCount != 0 {
		t.Errorf("SoldCount = %d after rejected confirmation, want 0", got.Stats.SoldCount)
	}

	// The student retries with the real gateway signature; the earlier
	// garbled callback must not have locked the order out.
	confirmed, err := svc.ConfirmPurchase(ctx, student, session.GatewayOrderID, "pay-1",
		payment.Sign(testGatewaySecret, session.GatewayOrderID, "pay-1"))
	if err != nil {
		t.Fatalf("ConfirmPurchase() retry error = %v", err)
	}
	if confirmed.PaymentStatus != model.PaymentSuccess {
		t.Errorf("retry status = %s, want SUCCESS", confirmed.PaymentStatus)
	}
	got, _ = store.GetDocument(ctx, doc.ID)
	if got.Stats.SoldCount != 1 {
		t.Errorf("SoldCount = %d after retry, want 1", got.Stats.SoldCount)
	}
}

func TestOwnerPreviewsUnpublishedDocument(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	req := model.UploadDocumentRequest{
		Subject:     "Economics",
		ChapterName: "Chapter One",
		Class:       "12",
		Board:       "CBSE",
		Price:       50,
		PDFPath:     "uploads/notes.pdf",
	}
	doc, err := svc.UploadDocument(ctx, topper, req, uploadJSON(t, req))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}

	pages, err := svc.GetDocumentPreview(ctx, topper, doc.ID)
	if err != nil {
		t.Fatalf("owner GetDocumentPreview() error = %v", err)
	}
	if len(pages) == 0 {
		t.Error("owner preview is empty")
	}

	if _, err := svc.GetDocumentPreview(ctx, student, doc.ID); !errors.HasCode(err, errors.MKT_NOT_FOUND) {
		t.Errorf("student GetDocumentPreview() error = %v, want MKT_NOT_FOUND", err)
	}
}

func TestConfirmPurchaseConcurrentDeliveries(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)

	session, err := svc.CreateOrder(ctx, student, doc.ID)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	sig := payment.Sign(testGatewaySecret, session.GatewayOrderID, "pay-1")

	// A gateway webhook retry can race the client callback; every
	// delivery must succeed but the sale settles exactly once.
	const deliveries = 16
	var wg sync.WaitGroup
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmPurchase(ctx, student, session.GatewayOrderID, "pay-1", sig)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("delivery %d: ConfirmPurchase() error = %v", i, err)
		}
	}
	got, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Stats.SoldCount != 1 {
		t.Errorf("SoldCount = %d, want 1", got.Stats.SoldCount)
	}
	profile, err := store.GetProfileByUser(ctx, topper.UserID)
	if err != nil {
		t.Fatalf("GetProfileByUser() error = %v", err)
	}
	if profile.Stats.TotalSold != 1 {
		t.Errorf("TotalSold = %d, want 1", profile.Stats.TotalSold)
	}
}

func TestGuestMarketplaceCachedPersonalizedFresh(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	publishDocument(t, svc, topper, "Economics", 50)

	// Warm the guest cache, then publish a second document directly in
	// the store so only uncached reads can see it.
	if _, err := svc.GetMarketplace(ctx, model.Viewer{}, model.MarketplaceFilter{}, 1, 10); err != nil {
		t.Fatalf("GetMarketplace() guest error = %v", err)
	}
	extra := model.Document{
		ID: "doc-extra", ContributorID: topper.UserID, Subject: "Maths",
		ChapterName: "Extra", Class: "12", Board: "CBSE", Price: 10,
		PageCount: 4, Status: model.DocumentPublished,
	}
	if err := store.CreateDocument(ctx, extra); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}

	guestPage, err := svc.GetMarketplace(ctx, model.Viewer{}, model.MarketplaceFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("GetMarketplace() guest error = %v", err)
	}
	if len(guestPage.Documents) != 1 {
		t.Errorf("guest sees %d documents, want 1 (cached page)", len(guestPage.Documents))
	}

	studentPage, err := svc.GetMarketplace(ctx, student, model.MarketplaceFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("GetMarketplace() student error = %v", err)
	}
	if len(studentPage.Documents) != 2 {
		t.Errorf("student sees %d documents, want 2 (fresh read)", len(studentPage.Documents))
	}
}

func TestToggleFollow(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())

	following, err := svc.ToggleFollow(ctx, student, topper.UserID)
	if err != nil {
		t.Fatalf("ToggleFollow() error = %v", err)
	}
	if !following {
		t.Error("first toggle = false, want following")
	}
	view, err := svc.GetContributorProfile(ctx, student, topper.UserID)
	if err != nil {
		t.Fatalf("GetContributorProfile() error = %v", err)
	}
	if !view.IsFollowing || view.Stats.FollowerCount != 1 {
		t.Errorf("after follow: isFollowing %v followers %d, want true 1",
			view.IsFollowing, view.Stats.FollowerCount)
	}

	following, err = svc.ToggleFollow(ctx, student, topper.UserID)
	if err != nil {
		t.Fatalf("ToggleFollow() unfollow error = %v", err)
	}
	if following {
		t.Error("second toggle = true, want unfollowed")
	}
	profile, err := store.GetProfileByUser(ctx, topper.UserID)
	if err != nil {
		t.Fatalf("GetProfileByUser() error = %v", err)
	}
	if profile.Stats.FollowerCount != 0 {
		t.Errorf("followers after unfollow = %d, want 0", profile.Stats.FollowerCount)
	}

	if _, err := svc.ToggleFollow(ctx, topper, topper.UserID); !errors.HasCode(err, errors.MKT_VALIDATION) {
		t.Errorf("self-follow error = %v, want MKT_VALIDATION", err)
	}
	if _, err := svc.ToggleFollow(ctx, model.Viewer{}, topper.UserID); !errors.HasCode(err, errors.MKT_AUTHN) {
		t.Errorf("anonymous follow error = %v, want MKT_AUTHN", err)
	}
}

func TestUploadRejectsStreamForeignSubject(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())

	req := model.UploadDocumentRequest{
		Subject:     "Physics", // not a Commerce subject
		ChapterName: "Optics",
		Class:       "12",
		Board:       "CBSE",
		Price:       99,
		PDFPath:     "uploads/notes.pdf",
	}
	_, err := svc.UploadDocument(ctx, topper, req, uploadJSON(t, req))
	if !errors.HasCode(err, errors.MKT_VALIDATION) {
		t.Errorf("UploadDocument() error = %v, want MKT_VALIDATION", err)
	}
}

func TestUploadRequiresApprovedContributor(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	req := model.UploadDocumentRequest{
		Subject: "Economics", ChapterName: "Demand", Class: "12",
		Board: "CBSE", Price: 99, PDFPath: "uploads/notes.pdf",
	}
	_, err := svc.UploadDocument(ctx, student, req, uploadJSON(t, req))
	if !errors.HasCode(err, errors.MKT_AUTHZ) {
		t.Errorf("UploadDocument() without profile error = %v, want MKT_AUTHZ", err)
	}
}

func TestUploadSurvivesPreviewFailure(t *testing.T) {
	// Page count succeeds but preview extraction does not: the upload
	// proceeds with an empty preview list.
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	svc.raster = previewFailingRasterizer{pages: 10}
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	req := model.UploadDocumentRequest{
		Subject: "Economics", ChapterName: "Demand", Class: "12",
		Board: "CBSE", Price: 99, PDFPath: "uploads/notes.pdf",
	}
	doc, err := svc.UploadDocument(ctx, topper, req, uploadJSON(t, req))
	if err != nil {
		t.Fatalf("UploadDocument() error = %v", err)
	}
	if len(doc.PreviewPages) != 0 {
		t.Errorf("preview pages = %d, want 0", len(doc.PreviewPages))
	}
	if doc.PageCount != 10 || doc.Status != model.DocumentUnderReview {
		t.Errorf("doc = pageCount %d status %s", doc.PageCount, doc.Status)
	}
}

type previewFailingRasterizer struct{ pages int }

func (r previewFailingRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	return r.pages, nil
}

func (r previewFailingRasterizer) ExtractPreviewPages(ctx context.Context, path, outDir string, n int) ([]string, error) {
	return nil, fmt.Errorf("split failed")
}

func TestResubmitAfterRejection(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	record := commerceRecord()
	profile, err := svc.SubmitForReview(ctx, topper, record, submitJSON(t, record))
	if err != nil {
		t.Fatalf("SubmitForReview() error = %v", err)
	}
	if _, err := svc.DecideContributor(ctx, admin, profile.ID, false, "no"); err != nil {
		t.Fatalf("DecideContributor() error = %v", err)
	}

	// Rejected profiles can resubmit; a second submit while pending or
	// after approval cannot.
	if _, err := svc.SubmitForReview(ctx, topper, record, submitJSON(t, record)); err != nil {
		t.Fatalf("resubmit after rejection error = %v", err)
	}
	if _, err := svc.SubmitForReview(ctx, topper, record, submitJSON(t, record)); !errors.HasCode(err, errors.MKT_STATE) {
		t.Errorf("submit while pending error = %v, want MKT_STATE", err)
	}
}

func TestDetailPreviewGating(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Accountancy", 99)

	anon, err := svc.GetDocumentDetail(ctx, model.Viewer{}, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentDetail() anonymous error = %v", err)
	}
	if got := len(anon.PreviewPages); got != 3 {
		t.Errorf("anonymous preview pages = %d, want 3 (ceil(10*0.30))", got)
	}
	if anon.FullPDFURL != "" {
		t.Error("anonymous viewer received the full PDF")
	}

	adminDetail, err := svc.GetDocumentDetail(ctx, admin, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentDetail() admin error = %v", err)
	}
	if adminDetail.FullPDFURL == "" {
		t.Error("admin did not receive the full PDF")
	}
}

func TestDirectoryFiltersForStudents(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())

	scienceTopper := model.Viewer{UserID: "topper-2", Role: model.RoleStudent}
	science := model.SubmissionRecord{
		FirstName: "Dev", LastName: "Patel", Class: "12", Stream: "SCIENCE", Board: "CBSE",
		SubjectMarks: []model.SubjectMark{
			{Subject: "Physics", Marks: 95},
			{Subject: "Chemistry", Marks: 93},
			{Subject: "Maths", Marks: 90},
		},
		MarksheetPath: "marksheets/topper-2.pdf",
	}
	approveContributor(t, svc, scienceTopper, science)

	all, err := svc.GetDirectory(ctx, model.Viewer{})
	if err != nil {
		t.Fatalf("GetDirectory() anonymous error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("anonymous directory has %d entries, want 2", len(all))
	}

	commerce, err := svc.GetDirectory(ctx, student)
	if err != nil {
		t.Fatalf("GetDirectory() student error = %v", err)
	}
	if len(commerce) != 1 || commerce[0].Stream != "COMMERCE" {
		t.Errorf("commerce student directory = %d entries, want the commerce contributor", len(commerce))
	}
}

func TestGetDocumentBuyersOwnerOnly(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)
	purchase(t, svc, student, doc.ID)

	buyers, err := svc.GetDocumentBuyers(ctx, topper, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentBuyers() owner error = %v", err)
	}
	if len(buyers) != 1 || buyers[0].StudentID != student.UserID {
		t.Errorf("buyers = %+v, want the purchasing student", buyers)
	}

	if _, err := svc.GetDocumentBuyers(ctx, student, doc.ID); !errors.HasCode(err, errors.MKT_AUTHZ) {
		t.Errorf("non-owner buyers error = %v, want MKT_AUTHZ", err)
	}
}

func TestCannotPurchaseOwnDocument(t *testing.T) {
	svc, _, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)

	if _, err := svc.CreateOrder(ctx, topper, doc.ID); !errors.HasCode(err, errors.MKT_VALIDATION) {
		t.Errorf("own-document order error = %v, want MKT_VALIDATION", err)
	}
}

func TestReviewReplacementRecomputesAggregates(t *testing.T) {
	svc, store, _ := newTestService(t, fakeRasterizer{pages: 10})
	ctx := context.Background()

	approveContributor(t, svc, topper, commerceRecord())
	doc := publishDocument(t, svc, topper, "Economics", 50)
	purchase(t, svc, student, doc.ID)

	if _, err := svc.UpsertReview(ctx, student, doc.ID, 5, "great"); err != nil {
		t.Fatalf("UpsertReview() error = %v", err)
	}
	review, err := svc.UpsertReview(ctx, student, doc.ID, 2, "changed my mind")
	if err != nil {
		t.Fatalf("UpsertReview() replacement error = %v", err)
	}
	if !review.IsVerifiedPurchase {
		t.Error("purchaser review not marked verified")
	}

	got, err := store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Stats.RatingCount != 1 || got.Stats.RatingAverage != 2 {
		t.Errorf("document rating = (%v, %d), want (2, 1)", got.Stats.RatingAverage, got.Stats.RatingCount)
	}
}
