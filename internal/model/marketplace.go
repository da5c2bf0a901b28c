// internal/model/marketplace.go
// Package model defines the data structures used throughout the notes marketplace.
// These structures represent the core domain objects for contributor profiles,
// documents, orders, reviews, and follow edges.
package model

import (
	"time"
)

// ProfileStatus is the lifecycle state of a contributor profile.
// Allowed transitions: Draft -> Pending -> {Approved, Rejected}.
// A rejected profile may be resubmitted (Rejected -> Pending); an approved
// profile may not go back to Pending.
type ProfileStatus string

const (
	ProfileDraft    ProfileStatus = "DRAFT"
	ProfilePending  ProfileStatus = "PENDING"
	ProfileApproved ProfileStatus = "APPROVED"
	ProfileRejected ProfileStatus = "REJECTED"
)

// DocumentStatus is the lifecycle state of an uploaded document.
type DocumentStatus string

const (
	DocumentDraft       DocumentStatus = "DRAFT"
	DocumentUnderReview DocumentStatus = "UNDER_REVIEW"
	DocumentPublished   DocumentStatus = "PUBLISHED"
	DocumentRejected    DocumentStatus = "REJECTED"
)

// PaymentStatus is the state of an order's payment.
// Success, Failed, and Refunded are terminal. Only Success orders count
// toward purchase-gated access and sales counters.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Role identifies the viewer class for access decisions.
type Role string

const (
	RoleAnonymous Role = ""
	RoleStudent   Role = "STUDENT"
	RoleTopper    Role = "TOPPER"
	RoleAdmin     Role = "ADMIN"
)

// SubjectMark is a single per-subject percentage entry on a submitted
// academic record.
type SubjectMark struct {
	Subject string `json:"subject" db:"subject"`
	Marks   int    `json:"marks" db:"marks"`
}

// ProfileStats holds the denormalized counters carried on a contributor
// profile. Counter mutations go through atomic increments at the storage
// layer, never read-then-write in application code.
type ProfileStats struct {
	FollowerCount  int     `json:"followerCount" db:"follower_count"`
	TotalDocuments int     `json:"totalDocuments" db:"total_documents"`
	TotalSold      int     `json:"totalSold" db:"total_sold"`
	RatingAverage  float64 `json:"ratingAverage" db:"rating_average"`
	RatingCount    int     `json:"ratingCount" db:"rating_count"`
}

// ContributorProfile represents a topper's profile and academic record.
// This corresponds to the contributor_profiles table in storage.
type ContributorProfile struct {
	ID           string        `json:"id" db:"id"`
	UserID       string        `json:"userId" db:"user_id"` // opaque identity reference
	FirstName    string        `json:"firstName" db:"first_name"`
	LastName     string        `json:"lastName" db:"last_name"`
	ShortBio     string        `json:"shortBio,omitempty" db:"short_bio"`
	PhotoPath    string        `json:"photoPath,omitempty" db:"photo_path"` // relative; resolved at read time
	Class        string        `json:"class" db:"class"`                    // "10" or "12"
	Stream       string        `json:"stream,omitempty" db:"stream"`        // SCIENCE / COMMERCE / ARTS, class 12 only
	Board        string        `json:"board" db:"board"`                    // CBSE / ICSE / STATE
	SubjectMarks []SubjectMark `json:"subjectMarks" db:"subject_marks"`
	MarksheetPath string       `json:"marksheetPath,omitempty" db:"marksheet_path"` // verification artifact, relative
	Achievements []string      `json:"achievements,omitempty" db:"achievements"`
	Status       ProfileStatus `json:"status" db:"status"`
	AdminRemark  string        `json:"adminRemark,omitempty" db:"admin_remark"`
	Verified     bool          `json:"verified" db:"verified"`
	Stats        ProfileStats  `json:"stats" db:"stats"`
	CreatedAt    time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time     `json:"updatedAt" db:"updated_at"`
}

// DocumentStats holds the denormalized per-document sales and rating figures.
type DocumentStats struct {
	SoldCount     int     `json:"soldCount" db:"sold_count"`
	RatingAverage float64 `json:"ratingAverage" db:"rating_average"`
	RatingCount   int     `json:"ratingCount" db:"rating_count"`
}

// Document represents a paid notes document published by a contributor.
// Preview pages and the PDF are stored as relative paths; the absolute,
// viewer-facing URL is resolved immediately before a response leaves the
// core and is never baked into cached payloads.
type Document struct {
	ID                 string         `json:"id" db:"id"`
	ContributorID      string         `json:"contributorId" db:"contributor_id"`
	Subject            string         `json:"subject" db:"subject"`
	ChapterName        string         `json:"chapterName" db:"chapter_name"`
	Class              string         `json:"class" db:"class"`
	Board              string         `json:"board" db:"board"`
	Price              int            `json:"price" db:"price"` // whole currency units, 0-499
	PDFPath            string         `json:"pdfPath" db:"pdf_path"`
	PageCount          int            `json:"pageCount" db:"page_count"`
	PreviewPages       []string       `json:"previewPages" db:"preview_pages"` // ordered, relative paths
	PublicPreviewCount int            `json:"publicPreviewCount" db:"public_preview_count"`
	Tags               []string       `json:"tags,omitempty" db:"tags"`
	Status             DocumentStatus `json:"status" db:"status"`
	AdminRemark        string         `json:"adminRemark,omitempty" db:"admin_remark"`
	Stats              DocumentStats  `json:"stats" db:"stats"`
	CreatedAt          time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time      `json:"updatedAt" db:"updated_at"`
}

// Order represents a purchase of a document by a student.
// ContributorID is denormalized from the document at creation time.
type Order struct {
	ID               string        `json:"id" db:"id"`
	DocumentID       string        `json:"documentId" db:"document_id"`
	ContributorID    string        `json:"contributorId" db:"contributor_id"`
	StudentID        string        `json:"studentId" db:"student_id"`
	AmountPaid       int           `json:"amountPaid" db:"amount_paid"`
	Receipt          string        `json:"receipt" db:"receipt"` // ULID, sortable
	GatewayOrderID   string        `json:"gatewayOrderId" db:"gateway_order_id"`
	GatewayPaymentID string        `json:"gatewayPaymentId,omitempty" db:"gateway_payment_id"`
	GatewaySignature string        `json:"gatewaySignature,omitempty" db:"gateway_signature"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
}

// Review is a student's rating of a document. At most one review exists per
// (document, student) pair; a second submission replaces the first.
type Review struct {
	DocumentID         string    `json:"documentId" db:"document_id"`
	StudentID          string    `json:"studentId" db:"student_id"`
	Rating             int       `json:"rating" db:"rating"` // 1-5
	Comment            string    `json:"comment,omitempty" db:"comment"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase" db:"is_verified_purchase"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// FollowEdge records that one user follows a contributor.
type FollowEdge struct {
	FollowerID  string    `json:"followerId" db:"follower_id"`
	FollowingID string    `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Viewer is the identity context of the caller, extracted from the session
// token by the HTTP layer. A zero Viewer is an anonymous guest.
type Viewer struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	// Class and Stream personalize directory filtering for students.
	Class  string `json:"class,omitempty"`
	Stream string `json:"stream,omitempty"`
}

// IsAnonymous reports whether the viewer carries no identity.
func (v Viewer) IsAnonymous() bool { return v.UserID == "" }

// SubmissionRecord is the academic record submitted for eligibility review.
type SubmissionRecord struct {
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Class         string        `json:"class"`
	Stream        string        `json:"stream,omitempty"`
	Board         string        `json:"board"`
	SubjectMarks  []SubjectMark `json:"subjectMarks"`
	MarksheetPath string        `json:"marksheetPath"`
	Achievements  []string      `json:"achievements,omitempty"`
}

// UploadDocumentRequest carries the metadata for a new document upload.
// The PDF itself has already been written to disk by the upload middleware.
type UploadDocumentRequest struct {
	Subject     string   `json:"subject"`
	ChapterName string   `json:"chapterName"`
	Class       string   `json:"class"`
	Board       string   `json:"board"`
	Price       int      `json:"price"`
	Tags        []string `json:"tags,omitempty"`
	PDFPath     string   `json:"pdfPath"`
	// PublicPreviewCount overrides the derived preview count when positive.
	PublicPreviewCount int `json:"publicPreviewCount,omitempty"`
}

// Pagination is the standard paging envelope on list responses.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

// ListingEntry is an admin-queue row for either a contributor profile or a
// document awaiting a decision.
type ListingEntry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "contributor" or "document"
	Title       string    `json:"title"`
	Subject     string    `json:"subject,omitempty"`
	Class       string    `json:"class,omitempty"`
	Board       string    `json:"board,omitempty"`
	Price       int       `json:"price,omitempty"`
	Status      string    `json:"status"`
	ArtifactURL string    `json:"artifactUrl,omitempty"` // resolved at read time
	CreatedAt   time.Time `json:"createdAt"`
}

// DocumentCard is the compact document representation on listings,
// directories, and profile pages. PreviewPages carries the listing-sized
// preview slice, relative while cached.
type DocumentCard struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Subject      string   `json:"subject"`
	Price        int      `json:"price"`
	Rating       float64  `json:"rating"`
	CoverImage   string   `json:"coverImage,omitempty"`
	PreviewPages []string `json:"previewPages,omitempty"`
}

// DirectoryEntry is one enriched contributor card in the public directory.
// Photo holds the relative path while the entry sits in the cache; the
// resolved absolute URL replaces it immediately before the response leaves
// the core.
type DirectoryEntry struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Name         string         `json:"name"`
	Photo        string         `json:"photo,omitempty"`
	Bio          string         `json:"bio,omitempty"`
	Class        string         `json:"class"`
	Stream       string         `json:"stream,omitempty"`
	Board        string         `json:"board"`
	TotalNotes   int            `json:"totalNotes"`
	AvgRating    float64        `json:"avgRating"`
	TotalReviews int            `json:"totalReviews"`
	LatestNotes  []DocumentCard `json:"latestNotes"`
}

// ProfileView is the public profile page for an approved contributor.
// IsFollowing is viewer-dependent and is always recomputed, never cached.
type ProfileView struct {
	UserID        string         `json:"userId"`
	FullName      string         `json:"fullName"`
	Photo         string         `json:"photo,omitempty"`
	Verified      bool           `json:"verified"`
	IsFollowing   bool           `json:"isFollowing"`
	Achievements  []string       `json:"achievements,omitempty"`
	About         string         `json:"about,omitempty"`
	Stats         ProfileStats   `json:"stats"`
	LatestUploads []DocumentCard `json:"latestUploads"`
}

// DocumentDetail is the single-document page. Preview pages are already
// sliced by the access policy for the requesting viewer.
type DocumentDetail struct {
	ID            string        `json:"id"`
	ContributorID string        `json:"contributorId"`
	Title         string        `json:"title"`
	Subject       string        `json:"subject"`
	ChapterName   string        `json:"chapterName"`
	Class         string        `json:"class"`
	Board         string        `json:"board"`
	Price         int           `json:"price"`
	PageCount     int           `json:"pageCount"`
	Stats         DocumentStats `json:"stats"`
	HasPurchased  bool          `json:"hasPurchased"`
	FullPDFURL    string        `json:"fullPdfUrl,omitempty"` // purchasers and admins only
	PreviewPages  []string      `json:"previewPages"`
	Reviews       []Review      `json:"reviews,omitempty"`
}

// MarketplacePage is one page of the public marketplace listing.
type MarketplacePage struct {
	Documents  []DocumentCard `json:"documents"`
	Pagination Pagination     `json:"pagination"`
}

// MarketplaceFilter narrows the marketplace listing. Its canonical string
// form feeds the cache key hash for guest requests.
type MarketplaceFilter struct {
	Subject string `json:"subject,omitempty"`
	Class   string `json:"class,omitempty"`
	Board   string `json:"board,omitempty"`
}

// BuyerEntry is one purchaser row visible to the owning contributor.
type BuyerEntry struct {
	StudentID   string    `json:"studentId"`
	PurchasedAt time.Time `json:"purchasedAt"`
	AmountPaid  int       `json:"amountPaid"`
}

// CheckoutSession is returned by order creation and carries what the client
// needs to drive the external payment widget.
type CheckoutSession struct {
	OrderID        string `json:"orderId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int    `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
}
