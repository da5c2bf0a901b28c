// internal/storage/memory.go
// Package storage provides implementations of the Store interface for both
// in-memory and PostgreSQL backends. The Store is the system of record;
// cached aggregates are always reconstructable from it.
package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// Standard errors returned by the storage layer
var (
	ErrNotFound = errors.New("not found") // Returned when a record is not found
	ErrConflict = errors.New("conflict")  // Returned when a record already exists
)

// CounterDelta is an atomic adjustment to a contributor profile's
// denormalized counters. Deltas are applied at the storage layer in a single
// operation so concurrent writers cannot lose updates.
type CounterDelta struct {
	Followers      int
	TotalDocuments int
	TotalSold      int
}

// Store defines the persistence operations required by the marketplace core.
// It is implemented by both the in-memory and PostgreSQL backends.
type Store interface {
	// Contributor profile operations
	UpsertProfile(ctx context.Context, profile model.ContributorProfile) (*model.ContributorProfile, error)
	GetProfile(ctx context.Context, id string) (*model.ContributorProfile, error)
	GetProfileByUser(ctx context.Context, userID string) (*model.ContributorProfile, error)
	ListProfilesByStatus(ctx context.Context, status model.ProfileStatus) ([]model.ContributorProfile, error)
	// UpdateProfileDecision records an admin/engine verdict: the new
	// status, the remark, and the verification flag on the identity.
	UpdateProfileDecision(ctx context.Context, id string, status model.ProfileStatus, remark string, verified bool) error
	// AddProfileCounters atomically adjusts denormalized counters.
	AddProfileCounters(ctx context.Context, userID string, delta CounterDelta) error
	SetProfileRating(ctx context.Context, userID string, average float64, count int) error

	// Document operations
	CreateDocument(ctx context.Context, doc model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocumentsByStatus(ctx context.Context, status model.DocumentStatus) ([]model.Document, error)
	ListPublishedByContributor(ctx context.Context, contributorID string, limit int) ([]model.Document, error)
	// ListPublished returns one page of published documents matching the
	// filter, newest first, plus the total match count.
	ListPublished(ctx context.Context, filter model.MarketplaceFilter, page, limit int) ([]model.Document, int, error)
	UpdateDocumentDecision(ctx context.Context, id string, status model.DocumentStatus, remark string) error
	// AddDocumentSold atomically adjusts a document's sold counter.
	AddDocumentSold(ctx context.Context, id string, delta int) error
	SetDocumentRating(ctx context.Context, id string, average float64, count int) error

	// Order operations
	CreateOrder(ctx context.Context, order model.Order) error
	GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*model.Order, error)
	// MarkOrderPayment transitions a Pending order to the given status.
	// It returns ErrConflict when the order is no longer Pending, so two
	// concurrent deliveries of the same confirmation settle exactly once.
	MarkOrderPayment(ctx context.Context, id string, status model.PaymentStatus, paymentID, signature string) error
	// OrderExists is an existence check that avoids fetching full records.
	OrderExists(ctx context.Context, documentID, studentID string, status model.PaymentStatus) (bool, error)
	ListOrdersByDocument(ctx context.Context, documentID string, status model.PaymentStatus) ([]model.Order, error)

	// Review operations; at most one review per (document, student).
	UpsertReview(ctx context.Context, review model.Review) (*model.Review, error)
	ListReviewsByDocument(ctx context.Context, documentID string) ([]model.Review, error)
	// DocumentRating computes the live rating aggregate from reviews.
	DocumentRating(ctx context.Context, documentID string) (average float64, count int, err error)

	// Follow edge operations
	CreateFollow(ctx context.Context, edge model.FollowEdge) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
}

// memory implements the Store interface using in-memory maps.
// It's intended for development and testing purposes.
type memory struct {
	mu             sync.RWMutex
	profiles       map[string]*model.ContributorProfile // profile ID -> profile
	profilesByUser map[string]string                    // user ID -> profile ID
	documents      map[string]*model.Document           // document ID -> document
	orders         map[string]*model.Order              // order ID -> order
	ordersByGW     map[string]string                    // gateway order ID -> order ID
	reviews        map[string]*model.Review             // documentID|studentID -> review
	follows        map[string]model.FollowEdge          // followerID|followingID -> edge
}

// NewMemory creates a new in-memory storage implementation.
func NewMemory() Store {
	return &memory{
		profiles:       make(map[string]*model.ContributorProfile),
		profilesByUser: make(map[string]string),
		documents:      make(map[string]*model.Document),
		orders:         make(map[string]*model.Order),
		ordersByGW:     make(map[string]string),
		reviews:        make(map[string]*model.Review),
		follows:        make(map[string]model.FollowEdge),
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memory) UpsertProfile(ctx context.Context, profile model.ContributorProfile) (*model.ContributorProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existingID, ok := m.profilesByUser[profile.UserID]; ok {
		existing := m.profiles[existingID]
		// Preserve identity, counters, and creation time across upserts.
		profile.ID = existing.ID
		profile.Stats = existing.Stats
		profile.CreatedAt = existing.CreatedAt
		profile.UpdatedAt = now
		copied := profile
		m.profiles[existingID] = &copied
		return &copied, nil
	}

	profile.CreatedAt = now
	profile.UpdatedAt = now
	copied := profile
	m.profiles[profile.ID] = &copied
	m.profilesByUser[profile.UserID] = profile.ID
	return &copied, nil
}

func (m *memory) GetProfile(ctx context.Context, id string) (*model.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, exists := m.profiles[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (m *memory) GetProfileByUser(ctx context.Context, userID string) (*model.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.profilesByUser[userID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *m.profiles[id]
	return &copied, nil
}

func (m *memory) ListProfilesByStatus(ctx context.Context, status model.ProfileStatus) ([]model.ContributorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.ContributorProfile, 0)
	for _, p := range m.profiles {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	// Newest first for stable queue ordering.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memory) UpdateProfileDecision(ctx context.Context, id string, status model.ProfileStatus, remark string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return ErrNotFound
	}
	profile.Status = status
	profile.AdminRemark = remark
	profile.Verified = verified
	profile.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) AddProfileCounters(ctx context.Context, userID string, delta CounterDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, exists := m.profilesByUser[userID]
	if !exists {
		return ErrNotFound
	}
	p := m.profiles[id]
	p.Stats.FollowerCount += delta.Followers
	if p.Stats.FollowerCount < 0 {
		p.Stats.FollowerCount = 0
	}
	p.Stats.TotalDocuments += delta.TotalDocuments
	p.Stats.TotalSold += delta.TotalSold
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) SetProfileRating(ctx context.Context, userID string, average float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, exists := m.profilesByUser[userID]
	if !exists {
		return ErrNotFound
	}
	p := m.profiles[id]
	p.Stats.RatingAverage = average
	p.Stats.RatingCount = count
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) CreateDocument(ctx context.Context, doc model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[doc.ID]; exists {
		return ErrConflict
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	copied := doc
	m.documents[doc.ID] = &copied
	return nil
}

func (m *memory) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.documents[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *memory) ListDocumentsByStatus(ctx context.Context, status model.DocumentStatus) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.Document, 0)
	for _, d := range m.documents {
		if d.Status == status {
			result = append(result, *d)
		}
	}
	sortDocsNewestFirst(result)
	return result, nil
}

func (m *memory) ListPublishedByContributor(ctx context.Context, contributorID string, limit int) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.Document, 0)
	for _, d := range m.documents {
		if d.ContributorID == contributorID && d.Status == model.DocumentPublished {
			result = append(result, *d)
		}
	}
	sortDocsNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memory) ListPublished(ctx context.Context, filter model.MarketplaceFilter, page, limit int) ([]model.Document, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]model.Document, 0)
	for _, d := range m.documents {
		if d.Status != model.DocumentPublished {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(d.Subject, filter.Subject) {
			continue
		}
		if filter.Class != "" && d.Class != filter.Class {
			continue
		}
		if filter.Board != "" && d.Board != filter.Board {
			continue
		}
		matched = append(matched, *d)
	}
	sortDocsNewestFirst(matched)

	total := len(matched)
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []model.Document{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memory) UpdateDocumentDecision(ctx context.Context, id string, status model.DocumentStatus, remark string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[id]
	if !exists {
		return ErrNotFound
	}
	doc.Status = status
	doc.AdminRemark = remark
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) AddDocumentSold(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[id]
	if !exists {
		return ErrNotFound
	}
	doc.Stats.SoldCount += delta
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) SetDocumentRating(ctx context.Context, id string, average float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[id]
	if !exists {
		return ErrNotFound
	}
	doc.Stats.RatingAverage = average
	doc.Stats.RatingCount = count
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memory) CreateOrder(ctx context.Context, order model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[order.ID]; exists {
		return ErrConflict
	}
	if _, exists := m.ordersByGW[order.GatewayOrderID]; exists {
		return ErrConflict
	}
	order.CreatedAt = time.Now().UTC()
	copied := order
	m.orders[order.ID] = &copied
	m.ordersByGW[order.GatewayOrderID] = order.ID
	return nil
}

func (m *memory) GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.ordersByGW[gatewayOrderID]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *m.orders[id]
	return &copied, nil
}

func (m *memory) MarkOrderPayment(ctx context.Context, id string, status model.PaymentStatus, paymentID, signature string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return ErrNotFound
	}
	if order.PaymentStatus != model.PaymentPending {
		return ErrConflict
	}
	order.PaymentStatus = status
	order.GatewayPaymentID = paymentID
	order.GatewaySignature = signature
	return nil
}

func (m *memory) OrderExists(ctx context.Context, documentID, studentID string, status model.PaymentStatus) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.DocumentID == documentID && o.StudentID == studentID && o.PaymentStatus == status {
			return true, nil
		}
	}
	return false, nil
}

func (m *memory) ListOrdersByDocument(ctx context.Context, documentID string, status model.PaymentStatus) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.Order, 0)
	for _, o := range m.orders {
		if o.DocumentID == documentID && o.PaymentStatus == status {
			result = append(result, *o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memory) UpsertReview(ctx context.Context, review model.Review) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(review.DocumentID, review.StudentID)
	now := time.Now().UTC()
	if existing, ok := m.reviews[key]; ok {
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		existing.IsVerifiedPurchase = review.IsVerifiedPurchase
		existing.UpdatedAt = now
		copied := *existing
		return &copied, nil
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	copied := review
	m.reviews[key] = &copied
	result := copied
	return &result, nil
}

func (m *memory) ListReviewsByDocument(ctx context.Context, documentID string) ([]model.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.Review, 0)
	for _, r := range m.reviews {
		if r.DocumentID == documentID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *memory) DocumentRating(ctx context.Context, documentID string) (float64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum, count := 0, 0
	for _, r := range m.reviews {
		if r.DocumentID == documentID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (m *memory) CreateFollow(ctx context.Context, edge model.FollowEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(edge.FollowerID, edge.FollowingID)
	if _, exists := m.follows[key]; exists {
		return ErrConflict
	}
	edge.CreatedAt = time.Now().UTC()
	m.follows[key] = edge
	return nil
}

func (m *memory) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(followerID, followingID)
	if _, exists := m.follows[key]; !exists {
		return ErrNotFound
	}
	delete(m.follows, key)
	return nil
}

func (m *memory) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.follows[pairKey(followerID, followingID)]
	return exists, nil
}

func sortDocsNewestFirst(docs []model.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
