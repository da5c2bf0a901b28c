// internal/service/service.go
// Package service composes the rule engine, access policy, storage, cache
// coordinator, and external adapters into the externally visible marketplace
// operations. Every write follows the same shape: validate, write durably,
// then invalidate exactly the cache keys the write made stale.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kb28022004/toperNoteBackend/internal/access"
	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/media"
	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/payment"
	"github.com/Kb28022004/toperNoteBackend/internal/raster"
	"github.com/Kb28022004/toperNoteBackend/internal/schema"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

// TTLs groups the per-family cache lifetimes.
type TTLs struct {
	Listing     time.Duration
	Marketplace time.Duration
	Detail      time.Duration
	Profile     time.Duration
	Directory   time.Duration
}

// DefaultTTLs holds the production defaults.
func DefaultTTLs() TTLs {
	return TTLs{
		Listing:     5 * time.Minute,
		Marketplace: 5 * time.Minute,
		Detail:      10 * time.Minute,
		Profile:     10 * time.Minute,
		Directory:   time.Hour,
	}
}

// Options configures a Service.
type Options struct {
	TTLs          TTLs
	Fractions     access.Fractions
	GatewaySecret string
	// UploadDir is where derived preview pages are written.
	UploadDir string
}

// Service implements the marketplace operations.
type Service struct {
	store     storage.Store
	cache     *cache.Coordinator
	raster    raster.Rasterizer
	media     media.URLResolver
	gateway   payment.Gateway
	events    event.Publisher
	validator *schema.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	opts      Options
}

// New wires a Service from its collaborators.
func New(
	store storage.Store,
	coordinator *cache.Coordinator,
	rasterizer raster.Rasterizer,
	resolver media.URLResolver,
	gateway payment.Gateway,
	events event.Publisher,
	validator *schema.Validator,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *Service {
	if opts.TTLs == (TTLs{}) {
		opts.TTLs = DefaultTTLs()
	}
	if opts.Fractions == (access.Fractions{}) {
		opts.Fractions = access.DefaultFractions()
	}
	return &Service{
		store:     store,
		cache:     coordinator,
		raster:    rasterizer,
		media:     resolver,
		gateway:   gateway,
		events:    events,
		validator: validator,
		metrics:   m,
		logger:    logger,
		opts:      opts,
	}
}

// publish emits a domain event without letting a broker failure surface to
// the caller; the durable write already happened.
func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "error", err)
		return
	}
	s.metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// resolve maps a stored relative path to a viewer-facing URL, logging and
// returning the empty string on resolver failure so one bad asset does not
// fail a whole page.
func (s *Service) resolve(ctx context.Context, relative string) string {
	url, err := s.media.Resolve(ctx, relative)
	if err != nil {
		s.logger.Warn("asset URL resolution failed", "path", relative, "error", err)
		return ""
	}
	return url
}

func (s *Service) resolveAll(ctx context.Context, relatives []string) []string {
	out := make([]string, 0, len(relatives))
	for _, r := range relatives {
		out = append(out, s.resolve(ctx, r))
	}
	return out
}

// cardFor builds the compact listing representation of a published document.
// Listings always carry the anonymous-sized preview slice; paths stay
// relative and the caller resolves them after any cache round trip.
func (s *Service) cardFor(doc model.Document) model.DocumentCard {
	slice := access.Reveal(doc, model.RoleAnonymous, false, s.opts.Fractions.Listing)
	card := model.DocumentCard{
		ID:           doc.ID,
		Title:        doc.ChapterName,
		Subject:      doc.Subject,
		Price:        doc.Price,
		Rating:       doc.Stats.RatingAverage,
		PreviewPages: slice.Pages,
	}
	if len(doc.PreviewPages) > 0 {
		card.CoverImage = doc.PreviewPages[0]
	}
	return card
}
