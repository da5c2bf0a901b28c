// conformance/harness.go
// Package conformance provides a fully in-process assembly of the service
// for scenario tests: memory store, injectable cache backend, mock gateway,
// and a deterministic rasterizer. Scenarios drive the service API exactly
// as the HTTP layer would.
package conformance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kb28022004/toperNoteBackend/internal/cache"
	"github.com/Kb28022004/toperNoteBackend/internal/event"
	"github.com/Kb28022004/toperNoteBackend/internal/media"
	"github.com/Kb28022004/toperNoteBackend/internal/metrics"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/payment"
	"github.com/Kb28022004/toperNoteBackend/internal/schema"
	"github.com/Kb28022004/toperNoteBackend/internal/service"
	"github.com/Kb28022004/toperNoteBackend/internal/storage"
)

// GatewaySecret is the signing secret the harness gateway verifies against.
const GatewaySecret = "conformance-gateway-secret"

// Harness bundles the assembled service with its collaborators so
// scenarios can both drive operations and inspect state.
type Harness struct {
	Service *service.Service
	Store   storage.Store
	Cache   *cache.Coordinator

	Admin model.Viewer
}

// PageCounter is a deterministic rasterizer for scenarios.
type PageCounter struct{ Pages int }

func (p PageCounter) PageCount(ctx context.Context, path string) (int, error) {
	return p.Pages, nil
}

func (p PageCounter) ExtractPreviewPages(ctx context.Context, path, outDir string, n int) ([]string, error) {
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("page-%d.pdf", i))
	}
	return names, nil
}

// New assembles a harness on the given cache backend. Pass cache.NewMemory()
// for normal runs or a failing backend to exercise degraded mode.
func New(kv cache.KV, pagesPerDocument int) (*Harness, error) {
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	store := storage.NewMemory()
	coordinator := cache.NewCoordinator(kv, logger, m, 0)
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	svc := service.New(store, coordinator, PageCounter{Pages: pagesPerDocument},
		media.NewLocal("http://conformance/media"), payment.NewMock("key_conf"),
		event.NewNoop(), validator, m, logger,
		service.Options{GatewaySecret: GatewaySecret, UploadDir: "uploads"})

	return &Harness{
		Service: svc,
		Store:   store,
		Cache:   coordinator,
		Admin:   model.Viewer{UserID: "admin", Role: model.RoleAdmin},
	}, nil
}

// Submit runs a contributor submission for the viewer.
func (h *Harness) Submit(ctx context.Context, viewer model.Viewer, record model.SubmissionRecord) (*model.ContributorProfile, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return h.Service.SubmitForReview(ctx, viewer, record, raw)
}

// Upload runs a document upload for the viewer.
func (h *Harness) Upload(ctx context.Context, viewer model.Viewer, req model.UploadDocumentRequest) (*model.Document, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return h.Service.UploadDocument(ctx, viewer, req, raw)
}

// Purchase walks the viewer through checkout and a correctly signed
// confirmation, returning the finalized order.
func (h *Harness) Purchase(ctx context.Context, viewer model.Viewer, documentID string) (*model.Order, error) {
	session, err := h.Service.CreateOrder(ctx, viewer, documentID)
	if err != nil {
		return nil, err
	}
	sig := payment.Sign(GatewaySecret, session.GatewayOrderID, "pay-"+session.OrderID)
	return h.Service.ConfirmPurchase(ctx, viewer, session.GatewayOrderID, "pay-"+session.OrderID, sig)
}
