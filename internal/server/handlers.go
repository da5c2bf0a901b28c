// internal/server/handlers.go
// Route handlers: decode, delegate to the service, encode. Request bodies
// are size-capped; viewer identity comes from context.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Kb28022004/toperNoteBackend/internal/errors"
	"github.com/Kb28022004/toperNoteBackend/internal/model"
	"github.com/Kb28022004/toperNoteBackend/internal/server/middleware"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Validation("unreadable request body")
	}
	return body, nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFrom(r.Context())
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var record model.SubmissionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		s.writeError(w, r, errors.Validation("malformed JSON body"))
		return
	}
	profile, err := s.svc.SubmitForReview(r.Context(), viewer, record, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, profile)
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.GetDirectory(r.Context(), middleware.ViewerFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{"contributors": entries})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetContributorProfile(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, view)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	following, err := s.svc.ToggleFollow(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]bool{"following": following})
}

func (s *Server) handleListContributors(w http.ResponseWriter, r *http.Request) {
	status := model.ProfileStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.ProfilePending
	}
	entries, err := s.svc.ListContributorsByStatus(r.Context(),
		middleware.ViewerFrom(r.Context()), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{"applications": entries})
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Remark  string `json:"remark,omitempty"`
}

func (s *Server) handleDecideContributor(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req decisionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, r, errors.Validation("malformed JSON body"))
		return
	}
	profile, err := s.svc.DecideContributor(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"), req.Approve, req.Remark)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, profile)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	status := model.DocumentStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.DocumentUnderReview
	}
	entries, err := s.svc.ListDocumentsByStatus(r.Context(),
		middleware.ViewerFrom(r.Context()), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{"documents": entries})
}

func (s *Server) handleDecideDocument(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req decisionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, r, errors.Validation("malformed JSON body"))
		return
	}
	doc, err := s.svc.PublishDecision(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"), req.Approve, req.Remark)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, doc)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req model.UploadDocumentRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, r, errors.Validation("malformed JSON body"))
		return
	}
	doc, err := s.svc.UploadDocument(r.Context(),
		middleware.ViewerFrom(r.Context()), req, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, doc)
}

func (s *Server) handleMarketplace(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.MarketplaceFilter{
		Subject: q.Get("subject"),
		Class:   q.Get("class"),
		Board:   q.Get("board"),
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := s.svc.GetMarketplace(r.Context(),
		middleware.ViewerFrom(r.Context()), filter, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, result)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetDocumentDetail(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, detail)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	pages, err := s.svc.GetDocumentPreview(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{"previewPages": pages})
}

func (s *Server) handleBuyers(w http.ResponseWriter, r *http.Request) {
	buyers, err := s.svc.GetDocumentBuyers(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, map[string]any{"buyers": buyers})
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req reviewRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, r, errors.Validation("malformed JSON body"))
		return
	}
	review, err := s.svc.UpsertReview(r.Context(),
		middleware.ViewerFrom(r.Context()), r.PathValue("id"), req.Rating, req.Comment)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, review)
}

type createOrderRequest struct {
	DocumentID string `json:"documentId"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createOrderRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.DocumentID == "" {
		s.writeError(w, r, errors.Validation("documentId is required"))
		return
	}
	session, err := s.svc.CreateOrder(r.Context(),
		middleware.ViewerFrom(r.Context()), req.DocumentID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, session)
}

type confirmOrderRequest struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
}

func (s *Server) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req confirmOrderRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.GatewayOrderID == "" {
		s.writeError(w, r, errors.Validation("gatewayOrderId is required"))
		return
	}
	order, err := s.svc.ConfirmPurchase(r.Context(),
		middleware.ViewerFrom(r.Context()), req.GatewayOrderID, req.PaymentID, req.Signature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, order)
}
