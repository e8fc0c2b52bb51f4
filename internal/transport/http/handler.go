// Package http exposes the registry over REST. Handlers do three things in
// order: parse, ask the gateway, call the service. No authorization decision
// lives here.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"caseledger/internal/access"
	"caseledger/internal/audit"
	"caseledger/internal/gateway"
	registryservice "caseledger/internal/registry/service"
	"caseledger/internal/verification"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/platform/httputil"
)

// Handler wires the registry endpoints.
type Handler struct {
	registry     *registryservice.Service
	grants       *access.GrantService
	verification *verification.Service
	recorder     *audit.Recorder
	gateway      *gateway.Gateway
}

// NewHandler builds the API handler.
func NewHandler(
	registry *registryservice.Service,
	grants *access.GrantService,
	verification *verification.Service,
	recorder *audit.Recorder,
	gw *gateway.Gateway,
) *Handler {
	return &Handler{
		registry:     registry,
		grants:       grants,
		verification: verification,
		recorder:     recorder,
		gateway:      gw,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registries", func(r chi.Router) {
		r.Post("/", h.createRegistry)
		r.Get("/", h.listRegistries)
		r.Route("/{registryID}", func(r chi.Router) {
			r.Get("/", h.getRegistry)
			r.Post("/versions", h.appendVersion)
			r.Patch("/status", h.updateStatus)
			r.Post("/grants", h.grantAccess)
			r.Delete("/grants/{attorneyID}", h.revokeAccess)
			r.Post("/verification", h.requestVerification)
			r.Post("/verification/confirm", h.confirmVerification)
		})
	})
	r.Route("/audit", func(r chi.Router) {
		r.Get("/", h.listAudit)
		r.Get("/actions", h.listAuditActions)
	})
}

func (h *Handler) createRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gateway.RequireCreate(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req createRegistryRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, version, err := h.registry.Create(ctx, registryservice.CreateInput{
		SubjectName: req.SubjectName,
		Payload:     req.Payload,
		SubmittedBy: id.SubmittedBy(req.SubmittedBy),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createRegistryResponse{
		Registry: toRecordResponse(record),
		Version:  toVersionResponse(version),
	})
}

func (h *Handler) listRegistries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gateway.RequireSearch(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	summaries, err := h.registry.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summaries, err = h.gateway.FilterSummaries(ctx, summaries)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := listRegistriesResponse{Registries: make([]summaryResponse, 0, len(summaries))}
	for _, summary := range summaries {
		resp.Registries = append(resp.Registries, toSummaryResponse(summary))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) getRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireAccessRegistry(ctx, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	aggregate, err := h.registry.GetByID(ctx, registryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := aggregateResponse{
		Registry:     toRecordResponse(aggregate.Record),
		Versions:     make([]versionResponse, 0, len(aggregate.Versions)),
		AuditEntries: make([]auditEntryResponse, 0, len(aggregate.AuditEntries)),
	}
	for _, version := range aggregate.Versions {
		resp.Versions = append(resp.Versions, toVersionResponse(version))
	}
	for _, entry := range aggregate.AuditEntries {
		resp.AuditEntries = append(resp.AuditEntries, toAuditEntryResponse(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) appendVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireAccessRegistry(ctx, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req appendVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	version, err := h.registry.AppendVersion(ctx, registryID, req.Payload, id.SubmittedBy(req.SubmittedBy))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireAccessRegistry(ctx, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.registry.UpdateStatus(ctx, registryID, id.RegistryStatus(req.Status)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) grantAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireGrantManagement(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	attorneyID, err := id.ParseUserID(req.AttorneyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.grants.Grant(ctx, attorneyID, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	attorneyID, err := id.ParseUserID(chi.URLParam(r, "attorneyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireGrantManagement(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.grants.Revoke(ctx, attorneyID, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireAccessRegistry(ctx, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	code, err := h.verification.RequestCode(ctx, registryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, verificationCodeResponse{Code: code})
}

func (h *Handler) confirmVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registryID, err := id.ParseRegistryID(chi.URLParam(r, "registryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.gateway.RequireAccessRegistry(ctx, registryID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req confirmVerificationRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.verification.Confirm(ctx, registryID, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gateway.RequireAuditView(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	filter, page, pageSize, err := parseAuditQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.recorder.List(ctx, filter, page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := auditPageResponse{
		Entries:    make([]auditEntryResponse, 0, len(result.Rows)),
		TotalCount: result.TotalCount,
		Page:       page,
		PageSize:   pageSize,
	}
	for _, entry := range result.Rows {
		resp.Entries = append(resp.Entries, toAuditEntryResponse(entry))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) listAuditActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gateway.RequireAuditView(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	actions, err := h.recorder.DistinctActions(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := auditActionsResponse{Actions: make([]string, 0, len(actions))}
	for _, action := range actions {
		resp.Actions = append(resp.Actions, action.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseAuditQuery(r *http.Request) (audit.Filter, int, int, error) {
	var filter audit.Filter
	q := r.URL.Query()

	if raw := q.Get("action"); raw != "" {
		action, ok := audit.ParseAction(raw)
		if !ok {
			return filter, 0, 0, dErrors.Newf(dErrors.CodeInvalidInput, "unrecognized audit action %q", raw)
		}
		filter.Action = action
	}
	if raw := q.Get("registryId"); raw != "" {
		registryID, err := id.ParseRegistryID(raw)
		if err != nil {
			return filter, 0, 0, err
		}
		filter.RegistryID = &registryID
	}
	if raw := q.Get("actorUserId"); raw != "" {
		actorID, err := id.ParseUserID(raw)
		if err != nil {
			return filter, 0, 0, err
		}
		filter.ActorUserID = &actorID
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, 0, 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid from timestamp")
		}
		filter.Start = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, 0, 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid to timestamp")
		}
		filter.End = &to
	}

	page := parsePositiveInt(q.Get("page"), 1)
	pageSize := parsePositiveInt(q.Get("pageSize"), 50)
	return filter, page, pageSize, nil
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
