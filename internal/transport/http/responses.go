package http

import (
	"time"

	"caseledger/internal/audit"
	"caseledger/internal/registry"
)

type versionResponse struct {
	ID          string         `json:"id"`
	RegistryID  string         `json:"registryId"`
	Payload     map[string]any `json:"payload"`
	SubmittedBy string         `json:"submittedBy"`
	ContentHash string         `json:"contentHash"`
	Sequence    int64          `json:"sequence"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type recordResponse struct {
	ID          string    `json:"id"`
	SubjectName string    `json:"subjectName"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type createRegistryResponse struct {
	Registry recordResponse  `json:"registry"`
	Version  versionResponse `json:"version"`
}

type aggregateResponse struct {
	Registry     recordResponse       `json:"registry"`
	Versions     []versionResponse    `json:"versions"`
	AuditEntries []auditEntryResponse `json:"auditEntries"`
}

type summaryResponse struct {
	ID            string    `json:"id"`
	SubjectName   string    `json:"subjectName"`
	Status        string    `json:"status"`
	VersionCount  int       `json:"versionCount"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

type listRegistriesResponse struct {
	Registries []summaryResponse `json:"registries"`
}

type auditEntryResponse struct {
	ID          string         `json:"id"`
	RegistryID  string         `json:"registryId,omitempty"`
	ActorUserID string         `json:"actorUserId,omitempty"`
	Action      string         `json:"action"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

type auditPageResponse struct {
	Entries    []auditEntryResponse `json:"entries"`
	TotalCount int                  `json:"totalCount"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
}

type auditActionsResponse struct {
	Actions []string `json:"actions"`
}

type verificationCodeResponse struct {
	Code string `json:"code"`
}

func toRecordResponse(record registry.Record) recordResponse {
	return recordResponse{
		ID:          record.ID.String(),
		SubjectName: record.SubjectName,
		Status:      record.Status.String(),
		CreatedAt:   record.CreatedAt,
	}
}

func toVersionResponse(version registry.Version) versionResponse {
	return versionResponse{
		ID:          version.ID.String(),
		RegistryID:  version.RegistryID.String(),
		Payload:     version.Payload,
		SubmittedBy: version.SubmittedBy.String(),
		ContentHash: version.ContentHash,
		Sequence:    version.Sequence,
		CreatedAt:   version.CreatedAt,
	}
}

func toSummaryResponse(summary registry.Summary) summaryResponse {
	return summaryResponse{
		ID:            summary.ID.String(),
		SubjectName:   summary.SubjectName,
		Status:        summary.Status.String(),
		VersionCount:  summary.VersionCount,
		LastUpdatedAt: summary.LastUpdatedAt,
	}
}

func toAuditEntryResponse(entry audit.Entry) auditEntryResponse {
	resp := auditEntryResponse{
		ID:        entry.ID.String(),
		Action:    entry.Action.String(),
		Metadata:  entry.Metadata,
		Timestamp: entry.Timestamp,
	}
	if entry.RegistryID != nil {
		resp.RegistryID = entry.RegistryID.String()
	}
	if entry.ActorUserID != nil {
		resp.ActorUserID = entry.ActorUserID.String()
	}
	return resp
}
