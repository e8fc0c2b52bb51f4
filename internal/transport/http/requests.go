package http

import (
	"encoding/json"
	"net/http"

	dErrors "caseledger/pkg/domain-errors"
)

type createRegistryRequest struct {
	SubjectName string         `json:"subjectName"`
	Payload     map[string]any `json:"payload"`
	SubmittedBy string         `json:"submittedBy"`
}

type appendVersionRequest struct {
	Payload     map[string]any `json:"payload"`
	SubmittedBy string         `json:"submittedBy"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type grantRequest struct {
	AttorneyID string `json:"attorneyId"`
}

type confirmVerificationRequest struct {
	Code string `json:"code"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body")
	}
	return nil
}
