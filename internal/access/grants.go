package access

import (
	"context"

	"caseledger/internal/audit"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/requestcontext"
)

// GrantManager mutates attorney-to-registry grants.
type GrantManager interface {
	GrantStore
	Grant(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error
	Revoke(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error
}

// TxRunner executes fn atomically. Satisfied by the same runners the registry
// service uses.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// GrantService manages grants. Each mutation commits together with its
// ACCESS_GRANTED or ACCESS_REVOKED audit entry.
type GrantService struct {
	grants   GrantManager
	records  RecordChecker
	recorder *audit.Recorder
	txRunner TxRunner
}

// NewGrantService builds the grant management service.
func NewGrantService(grants GrantManager, records RecordChecker, recorder *audit.Recorder, txRunner TxRunner) *GrantService {
	return &GrantService{grants: grants, records: records, recorder: recorder, txRunner: txRunner}
}

// Grant authorizes an attorney for a registry. Granting is idempotent.
func (s *GrantService) Grant(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	exists, err := s.records.Exists(ctx, registryID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "check registry existence")
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "registry not found")
	}

	actor := grantActor(ctx)
	return s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.grants.Grant(ctx, attorneyID, registryID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "grant registry access")
		}
		_, err := s.recorder.Record(ctx, audit.Entry{
			RegistryID:  &registryID,
			ActorUserID: actor,
			Action:      audit.ActionAccessGranted,
			Metadata:    map[string]any{"attorneyId": attorneyID.String()},
		})
		return err
	})
}

// Revoke removes an attorney's authorization. Revoking a grant that does not
// exist is not an error; the audit entry records the intent either way.
func (s *GrantService) Revoke(ctx context.Context, attorneyID id.UserID, registryID id.RegistryID) error {
	actor := grantActor(ctx)
	return s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.grants.Revoke(ctx, attorneyID, registryID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke registry access")
		}
		_, err := s.recorder.Record(ctx, audit.Entry{
			RegistryID:  &registryID,
			ActorUserID: actor,
			Action:      audit.ActionAccessRevoked,
			Metadata:    map[string]any{"attorneyId": attorneyID.String()},
		})
		return err
	})
}

func grantActor(ctx context.Context) *id.UserID {
	user := requestcontext.User(ctx)
	if user.ID.IsNil() {
		return nil
	}
	uid := user.ID
	return &uid
}
