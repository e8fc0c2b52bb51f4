package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"caseledger/internal/audit"
	"caseledger/internal/platform/metrics"
	"caseledger/internal/registry"
	"caseledger/pkg/canonical"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/platform/sentinel"
	"caseledger/pkg/requestcontext"
)

// Service owns the registry lifecycle. Every mutation runs inside one
// transaction together with its audit entry: either the change and its log
// line both commit, or neither does.
type Service struct {
	store    registry.Store
	recorder *audit.Recorder
	txRunner TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New builds the registry service. metrics may be nil in tests.
func New(store registry.Store, recorder *audit.Recorder, txRunner TxRunner, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		txRunner: txRunner,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("caseledger/registry"),
	}
}

// CreateInput carries everything needed to open a new registry.
type CreateInput struct {
	SubjectName string
	Payload     map[string]any
	SubmittedBy id.SubmittedBy
}

// Create opens a registry with its first version at sequence 1. The record,
// the version, and the CREATED audit entry commit together.
func (s *Service) Create(ctx context.Context, input CreateInput) (registry.Record, registry.Version, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Create")
	defer span.End()

	if strings.TrimSpace(input.SubjectName) == "" {
		return registry.Record{}, registry.Version{}, dErrors.New(dErrors.CodeValidation, "subject name is required")
	}
	if input.Payload == nil {
		return registry.Record{}, registry.Version{}, dErrors.New(dErrors.CodeValidation, "payload is required")
	}
	if _, err := id.ParseSubmittedBy(string(input.SubmittedBy)); err != nil {
		return registry.Record{}, registry.Version{}, err
	}

	hash, err := canonical.Hash(input.Payload)
	if err != nil {
		return registry.Record{}, registry.Version{}, dErrors.Wrap(err, dErrors.CodeValidation, "payload is not hashable")
	}

	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	record := registry.Record{
		ID:          id.NewRegistryID(),
		SubjectName: input.SubjectName,
		Status:      id.StatusActive,
		CreatedAt:   now,
	}
	version := registry.Version{
		ID:          id.NewVersionID(),
		RegistryID:  record.ID,
		Payload:     input.Payload,
		SubmittedBy: input.SubmittedBy,
		ContentHash: hash,
		CreatedAt:   now,
	}

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.InsertRecord(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert registry record")
		}
		stored, err := s.store.AppendVersion(ctx, version)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "append initial version")
		}
		version = stored

		_, err = s.recorder.Record(ctx, audit.Entry{
			RegistryID:  &record.ID,
			ActorUserID: actor,
			Action:      audit.ActionCreated,
			Metadata: map[string]any{
				"subjectName": record.SubjectName,
				"contentHash": version.ContentHash,
			},
		})
		return err
	})
	if err != nil {
		return registry.Record{}, registry.Version{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistriesCreated.Inc()
	}
	s.logger.InfoContext(ctx, "registry created",
		"registry_id", record.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, version, nil
}

// AppendVersion appends the next immutable snapshot. The version and its
// UPDATED audit entry commit together; the store allocates the sequence.
func (s *Service) AppendVersion(ctx context.Context, registryID id.RegistryID, payload map[string]any, submittedBy id.SubmittedBy) (registry.Version, error) {
	ctx, span := s.tracer.Start(ctx, "registry.AppendVersion")
	defer span.End()

	if payload == nil {
		return registry.Version{}, dErrors.New(dErrors.CodeValidation, "payload is required")
	}
	if _, err := id.ParseSubmittedBy(string(submittedBy)); err != nil {
		return registry.Version{}, err
	}

	hash, err := canonical.Hash(payload)
	if err != nil {
		return registry.Version{}, dErrors.Wrap(err, dErrors.CodeValidation, "payload is not hashable")
	}

	actor := actorID(ctx)
	version := registry.Version{
		ID:          id.NewVersionID(),
		RegistryID:  registryID,
		Payload:     payload,
		SubmittedBy: submittedBy,
		ContentHash: hash,
		CreatedAt:   requestcontext.Now(ctx),
	}

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		stored, err := s.store.AppendVersion(ctx, version)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registry not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "append registry version")
		}
		version = stored

		_, err = s.recorder.Record(ctx, audit.Entry{
			RegistryID:  &registryID,
			ActorUserID: actor,
			Action:      audit.ActionUpdated,
			Metadata: map[string]any{
				"sequence":    version.Sequence,
				"contentHash": version.ContentHash,
			},
		})
		return err
	})
	if err != nil {
		return registry.Version{}, err
	}

	if s.metrics != nil {
		s.metrics.VersionsAppended.Inc()
	}
	return version, nil
}

// GetByID loads the full aggregate and re-verifies the latest version's hash
// before returning it. A mismatch means the stored content no longer matches
// what was hashed at write time; the read fails rather than serve it.
func (s *Service) GetByID(ctx context.Context, registryID id.RegistryID) (registry.Aggregate, error) {
	ctx, span := s.tracer.Start(ctx, "registry.GetByID")
	defer span.End()

	record, err := s.store.GetRecord(ctx, registryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return registry.Aggregate{}, dErrors.New(dErrors.CodeNotFound, "registry not found")
	}
	if err != nil {
		return registry.Aggregate{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "get registry record")
	}

	versions, err := s.store.ListVersions(ctx, registryID)
	if err != nil {
		return registry.Aggregate{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "list registry versions")
	}

	aggregate := registry.Aggregate{Record: record, Versions: versions}
	if latest, ok := aggregate.LatestVersion(); ok {
		if err := s.verifyHash(ctx, latest); err != nil {
			return registry.Aggregate{}, err
		}
	}

	entries, err := s.recorder.EntriesForRegistry(ctx, registryID)
	if err != nil {
		return registry.Aggregate{}, err
	}
	aggregate.AuditEntries = entries

	s.recorder.RecordBestEffort(ctx, audit.Entry{
		RegistryID:  &registryID,
		ActorUserID: actorID(ctx),
		Action:      audit.ActionViewed,
	})
	return aggregate, nil
}

// List returns the payload-free summaries of all registries.
func (s *Service) List(ctx context.Context) ([]registry.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "registry.List")
	defer span.End()

	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list registry summaries")
	}

	s.recorder.RecordBestEffort(ctx, audit.Entry{
		ActorUserID: actorID(ctx),
		Action:      audit.ActionSearchPerformed,
		Metadata:    map[string]any{"resultCount": len(summaries)},
	})
	return summaries, nil
}

// UpdateStatus transitions the record's lifecycle state. The status change
// and its audit entry commit together.
func (s *Service) UpdateStatus(ctx context.Context, registryID id.RegistryID, status id.RegistryStatus) error {
	ctx, span := s.tracer.Start(ctx, "registry.UpdateStatus")
	defer span.End()

	if _, err := id.ParseRegistryStatus(string(status)); err != nil {
		return err
	}

	actor := actorID(ctx)
	return s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		err := s.store.UpdateStatus(ctx, registryID, status)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registry not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "update registry status")
		}

		_, err = s.recorder.Record(ctx, audit.Entry{
			RegistryID:  &registryID,
			ActorUserID: actor,
			Action:      statusAction(status),
			Metadata:    map[string]any{"status": status.String()},
		})
		return err
	})
}

// statusAction picks the audit action matching the lifecycle transition.
func statusAction(status id.RegistryStatus) audit.Action {
	switch status {
	case id.StatusVerified:
		return audit.ActionVerified
	case id.StatusArchived:
		return audit.ActionArchived
	default:
		return audit.ActionUpdated
	}
}

func (s *Service) verifyHash(ctx context.Context, version registry.Version) error {
	computed, err := canonical.Hash(version.Payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeIntegrity, "recompute content hash")
	}
	if computed != version.ContentHash {
		if s.metrics != nil {
			s.metrics.IntegrityFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "content hash mismatch",
			"registry_id", version.RegistryID,
			"version_id", version.ID,
			"sequence", version.Sequence,
			"stored_hash", version.ContentHash,
			"computed_hash", computed,
		)
		return dErrors.New(dErrors.CodeIntegrity, "registry content failed verification")
	}
	return nil
}

// actorID reads the authenticated user from context; nil when the context has
// no identity (internal workers).
func actorID(ctx context.Context) *id.UserID {
	user := requestcontext.User(ctx)
	if user.ID.IsNil() {
		return nil
	}
	uid := user.ID
	return &uid
}
