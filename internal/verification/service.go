// Package verification implements the out-of-band confirmation flow that
// moves a registry to VERIFIED. A short-lived numeric code is issued, held
// only as a bcrypt hash, and must be presented back before it expires.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"caseledger/internal/audit"
	id "caseledger/pkg/domain"
	dErrors "caseledger/pkg/domain-errors"
	"caseledger/pkg/platform/sentinel"
	"caseledger/pkg/requestcontext"
)

const codeDigits = 6

// RecordChecker answers registry existence questions.
type RecordChecker interface {
	Exists(ctx context.Context, registryID id.RegistryID) (bool, error)
}

// StatusUpdater transitions a registry's lifecycle state. Satisfied by the
// registry service so the transition and its audit entry share a transaction.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, registryID id.RegistryID, status id.RegistryStatus) error
}

// Service issues and confirms verification codes.
type Service struct {
	codes    CodeStore
	records  RecordChecker
	registry StatusUpdater
	recorder *audit.Recorder
	logger   *slog.Logger
	ttl      time.Duration
}

// New builds the verification service.
func New(codes CodeStore, records RecordChecker, registry StatusUpdater, recorder *audit.Recorder, logger *slog.Logger, ttl time.Duration) *Service {
	return &Service{
		codes:    codes,
		records:  records,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		ttl:      ttl,
	}
}

// RequestCode issues a fresh code for the registry, replacing any pending
// one, and returns the plaintext exactly once for out-of-band delivery.
func (s *Service) RequestCode(ctx context.Context, registryID id.RegistryID) (string, error) {
	exists, err := s.records.Exists(ctx, registryID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "check registry existence")
	}
	if !exists {
		return "", dErrors.New(dErrors.CodeNotFound, "registry not found")
	}

	code, err := generateCode()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "generate verification code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash verification code")
	}
	if err := s.codes.Put(ctx, registryID, string(hash), s.ttl); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "store verification code")
	}

	if _, err := s.recorder.Record(ctx, audit.Entry{
		RegistryID:  &registryID,
		ActorUserID: verificationActor(ctx),
		Action:      audit.ActionVerificationRequested,
		Metadata:    map[string]any{"ttlSeconds": int(s.ttl.Seconds())},
	}); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "verification code issued",
		"registry_id", registryID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return code, nil
}

// Confirm checks the presented code against the pending hash and, on match,
// moves the registry to VERIFIED and consumes the code.
func (s *Service) Confirm(ctx context.Context, registryID id.RegistryID, code string) error {
	hash, err := s.codes.Get(ctx, registryID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "no pending verification for registry")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "load verification code")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		s.logger.WarnContext(ctx, "verification code mismatch",
			"registry_id", registryID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeInvalidInput, "verification code does not match")
	}

	if err := s.registry.UpdateStatus(ctx, registryID, id.StatusVerified); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, registryID); err != nil {
		// The registry is already VERIFIED; a lingering code only wastes TTL.
		s.logger.WarnContext(ctx, "failed to delete consumed verification code",
			"registry_id", registryID,
			"error", err,
		)
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func verificationActor(ctx context.Context) *id.UserID {
	user := requestcontext.User(ctx)
	if user.ID.IsNil() {
		return nil
	}
	uid := user.ID
	return &uid
}
