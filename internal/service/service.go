package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"medverify/backend/internal/anchor"
	"medverify/backend/internal/classify"
	"medverify/backend/internal/domain"
	"medverify/backend/internal/gs1"
	"medverify/backend/internal/identity"
	"medverify/backend/internal/report"
	"medverify/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service runs the scan pipeline: decode, identity resolution, history
// lookup, anchor resolution, classification and the idempotent history write.
// Collaborators are injected so the pipeline is independently testable.
type Service struct {
	repo        store.Repository
	anchors     anchor.Resolver
	reporter    report.Reporter
	networkName string
	log         *zap.Logger
	now         func() time.Time
}

func New(repo store.Repository, anchors anchor.Resolver, reporter report.Reporter, networkName string, logger *zap.Logger) *Service {
	if networkName == "" {
		networkName = "epipoc"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = report.NoopReporter{}
	}

	return &Service{
		repo:        repo,
		anchors:     anchors,
		reporter:    reporter,
		networkName: networkName,
		log:         logger,
		now:         time.Now,
	}
}

var rejectMessages = map[domain.RejectReason]string{
	domain.ReasonMalformedPayload:   "err_barcode",
	domain.ReasonMissingMandatory:   "err_barcode",
	domain.ReasonUnknownCombination: "err_combination",
}

// Scan processes one scan event end to end and returns a tagged outcome.
// Decode and validation failures are terminal for the attempt and come back
// as Rejected with the partial decode; everything downstream resolves to a
// status on the record, never an error — the returned error is reserved for
// history-store I/O failure.
func (s *Service) Scan(ctx context.Context, req domain.ScanRequest) (domain.ScanOutcome, error) {
	fields, elements, err := gs1.Decode(req)
	if err != nil {
		var decodeErr *gs1.DecodeError
		if errors.As(err, &decodeErr) {
			reason := domain.ReasonMalformedPayload
			if decodeErr.Kind == gs1.KindMissingMandatoryField {
				reason = domain.ReasonMissingMandatory
			}
			s.log.Info("scan rejected",
				zap.String("reason", string(reason)),
				zap.String("detail", decodeErr.Reason),
			)
			return rejectedOutcome(reason, decodeErr.Fields, decodeErr.Elements), nil
		}
		return domain.ScanOutcome{}, err
	}

	id, primaryKey := identity.Resolve(s.networkName, fields)

	existing, err := s.repo.GetScan(ctx, primaryKey)
	if err == nil {
		// Re-scan of a known unit: a pure read, classification never re-runs.
		s.reportAsync(fields, true, existing.Status)
		return domain.ScanOutcome{Kind: domain.OutcomeAlreadyKnown, Record: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.ScanOutcome{}, err
	}

	batchExists := s.anchors.Exists(ctx, id.String())

	var (
		result  classify.Result
		product *domain.Product
		batch   *domain.BatchData
	)
	switch {
	case batchExists && fields.BatchNumber == "":
		// gtin-only scan: the identity already names the product anchor.
		product = s.resolveProduct(ctx, id)
		result = classify.ProductOnly(product != nil && product.ShowEPIOnUnknownBatchNumber)
	case batchExists:
		product = s.resolveProduct(ctx, id.ProductOnly())
		batch, err = s.anchors.ResolveBatch(ctx, id.String())
		if err != nil {
			s.log.Warn("batch authority data unavailable",
				zap.String("identity", id.String()),
				zap.Error(err),
			)
			batch = nil
			result = classify.UnableToVerify()
		} else {
			result = classify.Classify(fields, batch, s.now())
		}
	case s.anchors.Exists(ctx, id.ProductOnly().String()):
		// Batch was scanned but only the product is registered: nothing to
		// verify the batch against.
		product = s.resolveProduct(ctx, id.ProductOnly())
		result = classify.UnableToVerify()
	default:
		s.reportAsync(fields, false, "")
		s.log.Info("scan rejected", zap.String("reason", string(domain.ReasonUnknownCombination)))
		return rejectedOutcome(domain.ReasonUnknownCombination, fields, elements), nil
	}

	record := domain.HistoryRecord{
		PrimaryKey:       primaryKey,
		Fields:           fields,
		Identity:         id.String(),
		NetworkName:      s.networkName,
		Status:           result.Status,
		StatusMessage:    result.StatusMessage,
		StatusType:       result.StatusType,
		ExpiryForDisplay: result.ExpiryForDisplay,
		ExpiryTime:       result.ExpiryTime,
		SNCheck:          result.SNCheck,
		ShowEPI:          result.ShowEPI,
		Product:          product,
		Batch:            batch,
		CreatedAt:        s.now().UTC(),
	}

	committed, err := s.repo.InsertScanIfAbsent(ctx, record)
	if err != nil {
		return domain.ScanOutcome{}, err
	}

	s.reportAsync(fields, batchExists, committed.Status)
	s.log.Info("scan classified",
		zap.String("status", string(committed.Status)),
		zap.String("gtin", fields.GTIN),
		zap.Bool("snCheck", committed.SNCheck),
	)
	return domain.ScanOutcome{Kind: domain.OutcomeClassified, Record: committed}, nil
}

// History returns the most recent scan records, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.repo.ListScans(ctx, limit)
}

// HistoryRecord returns one record by its per-unit primary key.
func (s *Service) HistoryRecord(ctx context.Context, primaryKey string) (*domain.HistoryRecord, error) {
	return s.repo.GetScan(ctx, primaryKey)
}

func (s *Service) resolveProduct(ctx context.Context, id identity.Identity) *domain.Product {
	product, err := s.anchors.ResolveProduct(ctx, id.ProductOnly().String())
	if err != nil {
		s.log.Debug("product data unavailable",
			zap.String("identity", id.ProductOnly().String()),
			zap.Error(err),
		)
		return &domain.Product{GTIN: id.GTIN}
	}
	return product
}

// reportAsync emits the scan event without blocking the pipeline. Failures
// are logged and dropped.
func (s *Service) reportAsync(fields domain.ScanFields, batchAnchorExists bool, status domain.Status) {
	event := report.NewScanEvent(fields)
	event.BatchAnchorExists = batchAnchorExists
	event.Status = status

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.reporter.Report(ctx, event); err != nil {
			s.log.Warn("scan event report failed", zap.String("eventId", event.EventID), zap.Error(err))
		}
	}()
}

func rejectedOutcome(reason domain.RejectReason, fields domain.ScanFields, elements []domain.DecodedElement) domain.ScanOutcome {
	return domain.ScanOutcome{
		Kind:          domain.OutcomeRejected,
		Reason:        reason,
		Message:       rejectMessages[reason],
		PartialFields: fields,
		Elements:      elements,
	}
}
