package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/internal/repository"
	"github.com/noah-isme/sma-coins-api/pkg/database"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/sanitize"
)

type requestStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, req *models.StudentRequest) error
	GetByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.StudentRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, error)
	Count(ctx context.Context, filter models.RequestFilter) (int, error)
	ListPendingOverrides(ctx context.Context, studentID string) ([]models.StudentRequest, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, params repository.UpdateRequestStatusParams) error
}

type requestLedger interface {
	Create(ctx context.Context, exec sqlx.ExtContext, adj *models.CoinAdjustment) error
	DeactivateByRequest(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error)
}

type overrideWriter interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error
}

type dayRecordFinder interface {
	FindByStudentDate(ctx context.Context, studentID string, date time.Time) ([]models.DailyRecord, error)
}

type balanceReader interface {
	GetBalance(ctx context.Context, studentID string) (*models.Balance, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// RequestServiceConfig tunes redemption prices and the magic approve rule.
type RequestServiceConfig struct {
	AssignmentCost  int
	QuizCost        int
	MagicMinMinutes int
	MagicToken      string
}

// RequestService runs the student request state machine. Redemptions debit
// coins at submission and are refunded only by rejecting a pending request.
// Approved and rejected are terminal.
type RequestService struct {
	requests  requestStore
	ledger    requestLedger
	overrides overrideWriter
	records   dayRecordFinder
	balances  balanceReader
	tx        txProvider
	audit     auditLogger
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RequestServiceConfig
}

// NewRequestService constructs the workflow.
func NewRequestService(
	requests requestStore,
	ledger requestLedger,
	overrides overrideWriter,
	records dayRecordFinder,
	balances balanceReader,
	tx txProvider,
	audit auditLogger,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RequestServiceConfig,
) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AssignmentCost <= 0 {
		cfg.AssignmentCost = 10
	}
	if cfg.QuizCost <= 0 {
		cfg.QuizCost = 20
	}
	if cfg.MagicMinMinutes <= 0 {
		cfg.MagicMinMinutes = 31
	}
	cfg.MagicToken = strings.ToLower(strings.TrimSpace(cfg.MagicToken))
	if cfg.MagicToken == "" {
		cfg.MagicToken = "review"
	}
	return &RequestService{
		requests:  requests,
		ledger:    ledger,
		overrides: overrides,
		records:   records,
		balances:  balances,
		tx:        tx,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Cost returns the coin price of a redemption type, or zero.
func (s *RequestService) Cost(t models.RequestType) int {
	switch t {
	case models.RequestAssignmentReplacement:
		return s.cfg.AssignmentCost
	case models.RequestQuizReplacement:
		return s.cfg.QuizCost
	default:
		return 0
	}
}

// Submit validates and stores a new pending request. For redemptions the
// request row and its GLOBAL deduction are written in one transaction after
// the balance check. flags are the feature flags in force for this call.
func (s *RequestService) Submit(ctx context.Context, input dto.SubmitRequestInput, flags models.FeatureFlags) (*dto.SubmitRequestResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if !input.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported request type")
	}
	if !flags.Allows(input.Type) {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, fmt.Sprintf("%s requests are disabled", input.Type))
	}

	req := &models.StudentRequest{
		StudentID: strings.TrimSpace(input.StudentID),
		Period:    strings.TrimSpace(input.Period),
		Section:   input.Section,
		Type:      input.Type,
		Details:   sanitize.Text(input.Details),
		DayNumber: input.DayNumber,
		Status:    models.RequestStatusPending,
	}
	if req.Details == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "details is required")
	}
	if req.Type == models.RequestOverride {
		if input.DayNumber == nil || strings.TrimSpace(input.OverrideDate) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dayNumber and overrideDate are required for override requests")
		}
		date, err := models.ParseDate(input.OverrideDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "overrideDate must be YYYY-MM-DD")
		}
		req.OverrideDate = &date
	}

	cost := s.Cost(req.Type)
	if cost > 0 {
		balance, err := s.balances.GetBalance(ctx, req.StudentID)
		if err != nil {
			return nil, asStoreError(err, "failed to compute balance")
		}
		if balance.Total < cost {
			return nil, appErrors.Clone(appErrors.ErrInsufficientBalance,
				fmt.Sprintf("%s costs %d coins, balance is %d", req.Type, cost, balance.Total))
		}
	}

	var adjustment *models.CoinAdjustment
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.requests.Create(ctx, tx, req); err != nil {
			return appErrors.Store(err, "failed to create request")
		}
		if cost == 0 {
			return nil
		}
		requestID := req.ID
		adjustment = &models.CoinAdjustment{
			StudentID: req.StudentID,
			Period:    models.GlobalPeriod,
			Section:   req.Section,
			Amount:    -cost,
			Reason:    fmt.Sprintf("%s redemption", strings.ReplaceAll(string(req.Type), "_", " ")),
			CreatedBy: req.StudentID,
			RequestID: &requestID,
		}
		if err := s.ledger.Create(ctx, tx, adjustment); err != nil {
			return appErrors.Store(err, "failed to record coin deduction")
		}
		return nil
	})
	if err != nil {
		return nil, asStoreError(err, "failed to submit request")
	}

	s.metrics.RecordRequestTransition(req.Type, "submitted")
	s.emitAudit(ctx, req.StudentID, models.AuditActionRequestSubmit, req.ID, nil, req)
	if cost > 0 {
		invalidateAnalytics(ctx, s.cache)
	}
	s.logger.Info("request submitted",
		zap.String("request_id", req.ID),
		zap.String("student_id", req.StudentID),
		zap.String("type", string(req.Type)),
		zap.Int("debited", cost),
	)

	result := &dto.SubmitRequestResult{RequestID: req.ID, Status: req.Status, CoinsDebited: cost}
	if adjustment != nil {
		result.AdjustmentID = adjustment.ID
	}
	return result, nil
}

// Process moves a pending request to approved or rejected together with its
// side effect. A terminal request fails with ALREADY_PROCESSED and nothing is
// reapplied.
func (s *RequestService) Process(ctx context.Context, id string, input dto.ProcessRequestInput, adminID string) (*dto.ProcessRequestResult, error) {
	if input.Decision != models.RequestStatusApproved && input.Decision != models.RequestStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}
	if strings.TrimSpace(adminID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	notes := sanitize.Text(input.Notes)

	req, err := s.requests.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Store(err, "failed to load request")
	}
	if req.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, fmt.Sprintf("request already %s", req.Status))
	}

	result := &dto.ProcessRequestResult{}
	now := time.Now().UTC()
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		switch {
		case input.Decision == models.RequestStatusApproved && req.Type == models.RequestOverride:
			override, err := s.materializeOverride(ctx, tx, req, notes, adminID)
			if err != nil {
				return err
			}
			result.OverrideID = override.ID
		case input.Decision == models.RequestStatusRejected && req.Type.IsRedemption():
			restored, err := s.ledger.DeactivateByRequest(ctx, tx, req.ID)
			if err != nil {
				return appErrors.Store(err, "failed to refund redemption")
			}
			result.Refunded = -restored
		}

		if err := s.requests.UpdateStatus(ctx, tx, repository.UpdateRequestStatusParams{
			ID:          req.ID,
			Status:      input.Decision,
			AdminNotes:  optionalString(notes),
			ProcessedBy: adminID,
			ProcessedAt: now,
		}); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrAlreadyProcessed, "request already processed")
			}
			return appErrors.Store(err, "failed to update request")
		}
		return nil
	})
	if err != nil {
		return nil, asStoreError(err, "failed to process request")
	}

	before := *req
	req.Status = input.Decision
	req.AdminNotes = optionalString(notes)
	req.ProcessedBy = &adminID
	req.ProcessedAt = &now
	result.Request = req

	transition := "approved"
	action := models.AuditActionRequestApprove
	if input.Decision == models.RequestStatusRejected {
		transition = "rejected"
		action = models.AuditActionRequestReject
	}
	s.metrics.RecordRequestTransition(req.Type, transition)
	s.emitAudit(ctx, adminID, action, req.ID, &before, req)
	if result.OverrideID != "" || result.Refunded != 0 {
		invalidateAnalytics(ctx, s.cache)
	}
	s.logger.Info("request processed",
		zap.String("request_id", req.ID),
		zap.String("status", string(req.Status)),
		zap.String("processed_by", adminID),
		zap.String("override_id", result.OverrideID),
		zap.Int("refunded", result.Refunded),
	)
	return result, nil
}

func (s *RequestService) materializeOverride(ctx context.Context, tx sqlx.ExtContext, req *models.StudentRequest, notes, adminID string) (*models.Override, error) {
	if req.OverrideDate == nil {
		return nil, appErrors.Clone(appErrors.ErrOverrideCreateFailed, "override request has no override date")
	}
	reason := notes
	if reason == "" {
		reason = req.Details
	}
	dayNumber := 0
	if req.DayNumber != nil {
		dayNumber = *req.DayNumber
	}
	override := &models.Override{
		StudentID:    req.StudentID,
		Date:         *req.OverrideDate,
		DayNumber:    dayNumber,
		OverrideType: models.OverrideQualified,
		Reason:       reason,
		CreatedBy:    adminID,
	}
	if err := s.overrides.Upsert(ctx, tx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOverrideCreateFailed.Code, appErrors.ErrOverrideCreateFailed.Status, "failed to create override")
	}
	return override, nil
}

// MagicApprove approves every pending override request of a student whose day
// record logged at least the configured minutes and whose details mention the
// configured token. Each approval runs in its own transaction; requests that
// fail are reported in Failed and Skipped.
func (s *RequestService) MagicApprove(ctx context.Context, studentID, adminID string) (*dto.MagicApproveResult, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	pending, err := s.requests.ListPendingOverrides(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list pending override requests")
	}

	result := &dto.MagicApproveResult{Approved: []string{}, Skipped: []string{}}
	fail := func(id string, err error) {
		if result.Failed == nil {
			result.Failed = make(map[string]string)
		}
		result.Failed[id] = appErrors.FromError(err).Code
		result.Skipped = append(result.Skipped, id)
		s.logger.Warn("magic approve failed", zap.String("request_id", id), zap.Error(err))
	}
	for i := range pending {
		req := &pending[i]
		eligible, err := s.magicEligible(ctx, req)
		if err != nil {
			fail(req.ID, err)
			continue
		}
		if !eligible {
			result.Skipped = append(result.Skipped, req.ID)
			continue
		}
		if _, err := s.Process(ctx, req.ID, dto.ProcessRequestInput{Decision: models.RequestStatusApproved}, adminID); err != nil {
			fail(req.ID, err)
			continue
		}
		result.Approved = append(result.Approved, req.ID)
	}

	s.logger.Info("magic approve finished",
		zap.String("student_id", studentID),
		zap.Int("approved", len(result.Approved)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (s *RequestService) magicEligible(ctx context.Context, req *models.StudentRequest) (bool, error) {
	if req.OverrideDate == nil {
		return false, nil
	}
	if !strings.Contains(strings.ToLower(req.Details), s.cfg.MagicToken) {
		return false, nil
	}
	records, err := s.records.FindByStudentDate(ctx, req.StudentID, *req.OverrideDate)
	if err != nil {
		return false, appErrors.Store(err, "failed to load day record")
	}
	record := pickRecord(records, req.Period, req.Section)
	if record == nil {
		return false, nil
	}
	return record.Minutes >= s.cfg.MagicMinMinutes, nil
}

// pickRecord prefers the record from the request's own dataset.
func pickRecord(records []models.DailyRecord, period string, section int) *models.DailyRecord {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].PeriodKey == period && records[i].Section == section {
			return &records[i]
		}
	}
	return &records[0]
}

// List returns requests visible to the actor. Students only see their own.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.StudentRequest, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		StudentID: strings.TrimSpace(query.StudentID),
		Status:    query.Status,
		Type:      query.Type,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == models.RoleStudent:
		filter.StudentID = actor.UserID
	default:
		return nil, 0, appErrors.ErrForbidden
	}
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Store(err, "failed to list requests")
	}
	if requests == nil {
		requests = []models.StudentRequest{}
	}
	total, err := s.requests.Count(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Store(err, "failed to count requests")
	}
	return requests, total, nil
}

// Get returns a request enforcing ownership for students.
func (s *RequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.StudentRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Store(err, "failed to load request")
	}
	if !actor.IsAdmin() && req.StudentID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return req, nil
}

func (s *RequestService) emitAudit(ctx context.Context, userID, action, requestID string, before, after *models.StudentRequest) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "student_request",
		ResourceID: &requestID,
		IPAddress:  "system",
		UserAgent:  "request-service",
	}
	if before != nil {
		log.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		log.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
