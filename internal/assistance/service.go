package assistance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pendampingan/assistance-backend/pkg/fees"
	"github.com/pendampingan/assistance-backend/pkg/models"
	"github.com/pendampingan/assistance-backend/pkg/utils"
)

// Service implements the assistance engagement workflow. Every state
// transition is a read-modify-write guarded by the request's version column:
// the guard is evaluated against freshly read state, the update only lands if
// the version is unchanged, and a losing racer observes a conflict. One
// automatic retry re-reads and re-evaluates; the second conflict surfaces.
type Service struct {
	db   *gorm.DB
	fees fees.Schedule
	log  zerolog.Logger
}

func NewService(db *gorm.DB, schedule fees.Schedule, log zerolog.Logger) *Service {
	return &Service{db: db, fees: schedule, log: log}
}

/* ============================ Shared plumbing =========================== */

func (s *Service) getRequest(ctx context.Context, id uuid.UUID) (*models.AssistanceRequest, error) {
	var req models.AssistanceRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func isParty(req *models.AssistanceRequest, actorID uuid.UUID) bool {
	return actorID == req.ClientID || actorID == req.LawyerID
}

// casUpdate applies updates to the request iff its version is unchanged.
// The version is bumped so any concurrent transition loses.
func casUpdate(tx *gorm.DB, req *models.AssistanceRequest, updates map[string]any) error {
	updates["version"] = req.Version + 1
	updates["updated_at"] = time.Now()

	res := tx.Model(&models.AssistanceRequest{}).
		Where("id = ? AND version = ?", req.ID, req.Version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errConflict()
	}
	return nil
}

// retryOnConflict re-runs fn once when the version guard fails, so the guard
// gets re-evaluated against fresh state before the conflict reaches the user.
func (s *Service) retryOnConflict(fn func() error) error {
	err := fn()
	if CodeOf(err) == CodeConflict {
		s.log.Warn().Msg("version conflict, retrying transition once")
		err = fn()
	}
	return err
}

func (s *Service) logTransition(req uuid.UUID, to models.RequestStatus) {
	s.log.Info().
		Str("request_id", req.String()).
		Str("status", string(to)).
		Msg("request transitioned")
}

/* ============================= createRequest ============================ */

type CreateInput struct {
	ClientID        uuid.UUID
	LawyerID        uuid.UUID
	CaseDescription string
	ClientCity      string
	ClientDistrict  string
	ProposedPrice   *int64
}

// CreateRequest opens a pending engagement between a client and the lawyer
// they picked, and writes the first history entry.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (*models.AssistanceRequest, error) {
	if strings.TrimSpace(in.CaseDescription) == "" {
		return nil, errValidation("case description is required")
	}
	if strings.TrimSpace(in.ClientCity) == "" || strings.TrimSpace(in.ClientDistrict) == "" {
		return nil, errValidation("client city and district are required")
	}
	if in.ProposedPrice != nil && *in.ProposedPrice <= 0 {
		return nil, errValidation("proposed price must be positive")
	}

	var lawyer models.User
	if err := s.db.WithContext(ctx).First(&lawyer, "id = ?", in.LawyerID).Error; err != nil || lawyer.Role != models.RoleLawyer {
		return nil, errValidation("lawyer not found")
	}

	req := models.AssistanceRequest{
		ClientID:        in.ClientID,
		LawyerID:        in.LawyerID,
		CaseDescription: strings.TrimSpace(in.CaseDescription),
		ClientCity:      strings.TrimSpace(in.ClientCity),
		ClientDistrict:  strings.TrimSpace(in.ClientDistrict),
		ProposedPrice:   in.ProposedPrice,
		PaymentStatus:   models.PaymentUnpaid,
		Status:          models.StatusPending,
		Version:         1,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		st := models.StatusPending
		return utils.AppendHistory(tx, req.ID, in.ClientID, &st, nil, "request created")
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(req.ID, models.StatusPending)
	return &req, nil
}

/* ============================== sendMessage ============================= */

type SendMessageInput struct {
	RequestID    uuid.UUID
	SenderID     uuid.UUID
	Content      string
	OfferedPrice *int64 // non-nil makes this a price offer
}

// SendMessage appends to the request's message ledger. A price offer from a
// pending request opens the negotiation; later offers from either side
// supersede earlier ones without another status change.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	var out *models.Message
	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if !isParty(req, in.SenderID) {
			return errForbidden("not a participant of this request")
		}

		if in.OfferedPrice == nil {
			if strings.TrimSpace(in.Content) == "" {
				return errValidation("message content is required")
			}
			if !chatAllowed(req.Status) {
				return errInvalidState("request is %s, chat is closed", req.Status)
			}
			msg := models.Message{
				RequestID: req.ID,
				SenderID:  in.SenderID,
				Type:      models.MessageText,
				Content:   strings.TrimSpace(in.Content),
				CreatedAt: time.Now(),
			}
			if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
				return err
			}
			out = &msg
			return nil
		}

		// Price offer path
		if *in.OfferedPrice <= 0 {
			return errValidation("offered price must be positive")
		}
		if !offerAllowed(req.Status) {
			return errInvalidState("cannot make an offer while request is %s", req.Status)
		}
		if req.Status == models.StatusPending && in.SenderID != req.LawyerID {
			return errForbidden("only the lawyer can open the negotiation with an offer")
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if req.Status == models.StatusPending {
				if err := casUpdate(tx, req, map[string]any{
					"status": models.StatusNegotiating,
				}); err != nil {
					return err
				}
				st := models.StatusNegotiating
				if err := utils.AppendHistory(tx, req.ID, in.SenderID, &st, nil, "negotiation opened"); err != nil {
					return err
				}
			}
			msg := models.Message{
				RequestID:    req.ID,
				SenderID:     in.SenderID,
				Type:         models.MessagePriceOffer,
				Content:      strings.TrimSpace(in.Content),
				IsPriceOffer: true,
				OfferedPrice: in.OfferedPrice,
				CreatedAt:    time.Now(),
			}
			if err := tx.Create(&msg).Error; err != nil {
				return err
			}
			out = &msg
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordFileMessage stores an uploaded attachment and its ledger entry in one
// unit of work. The upload itself happens before this call.
func (s *Service) RecordFileMessage(ctx context.Context, requestID, senderID uuid.UUID, file *models.AssistanceFile, caption string) (*models.Message, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParty(req, senderID) {
		return nil, errForbidden("not a participant of this request")
	}
	if !chatAllowed(req.Status) {
		return nil, errInvalidState("request is %s, chat is closed", req.Status)
	}

	var msg models.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		msg = models.Message{
			RequestID: req.ID,
			SenderID:  senderID,
			Type:      models.MessageFile,
			Content:   strings.TrimSpace(caption),
			FileKey:   file.Key,
			CreatedAt: time.Now(),
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

/* ============================= submitIdentity =========================== */

type IdentityInput struct {
	RequestID uuid.UUID
	ActorID   uuid.UUID
	Name      string
	Address   string
	Age       int
	Religion  string
	NIK       string
	CaseType  string
}

// SubmitIdentity stores the client identity snapshot and marks the request
// identity-verified. Verification never reverts; the snapshot may be
// corrected until an offer is accepted.
func (s *Service) SubmitIdentity(ctx context.Context, in IdentityInput) (*models.AssistanceRequest, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Address) == "" ||
		strings.TrimSpace(in.Religion) == "" || strings.TrimSpace(in.NIK) == "" ||
		strings.TrimSpace(in.CaseType) == "" || in.Age <= 0 {
		return nil, errValidation("all identity fields are required")
	}

	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if in.ActorID != req.ClientID {
			return errForbidden("only the client can submit identity")
		}
		if !identityAllowed(req.Status) {
			return errInvalidState("identity is frozen once the request is %s", req.Status)
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return casUpdate(tx, req, map[string]any{
				"client_name":       strings.TrimSpace(in.Name),
				"client_address":    strings.TrimSpace(in.Address),
				"client_age":        in.Age,
				"client_religion":   strings.TrimSpace(in.Religion),
				"client_nik":        strings.TrimSpace(in.NIK),
				"case_type":         strings.TrimSpace(in.CaseType),
				"identity_verified": true,
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return s.getRequest(ctx, in.RequestID)
}

/* ============================== acceptOffer ============================= */

// AcceptOffer locks in the latest counterparty offer at the given price.
// Re-accepting an already-agreed price is a no-op so retries are safe.
func (s *Service) AcceptOffer(ctx context.Context, requestID, actorID uuid.UUID, price int64) (*models.AssistanceRequest, error) {
	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !isParty(req, actorID) {
			return errForbidden("not a participant of this request")
		}
		// Idempotent retry of a completed accept.
		if req.AgreedPrice != nil && *req.AgreedPrice == price {
			return nil
		}
		if !req.IdentityVerified {
			return errPrecondition("client identity must be submitted before accepting an offer")
		}
		if !acceptAllowed(req.Status) {
			return errInvalidState("cannot accept an offer while request is %s", req.Status)
		}

		var msgs []models.Message
		if err := s.db.WithContext(ctx).
			Where("request_id = ?", req.ID).
			Order("created_at ASC").
			Find(&msgs).Error; err != nil {
			return err
		}
		off := latestOffer(msgs)
		if off == nil || off.SenderID == actorID {
			return errStaleOffer("no outstanding offer from the counterparty")
		}
		if *off.OfferedPrice != price {
			return errStaleOffer("offer of Rp %d has been superseded", price)
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, req, map[string]any{
				"status":       models.StatusAgreed,
				"agreed_price": price,
			}); err != nil {
				return err
			}
			st := models.StatusAgreed
			return utils.AppendHistory(tx, req.ID, actorID, &st, nil,
				fmt.Sprintf("offer accepted at Rp %d", price))
		})
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(requestID, models.StatusAgreed)
	return s.getRequest(ctx, requestID)
}

/* ============================= confirmPayment =========================== */

// PaymentBreakdown is the amount the client is asked to pay.
type PaymentBreakdown struct {
	AgreedPrice   int64                `json:"agreed_price"`
	PlatformFee   int64                `json:"platform_fee"`
	Total         int64                `json:"total"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// PaymentSummary returns the fee breakdown once a price is agreed. After
// payment the stored amounts are returned, so later fee-schedule changes
// never rewrite what was actually charged.
func (s *Service) PaymentSummary(ctx context.Context, requestID, actorID uuid.UUID) (*PaymentBreakdown, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParty(req, actorID) {
		return nil, errForbidden("not a participant of this request")
	}
	if req.AgreedPrice == nil {
		return nil, errInvalidState("no agreed price yet")
	}

	out := &PaymentBreakdown{AgreedPrice: *req.AgreedPrice, PaymentStatus: req.PaymentStatus}
	if req.PaymentStatus == models.PaymentPaid {
		out.PlatformFee = req.PlatformFee
		out.Total = req.TotalAmount
	} else {
		out.PlatformFee = s.fees.Fee(*req.AgreedPrice)
		out.Total = s.fees.Total(*req.AgreedPrice)
	}
	return out, nil
}

// ConfirmPayment models the payment provider's confirmation callback: it does
// not move money. Payment is the sole trigger from agreed to in_progress.
func (s *Service) ConfirmPayment(ctx context.Context, requestID, actorID uuid.UUID) (*models.AssistanceRequest, error) {
	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if actorID != req.ClientID {
			return errForbidden("only the client can confirm payment")
		}
		if !paymentAllowed(req.Status) || req.PaymentStatus != models.PaymentUnpaid || req.AgreedPrice == nil {
			return errInvalidState("payment is not due while request is %s", req.Status)
		}

		fee := s.fees.Fee(*req.AgreedPrice)
		total := *req.AgreedPrice + fee

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, req, map[string]any{
				"payment_status": models.PaymentPaid,
				"status":         models.StatusInProgress,
				"platform_fee":   fee,
				"total_amount":   total,
			}); err != nil {
				return err
			}
			st := models.StatusInProgress
			return utils.AppendHistory(tx, req.ID, actorID, &st, nil,
				fmt.Sprintf("payment confirmed, total Rp %d", total))
		})
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(requestID, models.StatusInProgress)
	return s.getRequest(ctx, requestID)
}

/* ============================== advanceStage ============================ */

// AdvanceStage records the lawyer's progress through case handling. Stages
// may revisit earlier phases; every change appends history rather than
// mutating it. The completed stage also completes the request.
func (s *Service) AdvanceStage(ctx context.Context, requestID, actorID uuid.UUID, stage models.CaseStage, notes string) (*models.AssistanceRequest, error) {
	if !models.ValidStage(stage) {
		return nil, errValidation("unknown stage %q", stage)
	}

	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if actorID != req.LawyerID {
			return errForbidden("only the assigned lawyer can update the stage")
		}
		if !stageAllowed(req.Status) {
			return errInvalidState("cannot update stage while request is %s", req.Status)
		}

		updates := map[string]any{
			"current_stage": stage,
			"stage_notes":   strings.TrimSpace(notes),
		}
		var newStatus *models.RequestStatus
		if stage == models.StageCompleted {
			updates["status"] = models.StatusCompleted
			st := models.StatusCompleted
			newStatus = &st
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, req, updates); err != nil {
				return err
			}
			stg := stage
			return utils.AppendHistory(tx, req.ID, actorID, newStatus, &stg, strings.TrimSpace(notes))
		})
	})
	if err != nil {
		return nil, err
	}

	if stage == models.StageCompleted {
		s.logTransition(requestID, models.StatusCompleted)
	}
	return s.getRequest(ctx, requestID)
}

/* =========================== cancel and reject ========================== */

// Cancel terminates a request early, by either party, while no money has
// moved. Later termination belongs to the dispute/refund process.
func (s *Service) Cancel(ctx context.Context, requestID, actorID uuid.UUID, reason string) (*models.AssistanceRequest, error) {
	return s.close(ctx, requestID, actorID, reason, models.StatusCancelled)
}

// Reject is the lawyer declining the engagement outright.
func (s *Service) Reject(ctx context.Context, requestID, actorID uuid.UUID, reason string) (*models.AssistanceRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.LawyerID {
		return nil, errForbidden("only the assigned lawyer can reject the request")
	}
	return s.close(ctx, requestID, actorID, reason, models.StatusRejected)
}

func (s *Service) close(ctx context.Context, requestID, actorID uuid.UUID, reason string, to models.RequestStatus) (*models.AssistanceRequest, error) {
	err := s.retryOnConflict(func() error {
		req, err := s.getRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !isParty(req, actorID) {
			return errForbidden("not a participant of this request")
		}
		if strings.TrimSpace(reason) == "" {
			return errValidation("a reason is required")
		}
		if !closeAllowed(req.Status) {
			return errInvalidState("cannot terminate a request that is %s", req.Status)
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := casUpdate(tx, req, map[string]any{"status": to}); err != nil {
				return err
			}
			st := to
			return utils.AppendHistory(tx, req.ID, actorID, &st, nil, strings.TrimSpace(reason))
		})
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(requestID, to)
	return s.getRequest(ctx, requestID)
}

/* ================================= reads ================================ */

// Get loads a request with its ordered message ledger for one of its parties.
func (s *Service) Get(ctx context.Context, requestID, actorID uuid.UUID) (*models.AssistanceRequest, error) {
	var req models.AssistanceRequest
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&req, "id = ?", requestID).Error
	if err != nil {
		return nil, err
	}
	if !isParty(&req, actorID) {
		return nil, errForbidden("not a participant of this request")
	}
	if req.Messages == nil {
		req.Messages = []models.Message{}
	}
	return &req, nil
}

// History returns the append-only audit trail in the order it was written.
func (s *Service) History(ctx context.Context, requestID, actorID uuid.UUID) ([]models.StatusHistoryEntry, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParty(req, actorID) {
		return nil, errForbidden("not a participant of this request")
	}

	var entries []models.StatusHistoryEntry
	if err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFile loads an attachment plus its request, locking nothing: reads are
// ordinary snapshot reads in this workflow.
func (s *Service) GetFile(ctx context.Context, fileID uuid.UUID) (*models.AssistanceFile, error) {
	var f models.AssistanceFile
	if err := s.db.WithContext(ctx).Preload("Request").First(&f, "id = ?", fileID).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

/* ================================= lists ================================ */

// RequestListItem is the dashboard row for either party.
type RequestListItem struct {
	ID            uuid.UUID            `json:"id"`
	ClientID      uuid.UUID            `json:"client_id"`
	LawyerID      uuid.UUID            `json:"lawyer_id"`
	Status        models.RequestStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	CurrentStage  *models.CaseStage    `json:"current_stage,omitempty"`
	Preview       string               `json:"preview"`
	AgreedPrice   *int64               `json:"agreed_price,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ListFor returns a page of requests where the actor is the given side.
// Redaction of the preview is the caller's concern (it depends on the
// viewer's role).
func (s *Service) ListFor(ctx context.Context, column string, actorID uuid.UUID, status string, page, size int) ([]models.AssistanceRequest, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.AssistanceRequest{}).Where(column+" = ?", actorID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AssistanceRequest
	if err := q.Order("updated_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
