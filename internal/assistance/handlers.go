package assistance

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pendampingan/assistance-backend/internal/auth"
	"github.com/pendampingan/assistance-backend/internal/storage"
	"github.com/pendampingan/assistance-backend/pkg/models"
	"github.com/pendampingan/assistance-backend/pkg/sanitize"
	"github.com/pendampingan/assistance-backend/pkg/validation"
)

type Handler struct {
	svc *Service
	sb  *storage.Supabase
}

func NewHandler(svc *Service, sb *storage.Supabase) *Handler {
	return &Handler{svc: svc, sb: sb}
}

func parsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	return
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func actorID(c *fiber.Ctx) uuid.UUID {
	id, _ := uuid.Parse(auth.MustUserID(c))
	return id
}

/* =====================================
   POST /api/assistance (client)
   ===================================== */

type CreateRequestBody struct {
	LawyerID        string `json:"lawyer_id" validate:"required,uuid4"`
	CaseDescription string `json:"case_description" validate:"required,max=4000"`
	ClientCity      string `json:"client_city" validate:"required,max=60"`
	ClientDistrict  string `json:"client_district" validate:"required,max=60"`
	ProposedPrice   *int64 `json:"proposed_price" validate:"omitempty,gt=0"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateRequestBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	lawyerID, _ := uuid.Parse(in.LawyerID)
	req, err := h.svc.CreateRequest(c.Context(), CreateInput{
		ClientID:        actorID(c),
		LawyerID:        lawyerID,
		CaseDescription: in.CaseDescription,
		ClientCity:      in.ClientCity,
		ClientDistrict:  in.ClientDistrict,
		ProposedPrice:   in.ProposedPrice,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": req.ID, "status": req.Status})
}

/* =====================================================
   GET /api/assistance/mine (client)
   GET /api/assistance/assigned (lawyer)
   ===================================================== */

func validStatusFilter(s string) bool {
	switch models.RequestStatus(s) {
	case models.StatusPending, models.StatusNegotiating, models.StatusAgreed,
		models.StatusInProgress, models.StatusCompleted, models.StatusCancelled,
		models.StatusRejected:
		return true
	}
	return false
}

func (h *Handler) list(c *fiber.Ctx, column string, redactUnverified bool) error {
	page, size := parsePage(c)
	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !validStatusFilter(status) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
	}

	rows, total, err := h.svc.ListFor(c.Context(), column, actorID(c), status, page, size)
	if err != nil {
		return toHTTPError(err)
	}

	items := lo.Map(rows, func(r models.AssistanceRequest, _ int) RequestListItem {
		preview := r.CaseDescription
		// Sembunyikan PII sampai klien mengirim identitasnya
		if redactUnverified && !r.IdentityVerified {
			preview = sanitize.RedactPII(preview)
		}
		return RequestListItem{
			ID:            r.ID,
			ClientID:      r.ClientID,
			LawyerID:      r.LawyerID,
			Status:        r.Status,
			PaymentStatus: r.PaymentStatus,
			CurrentStage:  r.CurrentStage,
			Preview:       sanitize.Summary(preview, 240),
			AgreedPrice:   r.AgreedPrice,
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		}
	})

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages": int(math.Ceil(float64(total) / float64(size))),
		"items": items,
	})
}

func (h *Handler) ListMine(c *fiber.Ctx) error {
	return h.list(c, "client_id", false)
}

func (h *Handler) ListAssigned(c *fiber.Ctx) error {
	return h.list(c, "lawyer_id", true)
}

/* =====================================================
   GET /api/assistance/:id (participant)
   ===================================================== */

func (h *Handler) GetDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	viewer := actorID(c)

	req, err := h.svc.Get(c.Context(), id, viewer)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{
		"request":       req,
		"pending_offer": PendingOfferFor(req.Messages, viewer),
	})
}

/* =====================================================
   POST /api/assistance/:id/messages (participant)
   ===================================================== */

type SendMessageBody struct {
	Content      string `json:"content" validate:"max=4000"`
	OfferedPrice *int64 `json:"offered_price" validate:"omitempty,gt=0"`
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in SendMessageBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	msg, err := h.svc.SendMessage(c.Context(), SendMessageInput{
		RequestID:    id,
		SenderID:     actorID(c),
		Content:      in.Content,
		OfferedPrice: in.OfferedPrice,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

/* =====================================================
   PUT /api/assistance/:id/identity (client)
   ===================================================== */

type IdentityBody struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Address  string `json:"address" validate:"required,max=240"`
	Age      int    `json:"age" validate:"required,gte=17,lte=120"`
	Religion string `json:"religion" validate:"required,max=30"`
	NIK      string `json:"nik" validate:"required,nik"`
	CaseType string `json:"case_type" validate:"required,max=60"`
}

func (h *Handler) SubmitIdentity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in IdentityBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	req, err := h.svc.SubmitIdentity(c.Context(), IdentityInput{
		RequestID: id,
		ActorID:   actorID(c),
		Name:      in.Name,
		Address:   in.Address,
		Age:       in.Age,
		Religion:  in.Religion,
		NIK:       in.NIK,
		CaseType:  in.CaseType,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

/* =====================================================
   POST /api/assistance/:id/accept (participant)
   ===================================================== */

type AcceptBody struct {
	Price int64 `json:"price" validate:"required,gt=0"`
}

func (h *Handler) AcceptOffer(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in AcceptBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	req, err := h.svc.AcceptOffer(c.Context(), id, actorID(c), in.Price)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

/* =====================================================
   GET  /api/assistance/:id/payment (participant)
   POST /api/assistance/:id/payment/confirm (client)
   ===================================================== */

func (h *Handler) PaymentSummary(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.svc.PaymentSummary(c.Context(), id, actorID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(out)
}

func (h *Handler) ConfirmPayment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.svc.ConfirmPayment(c.Context(), id, actorID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

/* =====================================================
   POST /api/assistance/:id/stage (lawyer)
   ===================================================== */

type StageBody struct {
	Stage string `json:"stage" validate:"required,stage"`
	Notes string `json:"notes" validate:"max=2000"`
}

func (h *Handler) AdvanceStage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in StageBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	req, err := h.svc.AdvanceStage(c.Context(), id, actorID(c), models.CaseStage(in.Stage), in.Notes)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

/* =====================================================
   POST /api/assistance/:id/cancel (participant)
   POST /api/assistance/:id/reject (lawyer)
   ===================================================== */

type CloseBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in CloseBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	req, err := h.svc.Cancel(c.Context(), id, actorID(c), in.Reason)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

func (h *Handler) Reject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in CloseBody
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	req, err := h.svc.Reject(c.Context(), id, actorID(c), in.Reason)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(req)
}

/* =====================================================
   GET /api/assistance/:id/history (participant)
   ===================================================== */

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.svc.History(c.Context(), id, actorID(c))
	if err != nil {
		return toHTTPError(err)
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	return c.JSON(fiber.Map{"items": entries})
}
