package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user in the system.
type Role string

const (
	RoleClient Role = "client"
	RoleLawyer Role = "lawyer"
)

// RequestStatus defines lifecycle states for an assistance request.
type RequestStatus string

const (
	StatusPending     RequestStatus = "pending"
	StatusNegotiating RequestStatus = "negotiating"
	StatusAgreed      RequestStatus = "agreed"
	StatusInProgress  RequestStatus = "in_progress"
	StatusCompleted   RequestStatus = "completed"
	StatusCancelled   RequestStatus = "cancelled"
	StatusRejected    RequestStatus = "rejected"
)

// PaymentStatus tracks whether the agreed price plus platform fee has been paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// MessageType distinguishes plain chat from structured messages.
type MessageType string

const (
	MessageText       MessageType = "text"
	MessagePriceOffer MessageType = "price_offer"
	MessageFile       MessageType = "file"
)

// CaseStage is a named phase of case handling, tracked while in progress.
type CaseStage string

const (
	StageInitialConsultation CaseStage = "initial_consultation"
	StageDocumentCollection  CaseStage = "document_collection"
	StageDocumentReview      CaseStage = "document_review"
	StageLegalDrafting       CaseStage = "legal_drafting"
	StageNegotiation         CaseStage = "negotiation"
	StageCourtPreparation    CaseStage = "court_preparation"
	StageCourtSession        CaseStage = "court_session"
	StageAwaitingVerdict     CaseStage = "awaiting_verdict"
	StageCompleted           CaseStage = "completed"
)

// Stages is the stage vocabulary in its natural case-handling order.
// Lawyers may revisit an earlier stage; the order is presentational,
// not a constraint.
var Stages = []CaseStage{
	StageInitialConsultation,
	StageDocumentCollection,
	StageDocumentReview,
	StageLegalDrafting,
	StageNegotiation,
	StageCourtPreparation,
	StageCourtSession,
	StageAwaitingVerdict,
	StageCompleted,
}

// ValidStage reports whether s belongs to the stage vocabulary.
func ValidStage(s CaseStage) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

/* =============================== Entities =============================== */

// User represents a client or lawyer.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	Role           Role      `gorm:"type:varchar(20);not null"`
	Name           string
	City           string
	Specialization string // lawyers only, e.g. "Hukum Keluarga"
	CreatedAt      time.Time
}

// AssistanceRequest is a client's request to a specific lawyer for extended
// legal representation (pendampingan). It is the aggregate root of the
// engagement workflow and is never physically deleted.
type AssistanceRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	LawyerID uuid.UUID `gorm:"type:uuid;not null;index" json:"lawyer_id"`

	CaseDescription string `gorm:"not null" json:"case_description"`
	ClientCity      string `gorm:"not null" json:"client_city"`
	ClientDistrict  string `gorm:"not null" json:"client_district"`

	// Identity snapshot, filled by the client before an offer can be accepted.
	ClientName       string `json:"client_name,omitempty"`
	ClientAddress    string `json:"client_address,omitempty"`
	ClientAge        int    `json:"client_age,omitempty"`
	ClientReligion   string `json:"client_religion,omitempty"`
	ClientNIK        string `gorm:"column:client_nik" json:"client_nik,omitempty"`
	CaseType         string `json:"case_type,omitempty"`
	IdentityVerified bool   `gorm:"not null;default:false" json:"identity_verified"`

	// Commercial state. Amounts are whole rupiah.
	ProposedPrice *int64        `json:"proposed_price,omitempty"`
	AgreedPrice   *int64        `json:"agreed_price,omitempty"`
	PlatformFee   int64         `json:"platform_fee"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`

	Status       RequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CurrentStage *CaseStage    `gorm:"type:varchar(30)" json:"current_stage,omitempty"`
	StageNotes   string        `json:"stage_notes,omitempty"`

	// Version guards every transition (compare-and-swap). Bumped on each
	// successful state change so a losing racer observes a conflict instead
	// of silently overwriting.
	Version int `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Messages []Message            `gorm:"foreignKey:RequestID" json:"messages,omitempty"`
	History  []StatusHistoryEntry `gorm:"foreignKey:RequestID" json:"history,omitempty"`
	Files    []AssistanceFile     `gorm:"foreignKey:RequestID" json:"files,omitempty"`
}

// Message belongs to exactly one request; the ledger is append-only and
// ordered by CreatedAt. A price offer carries OfferedPrice; content may
// still annotate the offer.
type Message struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"request_id"`
	SenderID     uuid.UUID   `gorm:"type:uuid;not null" json:"sender_id"`
	Type         MessageType `gorm:"type:varchar(20);not null;default:'text'" json:"type"`
	Content      string      `json:"content"`
	IsPriceOffer bool        `gorm:"not null;default:false" json:"is_price_offer"`
	OfferedPrice *int64      `json:"offered_price,omitempty"`
	FileKey      string      `json:"file_key,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AssistanceFile is an uploaded attachment shared inside a request's chat.
type AssistanceFile struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID    uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	Key          string    `gorm:"not null" json:"key"`
	Mime         string    `gorm:"not null" json:"mime"`
	Size         int       `gorm:"not null" json:"size"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`

	// Relation back to the request
	Request AssistanceRequest `gorm:"foreignKey:RequestID;references:ID" json:"-"`
}

// StatusHistoryEntry is an append-only audit record for a request. At least
// one of Status/Stage is set; the newest entry always matches the request's
// current fields.
type StatusHistoryEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uuid.UUID      `gorm:"type:uuid;not null;index" json:"request_id"`
	Status    *RequestStatus `gorm:"type:varchar(20)" json:"status,omitempty"`
	Stage     *CaseStage     `gorm:"type:varchar(30)" json:"stage,omitempty"`
	Notes     string         `gorm:"type:text" json:"notes,omitempty"`
	UpdatedBy uuid.UUID      `gorm:"type:uuid;not null" json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
