package utils

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pendampingan/assistance-backend/pkg/models"
)

// AppendHistory inserts an audit record into status_history_entries inside the
// caller's transaction, so the entry commits with the transition it describes
// and can never record a state that was not actually reached.
func AppendHistory(
	tx *gorm.DB,
	requestID, actorID uuid.UUID,
	status *models.RequestStatus,
	stage *models.CaseStage,
	notes string,
) error {
	return tx.Create(&models.StatusHistoryEntry{
		RequestID: requestID,
		Status:    status,
		Stage:     stage,
		Notes:     notes,
		UpdatedBy: actorID,
		CreatedAt: time.Now(),
	}).Error
}
