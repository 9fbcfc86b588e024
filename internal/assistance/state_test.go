package assistance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pendampingan/assistance-backend/pkg/models"
)

var allStatuses = []models.RequestStatus{
	models.StatusPending, models.StatusNegotiating, models.StatusAgreed,
	models.StatusInProgress, models.StatusCompleted, models.StatusCancelled,
	models.StatusRejected,
}

func Test_OfferAllowed_OnlyBeforeAgreement(t *testing.T) {
	for _, st := range allStatuses {
		want := st == models.StatusPending || st == models.StatusNegotiating
		assert.Equal(t, want, offerAllowed(st), "status %s", st)
	}
}

func Test_AcceptAllowed_OnlyWhileNegotiating(t *testing.T) {
	for _, st := range allStatuses {
		assert.Equal(t, st == models.StatusNegotiating, acceptAllowed(st), "status %s", st)
	}
}

func Test_PaymentAllowed_OnlyWhenAgreed(t *testing.T) {
	for _, st := range allStatuses {
		assert.Equal(t, st == models.StatusAgreed, paymentAllowed(st), "status %s", st)
	}
}

func Test_StageAllowed_OnlyInProgress(t *testing.T) {
	for _, st := range allStatuses {
		assert.Equal(t, st == models.StatusInProgress, stageAllowed(st), "status %s", st)
	}
}

func Test_CloseAllowed_OnlyBeforeMoneyMoves(t *testing.T) {
	for _, st := range allStatuses {
		want := st == models.StatusPending || st == models.StatusNegotiating
		assert.Equal(t, want, closeAllowed(st), "status %s", st)
	}

	// agreed and later can never be cancelled through this path
	assert.False(t, closeAllowed(models.StatusAgreed))
	assert.False(t, closeAllowed(models.StatusInProgress))
	assert.False(t, closeAllowed(models.StatusCompleted))
}

func Test_ChatAllowed_ClosedInTerminalStates(t *testing.T) {
	assert.True(t, chatAllowed(models.StatusPending))
	assert.True(t, chatAllowed(models.StatusInProgress))
	assert.False(t, chatAllowed(models.StatusCompleted))
	assert.False(t, chatAllowed(models.StatusCancelled))
	assert.False(t, chatAllowed(models.StatusRejected))
}

func Test_StageVocabulary(t *testing.T) {
	assert.True(t, models.ValidStage(models.StageCourtSession))
	assert.True(t, models.ValidStage(models.StageCompleted))
	assert.False(t, models.ValidStage("mediation"))
	assert.False(t, models.ValidStage(""))
}
