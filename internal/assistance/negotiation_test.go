package assistance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendampingan/assistance-backend/pkg/models"
)

func offer(sender uuid.UUID, price int64, at time.Time) models.Message {
	return models.Message{
		ID: uuid.New(), SenderID: sender,
		Type: models.MessagePriceOffer, IsPriceOffer: true,
		OfferedPrice: &price, CreatedAt: at,
	}
}

func text(sender uuid.UUID, at time.Time) models.Message {
	return models.Message{ID: uuid.New(), SenderID: sender, Type: models.MessageText, Content: "halo", CreatedAt: at}
}

func Test_PendingOffer_EmptyLedger(t *testing.T) {
	assert.Nil(t, PendingOfferFor(nil, uuid.New()))
	assert.Nil(t, PendingOfferFor([]models.Message{text(uuid.New(), time.Now())}, uuid.New()))
}

func Test_PendingOffer_LatestCounterpartyOfferWins(t *testing.T) {
	client, lawyer := uuid.New(), uuid.New()
	now := time.Now()

	msgs := []models.Message{
		text(client, now.Add(-4*time.Minute)),
		offer(lawyer, 7_000_000, now.Add(-3*time.Minute)),
		offer(lawyer, 5_000_000, now.Add(-1*time.Minute)),
	}

	got := PendingOfferFor(msgs, client)
	require.NotNil(t, got)
	assert.EqualValues(t, 5_000_000, *got.OfferedPrice)

	// The lawyer cannot accept their own offer.
	assert.Nil(t, PendingOfferFor(msgs, lawyer))
}

func Test_PendingOffer_CounterInvalidatesPrevious(t *testing.T) {
	client, lawyer := uuid.New(), uuid.New()
	now := time.Now()

	msgs := []models.Message{
		offer(lawyer, 5_000_000, now.Add(-2*time.Minute)),
		offer(client, 4_000_000, now.Add(-1*time.Minute)), // counter
	}

	// The lawyer's 5M is no longer actionable by the client.
	assert.Nil(t, PendingOfferFor(msgs, client))

	got := PendingOfferFor(msgs, lawyer)
	require.NotNil(t, got)
	assert.EqualValues(t, 4_000_000, *got.OfferedPrice)
}

func Test_PendingOffer_EqualTimestampsLaterEntryWins(t *testing.T) {
	client, lawyer := uuid.New(), uuid.New()
	at := time.Now()

	msgs := []models.Message{
		offer(lawyer, 5_000_000, at),
		offer(lawyer, 6_000_000, at),
	}

	got := PendingOfferFor(msgs, client)
	require.NotNil(t, got)
	assert.EqualValues(t, 6_000_000, *got.OfferedPrice)
}
