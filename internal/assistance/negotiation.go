package assistance

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pendampingan/assistance-backend/pkg/models"
)

// The negotiation protocol is read entirely off the message ledger: a price
// offer is a message with IsPriceOffer set, and a new offer from either side
// invalidates everything before it. Only the latest offer in the ledger is
// actionable, and only by the party who did not send it.

// latestOffer returns the most recent price-offer message, or nil.
// Later CreatedAt wins; on equal timestamps the later ledger entry wins.
func latestOffer(msgs []models.Message) *models.Message {
	offers := lo.Filter(msgs, func(m models.Message, _ int) bool {
		return m.IsPriceOffer && m.OfferedPrice != nil
	})

	var out *models.Message
	for i := range offers {
		if out == nil || !offers[i].CreatedAt.Before(out.CreatedAt) {
			out = &offers[i]
		}
	}
	return out
}

// PendingOfferFor returns the offer the viewer could accept right now:
// the latest offer in the ledger, provided the counterparty sent it.
func PendingOfferFor(msgs []models.Message, viewerID uuid.UUID) *models.Message {
	off := latestOffer(msgs)
	if off == nil || off.SenderID == viewerID {
		return nil
	}
	return off
}
