// internal/socket/notifier.go
package socket

import (
	"encoding/json"
	"log"

	"recycle-pickup-api-server/internal/models"
)

const (
	EventPickupCreated = "pickup_created"
	EventPickupUpdated = "pickup_updated"
	// EventPickupTaken tells other drivers a pending pickup is gone.
	EventPickupTaken = "pickup_taken"
)

type Message struct {
	Event  string         `json:"event"`
	Pickup *models.Pickup `json:"pickup"`
}

// Notifier pushes pickup events over the hub.
type Notifier struct {
	Hub *Hub
}

// PickupCreated announces a new pending pickup to every connected driver.
func (n *Notifier) PickupCreated(p *models.Pickup) {
	msg, err := json.Marshal(Message{Event: EventPickupCreated, Pickup: p})
	if err != nil {
		log.Printf("Failed to encode %s notification: %v", EventPickupCreated, err)
		return
	}
	n.Hub.Broadcast(models.AccountDriver, msg)
}

// PickupUpdated tells the creator and the assigned driver about a status
// change. Accepting or cancelling a pending pickup also withdraws it from
// the other drivers.
func (n *Notifier) PickupUpdated(p *models.Pickup, from models.PickupStatus) {
	msg, err := json.Marshal(Message{Event: EventPickupUpdated, Pickup: p})
	if err != nil {
		log.Printf("Failed to encode %s notification: %v", EventPickupUpdated, err)
		return
	}
	if err := n.Hub.Send(p.CreatedBy.UserID, msg); err != nil {
		log.Printf("Failed to notify creator %s of pickup %s: %v", p.CreatedBy.UserID, p.ID, err)
	}
	if p.AcceptedBy != "" {
		if err := n.Hub.Send(p.AcceptedBy, msg); err != nil {
			log.Printf("Failed to notify driver %s of pickup %s: %v", p.AcceptedBy, p.ID, err)
		}
	}

	if from == models.StatusPending {
		taken, err := json.Marshal(Message{Event: EventPickupTaken, Pickup: p})
		if err != nil {
			return
		}
		n.Hub.Broadcast(models.AccountDriver, taken)
	}
}
