// internal/models/pickup.go
package models

import "time"

// PickupStatus moves forward only: pending -> accepted -> inProgress -> completed,
// with cancelled reachable from pending and accepted.
type PickupStatus string

const (
	StatusPending    PickupStatus = "pending"
	StatusAccepted   PickupStatus = "accepted"
	StatusInProgress PickupStatus = "inProgress"
	StatusCompleted  PickupStatus = "completed"
	StatusCancelled  PickupStatus = "cancelled"
)

var pickupTransitions = map[PickupStatus][]PickupStatus{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s PickupStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next directly follows s.
func (s PickupStatus) CanTransitionTo(next PickupStatus) bool {
	for _, allowed := range pickupTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PredecessorsOf returns every status that may transition directly into next.
func PredecessorsOf(next PickupStatus) []PickupStatus {
	var from []PickupStatus
	for s, targets := range pickupTransitions {
		for _, t := range targets {
			if t == next {
				from = append(from, s)
			}
		}
	}
	return from
}

// Pickup is the persisted pickup record.
type Pickup struct {
	ID                 string          `bson:"_id" json:"id"`
	CreatedAt          time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
	Status             PickupStatus    `bson:"status" json:"status"`
	CreatedBy          Creator         `bson:"createdBy" json:"createdBy"`
	AcceptedBy         string          `bson:"acceptedBy,omitempty" json:"acceptedBy,omitempty"`
	AddressData        AddressData     `bson:"addressData" json:"addressData"`
	PickupDate         time.Time       `bson:"pickupDate" json:"pickupDate"`
	PickupNote         string          `bson:"pickupNote,omitempty" json:"pickupNote,omitempty"`
	Materials          []MaterialEntry `bson:"materials" json:"materials"`
	DisclaimerAccepted bool            `bson:"disclaimerAccepted" json:"disclaimerAccepted"`
	ProofPhotoURL      string          `bson:"proofPhotoURL,omitempty" json:"proofPhotoURL,omitempty"`
}

// Transition is a compare-and-set status change on one pickup. The store
// applies it only while the pickup is in a status that may move to To and,
// when DriverID is set, only while that driver holds the pickup.
type Transition struct {
	PickupID      string
	To            PickupStatus
	DriverID      string
	AcceptedBy    string
	ProofPhotoURL string
	At            time.Time
}

// CreatePickupRequest is the payload of the createPickup callable function.
// CreatedBy is informational; the backend always derives it from the caller.
type CreatePickupRequest struct {
	PickupTime         string          `json:"pickupTime"`
	AddressData        AddressData     `json:"addressData"`
	Materials          []MaterialEntry `json:"materials"`
	DisclaimerAccepted bool            `json:"disclaimerAccepted"`
	PickupNote         string          `json:"pickupNote,omitempty"`
	CreatedBy          *Creator        `json:"createdBy,omitempty"`
}
