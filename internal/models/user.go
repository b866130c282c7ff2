package models

import "time"

// AccountType decides which app surface a user may act through.
type AccountType string

const (
	AccountClient AccountType = "client"
	AccountDriver AccountType = "driver"
	AccountAdmin  AccountType = "admin"
)

// Valid reports whether a is a known account type.
func (a AccountType) Valid() bool {
	return a == AccountClient || a == AccountDriver || a == AccountAdmin
}

// User struct matches the document in MongoDB
type User struct {
	ID          string      `bson:"_id" json:"id"`
	Email       string      `bson:"email" json:"email"`
	DisplayName string      `bson:"displayName" json:"displayName"`
	PhotoURL    string      `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Password    string      `bson:"password" json:"-"`
	AccountType AccountType `bson:"accountType" json:"accountType"`
	LocationIDs []string    `bson:"locationIds,omitempty" json:"locationIds,omitempty"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
	AccountType AccountType
}

// CallerFromUser builds the caller identity of u.
func CallerFromUser(u User) Caller {
	return Caller{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		AccountType: u.AccountType,
	}
}

// Creator returns the profile snapshot stored on pickups the caller creates.
func (c Caller) Creator() Creator {
	return Creator{
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		PhotoURL:    c.PhotoURL,
	}
}

// Location is a saved pickup address owned by a user.
type Location struct {
	ID          string      `bson:"_id" json:"id"`
	OwnerID     string      `bson:"ownerId" json:"ownerId"`
	Name        string      `bson:"name" json:"name"`
	AddressData AddressData `bson:"addressData" json:"addressData"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
}
