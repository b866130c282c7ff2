// internal/models/common.go
package models

// AddressData is where a pickup happens. Coordinates are optional; the web
// client only sends the formatted address.
type AddressData struct {
	Address   string   `bson:"address" json:"address"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (a AddressData) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Creator is the denormalized profile snapshot stored on a pickup.
type Creator struct {
	UserID      string `bson:"userId" json:"userId"`
	DisplayName string `bson:"displayName" json:"displayName"`
	Email       string `bson:"email" json:"email"`
	PhotoURL    string `bson:"photoURL" json:"photoURL"`
}
