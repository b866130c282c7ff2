package models

import "net/url"

// MaterialType is one of the recyclable material kinds a pickup can carry.
type MaterialType string

const (
	MaterialGlass      MaterialType = "glass"
	MaterialCardboard  MaterialType = "cardboard"
	MaterialAppliances MaterialType = "appliances"
	MaterialNonFerrous MaterialType = "non-ferrous"
	MaterialPallets    MaterialType = "pallets"
	MaterialPlastic    MaterialType = "plastic"
	MaterialAluminum   MaterialType = "aluminum"
)

// MaterialTypes is the closed set of material types, in display order.
var MaterialTypes = []MaterialType{
	MaterialGlass,
	MaterialCardboard,
	MaterialAppliances,
	MaterialNonFerrous,
	MaterialPallets,
	MaterialPlastic,
	MaterialAluminum,
}

// Valid reports whether t belongs to MaterialTypes.
func (t MaterialType) Valid() bool {
	for _, known := range MaterialTypes {
		if t == known {
			return true
		}
	}
	return false
}

// StorageMethod describes how the material is stored at the pickup address.
type StorageMethod string

const (
	// StorageGreanBin is a full bin. The wire value keeps the apps' spelling.
	StorageGreanBin     StorageMethod = "greanBin"
	StorageBag25        StorageMethod = "bag25"
	StorageHalfGreanBin StorageMethod = "halfGreanBin"
)

// MaterialEntry is one line of a pickup request.
type MaterialEntry struct {
	Type              MaterialType  `bson:"type" json:"type"`
	Weight            *float64      `bson:"weight,omitempty" json:"weight,omitempty"` // pounds
	StorageMethod     StorageMethod `bson:"storageMethod,omitempty" json:"storageMethod,omitempty"`
	Photos            []string      `bson:"photos,omitempty" json:"photos,omitempty"`
	AgreementAccepted bool          `bson:"agreementAccepted,omitempty" json:"agreementAccepted,omitempty"`
}

// IsRemotePhoto reports whether ref is an http(s) URL rather than a local
// file reference that still needs uploading.
func IsRemotePhoto(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PhotosResolved reports whether every photo of the entry is a remote URL.
func (m MaterialEntry) PhotosResolved() bool {
	for _, p := range m.Photos {
		if !IsRemotePhoto(p) {
			return false
		}
	}
	return true
}
