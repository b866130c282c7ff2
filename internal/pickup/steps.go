package pickup

import "recycle-pickup-api-server/internal/models"

// Step identifies one page of the pickup wizard.
type Step string

const (
	StepDetails    Step = "details"
	StepDateTime   Step = "datetime"
	StepLocation   Step = "location"
	StepDisclaimer Step = "disclaimer"
)

// DefaultSteps is the order both apps present the wizard in.
var DefaultSteps = []Step{StepDetails, StepDateTime, StepLocation, StepDisclaimer}

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	switch s {
	case StepDetails, StepDateTime, StepLocation, StepDisclaimer:
		return true
	}
	return false
}

// FormData is the wizard-in-progress. It lives only as long as its wizard.
type FormData struct {
	PickupTime         string                 `json:"pickupTime"`
	AddressData        models.AddressData     `json:"addressData"`
	Materials          []models.MaterialEntry `json:"materials"`
	DisclaimerAccepted bool                   `json:"disclaimerAccepted"`
	PickupNote         string                 `json:"pickupNote,omitempty"`
}

// Clone returns a copy that shares no slices with d.
func (d FormData) Clone() FormData {
	out := d
	out.Materials = cloneMaterials(d.Materials)
	return out
}

func cloneMaterials(in []models.MaterialEntry) []models.MaterialEntry {
	if in == nil {
		return nil
	}
	out := make([]models.MaterialEntry, len(in))
	for i, m := range in {
		out[i] = m
		if m.Photos != nil {
			out[i].Photos = append([]string(nil), m.Photos...)
		}
		if m.Weight != nil {
			w := *m.Weight
			out[i].Weight = &w
		}
	}
	return out
}

// storageRequired are the types sold by volume: they need a storage method
// instead of a weight.
var storageRequired = map[models.MaterialType]bool{
	models.MaterialPlastic:   true,
	models.MaterialAluminum:  true,
	models.MaterialCardboard: true,
}

// IsStepComplete reports whether data is complete enough to leave step.
// Steps it does not know about always pass.
func IsStepComplete(step Step, data FormData) bool {
	switch step {
	case StepDetails:
		for _, m := range data.Materials {
			if !materialComplete(m) {
				return false
			}
		}
		return true
	case StepDateTime:
		return data.PickupTime != ""
	case StepLocation:
		return data.AddressData.Address != ""
	case StepDisclaimer:
		return data.DisclaimerAccepted
	default:
		return true
	}
}

// materialComplete accepts entries of unrestricted type with no weight at
// all. The apps have always let those through; keep it that way until the
// product decides otherwise.
func materialComplete(m models.MaterialEntry) bool {
	if storageRequired[m.Type] {
		return m.StorageMethod != ""
	}
	if m.Weight != nil {
		return *m.Weight >= 1
	}
	return true
}
