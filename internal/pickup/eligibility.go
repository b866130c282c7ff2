package pickup

import "recycle-pickup-api-server/internal/models"

// halfBinsRequired is how many half-full plastic/aluminum bins add up to a
// pickup-worthy load.
const halfBinsRequired = 2

// IsEligible decides whether materials fill enough bin capacity for a pickup:
// one full bin or 25-gallon bag of anything, or at least two half-full bins of
// plastic or aluminum.
func IsEligible(materials []models.MaterialEntry) bool {
	halfBins := 0
	for _, m := range materials {
		switch m.StorageMethod {
		case models.StorageGreanBin, models.StorageBag25:
			return true
		case models.StorageHalfGreanBin:
			if m.Type == models.MaterialPlastic || m.Type == models.MaterialAluminum {
				halfBins++
			}
		}
	}
	return halfBins >= halfBinsRequired
}
