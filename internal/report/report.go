// internal/report/report.go
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"recycle-pickup-api-server/internal/catalog"
	"recycle-pickup-api-server/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	PickupsSheet   = "Pickups"
	MaterialsSheet = "Materials"
	headerRow      = 3
)

var pickupHeaders = []string{
	"Pickup ID", "Status", "Created", "Pickup Date", "Requester", "Email",
	"Address", "Latitude", "Longitude", "Driver", "Materials", "Note", "Proof Photo",
}

var materialHeaders = []string{"Pickup ID", "Material", "Weight (lb)", "Storage", "Photos", "Agreement"}

// WritePickups renders pickups as an XLSX workbook with one sheet of
// pickups and one row per material on a second sheet.
func WritePickups(w io.Writer, pickups []models.Pickup, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PickupsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(MaterialsSheet); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#2E7D32"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(PickupsSheet, "A1", fmt.Sprintf("Pickups (%d)", len(pickups))); err != nil {
		return err
	}
	if err := f.SetCellStyle(PickupsSheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	if err := f.SetCellValue(PickupsSheet, "A2", fmt.Sprintf("Generated: %s", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))); err != nil {
		return err
	}

	if err := writeHeader(f, PickupsSheet, pickupHeaders, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, MaterialsSheet, materialHeaders, headerStyle); err != nil {
		return err
	}

	materialRow := headerRow + 1
	for i, p := range pickups {
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return err
		}
		row := []any{
			p.ID,
			string(p.Status),
			p.CreatedAt.UTC().Format("2006-01-02 15:04"),
			p.PickupDate.UTC().Format("2006-01-02 15:04"),
			p.CreatedBy.DisplayName,
			p.CreatedBy.Email,
			p.AddressData.Address,
			optional(p.AddressData.Latitude),
			optional(p.AddressData.Longitude),
			p.AcceptedBy,
			summarize(p.Materials),
			p.PickupNote,
			p.ProofPhotoURL,
		}
		if err := f.SetSheetRow(PickupsSheet, cell, &row); err != nil {
			return err
		}

		for _, m := range p.Materials {
			cell, err := excelize.CoordinatesToCellName(1, materialRow)
			if err != nil {
				return err
			}
			mrow := []any{p.ID, label(m.Type), optional(m.Weight), string(m.StorageMethod), len(m.Photos), m.AgreementAccepted}
			if err := f.SetSheetRow(MaterialsSheet, cell, &mrow); err != nil {
				return err
			}
			materialRow++
		}
	}

	widths := []struct {
		sheet, from, to string
		width           float64
	}{
		{PickupsSheet, "A", "M", 18},
		{PickupsSheet, "K", "K", 40},
		{MaterialsSheet, "A", "F", 18},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(cw.sheet, cw.from, cw.to, cw.width); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	start, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(headers), headerRow)
	if err != nil {
		return err
	}
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, start, &row); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func label(t models.MaterialType) string {
	if cfg, ok := catalog.Lookup(t); ok && cfg.Label != "" {
		return cfg.Label
	}
	return string(t)
}

// summarize renders materials as "Plastic (greanBin), Glass 40 lb".
func summarize(materials []models.MaterialEntry) string {
	parts := make([]string, 0, len(materials))
	for _, m := range materials {
		s := label(m.Type)
		if m.Weight != nil {
			s += fmt.Sprintf(" %g lb", *m.Weight)
		}
		if m.StorageMethod != "" {
			s += fmt.Sprintf(" (%s)", m.StorageMethod)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
