// internal/api/handlers/pickup_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/report"
	"recycle-pickup-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PickupHandler struct {
	Pickups  *services.PickupService
	Profiles CallerSource
}

// ListMine returns the caller's own pickups, newest first.
func (h *PickupHandler) ListMine(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	pickups, err := h.Pickups.ListMine(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pickups": pickups})
}

func (h *PickupHandler) GetPickup(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	p, err := h.Pickups.GetPickup(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListAvailable returns pending pickups for drivers. With ?lat=&lng= the
// closest ones come first.
func (h *PickupHandler) ListAvailable(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	origin, err := parseOrigin(c.Query("lat"), c.Query("lng"))
	if err != nil {
		respondError(c, err)
		return
	}
	pickups, err := h.Pickups.ListAvailable(c.Request.Context(), caller, origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pickups": pickups})
}

func (h *PickupHandler) ListAssigned(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}
	pickups, err := h.Pickups.ListAssigned(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pickups": pickups})
}

// Export streams an XLSX workbook of pickups, optionally filtered by a
// comma separated ?status= list.
func (h *PickupHandler) Export(c *gin.Context) {
	caller, ok := currentCaller(c, h.Profiles)
	if !ok {
		return
	}

	var statuses []models.PickupStatus
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, models.PickupStatus(s))
		}
	}
	pickups, err := h.Pickups.ListByStatus(c.Request.Context(), caller, statuses...)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now().UTC()
	var buf bytes.Buffer
	if err := report.WritePickups(&buf, pickups, now); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("pickups-%s.xlsx", now.Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func parseOrigin(lat, lng string) (*orb.Point, error) {
	if lat == "" && lng == "" {
		return nil, nil
	}
	if lat == "" || lng == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "lat and lng must be given together")
	}
	y, err := strconv.ParseFloat(lat, 64)
	if err != nil || math.IsNaN(y) || y < -90 || y > 90 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "invalid lat %q", lat)
	}
	x, err := strconv.ParseFloat(lng, 64)
	if err != nil || math.IsNaN(x) || x < -180 || x > 180 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "invalid lng %q", lng)
	}
	return &orb.Point{x, y}, nil
}
