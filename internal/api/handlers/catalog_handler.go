// internal/api/handlers/catalog_handler.go
package handlers

import (
	"net/http"

	"recycle-pickup-api-server/internal/catalog"

	"github.com/gin-gonic/gin"
)

// ListMaterials serves the material catalog both apps render the details step from.
func ListMaterials(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"materials": catalog.All()})
}
