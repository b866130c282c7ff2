// internal/api/routes/routes.go
package routes

import (
	"slices"
	"time"

	"recycle-pickup-api-server/config"
	"recycle-pickup-api-server/internal/api/handlers"
	"recycle-pickup-api-server/internal/api/middleware"
	"recycle-pickup-api-server/internal/auth"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/services"
	"recycle-pickup-api-server/internal/session"
	"recycle-pickup-api-server/internal/socket"
	"recycle-pickup-api-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the components the router wires into handlers.
type Deps struct {
	Config   config.Config
	Tokens   *auth.TokenManager
	Profiles *services.ProfileService
	Pickups  *services.PickupService
	Sessions *session.Manager
	Uploader storage.Uploader
	Hub      *socket.Hub
}

// SetupRouter builds the gin engine serving /api/v1.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))

	authHandler := &handlers.AuthHandler{Profiles: d.Profiles}
	functionsHandler := handlers.NewFunctionsHandler(d.Pickups, d.Profiles)
	pickupHandler := &handlers.PickupHandler{Pickups: d.Pickups, Profiles: d.Profiles}
	uploadHandler := &handlers.UploadHandler{Uploader: d.Uploader, MaxBytes: d.Config.Wizard.MaxPhotoBytes}
	wizardHandler := &handlers.WizardHandler{Sessions: d.Sessions, Profiles: d.Profiles}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens}

	apiV1 := router.Group("/api/v1")
	{
		// The token comes in the query string; browsers cannot set headers on upgrade.
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		apiV1.GET("/catalog/materials", handlers.ListMaterials)

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(d.Tokens))
		{
			protected.GET("/me", authHandler.Me)
			protected.POST("/functions/:name", functionsHandler.Call)

			pickups := protected.Group("/pickups")
			{
				pickups.GET("", pickupHandler.ListMine)
				pickups.GET("/:id", pickupHandler.GetPickup)
			}

			protected.POST("/uploads", uploadHandler.UploadPhoto)

			wizard := protected.Group("/wizard")
			wizard.Use(middleware.Authorize(models.AccountClient, models.AccountAdmin))
			{
				wizard.POST("", wizardHandler.Start)
				wizard.GET("/:id", wizardHandler.Get)
				wizard.PUT("/:id/data", wizardHandler.SetData)
				wizard.POST("/:id/photos", wizardHandler.AddPhoto)
				wizard.POST("/:id/next", wizardHandler.Next)
				wizard.POST("/:id/back", wizardHandler.Back)
				wizard.POST("/:id/submit", wizardHandler.Submit)
				wizard.DELETE("/:id", wizardHandler.Discard)
			}

			driver := protected.Group("/driver")
			driver.Use(middleware.Authorize(models.AccountDriver, models.AccountAdmin))
			{
				driver.GET("/pickups", pickupHandler.ListAvailable)
				driver.GET("/pickups/assigned", pickupHandler.ListAssigned)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.Authorize(models.AccountAdmin))
			{
				admin.GET("/pickups/export", pickupHandler.Export)
			}
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
