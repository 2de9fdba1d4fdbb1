package route

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/api/controller"
	"github.com/curamed/chartcache/internal/api/middleware"
	"github.com/curamed/chartcache/internal/app"
)

// SetupRoutes registers every local API route on the engine. Data routes
// live under the tenant-scope middleware; queue inspection and diagnostics
// do not need a scope.
func SetupRoutes(r *gin.Engine, appCtx *app.App) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	if appCtx.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(appCtx.MetricsHandler))
	}

	pc := controller.NewPatientController(appCtx.Patients)
	ac := controller.NewAppointmentController(appCtx.Appointments)
	sc := controller.NewSuggestionController(appCtx.Suggestions)
	mc := controller.NewMasterDataController(appCtx.MasterData)
	uc := controller.NewUploadController(appCtx.Artifacts, appCtx.Queue)

	scoped := r.Group("", middleware.TenantScope(appCtx.Config.Tenant))

	scoped.GET("/patients", pc.SearchPatients)
	scoped.GET("/patients/:id", pc.GetPatient)
	scoped.POST("/patients", pc.CreatePatient)
	scoped.PUT("/patients/:id", pc.UpdatePatient)
	scoped.DELETE("/patients/:id", pc.DeletePatient)

	scoped.GET("/appointments", ac.ListAppointments)
	scoped.POST("/appointments", ac.CreateAppointment)
	scoped.DELETE("/appointments/:id", ac.CancelAppointment)

	scoped.GET("/suggestions", sc.ListSuggestions)
	scoped.POST("/suggestions/invalidate", sc.InvalidateSuggestions)

	scoped.GET("/masterdata/:category", mc.ListMasterData)

	scoped.POST("/consultations/:id/artifacts", uc.SubmitArtifact)

	r.GET("/uploads/pending", uc.PendingUploads)
	r.POST("/uploads/flush", uc.FlushUploads)
}
