package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/config"
	"github.com/curamed/chartcache/internal/tenant"
)

// TenantScope resolves the active clinic/doctor pair from request headers,
// falling back to the configured defaults. Requests without a resolvable
// scope are rejected: no data access may happen unscoped.
func TenantScope(defaults config.TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := tenant.Scope{
			ClinicID: c.GetHeader("X-Clinic-ID"),
			DoctorID: c.GetHeader("X-Doctor-ID"),
		}
		if scope.ClinicID == "" {
			scope.ClinicID = defaults.ClinicID
		}
		if scope.DoctorID == "" {
			scope.DoctorID = defaults.DoctorID
		}

		if scope.IsZero() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing tenant scope: set X-Clinic-ID and X-Doctor-ID headers",
			})
			return
		}

		c.Request = c.Request.WithContext(tenant.NewContext(c.Request.Context(), scope))
		c.Next()
	}
}
