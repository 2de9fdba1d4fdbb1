package controller

import (
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/tenant"
)

// scopeFrom pulls the tenant scope the middleware placed on the request.
// A missing scope means the route was registered outside the tenant group,
// which is a wiring bug, so the 500 is deliberate.
func scopeFrom(c *gin.Context) (tenant.Scope, bool) {
	scope, err := tenant.FromContext(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant scope not resolved"})
		return tenant.Scope{}, false
	}
	return scope, true
}

// respondError maps the errdefs taxonomy onto HTTP statuses for the local
// UI. Partial failures carry their failed subset through.
func respondError(c *gin.Context, err error) {
	var pf *remote.PartialFailureError
	if errors.As(err, &pf) {
		c.JSON(http.StatusBadGateway, gin.H{"error": pf.Error(), "failed": pf.Failed})
		return
	}

	switch {
	case errdefs.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errdefs.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errdefs.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errdefs.IsPermissionDenied(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errdefs.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
