package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/repository"
)

// SuggestionController serves consultation suggestion lists.
type SuggestionController struct {
	repo *repository.SuggestionRepository
}

func NewSuggestionController(repo *repository.SuggestionRepository) *SuggestionController {
	return &SuggestionController{repo: repo}
}

// ListSuggestions handles GET /suggestions?category=...
func (sc *SuggestionController) ListSuggestions(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	items, err := sc.repo.List(c.Request.Context(), scope, category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// InvalidateSuggestions handles POST /suggestions/invalidate?category=...
// The consultation editor calls it after the doctor edits their lists.
func (sc *SuggestionController) InvalidateSuggestions(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	category := c.Query("category")
	if category == "" {
		sc.repo.InvalidateTenant(scope)
	} else {
		sc.repo.Invalidate(scope, category)
	}
	c.Status(http.StatusNoContent)
}

// MasterDataController serves clinic-wide pick lists.
type MasterDataController struct {
	repo *repository.MasterDataRepository
}

func NewMasterDataController(repo *repository.MasterDataRepository) *MasterDataController {
	return &MasterDataController{repo: repo}
}

// ListMasterData handles GET /masterdata/:category.
func (mc *MasterDataController) ListMasterData(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	items, err := mc.repo.List(c.Request.Context(), scope, c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
