package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/interfaces/http/dto"
)

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	db         *gorm.DB
	categories catalog.CategoryRepository
	startTime  time.Time
}

// NewSystemHandler creates a new SystemHandler. The category repository is
// used by the readiness check as a canary read over the lookup tables.
func NewSystemHandler(db *gorm.DB, categories catalog.CategoryRepository) *SystemHandler {
	return &SystemHandler{
		db:         db,
		categories: categories,
		startTime:  time.Now(),
	}
}

// RegisterRoutes mounts the health and system endpoints
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/healthz", h.Healthz)
	rg.GET("/readyz", h.Readyz)
	rg.GET("/system/info", h.GetSystemInfo)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns version and uptime information
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Back Office API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// Healthz is the liveness check; it answers as long as the process runs
func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
}

// Readyz is the readiness check; it fails when the database is unreachable.
// Beyond the raw ping it reads one row from the category lookup table, so a
// schema that never ran migrations is reported as not ready too.
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeUnavailable, "database unreachable"))
		return
	}

	if h.categories != nil {
		if _, err := h.categories.FindBy(ctx, nil, shared.QueryOptions{Limit: 1}); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeUnavailable, "reference data unreachable"))
			return
		}
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ready"}))
}
