package handler

import (
	"runtime"
	"time"

	"github.com/erp/orderdesk/internal/application/datasync"
	"github.com/gin-gonic/gin"
)

// SystemHandler answers liveness and info probes
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	sync      *datasync.Service
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(name, version string, sync *datasync.Service) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		sync:      sync,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string                   `json:"name"`
	Version   string                   `json:"version"`
	GoVersion string                   `json:"go_version"`
	Uptime    string                   `json:"uptime"`
	Resources []datasync.ResourceState `json:"resources,omitempty"`
}

// Health is the liveness probe
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{"status": "healthy"})
}

// GetSystemInfo returns version, uptime and the sync state
// GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.sync != nil {
		info.Resources = h.sync.States().All()
	}
	h.Success(c, info)
}
