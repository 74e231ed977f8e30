package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/parse"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

type deviceRequest struct {
	SerialNumber     string `json:"serial_number"`
	DeviceGroup      string `json:"device_group" binding:"required"`
	DeviceName       string `json:"device_name"`
	IPAddress        string `json:"ip_address"`
	Status           string `json:"status"`
	EncryptionStatus string `json:"encryption_status"`
}

func (r deviceRequest) device(serial string) (*model.Device, bool) {
	if !parse.KnownGroup(r.DeviceGroup) {
		return nil, false
	}
	d := &model.Device{
		SerialNumber:     serial,
		DeviceGroup:      r.DeviceGroup,
		DeviceName:       r.DeviceName,
		IPAddress:        r.IPAddress,
		Status:           r.Status,
		EncryptionStatus: r.EncryptionStatus,
	}
	if d.Status == "" {
		d.Status = model.DeviceStatusActive
	}
	if d.EncryptionStatus == "" {
		d.EncryptionStatus = model.EncryptionNotEncrypted
	}
	return d, true
}

// ListDevices handles GET /api/devices?group=&q=.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.store.ListDevices(c.Request.Context(), store.DeviceFilter{
		Group: c.Query("group"),
		Query: c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice handles GET /api/devices/:serial.
func (h *Handler) GetDevice(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	d, err := h.store.GetDevice(c.Request.Context(), serial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDevice handles POST /api/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	serial, err := parse.NormalizeSerial(req.SerialNumber)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	d, ok := req.device(serial)
	if !ok {
		badRequest(c, "unknown device group "+req.DeviceGroup)
		return
	}
	if err := h.store.CreateDevice(c.Request.Context(), d); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDevice handles PUT /api/devices/:serial. Inspection counters are
// not editable.
func (h *Handler) UpdateDevice(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	d, ok := req.device(serial)
	if !ok {
		badRequest(c, "unknown device group "+req.DeviceGroup)
		return
	}

	ctx := c.Request.Context()
	if err := h.store.UpdateDevice(ctx, d); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetDevice(ctx, serial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteDevice handles DELETE /api/devices/:serial.
func (h *Handler) DeleteDevice(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteDevice(c.Request.Context(), serial); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeviceHistory handles GET /api/devices/:serial/history.
func (h *Handler) DeviceHistory(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	device, err := h.store.GetDevice(ctx, serial)
	if err != nil {
		respondError(c, err)
		return
	}
	inspections, err := h.store.ListInspections(ctx, store.InspectionFilter{Serial: serial})
	if err != nil {
		respondError(c, err)
		return
	}
	faults, err := h.store.ListFaults(ctx, store.FaultFilter{Serial: serial})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device":      device,
		"inspections": inspections,
		"faults":      faults,
	})
}

// DeviceChecklist handles GET /api/devices/:serial/checklist?variant=. The
// device group and the operator's variant pick the profile; a stored
// definition for it wins over the built-in one.
func (h *Handler) DeviceChecklist(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	device, err := h.store.GetDevice(ctx, serial)
	if err != nil {
		respondError(c, err)
		return
	}
	code, err := checklist.ResolveLegacyCode(device.DeviceGroup, c.Query("variant"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	profile, err := parse.ParseProfileCode(code)
	if err != nil {
		respondError(c, err)
		return
	}
	items, legacy, err := h.svc.Definition(ctx, profile.Code())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":   profile.Code(),
		"amplified": profile.Amplified(),
		"legacy":    legacy,
		"items":     items,
	})
}

func serialParam(c *gin.Context) (string, bool) {
	serial, err := parse.NormalizeSerial(c.Param("serial"))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return serial, true
}
