package inspection

import "github.com/crimow28-boop/ins-radiolab/internal/model"

// Device states on a card.
const (
	DeviceNone      = "none"
	DeviceDraft     = "draft"
	DeviceFailed    = "failed"
	DeviceCompleted = "completed"
)

// DeviceProgress is the state of one device on a card.
type DeviceProgress struct {
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	InspectionID *int64 `json:"inspection_id,omitempty"`
}

// CardProgress summarises the devices of a card.
type CardProgress struct {
	CardID       int64            `json:"card_id"`
	Devices      []DeviceProgress `json:"devices"`
	Completed    int              `json:"completed"`
	AllCompleted bool             `json:"all_completed"`
}

// ComputeCardProgress derives the per-device state of card from its
// inspections, which must be ordered newest first.
func ComputeCardProgress(card model.Card, inspections []model.Inspection) CardProgress {
	out := CardProgress{CardID: card.ID, Devices: make([]DeviceProgress, 0, len(card.Devices))}

	for _, serial := range card.Devices {
		dp := DeviceProgress{SerialNumber: serial, Status: DeviceNone}
		for i := range inspections {
			insp := inspections[i]
			if !insp.Covers(serial) {
				continue
			}
			id := insp.ID
			dp.InspectionID = &id
			switch {
			case insp.Status == model.InspectionStatusDraft:
				dp.Status = DeviceDraft
				dp.Progress = insp.Progress
			case insp.CavadStatus == model.CavadFailed:
				dp.Status = DeviceFailed
				dp.Progress = 100
			default:
				dp.Status = DeviceCompleted
				dp.Progress = 100
			}
			break
		}
		if dp.Status == DeviceCompleted {
			out.Completed++
		}
		out.Devices = append(out.Devices, dp)
	}

	out.AllCompleted = len(card.Devices) > 0 && out.Completed == len(card.Devices)
	return out
}
