package domain

import (
	"encoding/json"
	"time"
)

// Device is an inventoried computer mirrored from the asset source. It carries no maintenance
// state; that is projected from the ledger on every read.
type Device struct {
	ID        string
	GLPIID    int64
	Name      string
	Entity    string
	AssetTag  string
	Serial    string
	Location  string
	Status    string
	GLPIData  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sector is the location, falling back to the entity.
func (d *Device) Sector() string {
	if d.Location != "" {
		return d.Location
	}
	return d.Entity
}

// Component is a hardware item attached to a device (processor, memory, disk...).
type Component struct {
	ID           string
	DeviceID     string
	ItemType     string
	Name         string
	Manufacturer string
	Model        string
	Serial       string
	Capacity     string
	GLPIData     json.RawMessage
	CreatedAt    time.Time
}

// Snapshot is a device with the ledger projection taken at read time: the latest maintenance by
// performed_at and that record's next due date (nil for corrective or no history).
type Snapshot struct {
	Device
	LastMaintenance *time.Time
	NextDue         *time.Time
}
