package inventory

import "time"

// Device represents one physical device in the fleet inventory.
//
// The ID is the hardware identifier in its canonical colon form
// (e.g. "32:153289"). Slugs carry the classification labels that
// feature definitions match against ("thermostat", "hygro", ...);
// a device with no slugs matches only wildcard features.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slugs     []string  `json:"slugs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates a full copy of the device.
// The copy shares no mutable state with the original.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	copied := *d
	if d.Slugs != nil {
		copied.Slugs = make([]string, len(d.Slugs))
		copy(copied.Slugs, d.Slugs)
	}
	return &copied
}

// HasSlug reports whether the device carries the given classification slug.
func (d *Device) HasSlug(slug string) bool {
	for _, s := range d.Slugs {
		if s == slug {
			return true
		}
	}
	return false
}
