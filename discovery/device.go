package discovery

import "strings"

// Undefined marks device attributes the monitor has not reported yet.
const Undefined = "Undefined"

// DeviceInfo holds the shared device attributes embedded in every
// descriptor. Model, serial number and firmware version start Undefined and
// are overwritten in place as the monitor reports them; they are never
// reset.
type DeviceInfo struct {
	ID           string
	Name         string
	Manufacturer string
	Model        string
	SerialNumber string
	SWVersion    string
}

func NewDeviceInfo(id, name, manufacturer, model string) *DeviceInfo {
	return &DeviceInfo{
		ID:           id,
		Name:         name,
		Manufacturer: manufacturer,
		Model:        model,
		SerialNumber: Undefined,
		SWVersion:    Undefined,
	}
}

// Observe updates device metadata from specially named signals, matched
// case-insensitively on the formatted name. It returns the updated field (if
// any) and whether the signal was absorbed: absorbed signals update the
// device block only and never become entities. Firmware version is both
// metadata and a displayable sensor, so it is not absorbed.
func (d *DeviceInfo) Observe(formattedName, payload string) (field string, absorbed bool) {
	name := strings.ToLower(formattedName)
	switch {
	case strings.Contains(name, "controller_detected"):
		d.Model = payload
		return "model", true
	case strings.Contains(name, "generator_serial_number"):
		d.SerialNumber = payload
		return "serial_number", true
	case strings.Contains(name, "firmware_version"):
		d.SWVersion = payload
		return "sw_version", false
	}
	return "", false
}

// Snapshot copies the current attributes into a descriptor device block.
// The copy is deliberate: descriptors capture device metadata at
// registration time and are not retroactively corrected by later updates.
func (d *DeviceInfo) Snapshot() *DeviceModel {
	return &DeviceModel{
		Identifiers:  []string{d.ID},
		Name:         d.Name,
		Manufacturer: d.Manufacturer,
		Model:        d.Model,
		SerialNumber: d.SerialNumber,
		SWVersion:    d.SWVersion,
	}
}

// OriginInfo identifies the bridge itself in discovery payloads. Constant
// for the process lifetime.
type OriginInfo struct {
	Name       string
	SWVersion  string
	SupportURL string
}

func (o OriginInfo) Snapshot() *OriginModel {
	return &OriginModel{
		Name:       o.Name,
		SWVersion:  o.SWVersion,
		SupportURL: o.SupportURL,
	}
}
