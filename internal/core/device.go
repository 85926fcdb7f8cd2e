package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
	DeviceTypeUnknown  DeviceType = "unknown"
)

// Platform indicates how a device is controlled.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformDesktop Platform = "desktop"
)

// Device represents a playback device.
type Device struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           DeviceType `json:"type"`
	Platform       Platform   `json:"platform"`
	IsActive       bool       `json:"is_active"`
	IsRestricted   bool       `json:"is_restricted"`
	VolumePercent  int        `json:"volume_percent"`
	SupportsVolume bool       `json:"supports_volume"`
}
