package clientinfo

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Info is the parsed user-agent descriptor stored alongside a session record.
// Observability only; nothing in the auth path depends on it.
type Info struct {
	Raw     string  `bson:"raw,omitempty" json:"raw,omitempty"`
	Browser Product `bson:"browser,omitempty" json:"browser,omitempty"`
	OS      Product `bson:"os,omitempty" json:"os,omitempty"`
	Device  Device  `bson:"device,omitempty" json:"device,omitempty"`
}

// Product names one identified component (browser or OS) with its version.
type Product struct {
	Family  string `bson:"family,omitempty" json:"family,omitempty"`
	Version string `bson:"version,omitempty" json:"version,omitempty"`
}

// Device classifies the client hardware.
type Device struct {
	Family string `bson:"family,omitempty" json:"family,omitempty"`
	Mobile bool   `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Tablet bool   `bson:"tablet,omitempty" json:"tablet,omitempty"`
	Bot    bool   `bson:"bot,omitempty" json:"bot,omitempty"`
}

// Parse extracts a structured descriptor from a User-Agent header value.
// An empty header yields a zero Info.
func Parse(raw string) Info {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Info{}
	}
	ua := useragent.Parse(raw)
	return Info{
		Raw:     raw,
		Browser: Product{Family: ua.Name, Version: ua.Version},
		OS:      Product{Family: ua.OS, Version: ua.OSVersion},
		Device:  Device{Family: ua.Device, Mobile: ua.Mobile, Tablet: ua.Tablet, Bot: ua.Bot},
	}
}
