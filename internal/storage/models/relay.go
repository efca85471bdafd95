package models

import (
	"fmt"
	"time"
)

// Relay types as reported by the Mullvad directory.
const (
	TypeWireGuard = "wireguard"
	TypeOpenVPN   = "openvpn"
	TypeBridge    = "bridge"
)

// Relay represents a single VPN relay server from the directory.
type Relay struct {
	Hostname string `json:"hostname"`
	Type     string `json:"type"` // wireguard, openvpn, bridge
	Active   bool   `json:"active"`

	// Location
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code"`
	CityName    string `json:"city_name"`
	CityCode    string `json:"city_code"`

	// Ownership
	Provider string `json:"provider"`
	Owned    bool   `json:"owned"`

	// Connection details
	IPv4AddrIn string `json:"ipv4_addr_in"`
	IPv6AddrIn string `json:"ipv6_addr_in,omitempty"`

	// Capabilities
	Load             int    `json:"load"`
	NetworkPortSpeed int    `json:"network_port_speed"` // Gbps
	Stboot           bool   `json:"stboot"`
	MultihopPort     int    `json:"multihop_port,omitempty"`
	SocksName        string `json:"socks_name,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Location returns "City, Country" with code fallbacks for sparse entries.
func (r *Relay) Location() string {
	city := r.CityName
	if city == "" {
		city = r.CityCode
	}
	country := r.CountryName
	if country == "" {
		country = r.CountryCode
	}
	if city == "" && country == "" {
		return "Unknown"
	}
	return fmt.Sprintf("%s, %s", city, country)
}

// HasIPv6 reports whether the relay advertises an IPv6 ingress address.
func (r *Relay) HasIPv6() bool { return r.IPv6AddrIn != "" }

// HasSocks reports whether the relay exposes a SOCKS proxy.
func (r *Relay) HasSocks() bool { return r.SocksName != "" }

// HasMultihop reports whether the relay supports multi-hop connections.
func (r *Relay) HasMultihop() bool { return r.MultihopPort != 0 }

// Features returns the relay's capability flags as display strings.
func (r *Relay) Features() []string {
	var features []string
	if r.HasIPv6() {
		features = append(features, "IPv6")
	}
	if r.Stboot {
		features = append(features, "SecureBoot")
	}
	if r.HasSocks() {
		features = append(features, "SOCKS")
	}
	if r.HasMultihop() {
		features = append(features, "MultiHop")
	}
	return features
}
