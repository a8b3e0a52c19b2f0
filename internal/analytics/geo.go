package analytics

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// UnknownCountry is the sentinel for unresolvable geo fields. It is a valid
// country key in all aggregate maps and always falls into the default tier.
const UnknownCountry = "Unknown"

// Location is the resolved geography of a visitor IP
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Region  string `json:"region"`
}

var unknownLocation = Location{Country: UnknownCountry, City: UnknownCountry, Region: UnknownCountry}

// Resolver looks an IP up in a local offline geo database
type Resolver interface {
	Lookup(ip net.IP) (Location, error)
}

// ResolveIP normalizes a raw client IP and resolves it to a location. It
// never fails: loopback and RFC-1918 private addresses short-circuit to
// Unknown without touching the resolver, as do unparseable inputs and
// resolver misses. A nil resolver yields Unknown for everything.
func ResolveIP(r Resolver, rawIP string) Location {
	ip := strings.TrimSpace(rawIP)
	// IPv6-mapped IPv4, e.g. ::ffff:203.0.113.9
	ip = strings.TrimPrefix(ip, "::ffff:")

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return unknownLocation
	}
	if parsed.IsLoopback() || parsed.IsPrivate() {
		return unknownLocation
	}
	if r == nil {
		return unknownLocation
	}

	loc, err := r.Lookup(parsed)
	if err != nil {
		return unknownLocation
	}
	if loc.Country == "" {
		loc.Country = UnknownCountry
	}
	if loc.City == "" {
		loc.City = UnknownCountry
	}
	if loc.Region == "" {
		loc.Region = UnknownCountry
	}
	return loc
}

// ClientIP picks the visitor IP from the X-Forwarded-For chain, falling back
// to the connection's remote address. The first hop in the chain is the
// original client.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// MaxMindResolver resolves IPs against a local MaxMind GeoLite2/GeoIP2 City database
type MaxMindResolver struct {
	db *geoip2.Reader
}

// NewMaxMindResolver opens the database file at path
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database: %w", err)
	}
	return &MaxMindResolver{db: db}, nil
}

// Lookup implements Resolver
func (m *MaxMindResolver) Lookup(ip net.IP) (Location, error) {
	record, err := m.db.City(ip)
	if err != nil {
		return unknownLocation, err
	}

	loc := unknownLocation
	if record.Country.IsoCode != "" {
		loc.Country = record.Country.IsoCode
	}
	if name := record.City.Names["en"]; name != "" {
		loc.City = name
	}
	if len(record.Subdivisions) > 0 && record.Subdivisions[0].IsoCode != "" {
		loc.Region = record.Subdivisions[0].IsoCode
	}
	return loc, nil
}

// Close releases the underlying database handle
func (m *MaxMindResolver) Close() error {
	return m.db.Close()
}
