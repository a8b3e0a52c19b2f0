package analytics

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	loc     Location
	err     error
	lookups []string
}

func (s *stubResolver) Lookup(ip net.IP) (Location, error) {
	s.lookups = append(s.lookups, ip.String())
	return s.loc, s.err
}

func TestResolveIP_StripsIPv6MappedPrefix(t *testing.T) {
	stub := &stubResolver{loc: Location{Country: "US", City: "Ashburn", Region: "VA"}}

	loc := ResolveIP(stub, "::ffff:203.0.113.9")

	require.Len(t, stub.lookups, 1)
	assert.Equal(t, "203.0.113.9", stub.lookups[0])
	assert.Equal(t, "US", loc.Country)
}

func TestResolveIP_LocalAddressesSkipResolver(t *testing.T) {
	stub := &stubResolver{loc: Location{Country: "US"}}

	for _, ip := range []string{"127.0.0.1", "::1", "10.1.2.3", "192.168.1.50", "172.16.0.9"} {
		loc := ResolveIP(stub, ip)
		assert.Equal(t, UnknownCountry, loc.Country, "ip %s", ip)
		assert.Equal(t, UnknownCountry, loc.City, "ip %s", ip)
		assert.Equal(t, UnknownCountry, loc.Region, "ip %s", ip)
	}
	assert.Empty(t, stub.lookups, "local addresses must not hit the resolver")
}

func TestResolveIP_UnparseableInput(t *testing.T) {
	stub := &stubResolver{}

	loc := ResolveIP(stub, "not-an-ip")

	assert.Equal(t, UnknownCountry, loc.Country)
	assert.Empty(t, stub.lookups)
}

func TestResolveIP_NilResolver(t *testing.T) {
	loc := ResolveIP(nil, "203.0.113.9")

	assert.Equal(t, UnknownCountry, loc.Country)
	assert.Equal(t, UnknownCountry, loc.City)
	assert.Equal(t, UnknownCountry, loc.Region)
}

func TestResolveIP_ResolverErrorIsUnknown(t *testing.T) {
	stub := &stubResolver{err: errors.New("db corrupt")}

	loc := ResolveIP(stub, "203.0.113.9")

	assert.Equal(t, UnknownCountry, loc.Country)
}

func TestResolveIP_PartialRecordFillsUnknown(t *testing.T) {
	stub := &stubResolver{loc: Location{Country: "DE"}}

	loc := ResolveIP(stub, "203.0.113.9")

	assert.Equal(t, "DE", loc.Country)
	assert.Equal(t, UnknownCountry, loc.City)
	assert.Equal(t, UnknownCountry, loc.Region)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		remoteAddr   string
		want         string
	}{
		{"first forwarded hop wins", "203.0.113.9, 70.41.3.18, 150.172.238.178", "10.0.0.1:4312", "203.0.113.9"},
		{"single forwarded entry", "198.51.100.7", "10.0.0.1:4312", "198.51.100.7"},
		{"falls back to remote addr", "", "198.51.100.7:55021", "198.51.100.7"},
		{"remote addr without port", "", "198.51.100.7", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientIP(tt.forwardedFor, tt.remoteAddr))
		})
	}
}
