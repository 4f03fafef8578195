package databases

import (
	"fmt"
	"strings"

	"github.com/aalemi-dev/sqlguard/database"
)

// Backend identifies one logical database. The set is closed: every value
// must have a settings entry, and Registry rejects anything outside it.
type Backend int

const (
	Devices Backend = iota
	Services
	Throttling
	Users
	Roles
	EmailAddresses
	IPAddresses
	MACAddresses
	LeasedLocks
	TestDatabase

	backendCount
)

var backendNames = [backendCount]string{
	Devices:        "Devices",
	Services:       "Services",
	Throttling:     "Throttling",
	Users:          "Users",
	Roles:          "Roles",
	EmailAddresses: "EmailAddresses",
	IPAddresses:    "IPAddresses",
	MACAddresses:   "MACAddresses",
	LeasedLocks:    "LeasedLocks",
	TestDatabase:   "TestDatabase",
}

// settings keys are snake_case so they survive viper's key lowercasing and
// map cleanly onto environment variables.
var backendKeys = [backendCount]string{
	Devices:        "devices",
	Services:       "services",
	Throttling:     "throttling",
	Users:          "users",
	Roles:          "roles",
	EmailAddresses: "email_addresses",
	IPAddresses:    "ip_addresses",
	MACAddresses:   "mac_addresses",
	LeasedLocks:    "leased_locks",
	TestDatabase:   "test_database",
}

// AllBackends returns every Backend in declaration order.
func AllBackends() []Backend {
	all := make([]Backend, backendCount)
	for i := range all {
		all[i] = Backend(i)
	}
	return all
}

// Valid reports whether b is one of the declared backends.
func (b Backend) Valid() bool {
	return b >= 0 && b < backendCount
}

// String returns the backend name used for counters, spans and breakers.
func (b Backend) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return backendNames[b]
}

// Key returns the settings key of b, e.g. "email_addresses".
func (b Backend) Key() string {
	if !b.Valid() {
		return ""
	}
	return backendKeys[b]
}

// ParseBackend accepts a backend name or settings key, ignoring case.
func ParseBackend(s string) (Backend, error) {
	for _, b := range AllBackends() {
		if strings.EqualFold(s, backendNames[b]) || strings.EqualFold(s, backendKeys[b]) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", database.ErrUnknownBackend, s)
}
