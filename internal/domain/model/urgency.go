package model

import "fmt"

// Urgency grades how quickly a coach should act on an insight. The numeric
// order is significant: comparing two values with < or >= implements the
// urgency scale. The zero value means "unspecified" so that optional filter
// fields can tell an absent urgency apart from Low.
type Urgency int

// Urgency levels, lowest to highest.
const (
	UrgencyUnspecified Urgency = iota
	UrgencyLow
	UrgencyMedium
	UrgencyHigh
	UrgencyCritical
)

var urgencyNames = map[Urgency]string{
	UrgencyLow:      "low",
	UrgencyMedium:   "medium",
	UrgencyHigh:     "high",
	UrgencyCritical: "critical",
}

var urgencyValues = map[string]Urgency{
	"low":      UrgencyLow,
	"medium":   UrgencyMedium,
	"high":     UrgencyHigh,
	"critical": UrgencyCritical,
}

// ParseUrgency maps a wire name to its level. The empty string parses as
// UrgencyUnspecified.
func ParseUrgency(s string) (Urgency, bool) {
	if s == "" {
		return UrgencyUnspecified, true
	}
	u, ok := urgencyValues[s]
	return u, ok
}

func (u Urgency) String() string {
	if name, ok := urgencyNames[u]; ok {
		return name
	}
	return ""
}

// MarshalText encodes the urgency as its wire name. Text marshaling also
// covers JSON object keys, which the per-urgency stat maps rely on.
func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText decodes a wire name, rejecting unknown levels.
func (u *Urgency) UnmarshalText(data []byte) error {
	v, ok := ParseUrgency(string(data))
	if !ok {
		return fmt.Errorf("urgency: unknown level %q", string(data))
	}
	*u = v
	return nil
}
