package queue

import "fmt"

// PriorityLevel identifies one of the five scheduling lanes. Higher values
// are always selected before lower ones; within a level tasks are strictly
// FIFO by admission order.
type PriorityLevel int

// Priority levels in ascending order of precedence
const (
	PriorityLow PriorityLevel = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
	PriorityEmergency
)

// numLevels is the number of scheduling lanes.
const numLevels = 5

var levelNames = map[PriorityLevel]string{
	PriorityLow:       "low",
	PriorityNormal:    "normal",
	PriorityHigh:      "high",
	PriorityCritical:  "critical",
	PriorityEmergency: "emergency",
}

var namedLevels = map[string]PriorityLevel{
	"low":       PriorityLow,
	"normal":    PriorityNormal,
	"high":      PriorityHigh,
	"critical":  PriorityCritical,
	"emergency": PriorityEmergency,
}

// String returns the lowercase name of the level, or a numeric form for
// values outside the known range.
func (l PriorityLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(l))
}

// IsValid reports whether the level is one of the five defined lanes.
func (l PriorityLevel) IsValid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParsePriorityLevel converts a lowercase level name to its PriorityLevel.
// Returns an error for unknown names.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	if l, ok := namedLevels[s]; ok {
		return l, nil
	}
	return PriorityNormal, fmt.Errorf("unknown priority level %q", s)
}

// MarshalJSON encodes the level as its string name.
func (l PriorityLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON decodes a level from its string name.
func (l *PriorityLevel) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParsePriorityLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
