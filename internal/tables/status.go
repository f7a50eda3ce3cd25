package tables

// StatusTag is the closed set of presentation states a status cell can show.
type StatusTag int

const (
	StatusUnknown StatusTag = iota
	StatusUp
	StatusDown
	StatusEnabled
	StatusDisabled
)

// StatusDisplay is the tooltip label and icon identity for a tag.
type StatusDisplay struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Display maps every tag to its tooltip and icon. Unrecognized values fall
// through to the unknown rendering.
func (s StatusTag) Display() StatusDisplay {
	switch s {
	case StatusUp:
		return StatusDisplay{Label: "Service is running", Icon: "outlined-arrow-alt-circle-up"}
	case StatusDown:
		return StatusDisplay{Label: "Service has stopped", Icon: "outlined-arrow-alt-circle-down"}
	case StatusEnabled:
		return StatusDisplay{Label: "Source enabled", Icon: "check-circle"}
	case StatusDisabled:
		return StatusDisplay{Label: "Source disabled", Icon: "times"}
	default:
		return StatusDisplay{Label: "Unknown service status", Icon: "outlined-question-circle"}
	}
}

func (s StatusTag) String() string {
	switch s {
	case StatusUp:
		return "up"
	case StatusDown:
		return "down"
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ParseServiceStatus reads an upstream service or interface state. Only the
// exact strings "UP" and "DOWN" are recognized.
func ParseServiceStatus(v interface{}) StatusTag {
	s, _ := Unwrap(v).(string)
	switch s {
	case "UP":
		return StatusUp
	case "DOWN":
		return StatusDown
	default:
		return StatusUnknown
	}
}

// EnabledStatus renders a loosely typed flag as Enabled or Disabled.
func EnabledStatus(v interface{}) StatusTag {
	if Truthy(v) {
		return StatusEnabled
	}
	return StatusDisabled
}
