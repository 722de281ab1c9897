package types

import "fmt"

// Mode is the top-level dashboard mode.
type Mode int

const (
	ModeSecurity Mode = iota
	ModeCounting
)

func (m Mode) String() string {
	switch m {
	case ModeSecurity:
		return "security"
	case ModeCounting:
		return "counting"
	}
	panic(fmt.Sprintf("mode %d out of range", int(m)))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "security":
		return ModeSecurity, nil
	case "counting":
		return ModeCounting, nil
	}
	return ModeSecurity, fmt.Errorf("mode %q: %w", s, ErrUnknownValue)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMode(string(b))
	return
}

// SecurityView selects the middle column while in security mode.
type SecurityView int

const (
	ViewMonitoring SecurityView = iota
	ViewAlerts
	ViewStatus
)

func (v SecurityView) String() string {
	switch v {
	case ViewMonitoring:
		return "monitoring"
	case ViewAlerts:
		return "alerts"
	case ViewStatus:
		return "status"
	}
	panic(fmt.Sprintf("view %d out of range", int(v)))
}

func ParseSecurityView(s string) (SecurityView, error) {
	switch s {
	case "monitoring":
		return ViewMonitoring, nil
	case "alerts":
		return ViewAlerts, nil
	case "status":
		return ViewStatus, nil
	}
	return ViewMonitoring, fmt.Errorf("view %q: %w", s, ErrUnknownValue)
}

func (v SecurityView) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *SecurityView) UnmarshalText(b []byte) (err error) {
	*v, err = ParseSecurityView(string(b))
	return
}
