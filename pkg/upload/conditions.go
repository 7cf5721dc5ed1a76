package upload

import (
	"fmt"
	"strings"

	"rumagent/pkg/sensor"
)

// MinBatteryLevel is the charge fraction below which uploads are blocked
// when the device is not plugged in.
const MinBatteryLevel = 0.1

// Blocker is a named reason why upload must not proceed right now. The
// variant set is closed; rendering order is deterministic.
type Blocker interface {
	fmt.Stringer
	blocker()
}

// BatteryBlocker reports insufficient charge on an unplugged device.
type BatteryBlocker struct {
	Level float64
	State sensor.BatteryState
}

func (b BatteryBlocker) blocker() {}

func (b BatteryBlocker) String() string {
	return fmt.Sprintf("battery (%.0f%%, %s)", b.Level*100, b.State)
}

// LowPowerModeBlocker reports the system-wide power save toggle.
type LowPowerModeBlocker struct{}

func (LowPowerModeBlocker) blocker() {}

func (LowPowerModeBlocker) String() string { return "low power mode" }

// NetworkBlocker reports an unreachable network.
type NetworkBlocker struct {
	Path string
}

func (NetworkBlocker) blocker() {}

func (b NetworkBlocker) String() string {
	return fmt.Sprintf("network reachability (%s)", b.Path)
}

// Conditions evaluates live system state into the set of current blockers.
// It keeps no state between calls; every tick gets a fresh reading.
type Conditions struct {
	provider sensor.StatusProvider
}

// NewConditions creates an upload gate over the given status provider.
func NewConditions(p sensor.StatusProvider) *Conditions {
	return &Conditions{provider: p}
}

// Blockers returns the reasons upload must be skipped right now; an empty
// result means the system is ready.
func (c *Conditions) Blockers() []Blocker {
	st := c.provider.Status()
	var out []Blocker

	charging := st.BatteryState == sensor.BatteryCharging || st.BatteryState == sensor.BatteryFull
	if !charging && st.BatteryLevel >= 0 && st.BatteryLevel < MinBatteryLevel {
		out = append(out, BatteryBlocker{Level: st.BatteryLevel, State: st.BatteryState})
	}
	if st.LowPowerMode {
		out = append(out, LowPowerModeBlocker{})
	}
	if !st.NetworkReachable {
		out = append(out, NetworkBlocker{Path: st.NetworkPath})
	}
	return out
}

// Describe renders a blocker set for diagnostics.
func Describe(blockers []Blocker) string {
	parts := make([]string, len(blockers))
	for i, b := range blockers {
		parts[i] = b.String()
	}
	return strings.Join(parts, " AND ")
}
