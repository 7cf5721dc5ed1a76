package sensor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BatteryState describes the charger relation of the device battery.
type BatteryState string

const (
	BatteryUnknown   BatteryState = "unknown"
	BatteryUnplugged BatteryState = "unplugged"
	BatteryCharging  BatteryState = "charging"
	BatteryFull      BatteryState = "full"
)

// Status is a lightweight view of the system conditions the upload gate
// cares about. Fields are best-effort and may hold zero values on
// platforms where a reading is unavailable.
type Status struct {
	Timestamp time.Time

	// Battery level in [0..1]; negative when unknown.
	BatteryLevel float64
	BatteryState BatteryState

	LowPowerMode bool

	NetworkReachable bool
	// NetworkPath is a short human-readable description of the current
	// network route (interface name and operational state).
	NetworkPath string
}

// StatusProvider exposes the most recent system status. Implemented by
// *Sensor; tests substitute fakes.
type StatusProvider interface {
	Status() Status
}

// Sensor polls host power and network state and exposes a current Status.
type Sensor struct {
	mu       sync.RWMutex
	status   Status
	interval time.Duration

	// sysfs roots, overridable in tests
	powerRoot string
	netRoot   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSensor creates a sensor that polls every interval.
func NewSensor(interval time.Duration) *Sensor {
	s := &Sensor{
		interval:  interval,
		powerRoot: "/sys/class/power_supply",
		netRoot:   "/sys/class/net",
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start begins background polling. Call Stop to terminate.
func (s *Sensor) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		// warm initial sample
		s.sample()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sample()
			}
		}
	}()
}

// Stop stops background polling and waits for the worker to exit.
func (s *Sensor) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Status returns the most recent status (fast, copy).
func (s *Sensor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// sample collects best-effort readings and updates the current status.
func (s *Sensor) sample() {
	st := Status{
		Timestamp:    time.Now(),
		BatteryLevel: -1,
		BatteryState: BatteryUnknown,
	}
	s.sampleBattery(&st)
	s.sampleNetwork(&st)

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// sampleBattery reads the first battery supply under powerRoot. Devices
// without a battery (desktops, CI) keep the unknown defaults, which the
// upload gate treats as unconstrained.
func (s *Sensor) sampleBattery(st *Status) {
	entries, err := os.ReadDir(s.powerRoot)
	if err != nil {
		return
	}
	for _, e := range entries {
		dir := filepath.Join(s.powerRoot, e.Name())
		typ, err := os.ReadFile(filepath.Join(dir, "type"))
		if err != nil || strings.TrimSpace(string(typ)) != "Battery" {
			continue
		}
		if b, err := os.ReadFile(filepath.Join(dir, "capacity")); err == nil {
			if pct, err := strconv.Atoi(strings.TrimSpace(string(b))); err == nil {
				st.BatteryLevel = float64(pct) / 100
			}
		}
		if b, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
			switch strings.TrimSpace(string(b)) {
			case "Charging":
				st.BatteryState = BatteryCharging
			case "Full":
				st.BatteryState = BatteryFull
			case "Discharging", "Not charging":
				st.BatteryState = BatteryUnplugged
			}
		}
		break
	}
	// power-save CPU governor is the closest host analogue of a low
	// power mode toggle
	if b, err := os.ReadFile("/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor"); err == nil {
		st.LowPowerMode = strings.TrimSpace(string(b)) == "powersave"
	}
}

// sampleNetwork reports reachability as "some non-loopback interface is
// operationally up" and records which one.
func (s *Sensor) sampleNetwork(st *Status) {
	entries, err := os.ReadDir(s.netRoot)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if name == "lo" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.netRoot, name, "operstate"))
		if err != nil {
			continue
		}
		state := strings.TrimSpace(string(b))
		if state == "up" || state == "unknown" {
			st.NetworkReachable = true
			st.NetworkPath = name + " (" + state + ")"
			return
		}
	}
	st.NetworkPath = "no interface up"
}
