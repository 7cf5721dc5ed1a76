package sensor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSensorBasic(t *testing.T) {
	s := NewSensor(50 * time.Millisecond)
	s.Start()
	defer s.Stop()

	// wait for at least one sample
	time.Sleep(120 * time.Millisecond)
	st := s.Status()
	if st.Timestamp.IsZero() {
		t.Fatalf("expected non-zero status timestamp")
	}
}

func TestSensorReadsSysfsFixtures(t *testing.T) {
	root := t.TempDir()
	powerRoot := filepath.Join(root, "power_supply")
	netRoot := filepath.Join(root, "net")

	batDir := filepath.Join(powerRoot, "BAT0")
	if err := os.MkdirAll(batDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(batDir, "type"), "Battery\n")
	writeFile(t, filepath.Join(batDir, "capacity"), "42\n")
	writeFile(t, filepath.Join(batDir, "status"), "Charging\n")

	ifDir := filepath.Join(netRoot, "wlan0")
	if err := os.MkdirAll(ifDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(ifDir, "operstate"), "up\n")

	s := NewSensor(time.Hour)
	s.powerRoot = powerRoot
	s.netRoot = netRoot
	s.sample()

	st := s.Status()
	if st.BatteryLevel != 0.42 {
		t.Fatalf("battery level = %v, want 0.42", st.BatteryLevel)
	}
	if st.BatteryState != BatteryCharging {
		t.Fatalf("battery state = %v, want charging", st.BatteryState)
	}
	if !st.NetworkReachable {
		t.Fatalf("expected network reachable")
	}
	if st.NetworkPath != "wlan0 (up)" {
		t.Fatalf("network path = %q", st.NetworkPath)
	}
}

func TestSensorNoInterfacesDown(t *testing.T) {
	root := t.TempDir()
	netRoot := filepath.Join(root, "net")
	ifDir := filepath.Join(netRoot, "eth0")
	if err := os.MkdirAll(ifDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(ifDir, "operstate"), "down\n")

	s := NewSensor(time.Hour)
	s.powerRoot = filepath.Join(root, "missing")
	s.netRoot = netRoot
	s.sample()

	st := s.Status()
	if st.NetworkReachable {
		t.Fatalf("expected network unreachable")
	}
	if st.BatteryLevel != -1 || st.BatteryState != BatteryUnknown {
		t.Fatalf("expected unknown battery, got %v %v", st.BatteryLevel, st.BatteryState)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
