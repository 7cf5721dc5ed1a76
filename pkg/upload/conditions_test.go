package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rumagent/pkg/sensor"
)

type staticStatus struct{ st sensor.Status }

func (s staticStatus) Status() sensor.Status { return s.st }

func TestBlockersReady(t *testing.T) {
	c := NewConditions(staticStatus{sensor.Status{
		BatteryLevel:     0.8,
		BatteryState:     sensor.BatteryUnplugged,
		NetworkReachable: true,
	}})
	assert.Empty(t, c.Blockers())
}

func TestBlockersLowBatteryUnplugged(t *testing.T) {
	c := NewConditions(staticStatus{sensor.Status{
		BatteryLevel:     0.05,
		BatteryState:     sensor.BatteryUnplugged,
		NetworkReachable: true,
	}})
	bs := c.Blockers()
	assert.Len(t, bs, 1)
	assert.IsType(t, BatteryBlocker{}, bs[0])
}

func TestBlockersLowBatteryButCharging(t *testing.T) {
	c := NewConditions(staticStatus{sensor.Status{
		BatteryLevel:     0.05,
		BatteryState:     sensor.BatteryCharging,
		NetworkReachable: true,
	}})
	assert.Empty(t, c.Blockers(), "charging overrides the battery floor")
}

func TestBlockersUnknownBatteryLevelNotBlocking(t *testing.T) {
	c := NewConditions(staticStatus{sensor.Status{
		BatteryLevel:     -1,
		BatteryState:     sensor.BatteryUnknown,
		NetworkReachable: true,
	}})
	assert.Empty(t, c.Blockers())
}

func TestBlockersCombined(t *testing.T) {
	c := NewConditions(staticStatus{sensor.Status{
		BatteryLevel:     0.05,
		BatteryState:     sensor.BatteryUnplugged,
		LowPowerMode:     true,
		NetworkReachable: false,
		NetworkPath:      "none",
	}})
	bs := c.Blockers()
	assert.Len(t, bs, 3)
	assert.Equal(t, "battery (5%, unplugged) AND low power mode AND network reachability (none)", Describe(bs))
}

func TestDescribeEmpty(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
}
