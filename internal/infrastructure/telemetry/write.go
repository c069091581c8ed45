package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordEvent writes one lifecycle event occurrence.
//
// Events are tagged by device and event name with a unit count field,
// which makes reconnect storms and sync latency visible with a simple
// aggregation query.
func (c *Client) RecordEvent(name string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_events",
		map[string]string{
			"device_id": c.deviceID,
			"event":     name,
		},
		map[string]interface{}{
			"count": 1,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// RecordProperty writes one numeric property value at publish time.
//
// Boolean properties arrive as 0 or 1; string properties are never
// recorded.
func (c *Client) RecordProperty(name string, value float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"property_values",
		map[string]string{
			"device_id": c.deviceID,
			"property":  name,
		},
		map[string]interface{}{
			"value": value,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}
