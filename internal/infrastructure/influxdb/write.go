package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePassMetrics records the outcome of one reconciliation pass.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - runID: Unique identifier of the reconciliation run
//   - required: Number of entities the enabled feature set requires
//   - observed: Number of entities observed in the registry
//   - created: Number of entities created this pass
//   - removed: Number of entities removed this pass
//   - failed: Number of write operations that failed
//   - duration: Wall-clock duration of the pass
func (c *Client) WritePassMetrics(runID string, required, observed, created, removed, failed int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"reconcile_pass",
		map[string]string{
			"run_id": runID,
		},
		map[string]interface{}{
			"required_count": required,
			"observed_count": observed,
			"created_count":  created,
			"removed_count":  removed,
			"failed_count":   failed,
			"duration_ms":    duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEntityCount records the current size of the required entity set.
//
// Useful for dashboarding fleet growth over time independent of pass
// outcomes.
func (c *Client) WriteEntityCount(count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"entity_count",
		nil,
		map[string]interface{}{
			"value": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
