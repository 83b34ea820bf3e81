// Package influxdb provides time-series metric recording for Featsync.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking batched writes of reconciliation pass metrics
//   - Health monitoring
//
// InfluxDB integration is optional: when disabled in configuration,
// Connect returns ErrDisabled and the caller runs without metrics.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without metrics
//	}
//	defer client.Close()
//
//	client.WritePassMetrics(runID, required, observed, created, removed, failed, elapsed)
package influxdb
