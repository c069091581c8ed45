// Package telemetry records session diagnostics to InfluxDB.
//
// The session reports two signals: lifecycle events (connect,
// disconnect, sync) and numeric property values at publish time. Both
// land in InfluxDB via the non-blocking batched write API, so a slow or
// unreachable telemetry backend never back-pressures the device's tick
// loop; at worst, points are dropped and the error callback fires.
//
// Telemetry is strictly optional. When disabled in config, Connect
// returns ErrDisabled and the host runs the session without a recorder.
//
// # Usage
//
//	rec, err := telemetry.Connect(cfg.Telemetry, cfg.Device.ID)
//	switch {
//	case errors.Is(err, telemetry.ErrDisabled):
//	    // run without telemetry
//	case err != nil:
//	    return err
//	default:
//	    defer rec.Close()
//	    sess.SetRecorder(rec)
//	}
package telemetry
