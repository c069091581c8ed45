// Package journal persists property state across device restarts.
//
// The session saves a full snapshot after every successful publish. At
// boot, the host loads the snapshot into the property container before
// starting the session, so a device that restarts offline resumes from
// its last reported state rather than registration defaults.
//
// Storage is a single-table SQLite database, one row per property,
// values rendered as text alongside their kind. The schema is embedded
// and applied idempotently on open.
//
// # Usage
//
//	j, err := journal.Open(cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	if snap, err := j.Load(); err == nil {
//	    container.Restore(snap)
//	}
//	sess.SetStore(j) // snapshots saved on every publish
package journal
