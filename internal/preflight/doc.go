// Package preflight is the validation engine: checks, groups, results and
// the order in which they run.
//
// A run has two phases. Preconditions run first, in registration order, and
// the first one that aborts ends the run with a fatal report. Standard checks
// run next; a failing or panicking check becomes a FAIL result and the run
// continues with the next check.
//
//	reg := preflight.NewRegistry()
//	reg.MustRegister(preflight.Precondition("config.exists", checkConfig))
//	reg.MustRegister(preflight.Standard("disk.free", []string{"disk"}, checkDisk))
//
//	engine := preflight.NewEngine(preflight.WithLogger(logger))
//	report := engine.Run(ctx, reg, env, preflight.Options{Groups: []string{"disk"}})
//	if report.State == preflight.StatePreconditionsFailed {
//	    // report.Fatal describes the abort
//	}
package preflight
