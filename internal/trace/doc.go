// Package trace records what the stub builder and the indexer are doing.
//
// Enable it from the command line:
//
//	kstub index ./classes --trace=- --trace-level=detail
//
// # Tracers
//
//   - Nop: zero overhead when disabled
//   - StreamTracer: writes every event as it happens
//   - RingTracer: keeps the last N events for a dump after a failure
//   - MultiTracer: fans out to several tracers
//
// # Scopes
//
// Scopes order events from coarse to fine:
//
//   - ScopeDriver: one CLI command
//   - ScopePass: indexing phases (scan, build, collect)
//   - ScopeUnit: one metadata unit turned into a stub file
//   - ScopeDecl: one class or member inside a unit
//
// LevelPhase shows driver and pass events, LevelDetail adds units and
// LevelDebug adds declarations.
//
// # Context
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit:a/b/C", parentID)
//	defer span.End("")
package trace
