// Package index builds stubs for every unit of a metadata repository.
package index

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kstub/internal/metadata"
	"kstub/internal/names"
	"kstub/internal/observ"
	"kstub/internal/stubbuilder"
	"kstub/internal/stubs"
	"kstub/internal/trace"
)

// Options configures Run.
type Options struct {
	Jobs int // <= 0 means GOMAXPROCS
	Sink ProgressSink
}

// Plan splits repository keys into units built on their own and nested
// classes that are built as part of their outermost class.
type Plan struct {
	Roots  []names.ClassID
	Nested []names.ClassID
}

// NewPlan lists repo and groups its keys.
func NewPlan(repo metadata.Repository) (Plan, error) {
	keys, err := repo.Keys()
	if err != nil {
		return Plan{}, fmt.Errorf("list units: %w", err)
	}
	present := make(map[names.ClassID]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}
	var p Plan
	for _, k := range keys {
		if k.IsNested() {
			if _, ok := present[k.Outermost()]; ok {
				p.Nested = append(p.Nested, k)
				continue
			}
		}
		p.Roots = append(p.Roots, k)
	}
	return p, nil
}

// UnitResult is the outcome of one root unit.
type UnitResult struct {
	Key     names.ClassID
	File    *stubs.File
	Err     error
	Elapsed time.Duration
}

// Result holds everything built by Run. Lookups are safe while Run is
// still adding files.
type Result struct {
	Units   []UnitResult
	Nested  int
	Timings observ.Report

	mu    sync.RWMutex
	files map[names.FqName]*stubs.File
	decls map[names.FqName][]*stubs.Stub
}

func newResult(n int) *Result {
	return &Result{
		Units: make([]UnitResult, n),
		files: make(map[names.FqName]*stubs.File, n),
		decls: make(map[names.FqName][]*stubs.Stub, n*4),
	}
}

func (r *Result) add(f *stubs.File) {
	all := f.AllDeclarations()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.Key.FqName()] = f
	for _, d := range all {
		r.decls[d.FqName] = append(r.decls[d.FqName], d)
	}
}

// FileFor returns the file built for the compiled class container.
func (r *Result) FileFor(container names.FqName) (*stubs.File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[container]
	return f, ok
}

// Lookup returns every declaration stub recorded under fq.
func (r *Result) Lookup(fq names.FqName) []*stubs.Stub {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.decls[fq]
}

// Declarations returns the number of distinct declaration names.
func (r *Result) Declarations() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decls)
}

// Failed returns the units that did not build, in key order.
func (r *Result) Failed() []UnitResult {
	var out []UnitResult
	for _, u := range r.Units {
		if u.Err != nil {
			out = append(out, u)
		}
	}
	return out
}

// Run builds every root unit of repo in parallel. A unit that fails is
// recorded in its UnitResult and does not stop the others; only
// cancellation of ctx makes Run itself fail.
func Run(ctx context.Context, repo metadata.Repository, b *stubbuilder.Builder, opts Options) (*Result, error) {
	timer := observ.NewTimer()

	scan := timer.Begin("scan")
	_, span := trace.BeginCtx(ctx, trace.ScopePass, "scan")
	plan, err := NewPlan(repo)
	span.End("")
	if err != nil {
		return nil, err
	}
	timer.End(scan, fmt.Sprintf("%d units, %d nested", len(plan.Roots), len(plan.Nested)))

	res := newResult(len(plan.Roots))
	res.Nested = len(plan.Nested)
	emit := func(ev Event) {
		if opts.Sink != nil {
			opts.Sink.OnEvent(ev)
		}
	}
	for i, key := range plan.Roots {
		res.Units[i].Key = key
		emit(Event{Unit: key.String(), Stage: StageLoad, Status: StatusQueued})
	}

	build := timer.Begin("build")
	bctx, span := trace.BeginCtx(ctx, trace.ScopePass, "build")
	err = buildAll(bctx, repo, b, plan.Roots, res, opts, emit)
	span.End("")
	if err != nil {
		return nil, err
	}
	timer.End(build, fmt.Sprintf("%d failed", len(res.Failed())))

	res.Timings = timer.Report()
	emit(Event{Stage: StageBuild, Status: StatusDone})
	return res, nil
}

func buildAll(ctx context.Context, repo metadata.Repository, b *stubbuilder.Builder, keys []names.ClassID, res *Result, opts Options, emit func(Event)) error {
	if len(keys) == 0 {
		return nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(keys)))
	for i, key := range keys {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			unit := key.String()

			emit(Event{Unit: unit, Stage: StageLoad, Status: StatusWorking})
			u, err := repo.Load(key)
			if err == nil {
				emit(Event{Unit: unit, Stage: StageBuild, Status: StatusWorking})
				var f *stubs.File
				if f, err = b.BuildUnit(gctx, u); err == nil {
					res.add(f)
					res.Units[i].File = f
				}
			}
			// each goroutine owns its slot, no lock needed
			res.Units[i].Err = err
			res.Units[i].Elapsed = time.Since(start)
			status := StatusDone
			if err != nil {
				status = StatusError
			}
			emit(Event{Unit: unit, Stage: StageBuild, Status: status, Err: err, Elapsed: res.Units[i].Elapsed})
			return nil
		})
	}
	return g.Wait()
}

// SortedFailures formats failures for display.
func SortedFailures(r *Result) []string {
	failed := r.Failed()
	out := make([]string, len(failed))
	for i, u := range failed {
		out[i] = fmt.Sprintf("%s: %v", u.Key, u.Err)
	}
	sort.Strings(out)
	return out
}
