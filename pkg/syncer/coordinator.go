package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sweetbox/pkg/clock"
	"sweetbox/pkg/engine"
	"sweetbox/pkg/models"
)

const batchConcurrency = 8

// DefaultDebounce is the quiet period after the last mutation before a push.
const DefaultDebounce = 500 * time.Millisecond

// DefaultRetry is the first delay before failed changes are pushed again.
// It doubles after every failed flush, up to maxRetry.
const DefaultRetry = 5 * time.Second

const maxRetry = 2 * time.Minute

// SyncFailure is a failed round trip. It is a warning: local state stays
// authoritative until the next successful push or reload.
type SyncFailure struct {
	Op   string
	Kind engine.EntityKind
	ID   string
	Err  error
}

func (e *SyncFailure) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("sync %s %s/%s: %v", e.Op, e.Kind, e.ID, e.Err)
	case e.Kind != "":
		return fmt.Sprintf("sync %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncFailure) Unwrap() error {
	return e.Err
}

type changeKey struct {
	kind engine.EntityKind
	id   string
}

// Coordinator keeps the remote store in step with an engine.
type Coordinator struct {
	eng       *engine.Engine
	remote    Remote
	cache     *Cache
	clock     clock.Clock
	window    time.Duration
	retry     time.Duration
	log       *zap.Logger
	onWarning func(error)

	mu       sync.Mutex
	pending  map[changeKey]engine.Op
	order    []changeKey
	timer    clock.Timer
	backoff  time.Duration
	closed   bool
	lastSync time.Time

	flushMu sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCache sets the roster cache.
func WithCache(c *Cache) Option {
	return func(co *Coordinator) { co.cache = c }
}

// WithClock sets the clock driving the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(co *Coordinator) {
		if d > 0 {
			co.window = d
		}
	}
}

// WithRetry sets the first retry delay after a failed flush.
func WithRetry(d time.Duration) Option {
	return func(co *Coordinator) {
		if d > 0 {
			co.retry = d
		}
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(l *zap.Logger) Option {
	return func(co *Coordinator) {
		if l != nil {
			co.log = l
		}
	}
}

// OnWarning registers the sink for non-fatal sync failures.
func OnWarning(fn func(error)) Option {
	return func(co *Coordinator) { co.onWarning = fn }
}

// New creates a coordinator and subscribes it to every engine mutation.
func New(eng *engine.Engine, remote Remote, opts ...Option) *Coordinator {
	c := &Coordinator{
		eng:     eng,
		remote:  remote,
		clock:   clock.Real(),
		window:  DefaultDebounce,
		retry:   DefaultRetry,
		log:     zap.NewNop(),
		pending: make(map[changeKey]engine.Op),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.backoff = c.retry
	eng.Subscribe(c.MarkDirty)
	return c
}

func (c *Coordinator) warn(err error) {
	c.log.Warn("sync warning", zap.Error(err))
	if c.onWarning != nil {
		c.onWarning(err)
	}
}

// Load fetches the full snapshot and replaces the engine state with it.
// When the backend is unreachable the cached roster is loaded instead and
// a warning is published; Load fails only if neither source is available.
func (c *Coordinator) Load(ctx context.Context) error {
	snap, err := c.remote.FetchState(ctx)
	if err != nil {
		failure := &SyncFailure{Op: "fetch", Err: err}
		c.warn(failure)
		if c.cache == nil {
			return failure
		}
		entry, cerr := c.cache.Load()
		if cerr != nil {
			return errors.Join(failure, cerr)
		}
		c.eng.Load(models.Snapshot{Users: entry.Users})
		c.mu.Lock()
		c.lastSync = entry.LastSync
		c.mu.Unlock()
		c.log.Info("roster loaded from cache", zap.Int("users", len(entry.Users)))
		return nil
	}

	c.eng.Load(snap)
	now := c.clock.Now()
	c.mu.Lock()
	c.pending = make(map[changeKey]engine.Op)
	c.order = nil
	c.lastSync = now
	c.mu.Unlock()
	c.saveCache(snap.Users, now)
	return nil
}

func (c *Coordinator) saveCache(users []models.User, at time.Time) {
	if c.cache == nil {
		return
	}
	entry, err := c.cache.Load()
	if err != nil {
		c.log.Warn("roster cache unreadable, rewriting", zap.Error(err))
	}
	entry.Users = users
	entry.LastSync = at
	if err := c.cache.Save(entry); err != nil {
		c.log.Warn("failed to write roster cache", zap.Error(err))
	}
}

// MarkDirty records a change and restarts the debounce window.
func (c *Coordinator) MarkDirty(ch engine.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(changeKey{ch.Kind, ch.ID}, ch.Op)
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.window, func() {
		_ = c.Flush(context.Background())
	})
}

// record must run under mu.
func (c *Coordinator) record(k changeKey, op engine.Op) {
	if _, ok := c.pending[k]; !ok {
		c.order = append(c.order, k)
	}
	c.pending[k] = op
}

type pendingChange struct {
	key changeKey
	op  engine.Op
}

func (c *Coordinator) take() []pendingChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	out := make([]pendingChange, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, pendingChange{key: k, op: c.pending[k]})
	}
	c.pending = make(map[changeKey]engine.Op)
	c.order = nil
	return out
}

// requeue puts failed changes back unless a newer change superseded them,
// and arms a retry unless a mutation already restarted the debounce.
func (c *Coordinator) requeue(failed []pendingChange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(failed) == 0 {
		c.backoff = c.retry
		return
	}
	for _, f := range failed {
		if _, newer := c.pending[f.key]; !newer {
			c.record(f.key, f.op)
		}
	}
	if c.closed || c.timer != nil {
		return
	}
	c.log.Debug("sync retry scheduled", zap.Duration("in", c.backoff), zap.Int("changes", len(failed)))
	c.timer = c.clock.AfterFunc(c.backoff, func() {
		_ = c.Flush(context.Background())
	})
	c.backoff *= 2
	if c.backoff > maxRetry {
		c.backoff = maxRetry
	}
}

// Pending returns the number of unsynced records.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// LastSync returns the time of the last successful load or push.
func (c *Coordinator) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// Flush writes every pending change now. Records with an entity endpoint
// go one by one; the rest, and upserts whose endpoint turns out to be
// missing, ride a single bulk push. The bulk push never deletes, so a
// removal whose endpoint is missing fails and is requeued. Derived kinds
// without an endpoint are rebuilt by the backend and always ride the push.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	batch := c.take()
	if len(batch) == 0 {
		return nil
	}

	var (
		failed  []pendingChange
		viaBulk []pendingChange
		errs    []error
	)
	for _, ch := range batch {
		if _, ok := Endpoint(ch.key.kind); !ok {
			viaBulk = append(viaBulk, ch)
			continue
		}
		err := c.write(ctx, ch)
		switch {
		case err == nil:
		case errors.Is(err, ErrEndpointMissing) && c.removed(ch):
			failed = append(failed, ch)
			failure := &SyncFailure{Op: "delete", Kind: ch.key.kind, ID: ch.key.id, Err: err}
			errs = append(errs, failure)
			c.warn(failure)
		case errors.Is(err, ErrEndpointMissing):
			c.log.Debug("entity endpoint missing, falling back to bulk push",
				zap.String("kind", string(ch.key.kind)), zap.String("id", ch.key.id))
			viaBulk = append(viaBulk, ch)
		default:
			failed = append(failed, ch)
			failure := &SyncFailure{Op: opName(ch.op), Kind: ch.key.kind, ID: ch.key.id, Err: err}
			errs = append(errs, failure)
			c.warn(failure)
		}
	}

	if len(viaBulk) > 0 {
		if err := c.remote.PushState(ctx, c.eng.Snapshot()); err != nil {
			failed = append(failed, viaBulk...)
			failure := &SyncFailure{Op: "push", Err: err}
			errs = append(errs, failure)
			c.warn(failure)
		}
	}

	c.requeue(failed)
	if len(failed) < len(batch) {
		c.mu.Lock()
		c.lastSync = c.clock.Now()
		c.mu.Unlock()
	}
	c.log.Debug("flush complete",
		zap.Int("changes", len(batch)),
		zap.Int("bulk", len(viaBulk)),
		zap.Int("failed", len(failed)))
	return errors.Join(errs...)
}

func opName(op engine.Op) string {
	if op == engine.OpDelete {
		return "delete"
	}
	return "put"
}

// removed reports whether the change is a removal on the remote side.
func (c *Coordinator) removed(ch pendingChange) bool {
	if ch.op == engine.OpDelete {
		return true
	}
	_, ok := c.eng.Lookup(ch.key.kind, ch.key.id)
	return !ok
}

func (c *Coordinator) write(ctx context.Context, ch pendingChange) error {
	if ch.op == engine.OpDelete {
		return c.remote.Delete(ctx, ch.key.kind, ch.key.id)
	}
	rec, ok := c.eng.Lookup(ch.key.kind, ch.key.id)
	if !ok {
		// removed after it was marked; the removal wins
		return c.remote.Delete(ctx, ch.key.kind, ch.key.id)
	}
	return c.remote.Put(ctx, ch.key.kind, ch.key.id, rec)
}

// Close cancels the pending debounce and flushes immediately.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	err := c.Flush(ctx)
	if err == nil && c.cache != nil {
		c.saveCache(c.eng.Users(), c.LastSync())
	}
	return err
}

// BatchResult reports a batch operation. Failed members are left untouched locally.
type BatchResult struct {
	Attempted int
	Succeeded int
	Failed    []string
}

func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d batch members failed", len(r.Failed), r.Attempted)
}

// ArchiveBatch archives every active usage log of a batch.
func (c *Coordinator) ArchiveBatch(ctx context.Context, batchID, actor string) (BatchResult, error) {
	var members []models.InventoryUsageLog
	for _, l := range c.eng.Inventory.UsageBatch(batchID) {
		if !l.Archived {
			members = append(members, l)
		}
	}
	now := c.eng.Now()
	return c.runBatch(ctx, "archive", members,
		func(ctx context.Context, l models.InventoryUsageLog) error {
			l.Archived = true
			l.ArchivedAt = &now
			if actor != "" {
				l.ArchivedBy = &actor
			}
			return c.remote.Put(ctx, engine.KindUsageLogs, l.ID, l)
		},
		func(id string) error {
			return c.eng.Archive.Archive(engine.KindUsageLogs, id, actor)
		})
}

// RestoreBatch restores every archived usage log of a batch.
func (c *Coordinator) RestoreBatch(ctx context.Context, batchID string) (BatchResult, error) {
	var members []models.InventoryUsageLog
	for _, l := range c.eng.Inventory.UsageBatch(batchID) {
		if l.Archived {
			members = append(members, l)
		}
	}
	return c.runBatch(ctx, "restore", members,
		func(ctx context.Context, l models.InventoryUsageLog) error {
			l.ArchiveInfo = models.ArchiveInfo{}
			return c.remote.Put(ctx, engine.KindUsageLogs, l.ID, l)
		},
		func(id string) error {
			return c.eng.Archive.Restore(engine.KindUsageLogs, id)
		})
}

// DeleteBatch permanently deletes every member of a batch.
func (c *Coordinator) DeleteBatch(ctx context.Context, batchID string, confirmed bool) (BatchResult, error) {
	if !confirmed {
		return BatchResult{}, engine.ErrConfirmationRequired
	}
	return c.runBatch(ctx, "delete", c.eng.Inventory.UsageBatch(batchID),
		func(ctx context.Context, l models.InventoryUsageLog) error {
			return c.remote.Delete(ctx, engine.KindUsageLogs, l.ID)
		},
		func(id string) error {
			return c.eng.Archive.PermanentDelete(engine.KindUsageLogs, id, true)
		})
}

// runBatch issues one remote call per member concurrently, then applies
// locally only the members the backend accepted.
func (c *Coordinator) runBatch(
	ctx context.Context,
	op string,
	members []models.InventoryUsageLog,
	remote func(context.Context, models.InventoryUsageLog) error,
	apply func(id string) error,
) (BatchResult, error) {
	res := BatchResult{Attempted: len(members)}
	if len(members) == 0 {
		return res, nil
	}

	results := make([]error, len(members))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			// a failed member must not cancel its siblings
			results[i] = remote(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	for i, m := range members {
		err := results[i]
		if errors.Is(err, ErrEndpointMissing) {
			err = fmt.Errorf("%s unsupported by backend: %w", op, err)
		}
		if err == nil {
			err = apply(m.ID)
		}
		if err != nil {
			res.Failed = append(res.Failed, m.ID)
			c.warn(&SyncFailure{Op: op, Kind: engine.KindUsageLogs, ID: m.ID, Err: err})
			continue
		}
		res.Succeeded++
	}
	c.log.Info("batch complete",
		zap.String("op", op),
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded))
	return res, res.Err()
}
