// Package sync provides the offline-first reconciliation engine that
// keeps study analytics consistent between the local store and the
// remote document store. Local mutations are debounced into batched
// pushes, every remote read or write for a document runs on that
// document's FIFO chain, and merges are max/union based so repeated
// syncing converges without losing data.
package sync

import (
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/studypulse/backend/internal/logging"
	"github.com/studypulse/backend/internal/models"
	"github.com/studypulse/backend/internal/remote"
	"github.com/studypulse/backend/internal/sanitize"
	"github.com/studypulse/backend/internal/store"
	"github.com/studypulse/backend/internal/streak"
)

// Status is the coarse sync indicator reported to the UI. It never
// blocks mutations; the app stays fully usable offline.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// Config holds engine tuning knobs.
type Config struct {
	AnalyticsDebounce time.Duration // quiet period before an analytics push
	SettingsDebounce  time.Duration // shorter window; settings propagate with more urgency
	HydrateCooldown   time.Duration // minimum gap between resume-triggered hydrates
	SettingsGuard     time.Duration // window in which a recent local settings edit beats remote
	Clock             func() time.Time
}

// DefaultConfig returns the production engine configuration.
func DefaultConfig() *Config {
	return &Config{
		AnalyticsDebounce: 900 * time.Millisecond,
		SettingsDebounce:  750 * time.Millisecond,
		HydrateCooldown:   6 * time.Second,
		SettingsGuard:     90 * time.Second,
		Clock:             time.Now,
	}
}

// target tracks the debounce and coalescing state for one sync
// target. It is a small state machine:
// Idle -> Scheduled -> InFlight -> (Idle | InFlight with queued),
// where queued collapses any burst of mutations arriving mid-flight
// into exactly one trailing push.
type target struct {
	name     string
	debounce time.Duration
	path     func() string
	push     func()
	timer    *time.Timer
	inFlight bool
	queued   bool
}

// Engine owns all sync coordination state: debounce timers,
// in-flight flags, per-document FIFO queues, and snapshot listener
// registrations. Construct one per app session.
type Engine struct {
	store  *store.Store
	client remote.DocumentClient
	config *Config
	source string // instance id stamped into pushed docs to skip own echoes

	// stateMu serializes every local-store read-modify-write span.
	// Mutation calls run on caller goroutines while merge tasks run on
	// queue workers; without this a merge's save could overwrite
	// minutes a concurrent RecordSession just added.
	stateMu gosync.Mutex

	mu           gosync.Mutex
	uid          string
	status       Status
	onStatus     func(Status)
	lastHydrate  time.Time
	analytics    *target
	settings     *target
	queues       map[string]*docQueue
	unsubscribes []func()
}

// NewEngine creates a new Engine. A nil config uses DefaultConfig.
func NewEngine(st *store.Store, client remote.DocumentClient, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	e := &Engine{
		store:  st,
		client: client,
		config: config,
		source: uuid.New().String(),
		status: StatusIdle,
		queues: map[string]*docQueue{},
	}
	e.analytics = &target{
		name:     "analytics",
		debounce: config.AnalyticsDebounce,
		path:     e.analyticsPath,
		push:     e.pushAnalytics,
	}
	e.settings = &target{
		name:     "settings",
		debounce: config.SettingsDebounce,
		path:     e.settingsPath,
		push:     e.pushSettings,
	}
	return e
}

// now returns the engine clock time.
func (e *Engine) now() time.Time {
	return e.config.Clock()
}

// Status returns the current sync indicator.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// SetStatusListener registers a callback invoked on every indicator
// change. The UI shows it as a passive status line.
func (e *Engine) SetStatusListener(fn func(Status)) {
	e.mu.Lock()
	e.onStatus = fn
	e.mu.Unlock()
}

// setStatus updates the indicator and notifies the listener.
func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	changed := e.status != s
	e.status = s
	fn := e.onStatus
	e.mu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

// LastSyncAt returns the last successful sync time, or the zero time.
func (e *Engine) LastSyncAt() time.Time {
	return e.store.LastSyncAt()
}

// currentUID returns the signed-in uid, or "".
func (e *Engine) currentUID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uid
}

func (e *Engine) analyticsPath() string {
	uid := e.currentUID()
	if uid == "" {
		return ""
	}
	return remote.AnalyticsDocPath(uid)
}

func (e *Engine) settingsPath() string {
	uid := e.currentUID()
	if uid == "" {
		return ""
	}
	return remote.SettingsDocPath(uid)
}

// queueFor returns the FIFO chain for a document path.
func (e *Engine) queueFor(path string) *docQueue {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[path]
	if !ok {
		q = newDocQueue()
		e.queues[path] = q
	}
	return q
}

// SignIn binds the engine to a user, hydrates both remote documents,
// and subscribes to their snapshot streams.
func (e *Engine) SignIn(uid string) {
	e.mu.Lock()
	e.uid = uid
	e.lastHydrate = time.Time{}
	e.mu.Unlock()

	e.store.SetLastSyncedUID(uid)
	logging.Info("Sync engine signed in", map[string]interface{}{"uid": uid})

	e.hydrate("login")
	e.subscribe()
}

// SignOut detaches the engine from the current user. Local data is
// left in place; account deletion is handled elsewhere.
func (e *Engine) SignOut() {
	e.mu.Lock()
	e.uid = ""
	unsubs := e.unsubscribes
	e.unsubscribes = nil
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	e.setStatus(StatusIdle)
}

// subscribe attaches snapshot listeners for both documents so pushes
// from other devices land without waiting for the next hydrate.
func (e *Engine) subscribe() {
	analyticsPath := e.analyticsPath()
	settingsPath := e.settingsPath()
	if analyticsPath == "" {
		return
	}

	unsubAnalytics, err := e.client.Subscribe(analyticsPath, e.onAnalyticsSnapshot, e.onSubscribeError)
	if err != nil {
		logging.Warn("Analytics subscribe failed", map[string]interface{}{
			"doc":   analyticsPath,
			"error": err.Error(),
		})
	}
	unsubSettings, err := e.client.Subscribe(settingsPath, e.onSettingsSnapshot, e.onSubscribeError)
	if err != nil {
		logging.Warn("Settings subscribe failed", map[string]interface{}{
			"doc":   settingsPath,
			"error": err.Error(),
		})
	}

	e.mu.Lock()
	if unsubAnalytics != nil {
		e.unsubscribes = append(e.unsubscribes, unsubAnalytics)
	}
	if unsubSettings != nil {
		e.unsubscribes = append(e.unsubscribes, unsubSettings)
	}
	e.mu.Unlock()
}

func (e *Engine) onSubscribeError(err error) {
	logging.Error("Snapshot listener failed", err)
	e.setStatus(StatusError)
}

// RecordSession records a completed study block: study log, tag log,
// session history, and achievements all update in one synchronous
// read-modify-write pass, then an analytics push is scheduled.
func (e *Engine) RecordSession(minutes float64, tag, review string) (models.SessionEntry, bool) {
	minutes = sanitize.Round2(minutes)
	tag = strings.TrimSpace(tag)
	if minutes <= 0 || tag == "" {
		return models.SessionEntry{}, false
	}

	now := e.now()
	entry := models.SessionEntry{
		ID:        uuid.New().String(),
		Timestamp: now.Format(time.RFC3339),
		Minutes:   minutes,
		Tag:       tag,
	}
	if models.IsValidReview(review) {
		entry.Review = review
	}

	day := models.DayKey(now)

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	log := e.store.LoadStudyLog()
	log[day] = sanitize.Round2(log[day] + minutes)
	e.store.SaveStudyLog(log)

	tags := e.store.LoadTagLog()
	dayTags, ok := tags[day]
	if !ok {
		dayTags = map[string]float64{}
		tags[day] = dayTags
	}
	dayTags[tag] = sanitize.Round2(dayTags[tag] + minutes)
	e.store.SaveTagLog(tags)

	history := sanitize.Sessions(append(e.store.LoadSessionHistory(), entry))
	e.store.SaveSessionHistory(history)

	e.refreshAchievements(log, history, now)
	e.NotifyAnalyticsChanged()

	return entry, true
}

// ReviewSession attaches a focus review to a recorded session.
func (e *Engine) ReviewSession(id, review string) bool {
	if !models.IsValidReview(review) || review == models.ReviewNone {
		return false
	}
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	history := e.store.LoadSessionHistory()
	for i := range history {
		if history[i].ID == id {
			history[i].Review = review
			e.store.SaveSessionHistory(history)
			e.NotifyAnalyticsChanged()
			return true
		}
	}
	return false
}

// refreshAchievements derives stats and unlocks any newly earned
// achievements. Unlocking is monotonic; nothing is ever revoked.
func (e *Engine) refreshAchievements(log models.StudyLog, history []models.SessionEntry, now time.Time) {
	stats := streak.Collect(log, history, now)
	have := e.store.LoadAchievements()
	updated, newly := streak.CheckUnlocks(stats, have, now)
	if len(newly) == 0 {
		return
	}
	e.store.SaveAchievements(updated)
	logging.Info("Achievements unlocked", map[string]interface{}{"ids": newly})
}

// UpdatePreferences clamps and persists a settings submission, then
// schedules a settings push. The mutation marker feeds the
// preference conflict guard.
func (e *Engine) UpdatePreferences(p models.Preferences) models.Preferences {
	clamped := sanitize.ClampPreferences(p)

	e.stateMu.Lock()
	e.store.SavePreferences(clamped)
	e.store.TouchSettingsMutation(e.now())
	e.stateMu.Unlock()

	e.NotifySettingsChanged()
	return clamped
}

// NotifyAnalyticsChanged schedules a debounced analytics push.
// Repeated calls within the window reset the timer.
func (e *Engine) NotifyAnalyticsChanged() {
	e.schedule(e.analytics)
}

// NotifySettingsChanged schedules a debounced settings push.
func (e *Engine) NotifySettingsChanged() {
	e.schedule(e.settings)
}

// schedule arms (or re-arms) a target's debounce timer.
func (e *Engine) schedule(t *target) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.debounce, func() { e.requestPush(t) })
}

// requestPush moves a target to InFlight, or marks it queued when a
// push is already running so exactly one trailing push follows.
func (e *Engine) requestPush(t *target) {
	path := t.path()
	if path == "" {
		e.mu.Lock()
		t.timer = nil
		t.queued = false
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	t.timer = nil
	if t.inFlight {
		t.queued = true
		e.mu.Unlock()
		return
	}
	t.inFlight = true
	e.mu.Unlock()

	e.queueFor(path).Enqueue(func() {
		t.push()
		e.finishPush(t)
	})
}

// finishPush clears the in-flight flag and fires the single trailing
// push if mutations arrived mid-flight.
func (e *Engine) finishPush(t *target) {
	e.mu.Lock()
	t.inFlight = false
	requeue := t.queued
	t.queued = false
	e.mu.Unlock()

	if requeue {
		e.requestPush(t)
	}
}

// HandleResume reacts to the app regaining foreground or visibility.
// A hydrate runs unless one happened within the cooldown window.
func (e *Engine) HandleResume() {
	e.hydrate("resume")
}

// HandleOnline reacts to connectivity returning. Failed syncs retry
// here; retries are event-driven, never timer-driven.
func (e *Engine) HandleOnline() {
	e.hydrate("online")
}

// hydrate enqueues a pull-merge-writeback pass for both documents.
func (e *Engine) hydrate(trigger string) {
	analyticsPath := e.analyticsPath()
	settingsPath := e.settingsPath()
	if analyticsPath == "" {
		return
	}

	e.mu.Lock()
	now := e.now()
	if trigger != "login" && !e.lastHydrate.IsZero() && now.Sub(e.lastHydrate) < e.config.HydrateCooldown {
		e.mu.Unlock()
		return
	}
	e.lastHydrate = now
	e.mu.Unlock()

	logging.Debug("Hydrate scheduled", map[string]interface{}{"trigger": trigger})
	e.queueFor(analyticsPath).Enqueue(e.hydrateAnalytics)
	e.queueFor(settingsPath).Enqueue(e.hydrateSettings)
}

// Flush fires any pending debounce timers immediately and waits for
// every queued operation to finish. Shutdown and test helper.
func (e *Engine) Flush() {
	e.firePending(e.analytics)
	e.firePending(e.settings)
	e.waitQueues()
}

// firePending collapses a Scheduled target straight to a push.
func (e *Engine) firePending(t *target) {
	e.mu.Lock()
	timer := t.timer
	t.timer = nil
	e.mu.Unlock()

	if timer != nil && timer.Stop() {
		e.requestPush(t)
	}
}

// waitQueues blocks until all known document queues drain.
func (e *Engine) waitQueues() {
	e.mu.Lock()
	queues := make([]*docQueue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.Unlock()

	for _, q := range queues {
		q.Wait()
	}
}

// Close stops timers, detaches listeners, and drains in-flight work.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.analytics.timer != nil {
		e.analytics.timer.Stop()
		e.analytics.timer = nil
	}
	if e.settings.timer != nil {
		e.settings.timer.Stop()
		e.settings.timer = nil
	}
	unsubs := e.unsubscribes
	e.unsubscribes = nil
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	e.waitQueues()
}
