// Package session tracks the single active login with dual expiry semantics:
// a 20-minute inactivity window enforced both by a periodic liveness tick and
// eagerly on every read, plus an absolute deadline fixed at login.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

type State int

const (
	NoSession State = iota
	Active
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "Active"
	case Expired:
		return "Expired"
	}
	return "NoSession"
}

// Session is the payload persisted under Config.SessionKey.
type Session struct {
	User      school.User `json:"user"`
	LoginTime time.Time   `json:"loginTime"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Auditor records security-relevant session events; *school.Store satisfies it.
type Auditor interface {
	RecordAudit(entry school.NewAuditLog) (school.AuditLog, error)
}

// InputEvents are the host user-input events that count as activity.
var InputEvents = []string{"mousedown", "keydown", "scroll", "touchstart", "click"}

// InputSource delivers host user-input events. The manager subscribes its
// activity callback exactly once per login and cancels it on logout.
type InputSource interface {
	Subscribe(events []string, fn func()) (cancel func())
}

// Manager is the session state machine. All state transitions take a single
// time sample, so the tick path and the read path cannot drift; the tick is
// purely a liveness mechanism for emitting the timeout signal.
type Manager struct {
	cfg     *core.Config
	storage core.Storage
	audit   Auditor
	input   InputSource // may be nil when the host emits no input events
	log     core.Logger

	mu           sync.Mutex
	state        State
	lastActivity time.Time // cache over the persisted activity key
	ticker       *time.Ticker
	done         chan struct{}
	unsubscribe  func()
	timeoutFns   []func()

	now func() time.Time // mockable
}

func NewManager(cfg *core.Config, storage core.Storage, audit Auditor, input InputSource, log core.Logger) *Manager {
	return &Manager{
		cfg:     cfg,
		storage: storage,
		audit:   audit,
		input:   input,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OnTimeout registers a handler fired when the periodic check expires the
// session; the presentation layer uses it to force a logout transition.
func (m *Manager) OnTimeout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeoutFns = append(m.timeoutFns, fn)
}

// Start transitions NoSession/Expired (or a replaced Active session) to
// Active: persists the session payload with an absolute expiry of now +
// SessionTimeout, refreshes activity and starts monitoring. Repeated calls do
// not double-register input observers.
func (m *Manager) Start(usr school.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sess := Session{User: usr, LoginTime: now, ExpiresAt: now.Add(m.cfg.SessionTimeout)}
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	if err = m.storage.Set(m.cfg.SessionKey, string(raw)); err != nil {
		return errors.Wrap(err, "writing session")
	}
	if err = m.writeActivityLocked(now); err != nil {
		return err
	}
	m.state = Active
	m.startMonitoringLocked()
	return nil
}

// Current returns the active session. Expiry is checked eagerly with a fresh
// time sample, so a stalled tick (eg. a suspended host) can never produce a
// stale "still active" answer.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, _ := m.evaluateLocked(m.now())
	if sess == nil {
		return Session{}, false
	}
	return *sess, true
}

// Touch refreshes the inactivity window while Active. It never extends the
// absolute expiry.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active {
		return
	}
	if err := m.writeActivityLocked(m.now()); err != nil {
		m.log.Error("recording session activity", err)
	}
}

// End transitions to NoSession: audits the logout when a live session exists,
// clears persisted state and tears down the tick and input observers. Safe to
// call in any state.
func (m *Manager) End() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if sess, _ := m.evaluateLocked(m.now()); sess != nil && m.audit != nil {
		_, err = m.audit.RecordAudit(school.NewAuditLog{
			UserID:     sess.User.ID,
			UserRole:   sess.User.Role,
			Action:     "logout",
			EntityType: "User",
			Details:    "User session ended",
		})
	}
	m.cleanupLocked(NoSession)
	return err
}

// CheckExpiry performs one expiry evaluation and fires the timeout handlers
// when a live session just expired. The periodic tick drives this; it exists
// only so the timeout signal is emitted without waiting for the next read.
func (m *Manager) CheckExpiry() bool {
	m.mu.Lock()
	_, expired := m.evaluateLocked(m.now())
	var fns []func()
	if expired {
		fns = append(fns, m.timeoutFns...)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return expired
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

func (m *Manager) CurrentUser() (school.User, bool) {
	sess, ok := m.Current()
	if !ok {
		return school.User{}, false
	}
	return sess.User, true
}

// RemainingTime reports how long until the inactivity window closes.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.lastActivityLocked()
	if last.IsZero() {
		return 0
	}
	if rem := m.cfg.SessionTimeout - m.now().Sub(last); rem > 0 {
		return rem
	}
	return 0
}

// evaluateLocked samples the persisted session once against `now`. A corrupt
// payload is treated as no session and triggers the same cleanup path. The
// bool reports whether a session just transitioned to Expired.
//
// A storage read fault degrades to "no session" for this call only: the state
// machine and persisted keys are left untouched, so a later healthy read
// recovers the session instead of losing it to a transient fault.
func (m *Manager) evaluateLocked(now time.Time) (*Session, bool) {
	raw, ok, err := m.storage.Get(m.cfg.SessionKey)
	if err != nil {
		m.log.Error("reading session", err)
		return nil, false
	}
	if !ok {
		if m.state == Active { // persisted state vanished under us
			m.cleanupLocked(NoSession)
		}
		return nil, false
	}

	var sess Session
	if err = json.Unmarshal([]byte(raw), &sess); err != nil {
		m.log.Warn("corrupt session payload, discarding", err)
		m.cleanupLocked(NoSession)
		return nil, false
	}
	if now.After(sess.ExpiresAt) || m.inactiveLocked(now) {
		m.cleanupLocked(Expired)
		return nil, true
	}
	return &sess, false
}

func (m *Manager) inactiveLocked(now time.Time) bool {
	last := m.lastActivityLocked()
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > m.cfg.SessionTimeout
}

func (m *Manager) lastActivityLocked() time.Time {
	if !m.lastActivity.IsZero() {
		return m.lastActivity
	}
	raw, ok, err := m.storage.Get(m.cfg.ActivityKey)
	if err != nil || !ok {
		return time.Time{}
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return last
}

func (m *Manager) writeActivityLocked(now time.Time) error {
	m.lastActivity = now
	return errors.Wrap(m.storage.Set(m.cfg.ActivityKey, now.Format(time.RFC3339)), "writing activity")
}

func (m *Manager) startMonitoringLocked() {
	// replace any running tick
	m.stopTickerLocked()
	m.ticker = time.NewTicker(m.cfg.SessionTick)
	m.done = make(chan struct{})
	go m.run(m.ticker, m.done)

	// subscribe observers only once across login cycles
	if m.input != nil && m.unsubscribe == nil {
		m.unsubscribe = m.input.Subscribe(InputEvents, m.Touch)
	}
}

func (m *Manager) run(ticker *time.Ticker, done chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if m.CheckExpiry() {
				m.log.Info("session expired after inactivity")
				return
			}
		}
	}
}

// cleanupLocked deterministically cancels the tick, unregisters the input
// observers and clears persisted state, preventing duplicate timers and
// listeners accumulating across login/logout cycles.
func (m *Manager) cleanupLocked(next State) {
	if err := m.storage.Delete(m.cfg.SessionKey); err != nil {
		m.log.Error("clearing session", err)
	}
	if err := m.storage.Delete(m.cfg.ActivityKey); err != nil {
		m.log.Error("clearing activity", err)
	}
	m.lastActivity = time.Time{}
	m.stopTickerLocked()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.state = next
}

func (m *Manager) stopTickerLocked() {
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.done)
		m.ticker = nil
		m.done = nil
	}
}
