// Package session owns the signed-in state of a browser: the backend token,
// the role and the pending notifications. It is the only writer of that
// state and tells interested parties when the role changes or the session
// ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-booking-web/internal/auth"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/store"
)

const CookieName = "booking_session"

var (
	ErrNoSession = errors.New("no session")
	ErrBadCookie = errors.New("bad session cookie")
)

type EventKind int

const (
	RoleChanged EventKind = iota + 1
	Ended
)

func (k EventKind) String() string {
	switch k {
	case RoleChanged:
		return "role_changed"
	case Ended:
		return "ended"
	}
	return "unknown"
}

type Event struct {
	Kind EventKind
	Role model.Role
}

type Options struct {
	TTL    time.Duration
	Secure bool
}

type Manager struct {
	store  store.Store
	key    []byte
	ttl    time.Duration
	secure bool

	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}

	// writes to one session run one at a time
	lmu   sync.Mutex
	locks map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(st store.Store, key []byte, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{
		store:  st,
		key:    key,
		ttl:    opts.TTL,
		secure: opts.Secure,
		subs:   make(map[string]map[chan Event]struct{}),
		locks:  make(map[string]*idLock),
	}
}

// Load resolves the request cookie to a stored session.
func (m *Manager) Load(r *http.Request) (*model.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	claims, err := auth.ParseToken(c.Value, m.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCookie, err)
	}
	s, err := m.store.Get(r.Context(), claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	return s, err
}

// Begin records a fresh session for a successful backend login and sets
// the cookie.
func (m *Manager) Begin(ctx context.Context, w http.ResponseWriter, token string, u model.User) (*model.Session, error) {
	role, err := model.ParseRole(string(u.Role))
	if err != nil {
		return nil, err
	}
	csrf, err := auth.GenerateCSRF()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &model.Session{
		ID:        uuid.New().String(),
		Token:     token,
		Role:      role,
		UserID:    u.ID.String(),
		Email:     u.Email,
		Active:    bool(u.Active),
		CSRF:      csrf,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	value, err := auth.MakeToken(s.ID, m.key, m.ttl)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, m.cookie(value, int(m.ttl.Seconds())))
	return s, nil
}

// Current reads the role held by a session id.
func (m *Manager) Current(ctx context.Context, id string) (model.Role, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Role, nil
}

func (m *Manager) lock(id string) func() {
	m.lmu.Lock()
	l := m.locks[id]
	if l == nil {
		l = &idLock{}
		m.locks[id] = l
	}
	l.refs++
	m.lmu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.lmu.Lock()
		if l.refs--; l.refs == 0 {
			delete(m.locks, id)
		}
		m.lmu.Unlock()
	}
}

// update applies fn to the stored record, not to the request's snapshot,
// and saves it when fn reports a change. s is refreshed from the result.
func (m *Manager) update(ctx context.Context, s *model.Session, fn func(cur *model.Session) bool) error {
	unlock := m.lock(s.ID)
	defer unlock()

	cur, err := m.store.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if fn(cur) {
		if err := m.store.Put(ctx, cur); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	*s = *cur
	return nil
}

// SetRole persists a new role and notifies subscribers when it differs.
func (m *Manager) SetRole(ctx context.Context, s *model.Session, role model.Role) error {
	changed := false
	err := m.update(ctx, s, func(cur *model.Session) bool {
		changed = cur.Role != role
		cur.Role = role
		return changed
	})
	if err != nil {
		return err
	}
	if changed {
		m.publish(s.ID, Event{Kind: RoleChanged, Role: role})
	}
	return nil
}

// End forgets the session, clears the cookie and notifies subscribers.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, s *model.Session) error {
	http.SetCookie(w, m.cookie("", -1))
	if s == nil {
		return nil
	}
	err := m.store.Delete(ctx, s.ID)
	m.publish(s.ID, Event{Kind: Ended})
	return err
}

func (m *Manager) Flash(ctx context.Context, s *model.Session, level model.FlashLevel, msg string) {
	if s == nil {
		return
	}
	err := m.update(ctx, s, func(cur *model.Session) bool {
		cur.Flashes = append(cur.Flashes, model.Flash{Level: level, Message: msg})
		return true
	})
	if err != nil {
		log.Printf("flash: %v", err)
	}
}

// TakeFlashes returns and clears pending notifications.
func (m *Manager) TakeFlashes(ctx context.Context, s *model.Session) []model.Flash {
	if s == nil {
		return nil
	}
	var out []model.Flash
	err := m.update(ctx, s, func(cur *model.Session) bool {
		out, cur.Flashes = cur.Flashes, nil
		return len(out) > 0
	})
	if err != nil {
		log.Printf("flash: %v", err)
		return nil
	}
	return out
}

// Subscribe registers for events of one session. The returned cancel
// func must be called once the caller stops reading.
func (m *Manager) Subscribe(id string) (<-chan Event, func()) {
	ch := make(chan Event, 8)
	m.mu.Lock()
	if m.subs[id] == nil {
		m.subs[id] = make(map[chan Event]struct{})
	}
	m.subs[id][ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if set := m.subs[id]; set != nil {
				delete(set, ch)
				if len(set) == 0 {
					delete(m.subs, id)
				}
			}
			close(ch)
		})
	}
}

// publish never blocks; a subscriber with a full buffer misses the event.
func (m *Manager) publish(id string, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs[id] {
		select {
		case ch <- ev:
		default:
			log.Printf("session %s: subscriber lagging, dropped %s", id, ev.Kind)
		}
	}
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
