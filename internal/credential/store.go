package credential

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
)

// KV is the persistence port the store writes through. A zero ttl never
// expires.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// Credential is a signed, time-bounded token.
type Credential struct {
	// Token is the compact header.claims.signature form.
	Token     string
	Alg       string
	Claims    jwtx.Claims
	Signature []byte
}

func (c Credential) String() string { return c.Token }

func fromToken(t *jwtx.Token) Credential {
	return Credential{Token: t.Raw, Alg: t.Alg, Claims: t.Claims, Signature: t.Signature}
}

// Store holds at most one credential for one session, plus the identity of
// the key that issued it.
type Store struct {
	kv        KV
	sessionID string
	mu        sync.Locker
	now       func() time.Time
}

// NewStore returns a store scoped to sessionID. Two stores for the same
// session share data but not the slot lock; use Sessions when they must.
func NewStore(kv KV, sessionID string) (*Store, error) {
	return newStore(kv, sessionID, &sync.Mutex{})
}

func newStore(kv KV, sessionID string, mu sync.Locker) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || strings.Contains(sessionID, ":") {
		return nil, domain.Invalid("session_id", "must be non-empty and must not contain ':'")
	}
	if kv == nil {
		return nil, domain.Invalid("kv", "no key-value store")
	}
	return &Store{kv: kv, sessionID: sessionID, mu: mu, now: time.Now}, nil
}

func (s *Store) SessionID() string { return s.sessionID }

func (s *Store) credentialKey() string { return "session:" + s.sessionID + ":credential" }
func (s *Store) identityKey() string   { return "session:" + s.sessionID + ":identity" }

// Store overwrites the slot with c.
func (s *Store) Store(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, c, s.now())
}

// Get returns the stored credential. ok is false when the slot is empty.
func (s *Store) Get(ctx context.Context) (c Credential, ok bool, err error) {
	raw, ok, err := s.kv.Get(ctx, s.credentialKey())
	if err != nil || !ok {
		return Credential{}, false, err
	}
	tok, err := jwtx.Parse(raw)
	if err != nil {
		return Credential{}, false, fmt.Errorf("credential: stored value for session %s: %w", s.sessionID, err)
	}
	return fromToken(tok), true, nil
}

// Identity returns the key identity recorded with the last issued credential.
func (s *Store) Identity(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, s.identityKey())
}

// Clear empties the credential slot. Clearing an empty slot is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

// ClearAll removes everything recorded for the session.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.clear(ctx); err != nil {
		return err
	}
	return s.kv.Remove(ctx, s.identityKey())
}

func (s *Store) clear(ctx context.Context) error {
	return s.kv.Remove(ctx, s.credentialKey())
}

// put stores c with a ttl equal to its remaining lifetime at now.
func (s *Store) put(ctx context.Context, c Credential, now time.Time) error {
	if c.Token == "" {
		return domain.Invalid("credential", "empty")
	}
	ttl := c.Claims.ExpiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.kv.Set(ctx, s.credentialKey(), c.Token, ttl)
}

func (s *Store) putIdentity(ctx context.Context, identity string, ttl time.Duration) error {
	if identity == "" {
		return s.kv.Remove(ctx, s.identityKey())
	}
	return s.kv.Set(ctx, s.identityKey(), identity, ttl)
}

// Sessions hands out stores that share one slot lock per session, so
// concurrent issues for a session run one after another. A slot lock only
// exists while someone holds or waits for it.
type Sessions struct {
	kv KV

	mu    sync.Mutex
	slots map[string]*sessionSlot
}

type sessionSlot struct {
	mu   sync.Mutex
	refs int
}

func NewSessions(kv KV) *Sessions {
	return &Sessions{kv: kv, slots: make(map[string]*sessionSlot)}
}

// Open returns the store for sessionID.
func (s *Sessions) Open(sessionID string) (*Store, error) {
	id := strings.TrimSpace(sessionID)
	return newStore(s.kv, id, &sessionLock{sessions: s, id: id})
}

// Held reports how many session slot locks are currently held or awaited.
func (s *Sessions) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// sessionLock takes a reference on the session's slot for as long as it is
// held, and drops the slot when the last reference goes.
type sessionLock struct {
	sessions *Sessions
	id       string
}

func (l *sessionLock) Lock() {
	s := l.sessions
	s.mu.Lock()
	slot, ok := s.slots[l.id]
	if !ok {
		slot = &sessionSlot{}
		s.slots[l.id] = slot
	}
	slot.refs++
	s.mu.Unlock()

	slot.mu.Lock()
}

func (l *sessionLock) Unlock() {
	s := l.sessions
	s.mu.Lock()
	slot := s.slots[l.id]
	slot.refs--
	if slot.refs == 0 {
		delete(s.slots, l.id)
	}
	s.mu.Unlock()

	slot.mu.Unlock()
}
