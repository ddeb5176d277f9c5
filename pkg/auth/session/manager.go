package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/ebookshop-backend/pkg/config"
	redisclient "github.com/angelmondragon/ebookshop-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// entry is what Redis holds per access id. Only a digest of the refresh
// token is kept.
type entry struct {
	AdminID  string    `json:"admin_id"`
	Digest   string    `json:"digest"`
	IssuedAt time.Time `json:"issued_at"`
}

func (e entry) matches(token string) bool {
	return subtle.ConstantTimeCompare([]byte(e.Digest), []byte(digest(token))) == 1
}

// Manager issues, rotates and revokes admin refresh sessions.
type Manager struct {
	store store
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Rotation is the outcome of a successful refresh.
type Rotation struct {
	AdminID      string
	AccessID     string
	RefreshToken string
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl, accessTTL := cfg.RefreshTokenTTL(), cfg.AccessTokenTTL()
	switch {
	case ttl <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case ttl <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, ttl: ttl, now: time.Now}, nil
}

// Generate opens a session for adminID under accessID and returns the
// plaintext refresh token. The token is never stored.
func (m *Manager) Generate(ctx context.Context, accessID, adminID string) (string, error) {
	if blank(accessID) {
		return "", errMissingAccessID
	}
	if blank(adminID) {
		return "", errors.New("admin id is required")
	}
	return m.open(ctx, accessID, adminID)
}

// Rotate trades a valid refresh token for a new session. The old session is
// consumed, so a token can be rotated at most once even under concurrency.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Rotation, error) {
	if blank(oldAccessID) || blank(provided) {
		return Rotation{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)

	current, raw, err := m.load(ctx, key)
	if err != nil {
		return Rotation{}, err
	}
	if !current.matches(provided) {
		return Rotation{}, ErrInvalidRefreshToken
	}

	// A concurrent rotation may have won between load and claim.
	claimed, err := m.store.GetDel(ctx, key)
	if err != nil {
		return Rotation{}, notFoundAsInvalid(err)
	}
	if claimed != raw {
		return Rotation{}, ErrInvalidRefreshToken
	}

	accessID := NewAccessID()
	token, err := m.open(ctx, accessID, current.AdminID)
	if err != nil {
		return Rotation{}, err
	}
	return Rotation{AdminID: current.AdminID, AccessID: accessID, RefreshToken: token}, nil
}

// Revoke ends the session tied to accessID. Unknown ids are not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errMissingAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errMissingAccessID
	}
	return m.store.Exists(ctx, m.store.AccessSessionKey(accessID))
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) open(ctx context.Context, accessID, adminID string) (string, error) {
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(entry{AdminID: adminID, Digest: digest(token), IssuedAt: m.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), payload, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) load(ctx context.Context, key string) (entry, string, error) {
	raw, err := m.store.Get(ctx, key)
	if err != nil {
		return entry{}, "", notFoundAsInvalid(err)
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Digest == "" {
		return entry{}, "", ErrInvalidRefreshToken
	}
	return e, raw, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func notFoundAsInvalid(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
