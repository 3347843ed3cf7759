package survey

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	bolt "go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// Session is a named, persisted snapshot of a survey's measurement set, so a
// field walk can be saved and re-analyzed later.
type Session struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	SavedAt time.Time          `json:"saved_at"`
	Points  []MeasurementPoint `json:"points"`
}

// SessionStore persists survey sessions in a bbolt database.
type SessionStore struct {
	db     *bolt.DB
	logger *logx.Logger
}

// OpenSessionStore opens (or creates) the session database at path.
func OpenSessionStore(path string, logger *logx.Logger) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session bucket: %w", err)
	}

	logger.Info("Session store opened", "path", path)

	return &SessionStore{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (ss *SessionStore) Close() error {
	return ss.db.Close()
}

// Save stores a snapshot of the given points under a fresh session ID.
func (ss *SessionStore) Save(name string, points []MeasurementPoint) (*Session, error) {
	session := &Session{
		ID:      uuid.New().String(),
		Name:    name,
		SavedAt: time.Now(),
		Points:  points,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	err = ss.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(session.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	ss.logger.Info("Survey session saved",
		"session_id", session.ID,
		"name", name,
		"points", len(points))

	return session, nil
}

// Load retrieves a session by ID.
func (ss *SessionStore) Load(id string) (*Session, error) {
	var session Session
	err := ss.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(sessionBucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("session not found: %s", id)
		}
		return json.Unmarshal(data, &session)
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns all saved sessions, newest first, without their points.
func (ss *SessionStore) List() ([]*Session, error) {
	var sessions []*Session
	err := ss.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).ForEach(func(_, data []byte) error {
			var session Session
			if err := json.Unmarshal(data, &session); err != nil {
				return err
			}
			session.Points = nil
			sessions = append(sessions, &session)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SavedAt.After(sessions[j].SavedAt)
	})

	return sessions, nil
}

// Delete removes a session by ID. Deleting a missing session is not an error.
func (ss *SessionStore) Delete(id string) error {
	return ss.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(id))
	})
}
