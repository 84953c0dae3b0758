//go:generate go run go.uber.org/mock/mockgen -source=session_repository.go -destination=../../mocks/mock_session_repository.go -package=mocks
package storage

import (
	stderrors "errors"
	"log/slog"
	"planning-poker/domain"
	"planning-poker/errors"
	"planning-poker/infrastructure/codec"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const sessionPrefix = "session:"

// ISessionRepository persists session snapshots between node restarts.
type ISessionRepository interface {
	LoadSession(name string) (domain.SessionSnapshot, error)
	SaveSession(snapshot domain.SessionSnapshot) error
	DeleteSession(name string) error
	DeleteExpiredSessions(cutoff time.Time) ([]string, error)
	ListSessionNames() ([]string, error)
}

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, log: log}
}

func sessionKey(name string) []byte {
	return []byte(sessionPrefix + domain.Key(name))
}

// LoadSession returns ErrSessionNotFound when the session is missing or its stored copy is corrupt.
func (r SessionRepository) LoadSession(name string) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := codec.UnmarshalSnapshot(val)
			if err != nil {
				r.log.Warn("Corrupt session in storage", "session", name, "error", err)
				return errors.Wrap(errors.CodeSessionNotFound, "corrupt session "+name, err)
			}
			snap = decoded
			return nil
		})
	})
	switch {
	case err == nil:
		return snap, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return domain.SessionSnapshot{}, errors.Newf(errors.CodeSessionNotFound, "session %q not found", name)
	case errors.CodeOf(err) == errors.CodeSessionNotFound:
		return domain.SessionSnapshot{}, err
	default:
		return domain.SessionSnapshot{}, errors.Wrap(errors.CodePersistenceUnavailable, "load session "+name, err)
	}
}

func (r SessionRepository) SaveSession(snapshot domain.SessionSnapshot) error {
	data, err := codec.MarshalSnapshot(snapshot)
	if err != nil {
		return errors.Wrap(errors.CodePersistenceUnavailable, "encode session "+snapshot.Name, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(snapshot.Name), data)
	})
	if err != nil {
		return errors.Wrap(errors.CodePersistenceUnavailable, "save session "+snapshot.Name, err)
	}
	return nil
}

// DeleteSession is a no-op for unknown sessions.
func (r SessionRepository) DeleteSession(name string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(name))
	})
	if err != nil {
		return errors.Wrap(errors.CodePersistenceUnavailable, "delete session "+name, err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions idle since before cutoff, and corrupt entries.
// It returns the names of the deleted sessions.
func (r SessionRepository) DeleteExpiredSessions(cutoff time.Time) ([]string, error) {
	var expired [][]byte
	var names []string
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			err := item.Value(func(val []byte) error {
				snap, err := codec.UnmarshalSnapshot(val)
				if err != nil {
					r.log.Warn("Dropping corrupt session", "key", string(key), "error", err)
					expired = append(expired, key)
					names = append(names, string(key[len(prefix):]))
					return nil
				}
				if snap.LastActivity.Before(cutoff) {
					expired = append(expired, key)
					names = append(names, snap.Name)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePersistenceUnavailable, "scan expired sessions", err)
	}
	if len(expired) == 0 {
		return nil, nil
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePersistenceUnavailable, "delete expired sessions", err)
	}
	return names, nil
}

func (r SessionRepository) ListSessionNames() ([]string, error) {
	var names []string
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				snap, err := codec.UnmarshalSnapshot(val)
				if err != nil {
					r.log.Warn("Skipping corrupt session", "key", string(it.Item().Key()), "error", err)
					return nil
				}
				names = append(names, snap.Name)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodePersistenceUnavailable, "list sessions", err)
	}
	return names, nil
}
