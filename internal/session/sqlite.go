package session

import (
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// BlobStore is the key/value surface of the local state database.
type BlobStore interface {
	GetSession(key string) ([]byte, error)
	PutSession(key string, data []byte) error
	DeleteSession(key string) error
}

// DatabaseStore keeps the session as a row of the local state database.
type DatabaseStore struct {
	db  BlobStore
	enc ems.Encryptor
}

var _ ems.SessionStore = (*DatabaseStore)(nil)

func NewDatabaseStore(db BlobStore, enc ems.Encryptor) *DatabaseStore {
	return &DatabaseStore{db: db, enc: enc}
}

func (d *DatabaseStore) Load() (*ems.Session, error) {
	data, err := d.db.GetSession(ems.SessionStorageKey)
	if err != nil || data == nil {
		return nil, err
	}
	return decode(data, d.enc)
}

func (d *DatabaseStore) Save(s *ems.Session) error {
	data, err := encode(s, d.enc)
	if err != nil {
		return err
	}
	return d.db.PutSession(ems.SessionStorageKey, data)
}

func (d *DatabaseStore) Clear() error {
	return d.db.DeleteSession(ems.SessionStorageKey)
}
