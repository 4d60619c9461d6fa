package session_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsg-Selina-Varshney/EMS/internal/config"
	"github.com/tsg-Selina-Varshney/EMS/internal/database"
	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
	"github.com/tsg-Selina-Varshney/EMS/internal/encryption"
	"github.com/tsg-Selina-Varshney/EMS/internal/session"
)

var asha = ems.Session{Token: "tok-1", Username: "10001", Role: ems.RoleAdmin, Name: "Asha Rao"}

func newDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	db, err := database.NewSQLiteDatabase(":memory:", nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStores(t *testing.T) {
	tests := []struct {
		name string
		new  func(t *testing.T) ems.SessionStore
	}{
		{"memory", func(t *testing.T) ems.SessionStore { return session.NewMemoryStore() }},
		{"file", func(t *testing.T) ems.SessionStore {
			return session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), nil)
		}},
		{"file encrypted", func(t *testing.T) ems.SessionStore {
			return session.NewFileStore(filepath.Join(t.TempDir(), "session.age"), encryption.NewTestEncryptor())
		}},
		{"sqlite", func(t *testing.T) ems.SessionStore { return session.NewDatabaseStore(newDatabase(t), nil) }},
		{"sqlite encrypted", func(t *testing.T) ems.SessionStore {
			return session.NewDatabaseStore(newDatabase(t), encryption.NewTestEncryptor())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.new(t)

			got, err := store.Load()
			if err != nil {
				t.Fatalf("Load() on empty store error = %v", err)
			}
			if got != nil {
				t.Fatalf("Load() on empty store = %+v, want nil", got)
			}

			if err := store.Save(&asha); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			renamed := asha
			renamed.Name = "Asha R."
			if err := store.Save(&renamed); err != nil {
				t.Fatalf("second Save() error = %v", err)
			}

			got, err = store.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got == nil || *got != renamed {
				t.Errorf("Load() = %+v, want %+v", got, renamed)
			}

			if err := store.Clear(); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if err := store.Clear(); err != nil {
				t.Errorf("Clear() on empty store error = %v", err)
			}
			got, err = store.Load()
			if err != nil || got != nil {
				t.Errorf("Load() after Clear = %+v, %v, want nil, nil", got, err)
			}
		})
	}
}

func TestFileStore_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store := session.NewFileStore(path, nil)
	if err := store.Save(&asha); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading session file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(`{"user":{`)) {
		t.Errorf("session file = %s, want object keyed by user", data)
	}
}

func TestFileStore_Encrypted(t *testing.T) {
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "ems.pub"),
		PrivateKeyPath: filepath.Join(dir, "ems.key"),
	})
	if err := enc.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	path := filepath.Join(dir, "session.age")
	if err := session.NewFileStore(path, enc).Save(&asha); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading session file: %v", err)
	}
	if bytes.Contains(data, []byte(asha.Token)) {
		t.Error("encrypted session file contains the token in plaintext")
	}

	if _, err := session.NewFileStore(path, nil).Load(); err == nil {
		t.Error("Load() without encryptor expected decode error")
	}
	got, err := session.NewFileStore(path, enc).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || *got != asha {
		t.Errorf("Load() = %+v, want %+v", got, asha)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := session.NewFileStore(path, nil).Load(); err == nil {
		t.Error("Load() of corrupt file expected error")
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	db := newDatabase(t)
	enc := encryption.NewTestEncryptor()

	tests := []struct {
		name    string
		cfg     config.SessionConfig
		enc     ems.Encryptor
		db      session.BlobStore
		want    string
		wantErr bool
	}{
		{name: "file", cfg: config.SessionConfig{Type: "file", Path: "/tmp/s.json"}, want: "*session.FileStore"},
		{name: "default type", cfg: config.SessionConfig{Path: "/tmp/s.json"}, want: "*session.FileStore"},
		{name: "file without path", cfg: config.SessionConfig{Type: "file"}, wantErr: true},
		{name: "sqlite", cfg: config.SessionConfig{Type: "sqlite"}, db: db, want: "*session.DatabaseStore"},
		{name: "sqlite without db", cfg: config.SessionConfig{Type: "sqlite"}, wantErr: true},
		{name: "memory", cfg: config.SessionConfig{Type: "memory"}, want: "*session.MemoryStore"},
		{name: "encrypted", cfg: config.SessionConfig{Type: "memory", Encrypt: true}, enc: enc, want: "*session.MemoryStore"},
		{name: "encrypt without encryptor", cfg: config.SessionConfig{Type: "memory", Encrypt: true}, wantErr: true},
		{name: "unknown", cfg: config.SessionConfig{Type: "cookie"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := session.NewStoreFromConfig(tt.cfg, tt.enc, tt.db)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if typ := typeName(got); typ != tt.want {
				t.Errorf("NewStoreFromConfig() = %s, want %s", typ, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *session.FileStore:
		return "*session.FileStore"
	case *session.DatabaseStore:
		return "*session.DatabaseStore"
	case *session.MemoryStore:
		return "*session.MemoryStore"
	}
	return "unknown"
}
