// Package session persists the logged-in session between runs.
package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tsg-Selina-Varshney/EMS/internal/ems"
)

// document is the on-disk shape: one object keyed by ems.SessionStorageKey.
type document map[string]*ems.Session

// encode serializes s and encrypts it when enc is non-nil.
func encode(s *ems.Session, enc ems.Encryptor) ([]byte, error) {
	data, err := json.Marshal(document{ems.SessionStorageKey: s})
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	if enc == nil {
		return data, nil
	}

	var out bytes.Buffer
	if err := enc.Encrypt(bytes.NewReader(data), &out); err != nil {
		return nil, fmt.Errorf("encrypting session: %w", err)
	}
	return out.Bytes(), nil
}

// decode reverses encode. A document without the session key yields nil.
func decode(data []byte, enc ems.Encryptor) (*ems.Session, error) {
	if enc != nil {
		var plain bytes.Buffer
		if err := enc.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return nil, fmt.Errorf("decrypting session: %w", err)
		}
		data = plain.Bytes()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return doc[ems.SessionStorageKey], nil
}
