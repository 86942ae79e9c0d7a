package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the three session variants. It is persisted as the
// "type" field of the stored record; any other value marks the record as
// invalid and causes it to be purged on load.
type Kind string

const (
	KindVisitor    Kind = "visitor"
	KindAdmin      Kind = "admin"
	KindSuperAdmin Kind = "super_admin"
)

// Valid reports whether k is one of the known session kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVisitor, KindAdmin, KindSuperAdmin:
		return true
	default:
		return false
	}
}

// Session is the locally persisted identity record for a festival code.
// The populated field set depends on Kind:
//
//   - visitor: all fields, including the credential that granted access
//     (PasswordID/PasswordLabel) and the owning admin.
//   - admin: festival + admin fields.
//   - super_admin: festival fields only.
//
// LoginTime is kept as the raw stored string rather than a time.Time so a
// missing or malformed value survives decoding and can be repaired in
// place instead of discarding the whole record.
type Session struct {
	Kind          Kind   `json:"type"`
	FestivalID    string `json:"festivalId"`
	FestivalCode  string `json:"festivalCode"`
	VisitorName   string `json:"visitorName,omitempty"`
	AdminID       string `json:"adminId,omitempty"`
	AdminCode     string `json:"adminCode,omitempty"`
	AdminName     string `json:"adminName,omitempty"`
	PasswordLabel string `json:"passwordLabel,omitempty"`
	PasswordID    string `json:"passwordId,omitempty"`
	LoginTime     string `json:"loginTime"`
	SessionID     string `json:"sessionId"`
	DeviceID      string `json:"deviceId,omitempty"`
}

// NewVisitor constructs a visitor session for the given festival, granted
// by one of the admin's visitor passwords.
func NewVisitor(festivalID, festivalCode, visitorName, adminID, adminCode, adminName, passwordLabel, passwordID, deviceID string) *Session {
	return &Session{
		Kind:          KindVisitor,
		FestivalID:    festivalID,
		FestivalCode:  festivalCode,
		VisitorName:   visitorName,
		AdminID:       adminID,
		AdminCode:     adminCode,
		AdminName:     adminName,
		PasswordLabel: passwordLabel,
		PasswordID:    passwordID,
		LoginTime:     time.Now().UTC().Format(time.RFC3339),
		SessionID:     uuid.NewString(),
		DeviceID:      deviceID,
	}
}

// NewAdmin constructs an admin session for the given festival.
func NewAdmin(festivalID, festivalCode, adminID, adminCode, adminName string) *Session {
	return &Session{
		Kind:         KindAdmin,
		FestivalID:   festivalID,
		FestivalCode: festivalCode,
		AdminID:      adminID,
		AdminCode:    adminCode,
		AdminName:    adminName,
		LoginTime:    time.Now().UTC().Format(time.RFC3339),
		SessionID:    uuid.NewString(),
	}
}

// NewSuperAdmin constructs a super-admin session for the given festival.
func NewSuperAdmin(festivalID, festivalCode string) *Session {
	return &Session{
		Kind:         KindSuperAdmin,
		FestivalID:   festivalID,
		FestivalCode: festivalCode,
		LoginTime:    time.Now().UTC().Format(time.RFC3339),
		SessionID:    uuid.NewString(),
	}
}

// LoginAt parses LoginTime. ok is false when the field is absent or not a
// parseable timestamp, in which case the caller is expected to repair it.
func (s *Session) LoginAt() (t time.Time, ok bool) {
	if s.LoginTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s.LoginTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// encode serializes the session for storage.
func encode(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

// decode deserializes a stored record. Records that fail to parse or carry
// an unknown kind return ErrInvalidRecord so the caller can purge them.
func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, ErrInvalidRecord
	}
	if !s.Kind.Valid() {
		return nil, ErrInvalidRecord
	}
	return &s, nil
}
