package sessions

import (
	"crypto/sha256"
	"io"
	"net/http"

	"FacultyProfile/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const sessionName = "profile_session"

const (
	keyWorkspace = "workspace"
	keyUserID    = "user_id"
	keyPFNo      = "pf_no"
)

// Store keeps the visitor's identity and workspace key in a signed and
// encrypted cookie.
type Store struct {
	cookies *sessions.CookieStore
}

// New derives the signing and encryption keys from secret. secure marks the
// cookie HTTPS-only (behind a TLS proxy).
func New(secret string, secure bool) (*Store, error) {
	if secret == "" {
		return nil, errors.New("sessions: empty secret")
	}
	auth, err := deriveKey(secret, "faculty-profile cookie auth", 64)
	if err != nil {
		return nil, err
	}
	enc, err := deriveKey(secret, "faculty-profile cookie enc", 32)
	if err != nil {
		return nil, err
	}
	cs := sessions.NewCookieStore(auth, enc)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return &Store{cookies: cs}, nil
}

func deriveKey(secret, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, errors.Wrap(err, "sessions: derive key")
	}
	return key, nil
}

// get never fails: a cookie that no longer decodes (rotated secret) yields a
// fresh session.
func (s *Store) get(r *http.Request) *sessions.Session {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil || sess == nil {
		sess = sessions.NewSession(s.cookies, sessionName)
		opts := *s.cookies.Options
		sess.Options = &opts
		sess.IsNew = true
	}
	return sess
}

// WorkspaceKey returns the visitor's workspace key, issuing and saving a new
// one on first visit.
func (s *Store) WorkspaceKey(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := s.get(r)
	if v, ok := sess.Values[keyWorkspace].(string); ok && v != "" {
		return v, nil
	}
	key := uuid.NewString()
	sess.Values[keyWorkspace] = key
	if err := sess.Save(r, w); err != nil {
		return "", errors.Wrap(err, "sessions: save")
	}
	return key, nil
}

// Owner returns the identity stored in the session, falling back to def
// field by field.
func (s *Store) Owner(r *http.Request, def models.Owner) models.Owner {
	sess := s.get(r)
	o := def
	if v, ok := sess.Values[keyUserID].(string); ok && v != "" {
		o.UserID = v
	}
	if v, ok := sess.Values[keyPFNo].(string); ok && v != "" {
		o.PFNo = v
	}
	return o
}

// SetOwner stores the identity the visitor works as.
func (s *Store) SetOwner(w http.ResponseWriter, r *http.Request, o models.Owner) error {
	sess := s.get(r)
	sess.Values[keyUserID] = o.UserID
	sess.Values[keyPFNo] = o.PFNo
	return errors.Wrap(sess.Save(r, w), "sessions: save")
}

// Clear drops identity and workspace key.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := s.get(r)
	delete(sess.Values, keyWorkspace)
	delete(sess.Values, keyUserID)
	delete(sess.Values, keyPFNo)
	return errors.Wrap(sess.Save(r, w), "sessions: save")
}
