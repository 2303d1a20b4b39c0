// Package flash carries one-shot user notices across a redirect in a signed
// cookie.
package flash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

const cookieName = "choreadmin_flash"

const (
	CategoryInfo  = "info"
	CategoryError = "error"
)

type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

func Info(text string) Message  { return Message{Category: CategoryInfo, Text: text} }
func Error(text string) Message { return Message{Category: CategoryError, Text: text} }

func (m Message) IsError() bool { return m.Category == CategoryError }

type Store struct {
	key    []byte
	secure bool
}

func NewStore(secretKey string, secure bool) *Store {
	return &Store{key: []byte(secretKey), secure: secure}
}

// Set queues msgs for the next page render, replacing anything pending.
func (s *Store) Set(w http.ResponseWriter, msgs ...Message) {
	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload) + "." + s.sign(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending messages and clears them. Tampered or malformed
// cookies yield nothing.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	encoded, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil
	}
	return msgs
}

func (s *Store) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
