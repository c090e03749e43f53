package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const flashCookie = "deductible_flash"

// setFlash queues one-shot messages for the next rendered page.
func setFlash(w http.ResponseWriter, messages ...string) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes returns queued messages and clears them.
func popFlashes(w http.ResponseWriter, r *http.Request) []string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var messages []string
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil
	}
	return messages
}
