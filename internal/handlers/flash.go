package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "flash"

// addFlash queues a message for the next page the client loads.
func addFlash(w http.ResponseWriter, r *http.Request, message string) {
	messages := readFlashes(r)
	messages = append(messages, message)

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

// takeFlashes returns pending messages and clears them.
func takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	messages := readFlashes(r)
	if len(messages) > 0 {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return messages
}

func readFlashes(r *http.Request) []string {
	messages := []string{}
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return messages
	}
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return messages
	}
	if err := json.Unmarshal(raw, &messages); err != nil || messages == nil {
		return []string{}
	}
	return messages
}
