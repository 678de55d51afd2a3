package login

import (
	"net/http"
	"strings"
)

// GetLoginScreenHandler renders the login screen.
func GetLoginScreenHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := ScreenData{
		Username: strings.TrimSpace(q.Get("username")),
		Error:    strings.TrimSpace(q.Get("error")),
		Status:   strings.TrimSpace(q.Get("status")),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := GetLoginScreen(data).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render login screen", http.StatusInternalServerError)
		return
	}
}
