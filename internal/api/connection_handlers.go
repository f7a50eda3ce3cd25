package api

import (
	"net/http"
)

// connectionView is the configured upstream without its secrets.
type connectionView struct {
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Auth     string `json:"auth"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Insecure bool   `json:"insecure"`
}

func (s *Server) GetConnection(w http.ResponseWriter, r *http.Request) {
	c := s.Connection
	view := connectionView{
		Name:     c.Name,
		BaseURL:  c.BaseURL(),
		Auth:     "none",
		Insecure: c.Insecure,
	}
	switch {
	case c.Token != "":
		view.Auth = "token"
	case c.Username != "":
		view.Auth = "basic"
		view.Username = c.Username
		view.Password = c.MaskedPassword()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.Upstream.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
