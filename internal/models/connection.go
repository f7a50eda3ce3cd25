package models

import "fmt"

// Connection describes the upstream inventory API the console reads from.
type Connection struct {
	Name     string `json:"name" yaml:"name"`
	Scheme   string `json:"scheme" yaml:"scheme"` // "http" or "https"
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Token    string `json:"-" yaml:"token"` // bearer token, preferred over basic auth
	Username string `json:"username" yaml:"username"`
	Password string `json:"-" yaml:"password"`
	Insecure bool   `json:"insecure" yaml:"insecure"` // skip TLS verification
	CACert   string `json:"-" yaml:"ca_cert"`         // PEM bundle
}

// BaseURL returns the full base URL for this connection.
func (c *Connection) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// MaskedPassword hides the password for display.
func (c *Connection) MaskedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "••••••••"
}

// ApplyDefaults fills scheme and port the same way for config files and
// environment overrides.
func (c *Connection) ApplyDefaults() {
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	if c.Port == 0 {
		if c.Scheme == "https" {
			c.Port = 443
		} else {
			c.Port = 80
		}
	}
}
