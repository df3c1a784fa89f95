package model

import "time"

// Cache is the durable client-side record: the current credential, the
// display fields of the signed-in user, reuse cookies and the language.
// All of it is invalidated together.
type Cache struct {
	Credential string         `json:"credential,omitempty"`
	Identity   Identity       `json:"identity"`
	Language   string         `json:"language,omitempty"`
	Cookies    []StoredCookie `json:"cookies,omitempty"`
}

// IsEmpty reports whether nothing is cached
func (c *Cache) IsEmpty() bool {
	return c == nil || (c.Credential == "" && c.Identity == (Identity{}) && c.Language == "" && len(c.Cookies) == 0)
}

// StoredCookie is a persisted HTTP cookie, used for the refresh cookie the
// service sets on login
type StoredCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}
