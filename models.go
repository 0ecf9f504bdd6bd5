package portal

import "time"

// User is the authenticated actor the session tracks. Members and admins
// decode into the same shape; the role claim tells them apart.
type User struct {
	ID              string         `json:"_id,omitempty"`
	Name            string         `json:"name,omitempty"`
	Username        string         `json:"username,omitempty"`
	Email           string         `json:"email,omitempty"`
	InstitutionalID string         `json:"institutionalId,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	ProfilePicture  string         `json:"profilePicture,omitempty"`
	Role            Role           `json:"role,omitempty"`
	Designation     string         `json:"designation,omitempty"`
	IsLeader        bool           `json:"isLeader,omitempty"`
	EmailVerified   bool           `json:"isEmailVerified,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether this user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsAdmin()
}

// DisplayName returns the best human-readable label for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}
