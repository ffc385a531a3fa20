package auth

// Identity is the authenticated principal as seen by the rest of the core.
// Provider payloads are mapped into this shape at the gateway boundary so
// nothing downstream depends on provider-specific fields.
//
// An Identity is immutable once emitted on the session feed; profile
// changes surface as a fresh value on the next notification.
type Identity struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name,omitempty"`
	Email         string `json:"email,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Anonymous     bool   `json:"anonymous,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// Label returns the best human-readable handle for the identity: display
// name when set, email otherwise.
func (i *Identity) Label() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Authenticated reports whether the identity can pass a guard: present and
// not an ephemeral/anonymous principal.
func (i *Identity) Authenticated() bool {
	return i != nil && i.ID != "" && !i.Anonymous
}

// WithProfile returns a copy with the given profile update applied. Used by
// gateways that re-emit after a profile mutation.
func (i *Identity) WithProfile(update ProfileUpdate) *Identity {
	if i == nil {
		return nil
	}
	next := *i
	if update.DisplayName != nil {
		next.DisplayName = *update.DisplayName
	}
	if update.AvatarURL != nil {
		next.AvatarURL = *update.AvatarURL
	}
	return &next
}
