package model

// TenantBase identifies the receiving business account. PlatformTenantID is
// the authoritative tenant key; it is stable for the lifetime of the business
// account and always comes from the verified payload, never from the URL.
type TenantBase struct {
	BusinessPhoneNumberID string
	DisplayPhoneNumber    string
	PlatformTenantID      string
}

// UserBase identifies the sending end user.
type UserBase struct {
	PlatformUserID string
	PhoneNumber    string

	// BusinessScopedUserID is a stable pseudonymous id that survives phone
	// number rotation. When present it takes precedence over everything else.
	BusinessScopedUserID string
	Username             string
}

// DerivedID resolves the identifier consumers should key on: the business
// scoped id if present, else the platform user id, else the phone number.
// Returns "" when none are set; never an error.
func (u UserBase) DerivedID() string {
	if u.BusinessScopedUserID != "" {
		return u.BusinessScopedUserID
	}
	if u.PlatformUserID != "" {
		return u.PlatformUserID
	}
	return u.PhoneNumber
}
