package core

// Login is the credential payload for create_user, verify_user and
// update_user. The password travels obfuscated (see internal/server/crypt),
// never in the clear.
type Login struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Password string `json:"password" validate:"required,max=256"`
}
