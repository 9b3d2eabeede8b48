package auth

// Guard answers the two password challenges of the connection handshake.
// Each secret may be supplied either as plaintext or as a bcrypt hash;
// when both are present the hash wins.
type Guard struct {
	password          string
	passwordHash      string
	adminPassword     string
	adminPasswordHash string
	tokens            *TokenIssuer
}

// NewGuard builds a guard over the configured secrets. tokens may be nil
// when handshake tokens are disabled.
func NewGuard(password, passwordHash, adminPassword, adminPasswordHash string, tokens *TokenIssuer) *Guard {
	return &Guard{
		password:          password,
		passwordHash:      passwordHash,
		adminPassword:     adminPassword,
		adminPasswordHash: adminPasswordHash,
		tokens:            tokens,
	}
}

// CheckPassword reports whether the candidate satisfies the chat password
// challenge. A valid handshake token is accepted in place of the password.
func (g *Guard) CheckPassword(candidate string) bool {
	if checkSecret(g.password, g.passwordHash, candidate) {
		return true
	}
	if g.tokens != nil && g.tokens.Validate(candidate) {
		return true
	}
	return false
}

// CheckAdminPassword reports whether the candidate satisfies the admin
// password challenge. Tokens do not grant admin.
func (g *Guard) CheckAdminPassword(candidate string) bool {
	return checkSecret(g.adminPassword, g.adminPasswordHash, candidate)
}

func checkSecret(plain, hash, candidate string) bool {
	if hash != "" {
		return ComparePassword(hash, candidate) == nil
	}
	if plain == "" {
		return false
	}
	return equalConstantTime(plain, candidate)
}
