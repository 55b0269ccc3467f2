package domain

// TokenKind differentiates access vs refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access_token"
	TokenKindRefresh TokenKind = "refresh_token"
)

// Valid reports whether k is a known kind.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// TokenTypeBearer is the only token type handed out.
const TokenTypeBearer = "Bearer"

// TokenPair is the result of a login or refresh. It is never retained server side.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
}
