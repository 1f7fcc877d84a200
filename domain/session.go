// domain/session.go
package domain

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the signed-in identity plus its tokens. Empty token strings
// mean the token is absent.
type Session struct {
	User         *User
	AccessToken  string
	RefreshToken string
}

func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

func (s Session) IsZero() bool {
	return s.User == nil && s.AccessToken == "" && s.RefreshToken == ""
}

// Equal reports whether both sessions hold the same user and tokens.
func (s Session) Equal(o Session) bool {
	if s.AccessToken != o.AccessToken || s.RefreshToken != o.RefreshToken {
		return false
	}
	if s.User == nil || o.User == nil {
		return s.User == nil && o.User == nil
	}
	return *s.User == *o.User
}
