package auth

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Claims is the subset of a decoded ID token the dashboard relies on.
type Claims struct {
	Subject string `mapstructure:"sub"`
	UserID  string `mapstructure:"user_id"`
	Email   string `mapstructure:"email"`
	Role    Role   `mapstructure:"-"`
}

// UID returns the stable user id, preferring Firebase's user_id claim.
func (c Claims) UID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// ExtractClaims decodes identity fields from a verified claim set and derives
// the role from roleClaim. A missing or unrecognised role yields RoleNone
// without error; only malformed identity fields fail.
func ExtractClaims(raw map[string]any, roleClaim string) (Claims, error) {
	var claims Claims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &claims,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Claims{}, fmt.Errorf("create claims decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Claims{}, fmt.Errorf("decode claims: %w", err)
	}
	if claims.UID() == "" {
		return Claims{}, fmt.Errorf("claims missing subject")
	}

	claims.Role = ExtractRole(raw, roleClaim)
	return claims, nil
}

// ExtractRole reads the role custom claim. Non-string values are ignored.
func ExtractRole(raw map[string]any, roleClaim string) Role {
	if roleClaim == "" {
		roleClaim = "role"
	}
	value, ok := raw[roleClaim].(string)
	if !ok {
		return RoleNone
	}
	return ParseRole(value)
}
