package registry

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
)

// mePath resolves the signed-in user behind a bearer token.
const mePath = "/api/csiauth/me/"

// Identity describes the signed-in registry user.
type Identity struct {
	FirstName string
	LastName  string
	Email     string
}

// Label returns "First Last", falling back to the email address.
func (i Identity) Label() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name != "" {
		return name
	}
	return strings.TrimSpace(i.Email)
}

// Me resolves the identity of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (Identity, error) {
	body, err := c.get(ctx, token, mePath, nil)
	if err != nil {
		return Identity{}, err
	}
	parsed := gjson.ParseBytes(body)
	return Identity{
		FirstName: parsed.Get("first_name").String(),
		LastName:  parsed.Get("last_name").String(),
		Email:     parsed.Get("email").String(),
	}, nil
}
