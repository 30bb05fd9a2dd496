package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"tradeledger/src/schemas"
	"tradeledger/src/utils"

	"github.com/go-chi/jwtauth"
)

// PostToken exchanges client credentials from the auth configuration for a
// signed bearer token.
func (c *Controller) PostToken(_ context.Context, clientID, clientSecret string) (*schemas.TokenResponse, error) {
	if c.TokenAuth == nil {
		return nil, utils.NewHTTPError(http.StatusNotFound, "Authentication is disabled")
	}

	// viper lowercases map keys
	expected, ok := c.Auth.Clients[strings.ToLower(clientID)]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(clientSecret)) != 1 {
		return nil, utils.Unauthorized("Invalid client credentials")
	}

	now := c.now()
	claims := map[string]interface{}{"sub": clientID}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(c.Auth.TokenTTL))

	_, tokenString, err := c.TokenAuth.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &schemas.TokenResponse{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(c.Auth.TokenTTL.Seconds()),
	}, nil
}
