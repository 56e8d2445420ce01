// Package auth resolves the opaque token sent with every voice
// request into a live Baby Connect client, and mints those tokens
// during account linking.
package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/nightfeed/bcskill/internal/babyconnect"
	"github.com/nightfeed/bcskill/internal/token"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusNotLinked   Status = "notlinked"
	StatusLoginFailed Status = "loginfailed"
)

// Result of authenticating one request. Client and Timezone are set
// only when Status is StatusOK.
type Result struct {
	Status   Status
	Client   *babyconnect.Client
	Timezone string
}

// ClientFactory builds an upstream client for one set of credentials.
type ClientFactory func(email, password, tz string) (*babyconnect.Client, error)

// Gate authenticates voice requests. The token codec carries the
// deployment secret; nothing below this layer touches it.
type Gate struct {
	codec     *token.Codec
	newClient ClientFactory
}

func NewGate(codec *token.Codec, factory ClientFactory) *Gate {
	return &Gate{codec: codec, newClient: factory}
}

// Authenticate opens the access token and validates the credentials
// against the upstream service. A missing or unopenable token means
// the account was never linked; a rejected login means the stored
// credentials went stale. Both are expected outcomes, not errors.
// Only a network-level failure returns err.
func (g *Gate) Authenticate(ctx context.Context, accessToken string) (Result, error) {
	creds, ok := g.codec.Open(accessToken)
	if !ok || !creds.Complete() {
		return Result{Status: StatusNotLinked}, nil
	}

	client, err := g.newClient(creds.Email, creds.Password, creds.Timezone)
	if err != nil {
		return Result{}, fmt.Errorf("build upstream client: %w", err)
	}

	loggedIn, err := client.Login(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("authenticate: %w", err)
	}
	if !loggedIn {
		log.Printf("[auth] upstream rejected stored credentials")
		return Result{Status: StatusLoginFailed}, nil
	}

	return Result{Status: StatusOK, Client: client, Timezone: creds.Timezone}, nil
}

// MintToken validates the submitted credentials with a live login and
// seals them into a bearer token for the voice platform to store.
func (g *Gate) MintToken(ctx context.Context, email, password, tz string) (string, error) {
	client, err := g.newClient(email, password, tz)
	if err != nil {
		return "", fmt.Errorf("build upstream client: %w", err)
	}

	loggedIn, err := client.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("validate credentials: %w", err)
	}
	if !loggedIn {
		return "", fmt.Errorf("login rejected for %s", email)
	}

	return g.codec.Seal(token.Credentials{Email: email, Password: password, Timezone: tz})
}
