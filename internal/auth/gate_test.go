package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nightfeed/bcskill/internal/babyconnect"
	"github.com/nightfeed/bcskill/internal/token"
)

func upstreamServer(t *testing.T, loginOK bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cmd") != "UserAuth" {
			t.Errorf("unexpected command %q", r.URL.Query().Get("cmd"))
		}
		if loginOK {
			w.Header().Set("Location", "/home")
			w.WriteHeader(http.StatusFound)
		} else {
			w.Write([]byte("Need to login"))
		}
	}))
}

func newTestGate(t *testing.T, upstreamURL string) (*Gate, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	factory := func(email, password, tz string) (*babyconnect.Client, error) {
		return babyconnect.New(upstreamURL, email, password, tz, 5*time.Second)
	}
	return NewGate(codec, factory), codec
}

func TestAuthenticateOK(t *testing.T) {
	srv := upstreamServer(t, true)
	defer srv.Close()

	gate, codec := newTestGate(t, srv.URL)
	tok, err := codec.Seal(token.Credentials{Email: "a@b.c", Password: "p", Timezone: "US/Pacific"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	result, err := gate.Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("status = %q, want %q", result.Status, StatusOK)
	}
	if result.Client == nil {
		t.Error("client should be set on ok")
	}
	if result.Timezone != "US/Pacific" {
		t.Errorf("timezone = %q, want US/Pacific", result.Timezone)
	}
}

func TestAuthenticateNotLinked(t *testing.T) {
	srv := upstreamServer(t, true)
	defer srv.Close()

	gate, codec := newTestGate(t, srv.URL)

	incomplete, err := codec.Seal(token.Credentials{Email: "a@b.c"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	for _, tok := range []string{"", "garbage-token", incomplete} {
		result, err := gate.Authenticate(context.Background(), tok)
		if err != nil {
			t.Fatalf("Authenticate(%q): %v", tok, err)
		}
		if result.Status != StatusNotLinked {
			t.Errorf("Authenticate(%q) status = %q, want %q", tok, result.Status, StatusNotLinked)
		}
	}
}

func TestAuthenticateLoginFailed(t *testing.T) {
	srv := upstreamServer(t, false)
	defer srv.Close()

	gate, codec := newTestGate(t, srv.URL)
	tok, err := codec.Seal(token.Credentials{Email: "a@b.c", Password: "stale", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	result, err := gate.Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if result.Status != StatusLoginFailed {
		t.Errorf("status = %q, want %q", result.Status, StatusLoginFailed)
	}
}

func TestAuthenticateNetworkError(t *testing.T) {
	srv := upstreamServer(t, true)
	srv.Close() // nothing listening

	gate, codec := newTestGate(t, srv.URL)
	tok, _ := codec.Seal(token.Credentials{Email: "a@b.c", Password: "p", Timezone: "UTC"})

	if _, err := gate.Authenticate(context.Background(), tok); err == nil {
		t.Error("expected network error to propagate")
	}
}

func TestMintTokenRoundTrip(t *testing.T) {
	srv := upstreamServer(t, true)
	defer srv.Close()

	gate, codec := newTestGate(t, srv.URL)
	tok, err := gate.MintToken(context.Background(), "a@b.c", "p", "US/Pacific")
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}

	creds, ok := codec.Open(tok)
	if !ok {
		t.Fatal("minted token should open")
	}
	want := token.Credentials{Email: "a@b.c", Password: "p", Timezone: "US/Pacific"}
	if creds != want {
		t.Errorf("creds = %+v, want %+v", creds, want)
	}
}

func TestMintTokenRejectedLogin(t *testing.T) {
	srv := upstreamServer(t, false)
	defer srv.Close()

	gate, _ := newTestGate(t, srv.URL)
	if _, err := gate.MintToken(context.Background(), "a@b.c", "wrong", "UTC"); err == nil {
		t.Error("expected error for rejected login")
	}
}
