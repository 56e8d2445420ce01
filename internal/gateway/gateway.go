// Package gateway is the HTTP surface of the skill: the voice
// webhook, the account-linking login form, and the token mint
// endpoint, plus process lifecycle.
package gateway

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nightfeed/bcskill/internal/alexa"
	"github.com/nightfeed/bcskill/internal/auth"
	"github.com/nightfeed/bcskill/internal/babyconnect"
	"github.com/nightfeed/bcskill/internal/config"
	"github.com/nightfeed/bcskill/internal/health"
	"github.com/nightfeed/bcskill/internal/skill"
	"github.com/nightfeed/bcskill/internal/token"
)

//go:embed static
var staticFiles embed.FS

// Options for creating a Gateway.
type Options struct {
	SignalChan chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	gate       *auth.Gate
	echo       *echo.Echo
	probe      *health.Probe
	signalChan chan os.Signal
}

// New creates a Gateway with default options.
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing.
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	codec, err := token.NewCodec(cfg.Token.Secret)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	timeout := time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	factory := func(email, password, tz string) (*babyconnect.Client, error) {
		return babyconnect.New(cfg.Upstream.BaseURL, email, password, tz, timeout)
	}

	g := &Gateway{
		cfg:        cfg,
		gate:       auth.NewGate(codec, factory),
		signalChan: opts.SignalChan,
	}

	if cfg.Probe.Enabled {
		g.probe = health.NewProbe(cfg.Upstream.BaseURL, timeout)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.POST("/babyconnect", g.handleTurn)
	e.GET("/babyconnect/login", handleLoginForm)
	e.POST("/babyconnect/auth", g.handleMintToken)
	g.echo = e

	return g, nil
}

// Echo exposes the router for handler-level tests.
func (g *Gateway) Echo() *echo.Echo {
	return g.echo
}

// handleLoginForm serves the embedded account-linking form. The
// voice platform opens it with state and redirect_uri query
// parameters, which the form echoes back on submit.
func handleLoginForm(c echo.Context) error {
	data, err := staticFiles.ReadFile("static/login.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login form unavailable")
	}
	return c.HTMLBlob(http.StatusOK, data)
}

// handleTurn serves one voice turn: authenticate, dispatch to the
// skill core, encode the spoken response.
func (g *Gateway) handleTurn(c echo.Context) error {
	env, err := alexa.DecodeRequest(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	log.Printf("[gateway] turn type=%s intent=%q session=%s",
		env.Request.Type, env.IntentName(), env.Session.SessionID)

	if env.Request.Type == alexa.TypeSessionEndedRequest {
		return c.JSON(http.StatusOK, alexa.NewResponse("", true, nil))
	}

	ctx := c.Request().Context()
	result, err := g.gate.Authenticate(ctx, env.Session.User.AccessToken)
	if err != nil {
		log.Printf("[gateway] authenticate error: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "upstream authentication failed")
	}

	switch result.Status {
	case auth.StatusNotLinked:
		return c.JSON(http.StatusOK, g.authFailure(skill.NotLinkedTurn()))
	case auth.StatusLoginFailed:
		return c.JSON(http.StatusOK, g.authFailure(skill.LoginFailedTurn()))
	}

	req := skill.Request{
		IntentName: env.IntentName(),
		Child:      env.SlotValue("Child"),
		NewSession: env.Session.New,
		Memory:     skill.DecodeMemory(env.Session.Attributes),
	}
	if env.Request.Type == alexa.TypeLaunchRequest {
		req.Intent = skill.IntentLaunch
	} else {
		req.Intent = skill.ParseIntent(req.IntentName)
	}

	turn, err := skill.Handle(ctx, result.Client, req)
	if err != nil {
		if errors.Is(err, skill.ErrMissingIntentName) {
			log.Printf("[gateway] malformed request: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		log.Printf("[gateway] turn failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "upstream request failed")
	}

	resp := alexa.NewResponse(turn.Speech, turn.EndSession, turn.Memory.Encode())
	if turn.CardTitle != "" {
		resp = resp.WithCard(turn.CardTitle, turn.CardContent)
	}
	return c.JSON(http.StatusOK, resp)
}

func (g *Gateway) authFailure(turn skill.Turn) alexa.ResponseEnvelope {
	return alexa.NewResponse(turn.Speech, turn.EndSession, nil).WithLinkAccountCard()
}

// handleMintToken validates the posted credentials and redirects back
// to the voice platform with the sealed token in the URL fragment.
func (g *Gateway) handleMintToken(c echo.Context) error {
	state := c.FormValue("state")
	redirectURI := c.FormValue("redirect_uri")
	if state == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Missing state value"})
	}
	if redirectURI == "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Missing redirect_uri value"})
	}

	tz := c.FormValue("tz")
	if tz == "" {
		tz = g.cfg.Timezone
	}

	tok, err := g.gate.MintToken(c.Request().Context(), c.FormValue("email"), c.FormValue("pwd"), tz)
	if err != nil {
		log.Printf("[gateway] mint token: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Error generating token"})
	}

	target := redirectURI +
		"#state=" + url.QueryEscape(state) +
		"&token_type=Bearer&access_token=" + url.QueryEscape(tok)
	log.Printf("[gateway] linked account, redirecting to %s", redirectURI)
	return c.Redirect(http.StatusFound, target)
}

// Run starts the server and blocks until SIGINT/SIGTERM.
func (g *Gateway) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", g.cfg.Server.Host, g.cfg.Server.Port)

	go func() {
		log.Printf("[gateway] listening on %s", addr)
		if err := g.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Printf("[gateway] server error: %v", err)
		}
	}()

	if g.probe != nil {
		if err := g.probe.Start(g.cfg.Probe.Spec); err != nil {
			log.Printf("[gateway] probe start warning: %v", err)
		}
	}

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) Shutdown() error {
	if g.probe != nil {
		g.probe.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.echo.Shutdown(ctx); err != nil {
		log.Printf("[gateway] shutdown error: %v", err)
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}
