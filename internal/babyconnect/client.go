// Package babyconnect is a client for the Baby Connect web API. The
// service has no published API; the endpoints here are the ones its
// own web app uses.
package babyconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	authPath       = "/Cmd?cmd=UserAuth"
	userInfoPath   = "/CmdW?cmd=UserInfoW"
	statusListPath = "/CmdListW?cmd=StatusList"
)

// Child is one child registered on the account.
type Child struct {
	ID   int64
	Name string
}

// Status is the rendered daily summary for one child and one query
// kind. Elapsed and total are already phrased for speech.
type Status struct {
	IsSleeping      bool
	ElapsedRendered string
	TotalRendered   string
}

// Client talks to Baby Connect on behalf of one linked account. The
// login session lives in the cookie jar, so a Client is built per
// request and never shared across conversations.
type Client struct {
	baseURL  string
	email    string
	password string
	loc      *time.Location
	http     *http.Client
	now      func() time.Time
}

func New(baseURL, email, password, tz string, timeout time.Duration) (*Client, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		loc:      loc,
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
			// Login success is signalled by a redirect; follow nothing.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}, nil
}

// Login authenticates the account. The service answers a successful
// login with a 302 to the home page and a session cookie; a plain 200
// is the login form served again, i.e. a rejection.
func (c *Client) Login(ctx context.Context) (bool, error) {
	form := url.Values{}
	form.Set("email", c.email)
	form.Set("pass", c.password)

	resp, err := c.postForm(ctx, authPath, form)
	if err != nil {
		return false, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusFound, nil
}

// ChildList fetches the children registered on the account. It is
// called fresh on every turn that needs it; the always-current list
// is worth the extra round trip.
func (c *Client) ChildList(ctx context.Context) ([]Child, error) {
	resp, err := c.postForm(ctx, userInfoPath, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch user info: unexpected status %d", resp.StatusCode)
	}

	var info struct {
		MyKids []struct {
			Name string `json:"Name"`
			ID   int64  `json:"Id"`
		} `json:"myKids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	kids := make([]Child, 0, len(info.MyKids))
	for _, k := range info.MyKids {
		kids = append(kids, Child{ID: k.ID, Name: k.Name})
	}
	return kids, nil
}

// summary is the per-day roll-up Baby Connect returns for one child.
// Timestamps are local to the account timezone, formatted M/D/YYYY
// H:mm with the minute not always zero-padded.
type summary struct {
	IsSleeping         bool    `json:"isSleeping"`
	TimeOfLastSleeping string  `json:"timeOfLastSleeping"`
	TimeOfLastBottle   string  `json:"timeOfLastBottle"`
	TimeOfLastDiaper   string  `json:"timeOfLastDiaper"`
	TotalSleepDuration int     `json:"totalSleepDuration"`
	TotalBottleSize    float64 `json:"totalBottleSize"`
}

func (c *Client) SleepStatus(ctx context.Context, kidID int64) (Status, error) {
	sum, err := c.statusList(ctx, kidID)
	if err != nil {
		return Status{}, err
	}
	elapsed, err := c.elapsedSince(sum.TimeOfLastSleeping)
	if err != nil {
		return Status{}, fmt.Errorf("sleep status: %w", err)
	}
	return Status{
		IsSleeping:      sum.IsSleeping,
		ElapsedRendered: elapsed,
		TotalRendered:   renderMinutes(sum.TotalSleepDuration),
	}, nil
}

func (c *Client) BottleStatus(ctx context.Context, kidID int64) (Status, error) {
	sum, err := c.statusList(ctx, kidID)
	if err != nil {
		return Status{}, err
	}
	elapsed, err := c.elapsedSince(sum.TimeOfLastBottle)
	if err != nil {
		return Status{}, fmt.Errorf("bottle status: %w", err)
	}
	return Status{
		ElapsedRendered: elapsed,
		TotalRendered:   renderOunces(sum.TotalBottleSize),
	}, nil
}

func (c *Client) DiaperStatus(ctx context.Context, kidID int64) (Status, error) {
	sum, err := c.statusList(ctx, kidID)
	if err != nil {
		return Status{}, err
	}
	elapsed, err := c.elapsedSince(sum.TimeOfLastDiaper)
	if err != nil {
		return Status{}, fmt.Errorf("diaper status: %w", err)
	}
	return Status{ElapsedRendered: elapsed}, nil
}

func (c *Client) statusList(ctx context.Context, kidID int64) (summary, error) {
	form := url.Values{}
	form.Set("kid", strconv.FormatInt(kidID, 10))
	form.Set("pdt", c.now().In(c.loc).Format("060102"))

	resp, err := c.postForm(ctx, statusListPath, form)
	if err != nil {
		return summary{}, fmt.Errorf("fetch status list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summary{}, fmt.Errorf("fetch status list: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Summary summary `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return summary{}, fmt.Errorf("decode status list: %w", err)
	}
	return body.Summary, nil
}

func (c *Client) elapsedSince(stamp string) (string, error) {
	if stamp == "" {
		return "", fmt.Errorf("no event recorded today")
	}
	t, err := time.ParseInLocation("1/2/2006 15:4", stamp, c.loc)
	if err != nil {
		return "", fmt.Errorf("parse event time %q: %w", stamp, err)
	}
	mins := int(c.now().In(c.loc).Sub(t).Minutes())
	if mins < 0 {
		log.Printf("[babyconnect] event time %q is in the future, clamping", stamp)
		mins = 0
	}
	return renderMinutes(mins), nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(req)
}
