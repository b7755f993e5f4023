package remo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Nature Remo cloud API root.
	DefaultBaseURL = "https://api.nature.global/"

	defaultTimeout  = 5 * time.Second
	defaultRetryMax = 3
)

// API endpoints, relative to the base URL.
const (
	pathUser           = "1/users/me"
	pathDevices        = "1/devices"
	pathAppliances     = "1/appliances"
	pathSendSignal     = "1/signals/%s/send"
	pathAirConSettings = "1/appliances/%s/aircon_settings"
	pathLight          = "1/appliances/%s/light"
)

// Client talks to the Nature Remo cloud API.
type Client struct {
	baseURL string
	token   string
	http    *retryablehttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = d
	}
}

// NewClient creates a client authenticated with the given access token.
func NewClient(token string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = defaultRetryMax
	rc.RetryWaitMin = time.Second
	rc.RetryWaitMax = 8 * time.Second
	rc.HTTPClient.Timeout = defaultTimeout
	rc.Logger = leveledLogger{}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = checkRetry

	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    rc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me returns the user owning the token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, pathUser, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate checks that the token is accepted.
func (c *Client) Authenticate(ctx context.Context) error {
	u, err := c.Me(ctx)
	if err != nil {
		return err
	}
	log.Debug().Str("user", u.Nickname).Msg("Authenticated with Remo API")
	return nil
}

// Devices lists the Remo devices with their newest sensor events.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, pathDevices, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// FetchSensorData returns the Remo devices that report sensor events,
// keyed by MAC address.
func (c *Client) FetchSensorData(ctx context.Context) (map[string]Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	data := make(map[string]Device, len(devices))
	for _, d := range devices {
		if len(d.NewestEvents) == 0 {
			continue
		}
		data[d.MacAddress] = d
	}
	return data, nil
}

// Appliances lists every registered appliance.
func (c *Client) Appliances(ctx context.Context) ([]Appliance, error) {
	var appliances []Appliance
	if err := c.get(ctx, pathAppliances, &appliances); err != nil {
		return nil, err
	}
	return appliances, nil
}

// FetchAppliances lists the appliances grouped by kind.
func (c *Client) FetchAppliances(ctx context.Context) (Appliances, error) {
	list, err := c.Appliances(ctx)
	if err != nil {
		return Appliances{}, err
	}
	return Group(list), nil
}

// SendSignal transmits a learned IR signal.
func (c *Client) SendSignal(ctx context.Context, signalID string) error {
	return c.post(ctx, fmt.Sprintf(pathSendSignal, url.PathEscape(signalID)), nil, nil)
}

// SendAirConSettings sends a full air conditioner setting.
func (c *Client) SendAirConSettings(ctx context.Context, applianceID string, form url.Values) (*AirConSettings, error) {
	var s AirConSettings
	if err := c.post(ctx, fmt.Sprintf(pathAirConSettings, url.PathEscape(applianceID)), form, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SendLightButton presses a button on a light remote.
func (c *Client) SendLightButton(ctx context.Context, applianceID, button string) (*LightState, error) {
	var s LightState
	form := url.Values{"button": {button}}
	if err := c.post(ctx, fmt.Sprintf(pathLight, url.PathEscape(applianceID)), form, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	if form == nil {
		form = url.Values{}
	}
	ctx = context.WithValue(ctx, sendOnceKey{}, true)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	log.Debug().Str("path", path).Str("form", form.Encode()).Msg("Posting to Remo API")
	return c.do(req, out)
}

func (c *Client) do(req *retryablehttp.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return ErrAuth
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: HTTP response status code %d", ErrNetwork, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrNetwork, req.URL.Path, err)
	}
	return nil
}

// sendOnceKey marks requests that must not be delivered twice. Sending a
// signal or pressing onoff is not idempotent.
type sendOnceKey struct{}

// checkRetry retries reads like the default policy. Commands are retried
// only when the connection could not be established, since then the server
// never saw them.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if once, _ := ctx.Value(sendOnceKey{}).(bool); !once {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	var opErr *net.OpError
	if err != nil && errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// leveledLogger routes retryablehttp logs to zerolog.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { logKV(log.Error(), kv).Msg(msg) }
func (leveledLogger) Info(msg string, kv ...interface{})  { logKV(log.Debug(), kv).Msg(msg) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { logKV(log.Debug(), kv).Msg(msg) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { logKV(log.Warn(), kv).Msg(msg) }

func logKV(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
