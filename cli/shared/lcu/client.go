package lcu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Summoner mirrors the subset of /lol-summoner/v1/current-summoner used by the CLI.
type Summoner struct {
	DisplayName   string `json:"displayName"`
	GameName      string `json:"gameName,omitempty"`
	TagLine       string `json:"tagLine"`
	PUUID         string `json:"puuid,omitempty"`
	SummonerID    int64  `json:"summonerId,omitempty"`
	SummonerLevel int    `json:"summonerLevel,omitempty"`
}

// Identity renders the `displayName#tagLine` form.
func (s Summoner) Identity() string {
	return s.DisplayName + "#" + s.TagLine
}

// Client issues authenticated requests to the League client API on the loopback interface.
type Client struct {
	http    *http.Client
	baseURL string
	auth    string
	log     *slog.Logger
}

// NewClient builds an authenticated client for the given descriptor.
func NewClient(desc ConnectionDescriptor, cfg ClientConfig) (*Client, error) {
	if desc.IsZero() {
		return nil, fmt.Errorf("lcu: connection descriptor must be provided")
	}
	log := loggerOrDefault(cfg.Logger).With(slog.Int("port", desc.Port()))

	httpClient, err := newHTTPClient(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:    httpClient,
		baseURL: baseURL(desc.Protocol(), desc.Port()),
		auth:    "Basic " + BuildAuthHeader(desc.Token()),
		log:     log,
	}, nil
}

// CurrentSummoner fetches the signed-in summoner.
func (c *Client) CurrentSummoner(ctx context.Context) (Summoner, error) {
	body, err := c.get(ctx, currentSummonerPath)
	if err != nil {
		return Summoner{}, err
	}

	var summoner Summoner
	if err := json.Unmarshal(body, &summoner); err != nil {
		return Summoner{}, fmt.Errorf("lcu: decode current summoner: %w", err)
	}
	return summoner, nil
}

// FetchCurrentIdentity confirms the session is live and returns `displayName#tagLine`.
func (c *Client) FetchCurrentIdentity(ctx context.Context) (string, error) {
	summoner, err := c.CurrentSummoner(ctx)
	if err != nil {
		return "", err
	}
	return summoner.Identity(), nil
}

// GameflowStatus is one read of the gameflow phase endpoint.
type GameflowStatus struct {
	Phase   string
	InMatch bool
}

// Gameflow reads /lol-gameflow/v1/gameflow-phase once. InMatch compares the raw body to
// `"InProgress"`; Phase is the decoded string, or the raw body when it is not a JSON string.
func (c *Client) Gameflow(ctx context.Context) (GameflowStatus, error) {
	body, err := c.get(ctx, gameflowPhasePath)
	if err != nil {
		return GameflowStatus{}, err
	}
	status := GameflowStatus{InMatch: string(body) == inProgressPhase}
	if err := json.Unmarshal(body, &status.Phase); err != nil {
		status.Phase = strings.TrimSpace(string(body))
	}
	return status, nil
}

// IsInActiveMatch reports whether the raw gameflow phase body is exactly `"InProgress"`.
func (c *Client) IsInActiveMatch(ctx context.Context) (bool, error) {
	status, err := c.Gameflow(ctx)
	if err != nil {
		return false, err
	}
	return status.InMatch, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return doGet(ctx, c.http, c.log, c.baseURL+path, path, c.auth)
}

// LiveClient reads the unauthenticated Live Client Data API, which only answers during a match.
type LiveClient struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// NewLiveClient builds a client for the fixed-port companion service. Port 0 uses DefaultLiveClientPort.
func NewLiveClient(port int, cfg ClientConfig) (*LiveClient, error) {
	if port == 0 {
		port = DefaultLiveClientPort
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("lcu: live client port %d out of range", port)
	}
	log := loggerOrDefault(cfg.Logger).With(slog.Int("port", port))

	httpClient, err := newHTTPClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return &LiveClient{
		http:    httpClient,
		baseURL: baseURL(defaultProtocol, port),
		log:     log,
	}, nil
}

// ActivePlayerName returns the active participant's name with one surrounding quote pair removed.
func (c *LiveClient) ActivePlayerName(ctx context.Context) (string, error) {
	body, err := doGet(ctx, c.http, c.log, c.baseURL+activePlayerNamePath, activePlayerNamePath, "")
	if err != nil {
		return "", err
	}
	return stripQuotes(string(body)), nil
}

// stripQuotes removes at most one leading and one trailing double quote.
func stripQuotes(raw string) string {
	raw = strings.TrimPrefix(raw, `"`)
	return strings.TrimSuffix(raw, `"`)
}

func baseURL(protocol string, port int) string {
	return protocol + "://" + net.JoinHostPort(loopbackHost, strconv.Itoa(port))
}

func doGet(ctx context.Context, client *http.Client, log *slog.Logger, url, path, auth string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log = log.With(slog.String("path", path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lcu: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	log.Debug("Client.get(ctx, path) :: send")
	resp, err := client.Do(req)
	if err != nil {
		log.Error("Client.get(ctx, path) :: request_failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("lcu: request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn("Client.get(ctx, path) :: unexpected_status", slog.Int("status", resp.StatusCode))
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &APIRequestError{StatusCode: resp.StatusCode, Path: path}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("lcu: read response %s: %w", path, err)
	}
	log.Debug("Client.get(ctx, path) :: ok", slog.Int("bytes", len(body)))
	return body, nil
}
