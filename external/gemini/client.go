package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/gilangnh/matchday/internal/domain/team"
	"github.com/gilangnh/matchday/internal/platform/logging"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-pro"
)

const shortenPrompt = `You are a football assistant bot.
Given a full football club name, you must:
- Return a short name (maximum 2 words).
- Suggest 1 emoji related to the team (colors, theme, nickname).

Example:
- Manchester United -> 🔴 Man United
- Borussia Dortmund -> 🟡 B-Dortmund
- Real Madrid -> ⚪ Real Madrid
- Brazil -> 🇧🇷 Brazil
- Argentina -> 🇦🇷 Argentina

Club: %s
Respond in JSON format like:
{"short_name": "Short Version", "emoji": "Emoji Here"}`

type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Model      string
	Logger     *logging.Logger
}

// Client asks a generative model for a short team name and emoji.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *logging.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		logger:     logger,
	}
}

func (c *Client) Shorten(ctx context.Context, name string) (team.Info, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return team.Info{}, crerr.New("team name is required")
	}
	if c.apiKey == "" {
		return team.Info{}, crerr.New("gemini api key is not configured")
	}

	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(shortenPrompt, name)}}}},
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return team.Info{}, crerr.Wrap(err, "marshal generate request")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return team.Info{}, crerr.Wrap(err, "create generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return team.Info{}, crerr.Wrap(err, "request team enrichment")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return team.Info{}, crerr.Wrap(err, "read enrichment response")
	}
	if resp.StatusCode != http.StatusOK {
		return team.Info{}, crerr.Newf("enrichment failed with status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return team.Info{}, crerr.Wrap(err, "unmarshal enrichment response")
	}

	text := decoded.firstText()
	if text == "" {
		return team.Info{}, crerr.New("enrichment response carried no candidates")
	}

	info, err := parseInfoJSON(text)
	if err != nil {
		return team.Info{}, crerr.Wrap(err, "parse model output")
	}
	if strings.TrimSpace(info.ShortName) == "" {
		info.ShortName = name
	}
	if strings.TrimSpace(info.Emoji) == "" {
		info.Emoji = team.PlaceholderEmoji
	}
	return info, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) firstText() string {
	for _, candidate := range r.Candidates {
		for _, p := range candidate.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

// parseInfoJSON tolerates the model wrapping its JSON answer in code fences.
func parseInfoJSON(text string) (team.Info, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var info team.Info
	if err := sonic.Unmarshal([]byte(text), &info); err != nil {
		return team.Info{}, err
	}
	return info, nil
}
