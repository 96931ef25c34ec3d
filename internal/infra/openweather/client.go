package openweather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/clima-widget/internal/domain/weather"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultUnits   = "metric"
	maxBodyBytes   = 1 << 20
)

// Client fetches current conditions from the OpenWeatherMap API.
type Client struct {
	baseURL    string
	apiKey     string
	units      string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey, units string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	units = strings.TrimSpace(units)
	if units == "" {
		units = defaultUnits
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		units:   units,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RequestURL builds the lookup URL. The comma between city and country stays literal.
func (c *Client) RequestURL(q weather.Query) string {
	location := url.QueryEscape(q.City) + "," + url.QueryEscape(q.Country)
	return fmt.Sprintf("%s?q=%s&appid=%s&units=%s", c.baseURL, location, url.QueryEscape(c.apiKey), url.QueryEscape(c.units))
}

// Fetch issues one GET and decodes the body whatever the HTTP status is;
// the in-band cod field decides success.
func (c *Client) Fetch(ctx context.Context, q weather.Query) (weather.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(q), nil)
	if err != nil {
		return weather.Report{}, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Report{}, fmt.Errorf("weather request failed: %w", stripURL(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return weather.Report{}, fmt.Errorf("read weather response: %w", err)
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return weather.Report{}, fmt.Errorf("decode weather response (status=%d): %w", resp.StatusCode, err)
	}

	cod, err := parseCod(raw.Cod)
	if err != nil {
		return weather.Report{}, fmt.Errorf("decode weather response: %w", err)
	}

	return weather.Report{
		StatusCode: cod,
		Message:    raw.Message,
		City:       raw.Name,
		Main: weather.Conditions{
			Temp:      raw.Main.Temp,
			TempMin:   raw.Main.TempMin,
			TempMax:   raw.Main.TempMax,
			FeelsLike: raw.Main.FeelsLike,
			Humidity:  raw.Main.Humidity,
			Pressure:  raw.Main.Pressure,
		},
	}, nil
}

// stripURL drops the request URL from transport errors; it carries the API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

type apiResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Main    apiMain         `json:"main"`
}

type apiMain struct {
	Temp      float64 `json:"temp"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

// parseCod accepts both 200 and "404": the API reports errors with a string code.
// Only a numeric 200 counts as success.
func parseCod(raw json.RawMessage) (int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return 0, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, err
		}
		code, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || code == weather.StatusOK {
			return 0, nil
		}
		return code, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, fmt.Errorf("unsupported cod value %s", string(trimmed))
	}
	code, err := n.Int64()
	if err != nil {
		return 0, nil
	}
	return int(code), nil
}

var _ weather.Client = (*Client)(nil)
