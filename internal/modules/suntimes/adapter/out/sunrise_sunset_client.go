package out

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	suntimesout "sleepsun/internal/modules/suntimes/port/out"
	apperrors "sleepsun/internal/platform/errors"
)

const (
	DefaultBaseURL = "https://api.sunrise-sunset.org/json"
	maxBodySize    = 1 << 16
	userAgent      = "sleepsun/1.0"
)

// SunriseSunsetClient queries the sunrise-sunset.org JSON API. Deadlines
// come from the caller's context.
type SunriseSunsetClient struct {
	baseURL string
	http    *http.Client
}

type apiResponse struct {
	Status  string `json:"status"`
	Results struct {
		Sunrise   string `json:"sunrise"`
		Sunset    string `json:"sunset"`
		DayLength *int64 `json:"day_length"`
	} `json:"results"`
}

func NewSunriseSunsetClient(baseURL string, httpClient *http.Client) suntimesout.RemoteSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SunriseSunsetClient{baseURL: baseURL, http: httpClient}
}

func (c *SunriseSunsetClient) Fetch(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, error) {
	query := url.Values{}
	query.Set("lat", recorddomain.FormatCoordinate(key.Lat))
	query.Set("lng", recorddomain.FormatCoordinate(key.Lon))
	query.Set("date", key.Date)
	query.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("create sun times request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("sun times request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: unexpected status %d", apperrors.ErrRemoteSource, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("read sun times response: %w", err)
	}

	payload := apiResponse{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: decode payload: %v", apperrors.ErrRemoteSource, err)
	}
	if payload.Status != "OK" {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: status %q", apperrors.ErrRemoteSource, payload.Status)
	}
	sunrise, err := time.Parse(time.RFC3339, payload.Results.Sunrise)
	if err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: sunrise %q", apperrors.ErrRemoteSource, payload.Results.Sunrise)
	}
	sunset, err := time.Parse(time.RFC3339, payload.Results.Sunset)
	if err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: sunset %q", apperrors.ErrRemoteSource, payload.Results.Sunset)
	}

	record := recorddomain.SunTimes{
		Date:    key.Date,
		Lat:     key.Lat,
		Lon:     key.Lon,
		Sunrise: sunrise.Unix(),
		Sunset:  sunset.Unix(),
	}
	if payload.Results.DayLength != nil {
		record.Daylength = *payload.Results.DayLength
	} else {
		record.Daylength = record.Sunset - record.Sunrise
	}
	return record, nil
}
