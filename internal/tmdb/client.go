package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

const (
	topCastSize = 5
	// Upstream error bodies are only logged, so they are capped.
	maxErrorBody = 4 << 10
)

// Client proxies the TMDB v3 API. Results are passed through without caching.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
}

func NewClient(baseURL string, apiKey string, language string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results []json.RawMessage `json:"results"`
}

type movieDetails struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	OriginalTitle string        `json:"original_title"`
	Overview      string        `json:"overview"`
	ReleaseDate   string        `json:"release_date"`
	PosterPath    string        `json:"poster_path"`
	BackdropPath  string        `json:"backdrop_path"`
	VoteAverage   float64       `json:"vote_average"`
	VoteCount     int64         `json:"vote_count"`
	Popularity    float64       `json:"popularity"`
	Runtime       int           `json:"runtime"`
	Genres        []model.Genre `json:"genres"`
	Credits       struct {
		Cast []struct {
			Name      string `json:"name"`
			Character string `json:"character"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	Videos struct {
		Results []struct {
			Key  string `json:"key"`
			Site string `json:"site"`
			Type string `json:"type"`
		} `json:"results"`
	} `json:"videos"`
}

// Search returns TMDB's raw search results for query.
func (c *Client) Search(ctx context.Context, query string) ([]json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierror.BadRequest("query is required", "query")
	}

	params := url.Values{}
	params.Set("query", query)

	var resp searchResponse
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		slog.ErrorContext(ctx, "tmdb search failed", "query", query, "error", err)
		return nil, apierror.Upstream("failed to search movies on TMDB")
	}

	if resp.Results == nil {
		return []json.RawMessage{}, nil
	}
	return resp.Results, nil
}

// Movie fetches one title with its credits and videos and flattens it into
// the catalog's input shape.
func (c *Client) Movie(ctx context.Context, tmdbID int64) (model.MovieInput, error) {
	if tmdbID <= 0 {
		return model.MovieInput{}, apierror.BadRequest("invalid TMDB id", "tmdbId")
	}

	params := url.Values{}
	params.Set("append_to_response", "credits,videos")

	var details movieDetails
	path := "/movie/" + strconv.FormatInt(tmdbID, 10)
	if err := c.get(ctx, path, params, &details); err != nil {
		slog.ErrorContext(ctx, "tmdb movie lookup failed", "tmdb_id", tmdbID, "error", err)
		return model.MovieInput{}, apierror.Upstream("failed to fetch movie details from TMDB")
	}

	return formatMovie(details), nil
}

func formatMovie(d movieDetails) model.MovieInput {
	in := model.MovieInput{
		TMDBID:        d.ID,
		Title:         d.Title,
		OriginalTitle: d.OriginalTitle,
		Overview:      d.Overview,
		ReleaseDate:   d.ReleaseDate,
		PosterPath:    d.PosterPath,
		BackdropPath:  d.BackdropPath,
		VoteAverage:   d.VoteAverage,
		VoteCount:     d.VoteCount,
		Popularity:    d.Popularity,
		Runtime:       d.Runtime,
		Genres:        make([]model.Genre, 0, len(d.Genres)),
		Cast:          make([]model.CastMember, 0, topCastSize),
	}

	in.Genres = append(in.Genres, d.Genres...)

	for _, member := range d.Credits.Crew {
		if member.Job == "Director" {
			in.Director = member.Name
			break
		}
	}

	for i, member := range d.Credits.Cast {
		if i == topCastSize {
			break
		}
		in.Cast = append(in.Cast, model.CastMember{Name: member.Name, Character: member.Character})
	}

	for _, video := range d.Videos.Results {
		if video.Site == "YouTube" && video.Type == "Trailer" {
			in.TrailerKey = video.Key
			break
		}
	}

	return in
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("TMDB_API_KEY is not configured")
	}

	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error prints the full URL, api_key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("GET %s: %s; body: %s", path, resp.Status, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
