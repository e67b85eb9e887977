package model

import "time"

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
}

type Movie struct {
	ID            int64        `json:"id"`
	TMDBID        int64        `json:"tmdb_id"`
	Title         string       `json:"title"`
	OriginalTitle string       `json:"original_title"`
	Overview      string       `json:"overview"`
	ReleaseDate   string       `json:"release_date"`
	PosterPath    string       `json:"poster_path"`
	BackdropPath  string       `json:"backdrop_path"`
	VoteAverage   float64      `json:"vote_average"`
	VoteCount     int64        `json:"vote_count"`
	Popularity    float64      `json:"popularity"`
	Runtime       int          `json:"runtime"`
	Genres        []Genre      `json:"genres"`
	Director      string       `json:"director"`
	Cast          []CastMember `json:"cast"`
	TrailerKey    string       `json:"trailer_key"`
	WatchURL      string       `json:"watch_url"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// MovieInput carries the admin-editable fields of a movie. It is also the
// shape the TMDB detail pass-through returns, so a client can post it back
// unchanged.
type MovieInput struct {
	TMDBID        int64        `json:"tmdb_id" validate:"required,gt=0"`
	Title         string       `json:"title" validate:"required,max=255"`
	OriginalTitle string       `json:"original_title" validate:"max=255"`
	Overview      string       `json:"overview" validate:"required"`
	ReleaseDate   string       `json:"release_date" validate:"required,datetime=2006-01-02"`
	PosterPath    string       `json:"poster_path" validate:"required"`
	BackdropPath  string       `json:"backdrop_path"`
	VoteAverage   float64      `json:"vote_average" validate:"gte=0,lte=10"`
	VoteCount     int64        `json:"vote_count" validate:"gte=0"`
	Popularity    float64      `json:"popularity" validate:"gte=0"`
	Runtime       int          `json:"runtime" validate:"gte=0"`
	Genres        []Genre      `json:"genres" validate:"dive"`
	Director      string       `json:"director"`
	Cast          []CastMember `json:"cast" validate:"dive"`
	TrailerKey    string       `json:"trailer_key"`
	WatchURL      string       `json:"watch_url" validate:"omitempty,url"`
}

type MovieQuery struct {
	Search string
	Page   int
	Limit  int
}
