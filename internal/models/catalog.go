// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

// Item is catalog display metadata for a likeable item.
// The catalog owns it; cinematch passes it through and never caches it.
type Item struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	PosterURL   string  `json:"poster_url,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
}

// ItemPage is one page of the swipe deck.
type ItemPage struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Items      []Item `json:"items"`
}
