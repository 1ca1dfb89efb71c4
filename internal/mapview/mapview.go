// Package mapview builds the configuration for the embedded clinic map.
package mapview

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

const (
	minZoom = 1
	maxZoom = 19
)

// Marker pins the clinic on the map.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Title string  `json:"title"`
	Popup string  `json:"popup"`
}

// Widget is the serialisable map state consumed by the browser init script.
type Widget struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Zoom        int     `json:"zoom"`
	TileURL     string  `json:"tileUrl"`
	Attribution string  `json:"attribution"`
	Marker      Marker  `json:"marker"`
	Directions  string  `json:"directions"`
}

// New centres a widget on cfg and attaches a marker describing clinic.
func New(cfg config.MapConfig, clinic content.Clinic) Widget {
	zoom := cfg.Zoom
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	return Widget{
		Lat:         cfg.Latitude,
		Lng:         cfg.Longitude,
		Zoom:        zoom,
		TileURL:     cfg.TileURL,
		Attribution: cfg.Attribution,
		Marker: Marker{
			Lat:   cfg.Latitude,
			Lng:   cfg.Longitude,
			Title: clinic.Name,
			Popup: Popup(clinic),
		},
		Directions: DirectionsURL(cfg.Latitude, cfg.Longitude),
	}
}

// Popup renders the clinic's name and address as escaped HTML lines.
func Popup(c content.Clinic) string {
	var lines []string
	if c.Name != "" {
		lines = append(lines, "<strong>"+html.EscapeString(c.Name)+"</strong>")
	}
	if c.Street != "" {
		lines = append(lines, html.EscapeString(c.Street))
	}
	if locality := strings.TrimSpace(c.PostalCode + " " + c.City); locality != "" {
		lines = append(lines, html.EscapeString(locality))
	}
	if c.Phone != "" {
		lines = append(lines, html.EscapeString(c.Phone))
	}
	return strings.Join(lines, "<br>")
}

// AddressLine joins the postal address on one line.
func AddressLine(c content.Clinic) string {
	parts := make([]string, 0, 3)
	if c.Street != "" {
		parts = append(parts, c.Street)
	}
	if locality := strings.TrimSpace(c.PostalCode + " " + c.City); locality != "" {
		parts = append(parts, locality)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, ", ")
}

// DirectionsURL links to an OpenStreetMap route to the given coordinates.
func DirectionsURL(lat, lng float64) string {
	q := url.Values{}
	q.Set("route", fmt.Sprintf(";%f,%f", lat, lng))
	return "https://www.openstreetmap.org/directions?" + q.Encode()
}

// JSON returns the widget as a script-safe JSON literal.
func (w Widget) JSON() template.JS {
	b, err := json.Marshal(w)
	if err != nil {
		return template.JS("{}")
	}
	return template.JS(b)
}
