package mapview

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manuwestern/dionwebsite/internal/content"
	"github.com/manuwestern/dionwebsite/internal/platform/config"
)

func TestNewPlacesMarkerAtClinic(t *testing.T) {
	cfg := config.MapConfig{Latitude: 52.5, Longitude: 13.4, Zoom: 40, TileURL: "https://tiles/{z}/{x}/{y}.png", Attribution: "OSM"}
	clinic := content.Clinic{Name: "Dion <Clinic>", Street: "Kurfürstendamm 1", PostalCode: "10719", City: "Berlin", Phone: "+49 30 1"}

	w := New(cfg, clinic)
	require.Equal(t, maxZoom, w.Zoom)
	require.Equal(t, 52.5, w.Marker.Lat)
	require.Equal(t, 13.4, w.Marker.Lng)
	require.Contains(t, w.Marker.Popup, "&lt;Clinic&gt;")
	require.Contains(t, w.Marker.Popup, "10719 Berlin")
	require.True(t, strings.HasPrefix(w.Directions, "https://www.openstreetmap.org/directions?"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.JSON()), &decoded))
	require.Equal(t, "https://tiles/{z}/{x}/{y}.png", decoded["tileUrl"])
}

func TestAddressLine(t *testing.T) {
	c := content.Clinic{Street: "Hauptstr. 5", PostalCode: "10115", City: "Berlin", Country: "DE"}
	require.Equal(t, "Hauptstr. 5, 10115 Berlin, DE", AddressLine(c))
	require.Equal(t, "", AddressLine(content.Clinic{}))
}
