package providers

import (
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

var errNoCity = errors.New("location has no city to geocode")

// GeocodeFunc resolves a city to coordinates.
type GeocodeFunc func(city, country string) (lat, lon float64, err error)

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	return func(city, country string) (float64, float64, error) {
		geocoder.ApiKey = apiKey
		location, err := geocoder.Geocoding(geocoder.Address{
			City:    city,
			Country: country,
		})
		if err != nil {
			return 0, 0, err
		}
		return location.Latitude, location.Longitude, nil
	}
}

// ResolveLocation fills Lat/Lon of loc from its City/Country.
func ResolveLocation(loc weather.Location, geocode GeocodeFunc) (weather.Location, error) {
	if loc.City == "" {
		return loc, errNoCity
	}
	lat, lon, err := geocode(loc.City, loc.Country)
	if err != nil {
		return loc, fmt.Errorf("geocode %s,%s: %w", loc.City, loc.Country, err)
	}
	loc.Lat, loc.Lon = lat, lon
	return loc, nil
}
