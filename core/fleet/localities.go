package fleet

import "github.com/routex/fleetlive/core/model"

// centroids for the localities the demo data ships with. Unknown
// localities fall back to defaultCentroid; real geocoding is out of
// scope, positions only need to be plausible and bounded.
var centroids = map[string]model.Position{
	"Prayagraj": {Lat: 25.447, Lng: 81.843},
	"Kanpur":    {Lat: 26.4499, Lng: 80.3319},
	"Indore":    {Lat: 22.7196, Lng: 75.8577},
	"Lucknow":   {Lat: 26.8467, Lng: 80.9462},
	"Bhopal":    {Lat: 23.2599, Lng: 77.4126},
	"Patna":     {Lat: 25.5941, Lng: 85.1376},
}

var defaultCentroid = model.Position{Lat: 25.5, Lng: 81.8}

// fallbackDestinations flavor generated routes when no geocode
// collaborator is configured or it fails.
var fallbackDestinations = []string{
	"Mirzapur", "Unnao", "Dewas", "Barabanki", "Sehore", "Danapur",
	"Fatehpur", "Rae Bareli", "Vidisha",
}

var driverNames = []string{
	"Rakesh Kumar", "Anita Devi", "Sanjay Patel", "Vijay Singh",
	"Meena Kumari", "Arjun Yadav", "Pooja Sharma", "Imran Khan",
	"Suresh Verma", "Kavita Joshi", "Ramesh Gupta", "Deepak Mishra",
}

// Centroid returns the map center for a locality.
func Centroid(locality string) model.Position {
	if c, ok := centroids[locality]; ok {
		return c
	}
	return defaultCentroid
}
