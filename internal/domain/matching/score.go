// Package matching scores caregiver profiles against an elder's care
// requirements and returns the best candidates.
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/carelink/carelink/internal/domain/agency"
)

// Factor weights. They sum to 1.0 so the total is directly comparable
// across searches.
const (
	weightLanguage     = 0.25
	weightDistance     = 0.20
	weightSkills       = 0.20
	weightAvailability = 0.15
	weightExperience   = 0.10
	weightTrust        = 0.10
)

// DefaultRadiusKm bounds the distance normalization when the request does
// not set one.
const DefaultRadiusKm = 50.0

// MaxResults caps the candidate list returned per search.
const MaxResults = 20

// Request carries the elder's location and care requirements.
type Request struct {
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Languages        []string `json:"languages"`
	Skills           []string `json:"skills"`
	AvailabilityDays []string `json:"availabilityDays"`
	RadiusKm         float64  `json:"radiusKm"`
}

// Breakdown holds the per-factor contributions, each already weighted.
type Breakdown struct {
	Language     float64 `json:"language"`
	Distance     float64 `json:"distance"`
	Skills       float64 `json:"skills"`
	Availability float64 `json:"availability"`
	Experience   float64 `json:"experience"`
	Trust        float64 `json:"trust"`
}

// Match pairs a candidate profile with its score.
type Match struct {
	Profile    *agency.CaregiverProfile `json:"profile"`
	Score      float64                  `json:"score"`
	Breakdown  Breakdown                `json:"breakdown"`
	DistanceKm *float64                 `json:"distanceKm,omitempty"`
}

// FindMatches scores every candidate and returns the top MaxResults in
// descending score order. Pure function over the already-fetched pool.
func FindMatches(req Request, candidates []*agency.CaregiverProfile) []Match {
	if req.RadiusKm <= 0 {
		req.RadiusKm = DefaultRadiusKm
	}

	matches := make([]Match, 0, len(candidates))
	for _, p := range candidates {
		matches = append(matches, scoreCandidate(req, p))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches
}

func scoreCandidate(req Request, p *agency.CaregiverProfile) Match {
	m := Match{Profile: p}

	m.Breakdown.Language = overlapFraction(req.Languages, p.Languages) * weightLanguage
	m.Breakdown.Skills = overlapFraction(req.Skills, p.Skills) * weightSkills
	m.Breakdown.Availability = overlapFraction(req.AvailabilityDays, p.AvailabilityDays) * weightAvailability
	m.Breakdown.Experience = experienceFactor(p.YearsExperience) * weightExperience
	m.Breakdown.Trust = p.TrustScore * weightTrust

	if req.Latitude != nil && req.Longitude != nil && p.Latitude != nil && p.Longitude != nil {
		d := haversineKm(*req.Latitude, *req.Longitude, *p.Latitude, *p.Longitude)
		m.DistanceKm = &d
		m.Breakdown.Distance = math.Max(0, 1-d/req.RadiusKm) * weightDistance
	}
	// candidates without a location score 0 on distance

	m.Score = m.Breakdown.Language + m.Breakdown.Distance + m.Breakdown.Skills +
		m.Breakdown.Availability + m.Breakdown.Experience + m.Breakdown.Trust
	return m
}

// overlapFraction returns the fraction of required items the candidate has.
// An empty requirement list is no constraint and scores 1.0.
func overlapFraction(required, have []string) float64 {
	if len(required) == 0 {
		return 1.0
	}
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[strings.ToLower(strings.TrimSpace(h))] = true
	}
	hits := 0
	for _, r := range required {
		if haveSet[strings.ToLower(strings.TrimSpace(r))] {
			hits++
		}
	}
	return float64(hits) / float64(len(required))
}

// experienceFactor buckets years of experience into a 0.25..1.0 factor.
func experienceFactor(years float64) float64 {
	switch {
	case years < 1:
		return 0.25
	case years < 3:
		return 0.50
	case years < 5:
		return 0.75
	default:
		return 1.00
	}
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
