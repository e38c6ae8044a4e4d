// Package faker produces plausible manufacturing values from a caller-owned random
// source. It never reads the clock, so a seeded source replays the same values.
package faker

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

type City struct {
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
}

var Cities = []City{
	{"Stuttgart", "DE", 48.7758, 9.1829},
	{"Munich", "DE", 48.1351, 11.5820},
	{"Lyon", "FR", 45.7640, 4.8357},
	{"Turin", "IT", 45.0703, 7.6869},
	{"Katowice", "PL", 50.2649, 19.0238},
	{"Gothenburg", "SE", 57.7089, 11.9746},
	{"Detroit", "US", 42.3314, -83.0458},
	{"Monterrey", "MX", 25.6866, -100.3161},
	{"Greenville", "US", 34.8526, -82.3940},
	{"Sao Paulo", "BR", -23.5505, -46.6333},
	{"Nagoya", "JP", 35.1815, 136.9066},
	{"Suzhou", "CN", 31.2989, 120.5853},
	{"Pune", "IN", 18.5204, 73.8567},
	{"Chonburi", "TH", 13.3611, 100.9847},
	{"Ulsan", "KR", 35.5384, 129.3114},
	{"Johannesburg", "ZA", -26.2041, 28.0473},
	{"Melbourne", "AU", -37.8136, 144.9631},
	{"Ontario", "CA", 43.6532, -79.3832},
	{"Bilbao", "ES", 43.2630, -2.9350},
	{"Gyor", "HU", 47.6875, 17.6504},
}

var (
	firstNames = []string{"Anna", "Ben", "Carla", "David", "Elena", "Farid", "Greta", "Hiro", "Ines", "Jonas",
		"Kemal", "Lena", "Marco", "Nadia", "Oskar", "Priya", "Quentin", "Rosa", "Sven", "Tomoko",
		"Uma", "Victor", "Wei", "Ximena", "Yusuf", "Zofia"}
	lastNames = []string{"Schmidt", "Rossi", "Nowak", "Garcia", "Tanaka", "Larsen", "Dubois", "Kim", "Patel",
		"Silva", "Novak", "Meyer", "Jensen", "Moreau", "Kowalski", "Chen", "Okafor", "Berg", "Ivanova", "Brown"}
	companyStems = []string{"Apex", "Borealis", "Castell", "Delta", "Eisen", "Fulcrum", "Granit", "Helix",
		"Ionic", "Juno", "Kestrel", "Lumen", "Meridian", "Nordwerk", "Orbis", "Precision", "Quanta",
		"Riverton", "Stahl", "Titan", "Unity", "Vektor", "Westfield", "Zenith"}
	companySuffixes = []string{"GmbH", "Industries", "Components", "Metals", "Polymers", "Logistics",
		"Supply Co.", "Systems", "Fabrication", "AG", "Ltd."}
	words = []string{"bracket", "housing", "shaft", "gasket", "valve", "bearing", "flange", "coupling",
		"rotor", "sensor", "panel", "fastener", "manifold", "spring", "seal", "bushing", "cover", "gear"}
	materials = []string{"steel", "aluminium", "brass", "polymer", "composite", "titanium", "rubber", "copper"}
)

type Faker struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Faker {
	return &Faker{rng: rng}
}

func (f *Faker) Rand() *rand.Rand {
	return f.rng
}

// Pick returns one element of list.
func (f *Faker) Pick(list []string) string {
	return list[f.rng.Intn(len(list))]
}

func (f *Faker) Chance(p float64) bool {
	return f.rng.Float64() < p
}

// Between returns an int in [lo, hi].
func (f *Faker) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + f.rng.Intn(hi-lo+1)
}

// Amount returns a value in [lo, hi) rounded to cents.
func (f *Faker) Amount(lo, hi float64) float64 {
	return Round(lo+f.rng.Float64()*(hi-lo), 2)
}

func (f *Faker) Float(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}

func (f *Faker) FirstName() string { return f.Pick(firstNames) }

func (f *Faker) LastName() string { return f.Pick(lastNames) }

// Email is unique for distinct n.
func (f *Faker) Email(first, last string, n int) string {
	return fmt.Sprintf("%s.%s.%d@mfg.example", strings.ToLower(first), strings.ToLower(last), n)
}

func (f *Faker) Company() string {
	return f.Pick(companyStems) + " " + f.Pick(companySuffixes)
}

func (f *Faker) City() City {
	return Cities[f.rng.Intn(len(Cities))]
}

func (f *Faker) Part() string {
	return capitalize(f.Pick(materials)) + " " + f.Pick(words)
}

func (f *Faker) Sentence() string {
	return fmt.Sprintf("%s %s %s", capitalize(f.Pick(materials)), f.Pick(words), f.Pick([]string{
		"within tolerance", "requires inspection", "replaced during shift", "reported by operator",
		"flagged by line supervisor", "pending supplier review"}))
}

// Letters returns n upper-case ASCII letters.
func (f *Faker) Letters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('A' + f.rng.Intn(26))
	}
	return string(b)
}

// UUID draws a version 4 UUID from the seeded source.
func (f *Faker) UUID() string {
	id, err := uuid.NewRandomFromReader(f.rng)
	if err != nil {
		// *rand.Rand never fails to read
		panic(err)
	}
	return id.String()
}

// ObjectID returns 12 random bytes for a document _id.
func (f *Faker) ObjectID() [12]byte {
	var id [12]byte
	f.rng.Read(id[:])
	return id
}

// DaysBefore returns ref minus up to maxDays days, at midnight.
func (f *Faker) DaysBefore(ref time.Time, maxDays int) time.Time {
	return Day(ref).AddDate(0, 0, -f.rng.Intn(maxDays+1))
}

// MomentBefore returns ref minus up to window, at second resolution.
func (f *Faker) MomentBefore(ref time.Time, window time.Duration) time.Time {
	secs := int64(window / time.Second)
	if secs <= 0 {
		return ref
	}
	return ref.Add(-time.Duration(f.rng.Int63n(secs)) * time.Second)
}

// After returns a moment in [start, start+window].
func (f *Faker) After(start time.Time, window time.Duration) time.Time {
	secs := int64(window / time.Second)
	if secs <= 0 {
		return start
	}
	return start.Add(time.Duration(f.rng.Int63n(secs+1)) * time.Second)
}

// DayAfter returns a date in [start, limit]; limit before start yields start.
func (f *Faker) DayAfter(start, limit time.Time) time.Time {
	days := int(Day(limit).Sub(Day(start)).Hours() / 24)
	if days <= 0 {
		return Day(start)
	}
	return Day(start).AddDate(0, 0, f.rng.Intn(days+1))
}

// Near moves a coordinate by up to km kilometres and clamps it into range.
func (f *Faker) Near(lat, lon, km float64) (float64, float64) {
	dLat := (f.rng.Float64()*2 - 1) * km / 111.0
	scale := math.Cos(lat * math.Pi / 180)
	if scale < 0.01 {
		scale = 0.01
	}
	dLon := (f.rng.Float64()*2 - 1) * km / (111.0 * scale)
	return ClampLatitude(Round(lat+dLat, 6)), ClampLongitude(Round(lon+dLon, 6))
}

func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ClampLatitude(v float64) float64 {
	return math.Max(-90, math.Min(90, v))
}

func ClampLongitude(v float64) float64 {
	return math.Max(-180, math.Min(180, v))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
