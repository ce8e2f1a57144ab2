package domain

// Reservoir identifies one of the four storage bodies tracked by the utility.
// The numeric value doubles as the index into Readings.
type Reservoir int

const (
	Mornos Reservoir = iota
	Eyinos
	Yliko
	Marathonas

	reservoirCount = 4
)

// Reservoirs lists every reservoir in canonical order.
var Reservoirs = [reservoirCount]Reservoir{Mornos, Eyinos, Yliko, Marathonas}

type reservoirInfo struct {
	key     string
	label   string
	color   string
	aliases []string
}

// Upstream sources disagree on casing and on the English spelling of Evinos,
// Yliki and Marathon, so every reservoir is looked up under several keys.
var catalog = [reservoirCount]reservoirInfo{
	Mornos:     {key: "Mornos", label: "Mornos", color: "#3b82f6", aliases: []string{"Mornos", "mornos"}},
	Eyinos:     {key: "Eyinos", label: "Evinos", color: "#10b981", aliases: []string{"Eyinos", "eyinos", "Evinos", "evinos"}},
	Yliko:      {key: "Yliko", label: "Yliki", color: "#f59e0b", aliases: []string{"Yliko", "yliko", "Yliki", "yliki"}},
	Marathonas: {key: "Marathonas", label: "Marathonas", color: "#ef4444", aliases: []string{"Marathonas", "marathonas", "Marathon", "marathon"}},
}

// Key is the identifier used in API payloads, e.g. "Eyinos".
func (r Reservoir) Key() string { return catalog[r].key }

// Label is the human-facing name, e.g. "Evinos".
func (r Reservoir) Label() string { return catalog[r].label }

// Color is the chart colour the dashboard uses for the series.
func (r Reservoir) Color() string { return catalog[r].color }

// Aliases returns the raw-record keys tried, in order, when extracting a reading.
func (r Reservoir) Aliases() []string {
	out := make([]string, len(catalog[r].aliases))
	copy(out, catalog[r].aliases)
	return out
}

func (r Reservoir) String() string { return r.Key() }

// CatalogEntry describes a reservoir for the presentation layer.
type CatalogEntry struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Color   string   `json:"color"`
	Aliases []string `json:"aliases"`
}

// Catalog returns the presentation metadata for all reservoirs in canonical order.
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, reservoirCount)
	for _, r := range Reservoirs {
		entries = append(entries, CatalogEntry{
			Key:     r.Key(),
			Label:   r.Label(),
			Color:   r.Color(),
			Aliases: r.Aliases(),
		})
	}
	return entries
}

// Readings holds one value per reservoir, indexed by Reservoir. A fixed-size
// array keeps every observation carrying exactly the four readings.
type Readings [reservoirCount]float64

// Total sums the four readings.
func (rd Readings) Total() float64 {
	var sum float64
	for _, v := range rd {
		sum += v
	}
	return sum
}
