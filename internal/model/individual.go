package model

// Position is a harmonized position group.
type Position string

const (
	PosQB Position = "QB"
	PosRB Position = "RB"
	PosWR Position = "WR"
	PosTE Position = "TE"
	PosOL Position = "OL"
	PosDL Position = "DL"
	PosLB Position = "LB"
	PosDB Position = "DB"
	PosK  Position = "K"
	PosP  Position = "P"
	PosST Position = "ST"
)

// positionAliases maps raw depth-chart positions onto the harmonized groups
// used throughout the engine (cohorts, quotas, archetypes).
var positionAliases = map[string]Position{
	"QB": PosQB,
	"RB": PosRB, "HB": PosRB, "FB": PosRB,
	"WR": PosWR, "SE": PosWR, "FL": PosWR,
	"TE": PosTE,
	"C":  PosOL, "G": PosOL, "T": PosOL, "OG": PosOL, "OT": PosOL,
	"LG": PosOL, "RG": PosOL, "LT": PosOL, "RT": PosOL, "OL": PosOL,
	"DE": PosDL, "DT": PosDL, "NT": PosDL, "NG": PosDL, "DL": PosDL,
	"LE": PosDL, "RE": PosDL, "LDE": PosDL, "RDE": PosDL,
	"LB": PosLB, "MLB": PosLB, "OLB": PosLB, "ILB": PosLB,
	"LOLB": PosLB, "ROLB": PosLB, "WLB": PosLB, "SLB": PosLB,
	"CB": PosDB, "S": PosDB, "FS": PosDB, "SS": PosDB, "SAF": PosDB,
	"LCB": PosDB, "RCB": PosDB, "NCB": PosDB, "DB": PosDB,
	"K": PosK, "PK": PosK,
	"P":  PosP,
	"LS": PosST, "KR": PosST, "PR": PosST, "ST": PosST,
}

// HarmonizePosition maps a raw position string to its harmonized group.
// Unknown positions pass through unchanged so they surface in run warnings
// instead of being silently dropped.
func HarmonizePosition(raw string) Position {
	if p, ok := positionAliases[raw]; ok {
		return p
	}
	return Position(raw)
}

// Honors holds career-level peer recognition counts.
type Honors struct {
	ProBowls   int  `json:"pro_bowls"`
	AllPros    int  `json:"all_pros"`
	HallOfFame bool `json:"hall_of_fame"`
	// ElitePeer marks top-tier recognition outside the counted honors
	// (e.g. an all-decade selection).
	ElitePeer bool `json:"elite_peer,omitempty"`
}

// DraftInfo holds draft metadata for drafted individuals.
type DraftInfo struct {
	Year        int `json:"year"`
	Round       int `json:"round"`
	OverallPick int `json:"overall_pick"`
}

// TeamTenure is a contiguous stint with one team.
type TeamTenure struct {
	Team            string `json:"team"`
	FirstYear       int    `json:"first_year"`
	LastYear        int    `json:"last_year"`
	PostseasonGames int    `json:"postseason_games"`
}

// Measurements holds physical measurements; nil means not recorded.
type Measurements struct {
	HeightIn     *float64 `json:"height_in,omitempty"`
	WeightLb     *float64 `json:"weight_lb,omitempty"`
	FortyTime    *float64 `json:"forty_time,omitempty"`
	VerticalJump *float64 `json:"vertical_jump,omitempty"`
	BenchPress   *float64 `json:"bench_press,omitempty"`
}

// IndividualRecord is one real-world athlete as produced by ingestion.
// Records are read-only inputs: the pipeline never mutates them.
type IndividualRecord struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Positions    []Position     `json:"positions"`
	BirthYear    int            `json:"birth_year,omitempty"`
	FirstYear    int            `json:"first_year"`
	LastYear     int            `json:"last_year"`
	Seasons      int            `json:"seasons"`
	Games        int            `json:"games"`
	Measurements Measurements   `json:"measurements"`
	Honors       Honors         `json:"honors"`
	Draft        *DraftInfo     `json:"draft,omitempty"`
	Tenures      []TeamTenure   `json:"tenures,omitempty"`
	SeasonStats  []SeasonMetric `json:"season_stats,omitempty"`
	// CareerStats holds career aggregates keyed by metric name
	// (career_rushing_yards, def_sacks, ...).
	CareerStats map[string]float64 `json:"career_stats,omitempty"`
}

// HasPosition reports whether the record lists the given harmonized position.
func (r *IndividualRecord) HasPosition(pos Position) bool {
	for _, p := range r.Positions {
		if p == pos {
			return true
		}
	}
	return false
}

// LongestTenure returns the longest single-team stint in seasons and the
// postseason games played during it. Zero when no tenure history exists.
func (r *IndividualRecord) LongestTenure() (seasons, postseasonGames int) {
	for _, t := range r.Tenures {
		span := t.LastYear - t.FirstYear + 1
		if span > seasons {
			seasons = span
			postseasonGames = t.PostseasonGames
		}
	}
	return seasons, postseasonGames
}

// SeasonMetric is one (individual, season, position) observation with a map
// of metric name to numeric value. Uniqueness key is (IndividualID, Year,
// Position); insertion order is irrelevant.
type SeasonMetric struct {
	IndividualID string             `json:"individual_id"`
	Year         int                `json:"year"`
	Position     Position           `json:"position"`
	Values       map[string]float64 `json:"values"`
}
