package ingest

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rosterforge/legend-engine/internal/model"
)

// Snapshot is the immutable input to a pipeline run: identity-resolved,
// deduplicated individual records with their season metrics attached.
type Snapshot struct {
	// ID is derived from the input file contents, so two runs over the same
	// files share a snapshot identifier.
	ID          string
	Individuals []model.IndividualRecord
}

// undraftedSentinel marks undrafted individuals in legacy source data; it
// is treated as missing draft metadata, not as a very late pick.
const undraftedSentinel = 999

// LoadSnapshot reads the individuals and seasons CSV files and assembles a
// snapshot. Names are cleaned, positions harmonized, and season metrics
// deduplicated on (individual, year, position) with later rows winning.
func LoadSnapshot(individualsPath, seasonsPath string) (*Snapshot, error) {
	hasher := sha256.New()

	individuals, err := loadIndividuals(individualsPath, hasher)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.IndividualRecord, len(individuals))
	for i := range individuals {
		byID[individuals[i].ID] = &individuals[i]
	}

	seasonCount, err := loadSeasons(seasonsPath, byID, hasher)
	if err != nil {
		return nil, err
	}

	sort.Slice(individuals, func(i, j int) bool { return individuals[i].ID < individuals[j].ID })

	id := fmt.Sprintf("%s-%s", filepath.Base(individualsPath), hex.EncodeToString(hasher.Sum(nil))[:12])

	zap.L().Info("ingest: snapshot loaded",
		zap.String("snapshot", id),
		zap.Int("individuals", len(individuals)),
		zap.Int("season_rows", seasonCount),
	)

	return &Snapshot{ID: id, Individuals: individuals}, nil
}

func loadIndividuals(path string, hasher io.Writer) ([]model.IndividualRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(io.TeeReader(f, hasher))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read individuals header")
	}
	col := columnIndex(header)

	required := []string{"player_id", "full_name", "primary_pos", "first_year"}
	for _, c := range required {
		if _, ok := col[c]; !ok {
			return nil, eris.Errorf("ingest: individuals file missing column %q", c)
		}
	}

	var records []model.IndividualRecord
	seen := make(map[string]bool)
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: individuals line %d", line)
		}

		get := func(name string) string {
			idx, ok := col[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		id := get("player_id")
		if id == "" {
			zap.L().Warn("ingest: skipping row without player_id", zap.Int("line", line))
			continue
		}
		if seen[id] {
			zap.L().Warn("ingest: duplicate player_id, keeping first", zap.String("player_id", id), zap.Int("line", line))
			continue
		}
		seen[id] = true

		rec := model.IndividualRecord{
			ID:          id,
			Name:        CleanName(get("full_name")),
			BirthYear:   intField(get("birth_year")),
			FirstYear:   intField(get("first_year")),
			LastYear:    intField(get("last_year")),
			Seasons:     intField(get("career_seasons")),
			Games:       intField(get("total_career_games")),
			CareerStats: make(map[string]float64),
		}

		for _, raw := range strings.Split(get("primary_pos"), "/") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			pos := model.HarmonizePosition(strings.ToUpper(raw))
			if !rec.HasPosition(pos) {
				rec.Positions = append(rec.Positions, pos)
			}
		}

		rec.Measurements = model.Measurements{
			HeightIn:     floatField(get("height_in")),
			WeightLb:     floatField(get("weight_lb")),
			FortyTime:    floatField(get("forty_time")),
			VerticalJump: floatField(get("vertical_jump")),
			BenchPress:   floatField(get("bench_press")),
		}

		rec.Honors = model.Honors{
			ProBowls:   intField(get("pro_bowls")),
			AllPros:    intField(get("all_pros")),
			HallOfFame: boolField(get("hof_flag")),
			ElitePeer:  boolField(get("elite_peer_flag")),
		}

		if pick := intField(get("draft_pick")); pick > 0 && pick != undraftedSentinel {
			rec.Draft = &model.DraftInfo{
				Year:        intField(get("draft_year")),
				Round:       intField(get("draft_round")),
				OverallPick: pick,
			}
		}

		rec.Tenures = parseTenures(get("tenures"))

		// Any career_* or def_/playoff_ column becomes a career aggregate.
		for name, idx := range col {
			if idx >= len(row) {
				continue
			}
			if strings.HasPrefix(name, "career_") || strings.HasPrefix(name, "def_") || strings.HasPrefix(name, "playoff_") {
				if name == "career_seasons" {
					continue
				}
				if v := floatField(strings.TrimSpace(row[idx])); v != nil {
					rec.CareerStats[name] = *v
				}
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func loadSeasons(path string, byID map[string]*model.IndividualRecord, hasher io.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(io.TeeReader(f, hasher))
	header, err := r.Read()
	if err != nil {
		return 0, eris.Wrap(err, "ingest: read seasons header")
	}
	col := columnIndex(header)
	for _, c := range []string{"player_id", "season", "position", "metric", "value"} {
		if _, ok := col[c]; !ok {
			return 0, eris.Errorf("ingest: seasons file missing column %q", c)
		}
	}

	type smKey struct {
		year int
		pos  model.Position
	}
	perIndividual := make(map[string]map[smKey]map[string]float64)

	count := 0
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return 0, eris.Wrapf(err, "ingest: seasons line %d", line)
		}

		id := strings.TrimSpace(row[col["player_id"]])
		rec := byID[id]
		if rec == nil {
			continue // season row for an unknown individual
		}

		year := intField(strings.TrimSpace(row[col["season"]]))
		pos := model.HarmonizePosition(strings.ToUpper(strings.TrimSpace(row[col["position"]])))
		metric := strings.TrimSpace(row[col["metric"]])
		value := floatField(strings.TrimSpace(row[col["value"]]))
		if year == 0 || metric == "" || value == nil {
			continue
		}

		key := smKey{year: year, pos: pos}
		if perIndividual[id] == nil {
			perIndividual[id] = make(map[smKey]map[string]float64)
		}
		if perIndividual[id][key] == nil {
			perIndividual[id][key] = make(map[string]float64)
		}
		perIndividual[id][key][metric] = *value
		count++
	}

	// Attach in deterministic (year, position) order.
	for id, seasons := range perIndividual {
		rec := byID[id]
		keys := make([]smKey, 0, len(seasons))
		for k := range seasons {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].year != keys[j].year {
				return keys[i].year < keys[j].year
			}
			return keys[i].pos < keys[j].pos
		})
		for _, k := range keys {
			rec.SeasonStats = append(rec.SeasonStats, model.SeasonMetric{
				IndividualID: id,
				Year:         k.year,
				Position:     k.pos,
				Values:       seasons[k],
			})
		}
	}

	return count, nil
}

// parseTenures decodes the encoded tenure column:
// "team:first_year:last_year:postseason_games" entries joined by ';'.
func parseTenures(raw string) []model.TeamTenure {
	if raw == "" {
		return nil
	}
	var tenures []model.TeamTenure
	for _, part := range strings.Split(raw, ";") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 3 {
			continue
		}
		t := model.TeamTenure{
			Team:      fields[0],
			FirstYear: intField(fields[1]),
			LastYear:  intField(fields[2]),
		}
		if len(fields) >= 4 {
			t.PostseasonGames = intField(fields[3])
		}
		if t.Team == "" || t.FirstYear == 0 || t.LastYear < t.FirstYear {
			continue
		}
		tenures = append(tenures, t)
	}
	return tenures
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func intField(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(v)
}

func floatField(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func boolField(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}
