package sleep

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/wearmon/internal/models"
)

const (
	debugTitle = "Debug sleep"
	debugNotes = "Inserted by wearmon debug"
)

// DebugSession builds an eight hour session ending at the last full hour
// before now: three hours of light sleep followed by deep sleep.
func DebugSession(now time.Time) models.RawRecord {
	end := now.Truncate(time.Hour)
	start := end.Add(-8 * time.Hour)

	return models.RawRecord{
		Type:  models.RecordTypeSleepSession,
		Start: start,
		End:   end,
		Title: debugTitle,
		Notes: debugNotes,
		Stages: []models.SleepStageInterval{
			{Start: start, End: start.Add(3 * time.Hour), Stage: models.StageLight},
			{Start: start.Add(3 * time.Hour), End: end, Stage: models.StageDeep},
		},
	}
}

type importFile struct {
	Sessions []importSession `yaml:"sessions"`
}

type importSession struct {
	Start  time.Time     `yaml:"start"`
	End    time.Time     `yaml:"end"`
	ID     string        `yaml:"id"`
	Title  string        `yaml:"title"`
	Notes  string        `yaml:"notes"`
	Stages []importStage `yaml:"stages"`
}

type importStage struct {
	Start time.Time `yaml:"start"`
	End   time.Time `yaml:"end"`
	Stage string    `yaml:"stage"`
}

// ParseImport decodes a YAML document with a top-level sessions list.
// Stage tags are kept verbatim; unknown ones are reported by Unrecognized
// when the summary is computed.
func ParseImport(data []byte) ([]models.RawRecord, error) {
	var f importFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sleep import: %w", err)
	}

	records := make([]models.RawRecord, 0, len(f.Sessions))
	for i, s := range f.Sessions {
		if s.Start.IsZero() || s.End.IsZero() {
			return nil, fmt.Errorf("session %d: start and end are required", i)
		}
		if s.End.Before(s.Start) {
			return nil, fmt.Errorf("session %d: end %s is before start %s", i, s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
		}

		rec := models.RawRecord{
			ID:    s.ID,
			Type:  models.RecordTypeSleepSession,
			Start: s.Start,
			End:   s.End,
			Title: s.Title,
			Notes: s.Notes,
		}
		for _, st := range s.Stages {
			rec.Stages = append(rec.Stages, models.SleepStageInterval{
				Start: st.Start,
				End:   st.End,
				Stage: models.SleepStage(st.Stage),
			})
		}
		records = append(records, rec)
	}
	return records, nil
}
