package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rana718/mfgseed/internal/bootstrap"
	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/loader"
	"github.com/Rana718/mfgseed/internal/logger"
	"github.com/Rana718/mfgseed/internal/resolver"
	"gopkg.in/yaml.v3"
)

type StoreSummary struct {
	Name        string          `yaml:"name"`
	Provider    string          `yaml:"provider,omitempty"`
	Created     int             `yaml:"created"`
	Indexes     int             `yaml:"indexes"`
	ForeignKeys int             `yaml:"foreign_keys"`
	GeoIndexes  int             `yaml:"geo_indexes,omitempty"`
	Warnings    []string        `yaml:"warnings,omitempty"`
	Kinds       []loader.Result `yaml:"kinds"`
}

// Summary is printed at the end of every run and optionally written as YAML.
type Summary struct {
	Seed          int64              `yaml:"seed"`
	Deterministic bool               `yaml:"deterministic"`
	ReferenceDate string             `yaml:"reference_date"`
	Phase         string             `yaml:"phase"`
	Error         string             `yaml:"error,omitempty"`
	StartedAt     time.Time          `yaml:"started_at"`
	FinishedAt    time.Time          `yaml:"finished_at"`
	Stores        []*StoreSummary    `yaml:"stores"`
	Resolution    []resolver.Outcome `yaml:"resolution,omitempty"`
}

func newSummary(cfg *config.Config) *Summary {
	return &Summary{
		Seed:          cfg.Seed,
		Deterministic: cfg.Deterministic(),
		ReferenceDate: cfg.ReferenceDate,
		Phase:         Starting.String(),
		StartedAt:     time.Now().UTC(),
	}
}

func (s *Summary) store(name string) *StoreSummary {
	for _, st := range s.Stores {
		if st.Name == name {
			return st
		}
	}
	st := &StoreSummary{Name: name}
	s.Stores = append(s.Stores, st)
	return st
}

func (s *Summary) schema(name string, rep bootstrap.Report) {
	st := s.store(name)
	st.Created += rep.Created
	st.Indexes += rep.Indexes
	st.ForeignKeys += rep.ForeignKeys
	st.GeoIndexes += rep.GeoIndexes
	st.Warnings = append(st.Warnings, rep.Warnings...)
}

func (s *Summary) result(name, provider string, res loader.Result) {
	st := s.store(name)
	st.Provider = provider
	st.Kinds = append(st.Kinds, res)
}

// Result returns the loader result of one kind.
func (s *Summary) Result(kind string) (loader.Result, bool) {
	for _, st := range s.Stores {
		for _, r := range st.Kinds {
			if r.Kind == kind {
				return r, true
			}
		}
	}
	return loader.Result{}, false
}

// Results indexes every loader result by kind.
func (s *Summary) Results() map[string]loader.Result {
	out := make(map[string]loader.Result)
	for _, st := range s.Stores {
		for _, r := range st.Kinds {
			out[r.Kind] = r
		}
	}
	return out
}

func (s *Summary) Warnings() []string {
	var out []string
	for _, st := range s.Stores {
		out = append(out, st.Warnings...)
	}
	for _, o := range s.Resolution {
		if o.Error != "" {
			out = append(out, o.Step+": "+o.Error)
		}
	}
	return out
}

func (s *Summary) print(log *logger.Logger) {
	log.Info("\n📊 Summary")
	var inserted, skipped int
	for _, st := range s.Stores {
		log.Info("  %s (%s)", st.Name, st.Provider)
		for _, r := range st.Kinds {
			line := fmt.Sprintf("    %-22s %9d / %-9d", r.Kind, r.Inserted, r.Target)
			if r.Skipped > 0 {
				line += fmt.Sprintf(" skipped %d", r.Skipped)
			}
			log.Detail("%s", line)
			inserted += r.Inserted
			skipped += r.Skipped
		}
	}
	var resolved int64
	for _, o := range s.Resolution {
		resolved += o.Rows
	}
	log.Info("  %d rows inserted, %d skipped, %d rows updated by resolution in %s",
		inserted, skipped, resolved, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	if w := s.Warnings(); len(w) > 0 {
		log.Warn("%d warning(s) during the run", len(w))
	}
}

func (s *Summary) write(path string) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
