// Package loam adapts a directory of scenario documents, managed by the loam library, to ports.ScenarioSource.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
	"github.com/parleyhq/parley/pkg/domain"
)

// WatchPattern selects the files that count as scenario documents.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Source implements ports.ScenarioSource and ports.Watchable over a loam repository.
type Source struct {
	Repo *loam.TypedRepository[ScenarioMetadata]
}

// New wraps an existing typed repository.
func New(repo *loam.TypedRepository[ScenarioMetadata]) *Source {
	return &Source{Repo: repo}
}

// Open initializes a read-only, strict loam repository rooted at dir.
// Strict mode makes every serializer return json.Number, so score deltas decode the same
// way from Markdown frontmatter, YAML and JSON.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ScenarioMetadata](repo)), nil
}

// GetScenario resolves id first as a document path (intro -> intro.yaml) and then by declared id.
func (s *Source) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	if doc, err := s.Repo.Get(ctx, id); err == nil {
		sc, err := toScenario(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if sc.ID == id {
			return sc, nil
		}
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
}

// ListScenarios decodes every document in the repository.
// Two documents declaring the same id is an error.
func (s *Source) ListScenarios(ctx context.Context) ([]domain.ScenarioSummary, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScenarioSummary, 0, len(all))
	for i := range all {
		out = append(out, all[i].Summary())
	}
	return out, nil
}

func (s *Source) load(ctx context.Context) ([]domain.Scenario, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make([]domain.Scenario, 0, len(docs))
	for _, doc := range docs {
		sc, err := toScenario(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[sc.ID]; ok {
			return nil, fmt.Errorf("collision detected: scenario '%s' is defined in both '%s' and '%s'", sc.ID, existing, doc.ID)
		}
		seen[sc.ID] = doc.ID
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func toScenario(docID string, meta ScenarioMetadata, content string) (*domain.Scenario, error) {
	id := meta.ID
	if id == "" {
		id = docID
	}
	id = trimExtension(id)

	sc := &domain.Scenario{
		ID:          id,
		Title:       meta.Title,
		Description: meta.Description,
	}
	if sc.Title == "" {
		sc.Title = id
	}
	if sc.Description == "" {
		sc.Description = strings.TrimSpace(content)
	}

	if err := decode(meta.Dialogues, &sc.Dialogues); err != nil {
		return nil, fmt.Errorf("scenario %s: failed to decode dialogues: %w", id, err)
	}
	if len(meta.Steps) > 0 {
		var steps []domain.Step
		if err := decode(meta.Steps, &steps); err != nil {
			return nil, fmt.Errorf("scenario %s: failed to decode steps: %w", id, err)
		}
		sc.Dialogues = append(sc.Dialogues, domain.StepGraph{ID: id, Title: sc.Title, Steps: steps})
	}
	if len(sc.Dialogues) == 0 {
		return nil, fmt.Errorf("scenario %s (%s) has no dialogues", id, docID)
	}
	return sc, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}

// Watch implements ports.Watchable. Each event carries the id of the changed document.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
