// Package catalog loads the static learning-resource catalog and exposes
// keyword-based lookup for the Roadmap Planner. The catalog is read-only
// process state: loaded once at startup via LoadCatalog, the same
// find-the-file-then-unmarshal-yaml shape internal/config uses for its own
// search path.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"resumatch/internal/domain"
	"resumatch/internal/keyword"
)

//go:embed resources.yaml
var embedded embed.FS

const embeddedPath = "resources.yaml"

// file is the on-disk shape of resources.yaml: a list of resources plus an
// alias table mapping alternate spellings (e.g. "k8s") onto the keywords
// actually attached to catalog entries (e.g. "kubernetes").
type file struct {
	Resources []domain.LearningResource `yaml:"resources"`
	Aliases   map[string]string         `yaml:"aliases"`
}

// Catalog is an in-memory, read-only index over the learning resource list.
type Catalog struct {
	resources []domain.LearningResource
	byKeyword map[string][]int
	aliases   map[string]string
}

// LoadCatalog reads path if non-empty and present, otherwise falls back to
// the catalog embedded in the binary at build time. A relative or missing
// path is not an error — resumatchctl's "catalog validate" subcommand relies
// on being able to run against the embedded default with no config at all.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := readCatalogBytes(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parsing resources.yaml: %w", err)
	}
	if len(f.Resources) == 0 {
		return nil, fmt.Errorf("catalog: resources.yaml has no entries")
	}

	c := &Catalog{
		resources: f.Resources,
		byKeyword: make(map[string][]int),
		aliases:   f.Aliases,
	}
	for i, r := range c.resources {
		for _, kw := range r.Keywords {
			norm := keyword.Normalize(kw)
			c.byKeyword[norm] = append(c.byKeyword[norm], i)
		}
	}
	return c, nil
}

func readCatalogBytes(path string) ([]byte, error) {
	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			return b, nil
		}
	}
	return embedded.ReadFile(embeddedPath)
}

// Size reports how many resources the catalog holds.
func (c *Catalog) Size() int {
	return len(c.resources)
}

// All returns every catalog entry, in load order.
func (c *Catalog) All() []domain.LearningResource {
	out := make([]domain.LearningResource, len(c.resources))
	copy(out, c.resources)
	return out
}

// resolveKeyword follows a single alias hop, if one exists, and normalizes.
func (c *Catalog) resolveKeyword(kw string) string {
	norm := keyword.Normalize(kw)
	if target, ok := c.aliases[norm]; ok {
		return keyword.Normalize(target)
	}
	return norm
}

// Lookup returns every resource tagged with kw (after alias resolution),
// sorted by difficulty (beginner first) then title, for deterministic
// roadmap binding.
func (c *Catalog) Lookup(kw string) []domain.LearningResource {
	idxs := c.byKeyword[c.resolveKeyword(kw)]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]domain.LearningResource, len(idxs))
	for i, idx := range idxs {
		out[i] = c.resources[idx]
	}
	sortByDifficultyThenTitle(out)
	return out
}

// LookupAny returns, for each keyword in kws (in order), the best matching
// resources, deduplicated by URL and capped at limit total. Used by the
// Roadmap Planner to bind 1-3 resources per week without repeats across
// weeks when callers pass an accumulated "already used" set via exclude.
func (c *Catalog) LookupAny(kws []string, limit int, exclude map[string]bool) []domain.LearningResource {
	var out []domain.LearningResource
	seen := make(map[string]bool)
	for _, kw := range kws {
		for _, r := range c.Lookup(kw) {
			if seen[r.URL] || exclude[r.URL] {
				continue
			}
			seen[r.URL] = true
			out = append(out, r)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// HasKeyword reports whether any catalog entry (directly or via alias)
// covers kw. The Roadmap Planner's gap-coverage computation uses this to
// tell a genuinely uncatalogued gap from a binding miss.
func (c *Catalog) HasKeyword(kw string) bool {
	return len(c.byKeyword[c.resolveKeyword(kw)]) > 0
}

func sortByDifficultyThenTitle(rs []domain.LearningResource) {
	rank := map[domain.ResourceDifficulty]int{
		domain.DifficultyBeginner:     0,
		domain.DifficultyIntermediate: 1,
		domain.DifficultyAdvanced:     2,
	}
	sort.Slice(rs, func(i, j int) bool {
		if rank[rs[i].Difficulty] != rank[rs[j].Difficulty] {
			return rank[rs[i].Difficulty] < rank[rs[j].Difficulty]
		}
		return rs[i].Title < rs[j].Title
	})
}

// Validate checks structural integrity of the catalog: every entry has a
// non-empty URL, title, and at least one keyword. resumatchctl's "catalog
// validate" subcommand is this method plus a process exit code.
func (c *Catalog) Validate() []error {
	var errs []error
	seenURL := make(map[string]bool)
	for i, r := range c.resources {
		if r.Title == "" {
			errs = append(errs, fmt.Errorf("resource %d: missing title", i))
		}
		if r.URL == "" {
			errs = append(errs, fmt.Errorf("resource %d (%s): missing url", i, r.Title))
		} else if seenURL[r.URL] {
			errs = append(errs, fmt.Errorf("resource %d (%s): duplicate url %s", i, r.Title, r.URL))
		}
		seenURL[r.URL] = true
		if len(r.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("resource %d (%s): no keywords", i, r.Title))
		}
	}
	return errs
}
