package topics

import (
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
)

// pillarWeights drives the weighted pillar choice for scheduled runs.
// ai-automation is the core business focus and dominates the draw.
var pillarWeights = []struct {
	pillar string
	weight int
}{
	{"ai-automation", 6},
	{"consulting", 3},
	{"industry-news", 1},
}

// Selector chooses topics from the bank while avoiding recently used ones.
type Selector struct {
	rng *rand.Rand
}

// NewSelector constructs a selector. A nil source falls back to a time-seeded one.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// Weighted picks a pillar by weight, then a uniformly random topic from that
// pillar whose key is not in excluded. When every topic of the pillar has been
// used recently the exclusion is ignored for that pillar.
func (s *Selector) Weighted(excluded []string) Topic {
	pillar := s.pickPillar()

	topic, err := s.FromPillar(pillar, excluded)
	if err != nil {
		// The bank always covers the weighted pillars; fall back to the
		// whole bank if configuration ever drifts.
		return Bank[s.rng.Intn(len(Bank))]
	}

	return topic
}

// FromPillar picks a uniformly random unused topic from the named pillar,
// ignoring the exclusion list when the pillar is exhausted.
func (s *Selector) FromPillar(pillar string, excluded []string) (Topic, error) {
	candidates := ByPillar(pillar)
	if len(candidates) == 0 {
		return Topic{}, eris.Errorf("no topics for pillar: %s", pillar)
	}

	available := filterExcluded(candidates, excluded)
	if len(available) == 0 {
		available = candidates
	}

	return available[s.rng.Intn(len(available))], nil
}

// Rotation deterministically selects the topic for a given day: the pillar
// comes from the Monday-indexed weekly rotation and the topic index from the
// day of year, skipping recently used entries.
func (s *Selector) Rotation(now time.Time, excluded []string) Topic {
	weekday := int(now.Weekday())
	adjusted := 6
	if weekday != 0 {
		adjusted = weekday - 1
	}
	pillar := Rotation[adjusted]

	candidates := ByPillar(pillar)
	if len(candidates) == 0 {
		candidates = Bank
	}

	available := filterExcluded(candidates, excluded)
	if len(available) == 0 {
		available = candidates
	}

	return available[now.YearDay()%len(available)]
}

func (s *Selector) pickPillar() string {
	total := 0
	for _, entry := range pillarWeights {
		total += entry.weight
	}

	draw := s.rng.Intn(total)
	for _, entry := range pillarWeights {
		draw -= entry.weight
		if draw < 0 {
			return entry.pillar
		}
	}

	return pillarWeights[0].pillar
}

func filterExcluded(candidates []Topic, excluded []string) []Topic {
	if len(excluded) == 0 {
		return candidates
	}

	used := make(map[string]struct{}, len(excluded))
	for _, key := range excluded {
		used[key] = struct{}{}
	}

	var available []Topic
	for _, topic := range candidates {
		if _, ok := used[topic.Key()]; !ok {
			available = append(available, topic)
		}
	}

	return available
}
