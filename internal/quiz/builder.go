// Package quiz holds the question set builder and the session state
// machine that drives a single playthrough.
package quiz

import (
	"math/rand"
	"strings"

	"bird-quiz-service/internal/domain"
)

const (
	distractorCount = 3
	maxSuggestions  = 5
)

// Build derives the full question sequence for one session: a uniform
// random permutation of the catalog, every bird exactly once. For multiple
// choice configs each question carries the correct answer plus up to three
// distractors sampled without replacement, deduplicated by displayed value.
// The output is a pure function of catalog, config, and rng seed.
func Build(birds []domain.Bird, cfg domain.GameConfig, rng *rand.Rand) ([]domain.Question, error) {
	if len(birds) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	questions := make([]domain.Question, 0, len(birds))
	for _, idx := range rng.Perm(len(birds)) {
		q := domain.Question{Bird: birds[idx]}
		if cfg.OptionsType == domain.OptionsMultipleChoice {
			q.Options = buildOptions(birds, idx, cfg.GuessType, rng)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func buildOptions(birds []domain.Bird, correct int, guess domain.GuessType, rng *rand.Rand) []string {
	answer := birds[correct].Name(guess)
	seen := map[string]struct{}{answer: {}}

	options := make([]string, 0, distractorCount+1)
	for _, i := range rng.Perm(len(birds)) {
		if i == correct {
			continue
		}
		value := birds[i].Name(guess)
		if _, dup := seen[value]; dup {
			// Two species can share a displayed name; a distractor equal to
			// the answer (or another distractor) would be unanswerable.
			continue
		}
		seen[value] = struct{}{}
		options = append(options, value)
		if len(options) == distractorCount {
			break
		}
	}

	// Fewer than three distinct values is fine; the question degrades to
	// however many are available.
	options = append(options, answer)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// Suggest filters the catalog's target-field values by case-insensitive
// substring match, in catalog order, capped at five. Used by the assisted
// text mode; it never influences grading.
func Suggest(birds []domain.Bird, guess domain.GuessType, partial string) []string {
	needle := strings.ToLower(strings.TrimSpace(partial))
	if needle == "" {
		return nil
	}

	var matches []string
	for _, b := range birds {
		value := b.Name(guess)
		if strings.Contains(strings.ToLower(value), needle) {
			matches = append(matches, value)
			if len(matches) == maxSuggestions {
				break
			}
		}
	}
	return matches
}
