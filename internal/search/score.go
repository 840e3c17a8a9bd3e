package search

import (
	"math"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/chatmark/internal/domain"
	"github.com/MrSnakeDoc/chatmark/internal/tree"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier words are better)
	ScorePositionBonus = 10.0

	// Exact display name match bonus (huge boost)
	ScoreExactNameBonus = 200.0

	// Weight of matches found only in the note or anchored text
	ScoreBodyWeight = 0.5
)

// Candidate represents a bookmark with its match score
type Candidate struct {
	Bookmark domain.Bookmark `json:"bookmark"`
	Path     []string        `json:"path"` // Display names of the enclosing folders, outermost first
	Score    float64         `json:"score"`
}

// Score calculates the match score of a bookmark placed under path.
func Score(query *Query, b domain.Bookmark, path []string) float64 {
	if query.IsEmpty() {
		return 0.0
	}

	if query.HasPath {
		// Folder fragments are required to match an enclosing folder.
		if len(query.FolderFragments) == 0 || len(path) == 0 {
			return 0.0
		}
		folderScore := scoreFragments(query.FolderFragments, Words(strings.Join(path, " ")))
		if folderScore == 0.0 {
			return 0.0
		}
		if len(query.NameFragments) == 0 {
			return folderScore
		}
		nameScore := scoreLabel(query.NameFragments, b)
		if nameScore == 0.0 {
			return 0.0
		}
		return folderScore + nameScore
	}

	if strings.EqualFold(strings.TrimSpace(b.DisplayName), query.Raw) {
		return ScoreExactMatch + ScoreExactNameBonus
	}
	return scoreLabel(query.NameFragments, b)
}

// scoreLabel scores the display name first and falls back to the note
// and anchored text at a reduced weight.
func scoreLabel(fragments []string, b domain.Bookmark) float64 {
	if score := scoreFragments(fragments, Words(b.DisplayName)); score > 0 {
		return score
	}
	body := b.Note
	if b.Anchor != nil {
		body += " " + b.Anchor.Text
	}
	return scoreFragments(fragments, Words(body)) * ScoreBodyWeight
}

// scoreFragments requires every query fragment to match some word.
func scoreFragments(queryFragments, words []string) float64 {
	if len(queryFragments) == 0 || len(words) == 0 {
		return 0.0
	}

	var totalScore float64
	for _, qFrag := range queryFragments {
		bestScore := 0.0
		for i, word := range words {
			if score := scoreFragment(qFrag, word, i); score > bestScore {
				bestScore = score
			}
		}
		if bestScore == 0.0 {
			return 0.0
		}
		totalScore += bestScore
	}
	return totalScore
}

// scoreFragment scores a single query fragment against a word
func scoreFragment(queryFrag, word string, position int) float64 {
	queryFrag = normalizeFragment(queryFrag)
	word = normalizeFragment(word)

	if queryFrag == "" || word == "" {
		return 0.0
	}

	if queryFrag == word {
		return ScoreExactMatch + calculatePositionBonus(position)
	}

	if strings.HasPrefix(word, queryFrag) {
		return ScorePrefixMatch + calculatePositionBonus(position)
	}

	if index := strings.Index(word, queryFrag); index >= 0 {
		// Earlier substring matches get higher score
		substringBonus := ScorePositionBonus * (1.0 - float64(index)/float64(len(word)))
		return ScoreSubstringMatch + substringBonus
	}

	similarity := calculateSimilarity(queryFrag, word)
	if similarity > 0.7 {
		return ScoreFuzzyMatch * similarity
	}

	return 0.0
}

// calculatePositionBonus gives bonus for earlier positions
func calculatePositionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// calculateSimilarity is the ratio of query runes found in the word.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	matches, total := 0, 0
	for _, c := range s1 {
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}

	return float64(matches) / float64(total)
}

// Rank scores every record of the tree and returns the matches, best
// first. Equal scores keep sibling order.
func Rank(query *Query, t *tree.Tree) []Candidate {
	records := t.Records()
	sort.SliceStable(records, func(i, j int) bool { return tree.Less(records[i], records[j]) })

	candidates := make([]Candidate, 0, len(records))
	for _, b := range records {
		path := folderPath(t, b)
		score := Score(query, b, path)
		if score == 0.0 {
			continue
		}
		candidates = append(candidates, Candidate{Bookmark: b, Path: path, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// folderPath lists the display names of b's ancestors, outermost first.
func folderPath(t *tree.Tree, b domain.Bookmark) []string {
	var path []string
	seen := map[string]struct{}{b.ID: {}}
	for id, ok := b.Parent.ID(); ok; {
		if _, loop := seen[id]; loop {
			break
		}
		seen[id] = struct{}{}
		parent, found := t.Get(id)
		if !found {
			break
		}
		path = append([]string{parent.DisplayName}, path...)
		id, ok = parent.Parent.ID()
	}
	return path
}
