package relevance

import (
	"math"
	"strings"

	"github.com/athifer/biodsjobs/internal/models"
)

var DefaultPrimaryKeywords = []string{
	"bioinformatics", "computational biology", "genomics", "transcriptomics",
	"proteomics", "ngs", "rna-seq", "single-cell", "variant calling",
	"biostatistics", "computational biologist", "multi-omics", "sequencing",
}

var DefaultGeneralKeywords = []string{
	"machine learning", "ml", "statistics", "python", "r", "data science",
	"data scientist", "data engineer", "deep learning", "software engineer",
	"pipeline", "cloud", "sql", "ai",
}

var DefaultPenaltyKeywords = []string{
	"wet lab", "wet-lab", "cell culture", "tissue culture", "pipetting",
	"western blot", "pcr", "elisa", "animal handling", "bench work",
	"flow cytometry", "manufacturing technician",
}

const (
	primaryTitleWeight = 15
	primaryDescWeight  = 5
	generalTitleWeight = 6
	generalDescWeight  = 2
	phraseTitleWeight  = 20
	termTitleWeight    = 8
	termDescWeight     = 3
	bonusThree         = 10
	bonusFive          = 20
	penaltyFactor      = 0.3
	maxScore           = 100
)

type ScoreConfig struct {
	Primary []string
	General []string
	Penalty []string
}

// Scorer ranks postings. Title hits outrank description hits and primary
// domain keywords outrank general ones.
type Scorer struct {
	primary []matcher
	general []matcher
	penalty []matcher
}

func NewScorer(cfg ScoreConfig) *Scorer {
	if len(cfg.Primary) == 0 {
		cfg.Primary = DefaultPrimaryKeywords
	}
	if len(cfg.General) == 0 {
		cfg.General = DefaultGeneralKeywords
	}
	if cfg.Penalty == nil {
		cfg.Penalty = DefaultPenaltyKeywords
	}
	return &Scorer{
		primary: newMatchers(cfg.Primary),
		general: newMatchers(cfg.General),
		penalty: newMatchers(cfg.Penalty),
	}
}

// Score returns a value in [0, 100]. query is optional.
func (s *Scorer) Score(p models.Posting, query string) float64 {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)

	var (
		score        float64
		primaryTitle int
		primaryAny   int
		indicators   int
	)
	for _, m := range s.primary {
		inTitle, inDesc := m.in(title), m.in(desc)
		if inTitle {
			score += primaryTitleWeight
			primaryTitle++
		}
		if inDesc {
			score += primaryDescWeight
		}
		if inTitle || inDesc {
			primaryAny++
			indicators++
		}
	}
	for _, m := range s.general {
		inTitle, inDesc := m.in(title), m.in(desc)
		if inTitle {
			score += generalTitleWeight
		}
		if inDesc {
			score += generalDescWeight
		}
		if inTitle || inDesc {
			indicators++
		}
	}

	score += queryScore(title, desc, query)

	switch {
	case indicators >= 5:
		score += bonusFive
	case indicators >= 3:
		score += bonusThree
	}

	wet := 0
	for _, m := range s.penalty {
		if m.in(title) || m.in(desc) {
			wet++
		}
	}
	if wet > 0 && primaryTitle == 0 && wet >= primaryAny {
		score *= penaltyFactor
	}

	return clamp(math.Round(score*100) / 100)
}

func queryScore(title, desc, query string) float64 {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0
	}
	var score float64
	if strings.Contains(title, query) {
		score += phraseTitleWeight
	}
	for _, term := range strings.Fields(query) {
		if len(term) < 2 {
			continue
		}
		switch {
		case strings.Contains(title, term):
			score += termTitleWeight
		case strings.Contains(desc, term):
			score += termDescWeight
		}
	}
	return score
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
