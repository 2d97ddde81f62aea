package match

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"skillsight/internal/diag"
	"skillsight/internal/safedata"
	"skillsight/internal/types"
)

// Mandatory skills count double when scoring a job against a candidate.
const mandatoryWeight = 2.0

// Engine ranks job postings against a candidate's skills with plain keyword
// matching. No AI is involved; results are deterministic for a given input.
type Engine struct {
	processor *safedata.Processor
}

// NewEngine creates a recommendation engine. The processor guards against
// malformed skill payloads; nil gets a processor with a discard recorder.
func NewEngine(processor *safedata.Processor) *Engine {
	if processor == nil {
		processor = safedata.NewProcessor(diag.Nop{})
	}
	return &Engine{processor: processor}
}

// Recommend scores every job against the candidate skills and returns them
// ranked by match score, ties kept in input order, truncated to limit when
// limit is positive. skills may be any shape the network layer produced;
// non-sequences and non-string elements degrade per the safe-data policy.
func (e *Engine) Recommend(skills any, jobs []types.Job, limit int) types.RecommendJobsOutput {
	candidate := e.normalizeSkills(skills)

	recommendations := make([]types.JobRecommendation, 0, len(jobs))
	for _, job := range jobs {
		recommendations = append(recommendations, scoreJob(job, candidate))
	}

	slices.SortStableFunc(recommendations, func(a, b types.JobRecommendation) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})

	if limit > 0 && limit < len(recommendations) {
		recommendations = recommendations[:limit]
	}

	return types.RecommendJobsOutput{Recommendations: recommendations}
}

// normalizeSkills turns an arbitrary skills payload into a set of folded
// tokens. Shape safety is the processor's job; non-string elements are
// dropped and recorded here.
func (e *Engine) normalizeSkills(skills any) map[string]bool {
	elems := e.processor.Process(skills, safedata.ProcessOptions{})

	set := make(map[string]bool, len(elems))
	for _, elem := range elems {
		s, ok := elem.(string)
		if !ok {
			e.processor.Recorder().Record(diag.Event{
				Operation: "recommendJobs",
				Kind:      "non_string_skill",
				Received:  describeSkill(elem),
				Fallback:  "skill dropped",
			})
			continue
		}
		token := normalizeToken(s)
		if token == "" {
			continue
		}
		set[token] = true
	}
	return set
}

func scoreJob(job types.Job, candidate map[string]bool) types.JobRecommendation {
	rec := types.JobRecommendation{
		JobID:         job.ID,
		Title:         job.Title,
		Company:       job.Company,
		MatchedSkills: []string{},
		MissingSkills: []types.MissingSkill{},
	}

	var total, matched float64
	for _, required := range job.RequiredSkills {
		weight := 1.0
		if required.Mandatory {
			weight = mandatoryWeight
		}
		total += weight

		if candidate[normalizeToken(required.Name)] {
			matched += weight
			rec.MatchedSkills = append(rec.MatchedSkills, required.Name)
		} else {
			rec.MissingSkills = append(rec.MissingSkills, types.MissingSkill{
				Name:      required.Name,
				Mandatory: required.Mandatory,
			})
		}
	}

	if total > 0 {
		rec.MatchScore = round2(matched / total * 100)
	}

	// Mandatory gaps surface first; order within each group follows the
	// job's own skill order.
	slices.SortStableFunc(rec.MissingSkills, func(a, b types.MissingSkill) int {
		if a.Mandatory == b.Mandatory {
			return 0
		}
		if a.Mandatory {
			return -1
		}
		return 1
	})

	return rec
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func describeSkill(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T(%v)", v, v)
}
