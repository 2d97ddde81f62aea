package match

import (
	"math"
	"reflect"
	"testing"

	"skillsight/internal/diag"
	"skillsight/internal/safedata"
	"skillsight/internal/types"
)

func newTestEngine() *Engine {
	return NewEngine(safedata.NewProcessor(diag.NewBuffer()))
}

func job(id string, skills ...types.JobSkill) types.Job {
	return types.Job{ID: id, Title: "Job " + id, Company: "Acme", RequiredSkills: skills}
}

func TestRecommendScoring(t *testing.T) {
	tests := []struct {
		name     string
		skills   any
		job      types.Job
		expected float64
	}{
		{
			name:     "perfect match",
			skills:   []any{"go", "postgres"},
			job:      job("j1", types.JobSkill{Name: "go"}, types.JobSkill{Name: "postgres"}),
			expected: 100,
		},
		{
			name:     "no overlap",
			skills:   []any{"cobol"},
			job:      job("j1", types.JobSkill{Name: "go"}, types.JobSkill{Name: "rust"}),
			expected: 0,
		},
		{
			name:   "mandatory skills weigh double",
			skills: []any{"go"},
			job: job("j1",
				types.JobSkill{Name: "go", Mandatory: true},
				types.JobSkill{Name: "kubernetes"}),
			expected: 66.67, // 2 of 3 weight points
		},
		{
			name:   "optional-only match scores lower",
			skills: []any{"kubernetes"},
			job: job("j1",
				types.JobSkill{Name: "go", Mandatory: true},
				types.JobSkill{Name: "kubernetes"}),
			expected: 33.33,
		},
		{
			name:     "case and whitespace fold",
			skills:   []any{"  GO ", "PostgreSQL"},
			job:      job("j1", types.JobSkill{Name: "go"}, types.JobSkill{Name: "postgresql"}),
			expected: 100,
		},
		{
			name:     "job without requirements scores zero",
			skills:   []any{"go"},
			job:      job("j1"),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			out := e.Recommend(tt.skills, []types.Job{tt.job}, 0)

			if len(out.Recommendations) != 1 {
				t.Fatalf("Expected 1 recommendation, got %d", len(out.Recommendations))
			}
			got := out.Recommendations[0].MatchScore
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MatchScore = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRecommendMissingSkills(t *testing.T) {
	e := newTestEngine()
	j := job("j1",
		types.JobSkill{Name: "terraform"},
		types.JobSkill{Name: "go", Mandatory: true},
		types.JobSkill{Name: "ansible"},
		types.JobSkill{Name: "kubernetes", Mandatory: true},
	)

	out := e.Recommend([]any{}, []types.Job{j}, 0)
	missing := out.Recommendations[0].MissingSkills

	expected := []types.MissingSkill{
		{Name: "go", Mandatory: true},
		{Name: "kubernetes", Mandatory: true},
		{Name: "terraform"},
		{Name: "ansible"},
	}
	if !reflect.DeepEqual(missing, expected) {
		t.Errorf("MissingSkills = %v, expected mandatory-first order %v", missing, expected)
	}
}

func TestRecommendRankingAndLimit(t *testing.T) {
	jobs := []types.Job{
		job("low", types.JobSkill{Name: "go"}, types.JobSkill{Name: "rust"}),
		job("tie-a", types.JobSkill{Name: "go"}),
		job("high", types.JobSkill{Name: "go"}, types.JobSkill{Name: "sql"}),
		job("tie-b", types.JobSkill{Name: "sql"}),
	}
	skills := []any{"go", "sql"}

	t.Run("sorted by score, ties stable", func(t *testing.T) {
		e := newTestEngine()
		out := e.Recommend(skills, jobs, 0)

		ids := make([]string, 0, len(out.Recommendations))
		for _, r := range out.Recommendations {
			ids = append(ids, r.JobID)
		}
		expected := []string{"tie-a", "high", "tie-b", "low"}
		if !reflect.DeepEqual(ids, expected) {
			t.Errorf("Ranking = %v, expected %v", ids, expected)
		}
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		e := newTestEngine()
		out := e.Recommend(skills, jobs, 2)

		if len(out.Recommendations) != 2 {
			t.Fatalf("Expected 2 recommendations, got %d", len(out.Recommendations))
		}
		if out.Recommendations[0].JobID != "tie-a" || out.Recommendations[1].JobID != "high" {
			t.Errorf("Unexpected truncation: %+v", out.Recommendations)
		}
	})

	t.Run("zero or negative limit keeps everything", func(t *testing.T) {
		e := newTestEngine()
		if got := len(e.Recommend(skills, jobs, -1).Recommendations); got != 4 {
			t.Errorf("Expected all 4 recommendations, got %d", got)
		}
	})
}

func TestRecommendMalformedSkills(t *testing.T) {
	j := job("j1", types.JobSkill{Name: "go"})

	tests := []struct {
		name     string
		skills   any
		expected float64
	}{
		{name: "nil skills", skills: nil, expected: 0},
		{name: "scalar skill wraps", skills: "go", expected: 100},
		{name: "junk elements dropped", skills: []any{42, true, "go", nil}, expected: 100},
		{name: "blank strings dropped", skills: []any{"   ", "go"}, expected: 100},
		{
			name:     "array-like payload converts",
			skills:   map[string]any{"length": float64(1), "0": "go"},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			out := e.Recommend(tt.skills, []types.Job{j}, 0)
			got := out.Recommendations[0].MatchScore
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MatchScore = %v, expected %v", got, tt.expected)
			}
		})
	}

	t.Run("dropped skills are recorded", func(t *testing.T) {
		recorder := diag.NewBuffer()
		e := NewEngine(safedata.NewProcessor(recorder))
		e.Recommend([]any{42, "go"}, []types.Job{j}, 0)

		found := false
		for _, ev := range recorder.Events() {
			if ev.Kind == "non_string_skill" {
				found = true
			}
		}
		if !found {
			t.Error("Expected a non_string_skill diagnostic")
		}
	})
}

func TestRecommendMatchedSkillNames(t *testing.T) {
	e := newTestEngine()
	j := job("j1", types.JobSkill{Name: "Go", Mandatory: true}, types.JobSkill{Name: "SQL"})

	out := e.Recommend([]any{"go", "sql"}, []types.Job{j}, 0)

	got := out.Recommendations[0].MatchedSkills
	if !reflect.DeepEqual(got, []string{"Go", "SQL"}) {
		t.Errorf("MatchedSkills = %v, expected the job's own spelling", got)
	}
}

func BenchmarkRecommend(b *testing.B) {
	e := NewEngine(safedata.NewProcessor(diag.Nop{}))
	skills := []any{"go", "sql", "kubernetes", "terraform", "linux"}
	jobs := make([]types.Job, 0, 50)
	for i := 0; i < 50; i++ {
		jobs = append(jobs, job("j",
			types.JobSkill{Name: "go", Mandatory: true},
			types.JobSkill{Name: "sql"},
			types.JobSkill{Name: "redis"},
		))
	}

	for b.Loop() {
		e.Recommend(skills, jobs, 10)
	}
}
