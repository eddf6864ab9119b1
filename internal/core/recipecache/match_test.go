package recipecache

import "testing"

func baseRequest() Request {
	return Request{
		Ingredients: []string{"pork-belly", "onion"},
		Settings:    Settings{Servings: 2, MealType: "lunch", MaxTimeMinutes: 60},
	}
}

func baseCandidate() Entry {
	return Entry{
		CacheKey:    "candidate",
		Ingredients: []string{"pork-belly", "onion", "garlic", "fish-sauce"},
		Settings:    Settings{Servings: 2, MealType: "lunch", MaxTimeMinutes: 60},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		mutateReq func(*Request)
		mutateCnd func(*Entry)
		wantMatch bool
		wantScore float64
		reason    string
	}{
		{name: "superset candidate scores 100", wantMatch: true, wantScore: 100},
		{
			name:      "wildcard candidate cannot satisfy specific request",
			mutateCnd: func(e *Entry) { e.Settings.MealType = "none" },
			reason:    ReasonMealType,
		},
		{
			name:      "wildcard request matches any meal type",
			mutateReq: func(r *Request) { r.Settings.MealType = "none" },
			mutateCnd: func(e *Entry) { e.Settings.MealType = "dinner" },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "empty meal type is wildcard",
			mutateReq: func(r *Request) { r.Settings.MealType = "" },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "servings mismatch",
			mutateCnd: func(e *Entry) { e.Settings.Servings = 4 },
			reason:    ReasonServings,
		},
		{
			name:      "shorter cached time is penalized not rejected",
			mutateReq: func(r *Request) { r.Settings.MaxTimeMinutes = 45 },
			wantMatch: true, wantScore: 95,
		},
		{
			name:      "time penalty capped at 20",
			mutateReq: func(r *Request) { r.Settings.MaxTimeMinutes = 10 },
			mutateCnd: func(e *Entry) { e.Settings.MaxTimeMinutes = 180 },
			wantMatch: true, wantScore: 80,
		},
		{
			name:      "request time above cached time rejected",
			mutateReq: func(r *Request) { r.Settings.MaxTimeMinutes = 90 },
			reason:    ReasonMaxTime,
		},
		{
			name:      "request without dislikes rejects candidate with dislikes",
			mutateCnd: func(e *Entry) { e.Settings.DislikedIngredients = []string{"cilantro"} },
			reason:    ReasonDisliked,
		},
		{
			name:      "candidate dislikes superset of request dislikes",
			mutateReq: func(r *Request) { r.Settings.DislikedIngredients = []string{"cilantro"} },
			mutateCnd: func(e *Entry) { e.Settings.DislikedIngredients = []string{"Cilantro", "chili"} },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "candidate missing a requested dislike",
			mutateReq: func(r *Request) { r.Settings.DislikedIngredients = []string{"cilantro", "chili"} },
			mutateCnd: func(e *Entry) { e.Settings.DislikedIngredients = []string{"cilantro"} },
			reason:    ReasonDisliked,
		},
		{
			name:      "no requested methods matches any",
			mutateCnd: func(e *Entry) { e.Settings.PreferredCookingMethods = []string{"fry"} },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "requested methods must be covered",
			mutateReq: func(r *Request) { r.Settings.PreferredCookingMethods = []string{"fry", "steam"} },
			mutateCnd: func(e *Entry) { e.Settings.PreferredCookingMethods = []string{"fry"} },
			reason:    ReasonMethods,
		},
		{
			name:      "requested ingredient not in candidate",
			mutateReq: func(r *Request) { r.Ingredients = append(r.Ingredients, "tofu") },
			reason:    ReasonIngredients,
		},
		{
			name:      "equal size bonus is clamped",
			mutateCnd: func(e *Entry) { e.Ingredients = []string{"onion", "pork-belly"} },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "equal size bonus offsets time penalty",
			mutateReq: func(r *Request) { r.Settings.MaxTimeMinutes = 30 },
			mutateCnd: func(e *Entry) { e.Ingredients = []string{"onion", "pork-belly"} },
			wantMatch: true, wantScore: 100,
		},
		{
			name:      "servings checked before everything else",
			mutateReq: func(r *Request) { r.Settings.Servings = 3; r.Ingredients = []string{"tofu"} },
			reason:    ReasonServings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, cand := baseRequest(), baseCandidate()
			if tt.mutateReq != nil {
				tt.mutateReq(&req)
			}
			if tt.mutateCnd != nil {
				tt.mutateCnd(&cand)
			}
			got := Evaluate(req, cand)
			if got.IsMatch != tt.wantMatch {
				t.Fatalf("IsMatch = %v, want %v (reason %q)", got.IsMatch, tt.wantMatch, got.Reason)
			}
			if tt.wantMatch && got.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", got.Score, tt.wantScore)
			}
			if !tt.wantMatch && got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestFindBestMatch(t *testing.T) {
	req := baseRequest()

	slower := baseCandidate()
	slower.CacheKey = "slower"
	slower.Settings.MaxTimeMinutes = 90

	first := baseCandidate()
	first.CacheKey = "first"

	tie := baseCandidate()
	tie.CacheKey = "tie"

	wrong := baseCandidate()
	wrong.CacheKey = "wrong"
	wrong.Settings.Servings = 1

	best, score, ok := FindBestMatch(req, []Entry{wrong, slower, first, tie})
	if !ok {
		t.Fatal("FindBestMatch() found nothing")
	}
	if best.CacheKey != "first" || score != 100 {
		t.Errorf("best = %s (%v), want first (100)", best.CacheKey, score)
	}

	if _, _, ok := FindBestMatch(req, []Entry{wrong}); ok {
		t.Error("FindBestMatch() should report no match")
	}
	if _, _, ok := FindBestMatch(req, nil); ok {
		t.Error("FindBestMatch(nil) should report no match")
	}
}
