package recipecache

import (
	"math"

	"recipe-engine/internal/core/normalize"
)

// 不符合的原因
const (
	ReasonServings    = "servings mismatch"
	ReasonMealType    = "meal type mismatch"
	ReasonMaxTime     = "max time exceeds cached recipe"
	ReasonDisliked    = "disliked ingredients mismatch"
	ReasonMethods     = "cooking methods not covered"
	ReasonIngredients = "ingredients not covered"
)

const (
	maxScore       = 100
	maxTimePenalty = 20
	exactSizeBonus = 10
)

// Evaluate 依序檢查規則，第一條失敗即回傳不符合
func Evaluate(req Request, candidate Entry) MatchResult {
	rs, cs := req.Settings, candidate.Settings

	if rs.Servings != cs.Servings {
		return reject(ReasonServings)
	}

	if m := normalize.Term(rs.mealType()); m != MealTypeAny && m != normalize.Term(cs.mealType()) {
		return reject(ReasonMealType)
	}

	// 只有請求時間大於快取時間才拒絕；反方向只扣分
	if rs.MaxTimeMinutes > cs.MaxTimeMinutes {
		return reject(ReasonMaxTime)
	}
	penalty := math.Min(maxTimePenalty, float64(cs.MaxTimeMinutes-rs.MaxTimeMinutes)/3)

	reqDisliked := termSet(rs.DislikedIngredients)
	candDisliked := termSet(cs.DislikedIngredients)
	if len(reqDisliked) == 0 {
		if len(candDisliked) > 0 {
			return reject(ReasonDisliked)
		}
	} else if !isSubset(reqDisliked, candDisliked) {
		return reject(ReasonDisliked)
	}

	if methods := termSet(rs.PreferredCookingMethods); len(methods) > 0 &&
		!isSubset(methods, termSet(cs.PreferredCookingMethods)) {
		return reject(ReasonMethods)
	}

	reqIngredients := termSet(req.Ingredients)
	candIngredients := termSet(candidate.Ingredients)
	if !isSubset(reqIngredients, candIngredients) {
		return reject(ReasonIngredients)
	}

	score := maxScore - penalty
	if len(reqIngredients) == len(candIngredients) {
		score += exactSizeBonus
	}
	return MatchResult{IsMatch: true, Score: clamp(score, 0, maxScore)}
}

// FindBestMatch 回傳分數最高的候選；同分時保留先出現者
func FindBestMatch(req Request, candidates []Entry) (*Entry, float64, bool) {
	best := -1
	bestScore := math.Inf(-1)
	for i := range candidates {
		res := Evaluate(req, candidates[i])
		if !res.IsMatch {
			continue
		}
		if res.Score > bestScore {
			best, bestScore = i, res.Score
		}
	}
	if best < 0 {
		return nil, 0, false
	}
	return &candidates[best], bestScore, true
}

func reject(reason string) MatchResult {
	return MatchResult{IsMatch: false, Reason: reason}
}

// isSubset a 與 b 為已正規化的集合
func isSubset(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	for _, v := range a {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
