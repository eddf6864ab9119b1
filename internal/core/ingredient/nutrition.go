package ingredient

import (
	"math"

	"recipe-engine/internal/core/units"
)

// NutritionTotals 每份營養總和
type NutritionTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// AggregateNutrition 依份量加總營養並除以份數；沒有任何營養資料時回傳 nil
func AggregateNutrition(ingredients []ProcessedIngredient, servings int) *NutritionTotals {
	if servings <= 0 {
		servings = 1
	}

	var calories, protein, carbs, fat, fiber float64
	found := false
	for _, ing := range ingredients {
		n := ing.NutritionPer100g
		if n == nil {
			continue
		}
		found = true
		m := units.ParseAmountMultiplier(ing.AmountText)
		calories += n.Calories * m
		protein += n.Protein * m
		carbs += n.Carbs * m
		fat += n.Fat * m
		fiber += n.Fiber * m
	}
	if !found {
		return nil
	}

	s := float64(servings)
	return &NutritionTotals{
		Calories: int(math.Round(calories / s)),
		Protein:  round1(protein / s),
		Carbs:    round1(carbs / s),
		Fat:      round1(fat / s),
		Fiber:    round1(fiber / s),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
