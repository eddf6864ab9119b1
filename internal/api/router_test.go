package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.Cache.PublicFallback = true

	kv := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = kv.Close() })

	router, err := SetupRouter(cfg, NewServices(cfg, kv))
	if err != nil {
		t.Fatalf("SetupRouter() error = %v", err)
	}
	return router
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := common.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		if w := request(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}
	w := request(r, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestDictionaryEndpoints(t *testing.T) {
	r := newTestRouter(t)
	body := `{"source":"Thịt ba chỉ","target":{"specific":"pork belly","general":"pork","category":"meat"},"nutrition_per_100g":{"calories":518}}`

	w := request(r, http.MethodPost, "/api/v1/dictionary", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST dictionary = %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Status string `json:"status"`
		Entry  struct {
			Source     string `json:"source"`
			Provenance string `json:"provenance"`
		} `json:"entry"`
	}
	decode(t, w, &created)
	if created.Status != "created" || created.Entry.Source != "thit-ba-chi" || created.Entry.Provenance != "admin" {
		t.Errorf("created = %+v", created)
	}

	// 重複的越南文鍵
	dup := `{"source":"thit ba chi","target":{"specific":"streaky pork"}}`
	if w := request(r, http.MethodPost, "/api/v1/dictionary", dup); w.Code != http.StatusConflict {
		t.Fatalf("duplicate POST = %d %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodGet, "/api/v1/dictionary/th%E1%BB%8Bt%20ba%20ch%E1%BB%89", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET dictionary = %d %s", w.Code, w.Body.String())
	}
	var lookup struct {
		Slug        string `json:"slug"`
		Translation struct {
			Specific string `json:"specific"`
		} `json:"translation"`
	}
	decode(t, w, &lookup)
	if lookup.Slug != "thit-ba-chi" || lookup.Translation.Specific != "pork belly" {
		t.Errorf("lookup = %+v", lookup)
	}

	if w := request(r, http.MethodGet, "/api/v1/dictionary/rau-ram", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET missing = %d", w.Code)
	}

	w = request(r, http.MethodGet, "/api/v1/dictionary?english=Pork%20Belly", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "thit-ba-chi") {
		t.Errorf("reverse lookup = %d %s", w.Code, w.Body.String())
	}

	if w := request(r, http.MethodPost, "/api/v1/dictionary/rau-ram/promote", ""); w.Code != http.StatusNotFound {
		t.Errorf("promote missing = %d", w.Code)
	}

	if w := request(r, http.MethodPost, "/api/v1/dictionary", `{"source":`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed POST = %d", w.Code)
	}
}

func TestIngredientEndpoints(t *testing.T) {
	r := newTestRouter(t)
	seed := `{"source":"hành tây","target":{"specific":"onion","general":"onion","category":"vegetable"},"nutrition_per_100g":{"calories":40,"protein":1.1}}`
	if w := request(r, http.MethodPost, "/api/v1/dictionary", seed); w.Code != http.StatusCreated {
		t.Fatalf("seed = %d", w.Code)
	}

	w := request(r, http.MethodPost, "/api/v1/ingredients/resolve",
		`{"ingredients":["hành tây",{"name":"lá lốt","amount":"1 bó"},42],"servings":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve = %d %s", w.Code, w.Body.String())
	}
	var resolved struct {
		Ingredients []struct {
			NormalizedSlug string `json:"normalized_slug"`
			EnglishTerm    string `json:"english_term"`
			ResolutionTier string `json:"resolution_tier"`
		} `json:"ingredients"`
		Nutrition *struct {
			Calories int `json:"calories"`
		} `json:"nutrition"`
	}
	decode(t, w, &resolved)
	if len(resolved.Ingredients) != 3 {
		t.Fatalf("ingredients = %+v", resolved.Ingredients)
	}
	if resolved.Ingredients[0].EnglishTerm != "onion" || resolved.Ingredients[0].ResolutionTier != "dictionary" {
		t.Errorf("ingredients[0] = %+v", resolved.Ingredients[0])
	}
	if resolved.Ingredients[1].ResolutionTier != "unknown" || resolved.Ingredients[1].EnglishTerm != "la-lot" {
		t.Errorf("ingredients[1] = %+v", resolved.Ingredients[1])
	}
	// 無份量 → ×1，40 kcal / 2 份
	if resolved.Nutrition == nil || resolved.Nutrition.Calories != 20 {
		t.Errorf("nutrition = %+v", resolved.Nutrition)
	}

	w = request(r, http.MethodPost, "/api/v1/ingredients/nutrition", `{"ingredients":[{"english_term":"salt"}],"servings":1}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"nutrition":null`) {
		t.Errorf("nutrition = %d %s", w.Code, w.Body.String())
	}
}

func TestCacheEndpoints(t *testing.T) {
	r := newTestRouter(t)
	settings := `"settings":{"servings":2,"meal_type":"lunch","max_time_minutes":60}`

	w := request(r, http.MethodPost, "/api/v1/cache",
		`{"ingredients":["pork-belly","onion"],`+settings+`,"recipes":[{"title":"Thit kho"}],"full_ingredients":["garlic","fish-sauce"]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("store = %d %s", w.Code, w.Body.String())
	}
	var stored struct {
		CacheKey string `json:"cache_key"`
	}
	decode(t, w, &stored)
	if stored.CacheKey != "onion_pork-belly_s2_lunch_t60" {
		t.Errorf("cache_key = %q", stored.CacheKey)
	}

	w = request(r, http.MethodPost, "/api/v1/cache/lookup", `{"ingredients":["onion","pork-belly"],`+settings+`}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"source":"exact"`) {
		t.Fatalf("exact lookup = %d %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodPost, "/api/v1/cache/lookup",
		`{"ingredients":["garlic"],"settings":{"servings":2,"meal_type":"lunch","max_time_minutes":45}}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"source":"partial"`) {
		t.Fatalf("partial lookup = %d %s", w.Code, w.Body.String())
	}

	w = request(r, http.MethodPost, "/api/v1/cache/lookup", `{"ingredients":["tofu"],"settings":{"servings":1}}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"source":"miss"`) {
		t.Fatalf("miss lookup = %d %s", w.Code, w.Body.String())
	}

	if w := request(r, http.MethodPost, "/api/v1/cache", `{"ingredients":[],"recipes":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty store = %d", w.Code)
	}
}

func TestCacheDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	kv := store.NewMemoryStore(0)
	defer kv.Close()

	r, err := SetupRouter(cfg, NewServices(cfg, kv))
	if err != nil {
		t.Fatal(err)
	}
	if w := request(r, http.MethodPost, "/api/v1/cache/lookup", `{"ingredients":["egg"]}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("lookup with cache disabled = %d", w.Code)
	}
}
