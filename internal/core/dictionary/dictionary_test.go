package dictionary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestDictionary(t *testing.T) (*Dictionary, *store.MemoryStore) {
	t.Helper()
	kv := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv, 4), kv
}

func porkBelly() Entry {
	return Entry{
		Source: "Thịt ba chỉ",
		Target: Target{Specific: "pork belly", General: "pork", Category: "meat"},
		NutritionPer100g: &Nutrition{
			Calories: 518, Protein: 9.3, Fat: 53,
		},
		Provenance: ProvenanceBootstrap,
	}
}

func TestAddEntryAndLookup(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()

	res, err := d.AddEntry(ctx, porkBelly())
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if res.Status != InsertCreated {
		t.Fatalf("Status = %v, want created", res.Status)
	}
	if res.Entry.Source != "thit-ba-chi" {
		t.Errorf("Source = %q, want thit-ba-chi", res.Entry.Source)
	}

	tr, err := d.Lookup(ctx, "THỊT BA CHỈ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if tr == nil || tr.Specific != "pork belly" || tr.Category != "meat" {
		t.Fatalf("Lookup() = %+v", tr)
	}
	if tr.Nutrition == nil || tr.Nutrition.Calories != 518 {
		t.Errorf("Nutrition = %+v", tr.Nutrition)
	}

	entries, err := d.ReverseLookup(ctx, "Pork Belly")
	if err != nil {
		t.Fatalf("ReverseLookup() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Source != "thit-ba-chi" {
		t.Fatalf("ReverseLookup() = %+v", entries)
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	d, _ := newTestDictionary(t)
	tr, err := d.Lookup(context.Background(), "hành lá")
	if err != nil || tr != nil {
		t.Fatalf("Lookup() = %+v, %v; want nil, nil", tr, err)
	}
	entries, err := d.ReverseLookup(context.Background(), "scallion")
	if err != nil || entries != nil {
		t.Fatalf("ReverseLookup() = %+v, %v; want nil, nil", entries, err)
	}
}

func TestAddEntryDuplicateVietnamese(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()
	if _, err := d.AddEntry(ctx, porkBelly()); err != nil {
		t.Fatal(err)
	}

	again := porkBelly()
	again.Target.Specific = "streaky pork"
	_, err := d.AddEntry(ctx, again)
	if !errors.Is(err, ErrDuplicateVietnamese) {
		t.Fatalf("err = %v, want ErrDuplicateVietnamese", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Field != "vietnamese" {
		t.Errorf("DuplicateError = %+v", dup)
	}
}

func TestAddEntryDuplicateEnglish(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()
	if _, err := d.AddEntry(ctx, porkBelly()); err != nil {
		t.Fatal(err)
	}

	other := porkBelly()
	other.Source = "ba rọi"
	_, err := d.AddEntry(ctx, other)
	if !errors.Is(err, ErrDuplicateEnglish) {
		t.Fatalf("err = %v, want ErrDuplicateEnglish", err)
	}
	if errors.Is(err, ErrDuplicateVietnamese) {
		t.Error("english duplicate must not match ErrDuplicateVietnamese")
	}
}

func TestAddEntryDuplicateEnglishWhitespace(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()
	if _, err := d.AddEntry(ctx, porkBelly()); err != nil {
		t.Fatal(err)
	}

	other := porkBelly()
	other.Source = "ba rọi"
	other.Target.Specific = "  Pork   Belly "
	if _, err := d.AddEntry(ctx, other); !errors.Is(err, ErrDuplicateEnglish) {
		t.Fatalf("err = %v, want ErrDuplicateEnglish", err)
	}

	entries, err := d.ReverseLookup(ctx, "pork\tbelly")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Source != "thit-ba-chi" {
		t.Errorf("ReverseLookup() = %+v", entries)
	}
}

func TestAddEntryInvalid(t *testing.T) {
	d, _ := newTestDictionary(t)
	_, err := d.AddEntry(context.Background(), Entry{Source: "!!!", Target: Target{Specific: "x"}})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("err = %v, want ErrInvalidEntry", err)
	}
}

// racingStore 在條件寫入前插入競爭者的項目，模擬並發寫入
type racingStore struct {
	store.KeyValueStore
	once   sync.Once
	winner Entry
}

func (s *racingStore) PutIfAbsent(ctx context.Context, items ...store.Item) error {
	s.once.Do(func() {
		data, _ := common.Marshal(s.winner)
		_ = s.KeyValueStore.Put(ctx, store.Item{PK: dictionaryPK, SK: ingredientSK(s.winner.Source), Data: data})
	})
	return s.KeyValueStore.PutIfAbsent(ctx, items...)
}

func TestAddEntryRaceReturnsExisting(t *testing.T) {
	mem := store.NewMemoryStore(0)
	defer mem.Close()

	winner := Entry{
		Source:     "thit-ba-chi",
		Target:     Target{Specific: "pork belly", General: "pork", Category: "meat"},
		Provenance: ProvenanceAI,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	d := New(&racingStore{KeyValueStore: mem, winner: winner}, 1)
	existingBefore := testutil.ToFloat64(metrics.DictionaryInserts.WithLabelValues("existing"))

	res, err := d.AddEntry(context.Background(), porkBelly())
	if err != nil {
		t.Fatalf("AddEntry() error = %v, want nil on race", err)
	}
	if res.Status != InsertExisting {
		t.Fatalf("Status = %v, want existing", res.Status)
	}
	if res.Entry.Provenance != ProvenanceAI {
		t.Errorf("Entry = %+v, want the winning entry", res.Entry)
	}
	if got := testutil.ToFloat64(metrics.DictionaryInserts.WithLabelValues("existing")) - existingBefore; got != 1 {
		t.Errorf("existing inserts metric delta = %v, want 1", got)
	}
}

func TestAddEntryConcurrent(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.AddEntry(ctx, porkBelly())
			if err != nil {
				// 預先檢查看到已寫入的項目
				if !errors.Is(err, ErrDuplicateVietnamese) && !errors.Is(err, ErrDuplicateEnglish) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if res.Status == InsertCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created = %d, want exactly 1", created)
	}
}

func TestBatchLookup(t *testing.T) {
	d, _ := newTestDictionary(t)
	ctx := context.Background()
	if _, err := d.AddEntry(ctx, porkBelly()); err != nil {
		t.Fatal(err)
	}
	onion := Entry{Source: "hành tây", Target: Target{Specific: "onion", General: "onion", Category: "vegetable"}}
	if _, err := d.AddEntry(ctx, onion); err != nil {
		t.Fatal(err)
	}

	got := d.BatchLookup(ctx, []string{"thịt ba chỉ", "Hành Tây", "tỏi", "thit ba chi", ""})
	if len(got) != 2 {
		t.Fatalf("BatchLookup() len = %d, want 2: %+v", len(got), got)
	}
	if got["hanh-tay"].Specific != "onion" {
		t.Errorf("hanh-tay = %+v", got["hanh-tay"])
	}
	if _, ok := got["toi"]; ok {
		t.Error("toi should be a miss")
	}
}

func TestTranslationCacheRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore(0)
	defer kv.Close()
	c := NewTranslationCache(kv, 0)
	ctx := context.Background()

	cached, err := c.Put(ctx, Entry{
		Source: "rau răm",
		Target: Target{Specific: "Vietnamese coriander", General: "herb", Category: "herb"},
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if cached.Provenance != ProvenanceAI {
		t.Errorf("Provenance = %q, want ai", cached.Provenance)
	}
	wantExpiry := time.Now().Add(DefaultTranslationTTL).Unix()
	if diff := cached.ExpiresAt - wantExpiry; diff < -5 || diff > 5 {
		t.Errorf("ExpiresAt = %d, want about %d", cached.ExpiresAt, wantExpiry)
	}

	got, err := c.Get(ctx, "Rau Răm")
	if err != nil || got == nil {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if got.Target.Specific != "Vietnamese coriander" {
		t.Errorf("Specific = %q", got.Target.Specific)
	}

	rev, err := c.ReverseLookup(ctx, "vietnamese CORIANDER")
	if err != nil || len(rev) != 1 || rev[0].Source != "rau-ram" {
		t.Fatalf("ReverseLookup() = %+v, %v", rev, err)
	}
}

func TestTranslationCacheExpired(t *testing.T) {
	kv := store.NewMemoryStore(0)
	defer kv.Close()
	c := NewTranslationCache(kv, time.Hour)
	c.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	if _, err := c.Put(context.Background(), Entry{Source: "rau má", Target: Target{Specific: "pennywort"}}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(context.Background(), "rau má")
	if err != nil || got != nil {
		t.Fatalf("Get() = %+v, %v; want expired miss", got, err)
	}
}

func TestPromote(t *testing.T) {
	d, kv := newTestDictionary(t)
	c := NewTranslationCache(kv, 0)
	ctx := context.Background()

	if _, err := d.Promote(ctx, c, "mắm tôm"); !errors.Is(err, ErrTranslationNotFound) {
		t.Fatalf("Promote() on miss err = %v", err)
	}

	if _, err := c.Put(ctx, Entry{Source: "mắm tôm", Target: Target{Specific: "shrimp paste", General: "condiment", Category: "sauce"}}); err != nil {
		t.Fatal(err)
	}
	res, err := d.Promote(ctx, c, "mắm tôm")
	if err != nil {
		t.Fatalf("Promote() error = %v", err)
	}
	if res.Status != InsertCreated || res.Entry.Provenance != ProvenancePromoted {
		t.Fatalf("Promote() = %+v", res)
	}
	tr, err := d.Lookup(ctx, "mam tom")
	if err != nil || tr == nil || tr.Specific != "shrimp paste" {
		t.Fatalf("Lookup() after promote = %+v, %v", tr, err)
	}
}
