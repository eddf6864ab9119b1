package units

// GramsPerUnit 單位（已 slug 化）對應的克數。
// 家用單位取越南家庭料理的常見估計值。
var GramsPerUnit = map[string]float64{
	// 公制重量
	"g":        1,
	"gr":       1,
	"gam":      1,
	"gram":     1,
	"grams":    1,
	"mg":       0.001,
	"kg":       1000,
	"kilo":     1000,
	"kilogram": 1000,
	"ki-lo":    1000,
	"can":      1000, // cân
	"lang":     100,  // lạng
	"oz":       28.35,
	"ounce":    28.35,
	"lb":       453.6,
	"pound":    453.6,

	// 體積（以水的密度換算）
	"ml":         1,
	"mililit":    1,
	"milliliter": 1,
	"cc":         1,
	"l":          1000,
	"lit":        1000, // lít
	"liter":      1000,
	"litre":      1000,
	"cup":        240,
	"cups":       240,
	"coc":        240, // cốc
	"ly":         240,

	// 湯匙、茶匙
	"tbsp":         15,
	"tablespoon":   15,
	"muong-canh":   15, // muỗng canh
	"thia-canh":    15, // thìa canh
	"muong-lon":    15, // muỗng lớn
	"tsp":          5,
	"teaspoon":     5,
	"muong-cafe":   5,
	"muong-ca-phe": 5, // muỗng cà phê
	"muong-nho":    5, // muỗng nhỏ
	"thia-ca-phe":  5,
	"thia-nho":     5,
	"muong":        10,
	"thia":         10,

	// 碗、盤
	"chen":  150, // chén
	"bat":   200, // bát
	"to":    400, // tô
	"dia":   250, // đĩa
	"bowl":  200,
	"plate": 250,

	// 個數
	"qua":    100, // quả
	"trai":   100, // trái
	"cu":     80,  // củ
	"con":    500, // con（整隻魚、雞取中位數）
	"mieng":  50,  // miếng
	"lat":    10,  // lát
	"khuc":   150, // khúc
	"cai":    50,  // cái
	"chiec":  50,  // chiếc
	"piece":  50,
	"pieces": 50,
	"slice":  10,
	"slices": 10,
	"whole":  100,
	"hat":    1, // hạt
	"soi":    1, // sợi

	// 香草、辛香料
	"bo":      100, // bó
	"bunch":   100,
	"nam":     30, // nắm
	"handful": 30,
	"nhanh":   5, // nhánh
	"tep":     5, // tép
	"clove":   5,
	"cloves":  5,
	"cay":     15, // cây（蔥、香茅）
	"stalk":   15,
	"la":      1, // lá
	"leaf":    1,
	"leaves":  1,
	"canh":    3, // cành
	"sprig":   3,
	"nhum":    2, // nhúm
	"pinch":   0.5,
	"chut":    1, // chút

	// 包裝
	"goi":     100, // gói
	"pack":    100,
	"package": 100,
	"hop":     200, // hộp
	"box":     200,
	"lon":     330, // lon
	"chai":    500, // chai
	"bottle":  500,
	"tui":     500, // túi
	"bag":     500,
	"vi":      100, // vỉ
}
