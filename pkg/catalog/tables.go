package catalog

const unsplash = "https://images.unsplash.com/"

func photo(id string) string {
	return unsplash + "photo-" + id + "?w=400&h=400&fit=crop&q=80"
}

// DefaultImageURL is shown for item types without an image pool
var DefaultImageURL = photo("1441986300917-64674bd600d8")

// DefaultPrice is the band used for item types without a configured one
var DefaultPrice = PriceBand{Min: 20, Max: 100}

// itemTypes lists the canonical types. Synonym scanning follows this order,
// so more specific types come before the types their names contain.
var itemTypes = []ItemType{
	{
		Name: "sweater", Title: "Sweater", Category: CategoryTop,
		Price:    PriceBand{35, 100},
		Synonyms: []string{"sweater", "pullover", "jumper", "cardigan"},
		Images:   []string{photo("1564257577-bbf9c2912d34"), photo("1578662996442-48f60103fc96"), photo("1620799140188-3b2a7e95e8c4")},
	},
	{
		Name: "jeans", Title: "Jeans", Category: CategoryBottom,
		Price:    PriceBand{40, 120},
		Synonyms: []string{"jeans", "denim"},
		Images:   []string{photo("1551698618-1dfe5d97d256"), photo("1542272604-787c3835535d"), photo("1584464491033-06628f3a6b7b")},
	},
	{
		Name: "pants", Title: "Pants", Category: CategoryBottom,
		Price:    PriceBand{40, 120},
		Synonyms: []string{"pants", "trousers", "slacks"},
		Images:   []string{photo("1551698618-1dfe5d97d256"), photo("1542272604-787c3835535d"), photo("1584464491033-06628f3a6b7b")},
	},
	{
		Name: "scarf", Title: "Scarf", Category: CategoryAccessory,
		Price:    PriceBand{25, 85},
		Synonyms: []string{"scarf", "wrap", "shawl"},
		Images:   []string{photo("1601924994987-69e26d50dc26"), photo("1544966503-7cc5ac882d5f"), photo("1578662996442-48f60103fc96")},
	},
	{
		Name: "hawaiian shirt", Title: "Hawaiian Shirt", Category: CategoryTop,
		Price:    PriceBand{35, 90},
		Synonyms: []string{"hawaiian shirt", "aloha shirt", "tropical shirt", "hawaiian", "aloha"},
		Images:   []string{photo("1594633312681-425c7b97ccd1"), photo("1521572163474-6864f9cf17ab"), photo("1618354691373-d851c5c3a990")},
	},
	{
		Name: "t-shirt", Title: "T-Shirt", Category: CategoryTop,
		Price:    PriceBand{15, 60},
		Synonyms: []string{"t-shirt", "tee", "tshirt"},
		Images:   []string{photo("1521572163474-6864f9cf17ab"), photo("1571945153237-4929e783af4a"), photo("1503342217505-b0a15ec3261c")},
	},
	{
		Name: "shirt", Title: "Shirt", Category: CategoryTop,
		Price:    PriceBand{25, 80},
		Synonyms: []string{"shirt", "top"},
		Images:   []string{photo("1521572163474-6864f9cf17ab"), photo("1571945153237-4929e783af4a"), photo("1594633312681-425c7b97ccd1")},
	},
	{
		Name: "blouse", Title: "Blouse", Category: CategoryTop,
		Price:    PriceBand{25, 80},
		Synonyms: []string{"blouse"},
		Images:   []string{photo("1521572163474-6864f9cf17ab"), photo("1571945153237-4929e783af4a"), photo("1594633312681-425c7b97ccd1")},
	},
	{
		Name: "dress", Title: "Dress", Category: CategoryTop,
		Price:    PriceBand{30, 150},
		Synonyms: []string{"dress", "frock", "gown"},
		Images:   []string{photo("1556905055-8f358a7a47b2"), photo("1515372039744-b8f02a3ae446"), photo("1582582621959-48d27397dc69")},
	},
	{
		Name: "bag", Title: "Handbag", Category: CategoryAccessory,
		Price:    PriceBand{80, 350},
		Synonyms: []string{"handbag", "bag", "purse", "clutch", "tote"},
		Images:   []string{photo("1515372039744-b8f02a3ae446"), photo("1553062407-98eeb64c6a62"), photo("1584917865442-de89df76afd3")},
	},
	{
		Name: "shoes", Title: "Shoes", Category: CategoryFootwear,
		Price:    PriceBand{50, 200},
		Synonyms: []string{"shoes", "shoe", "footwear"},
		Images:   []string{photo("1542291026-7eec264c27ff"), photo("1549298916-b41d501d3772"), photo("1571945153237-4929e783af4a")},
	},
	{
		Name: "sneakers", Title: "Sneakers", Category: CategoryFootwear,
		Price:    PriceBand{60, 180},
		Synonyms: []string{"sneakers", "sneaker", "trainers", "kicks"},
		Images:   []string{photo("1596755094514-f87e34085b2c"), photo("1549298916-b41d501d3772"), photo("1542291026-7eec264c27ff")},
	},
	{
		Name: "boots", Title: "Boots", Category: CategoryFootwear,
		Price:    PriceBand{90, 300},
		Synonyms: []string{"boots", "boot"},
		Images:   []string{photo("1542291026-7eec264c27ff"), photo("1549298916-b41d501d3772"), photo("1571945153237-4929e783af4a")},
	},
	{
		Name: "hat", Title: "Hat", Category: CategoryAccessory,
		Price:    PriceBand{20, 80},
		Synonyms: []string{"hat", "cap", "beanie", "fedora"},
		Images:   []string{photo("1485968612651-46e6e622dde"), photo("1514327605112-b887c0e61c0a"), photo("1571945153237-4929e783af4a")},
	},
	{
		Name: "skirt", Title: "Skirt", Category: CategoryBottom,
		Price:    PriceBand{20, 90},
		Synonyms: []string{"skirt", "miniskirt"},
		Images:   []string{photo("1551698618-1dfe5d97d256"), photo("1582142306909-195724d2b26d"), photo("1494790108755-2616c2e19687")},
	},
	{
		Name: "jacket", Title: "Jacket", Category: CategoryOuterwear,
		Price:    PriceBand{60, 300},
		Synonyms: []string{"jacket", "blazer", "coat"},
		Images:   []string{photo("1582582621959-48d27397dc69"), photo("1551698618-1dfe5d97d256"), photo("1571945153237-4929e783af4a")},
	},
}

var stores = []string{
	"Fashion Store", "Style Hub", "Eco Fashion", "Dress Boutique",
	"Fashion Forward", "Shoe Palace", "Athletic Gear", "Luxury Brands",
	"Everyday Wear", "Trendy Closet", "Vintage Finds", "Modern Wear",
}

var adjectives = []string{
	"Premium", "Classic", "Modern", "Vintage", "Designer",
	"Comfortable", "Stylish", "Trendy", "Chic", "Elegant",
}

var colors = []string{
	"black", "white", "blue", "red", "green", "yellow", "purple", "pink",
	"brown", "gray", "navy", "beige", "orange", "coral", "turquoise",
}

var styles = []string{
	"casual", "formal", "vintage", "modern", "bohemian", "minimalist",
	"streetwear", "classic", "sporty", "elegant", "tropical", "summer",
}

var patterns = []string{
	"solid", "striped", "floral", "geometric", "polka dot",
	"plaid", "abstract", "tropical", "hawaiian",
}

var materials = []string{
	"cotton", "denim", "leather", "silk", "wool",
	"polyester", "linen", "cashmere", "canvas",
}

var (
	defaultColors = []string{"black", "white", "blue", "red"}
	defaultStyles = []string{"casual", "modern", "classic"}
	fallbackTypes = []string{"shirt", "t-shirt", "dress"}
)
