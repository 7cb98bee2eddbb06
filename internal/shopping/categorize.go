// Package shopping assigns store-aisle categories to shopping list items.
package shopping

import (
	"strings"
	"unicode"
)

// Other is the category of items no keyword matches.
const Other = "Other"

// maxPhrase is the longest keyword phrase, in words.
const maxPhrase = 3

// Categorize returns the aisle category for an item name. Names are split
// into singularized words; the longest keyword phrase found wins, and among
// equally long phrases the one nearest the end of the name, since that is
// usually the noun ("apple juice" is a drink, "chicken soup" is pantry).
func Categorize(itemName string) string {
	words := normalize(itemName)
	for n := min(maxPhrase, len(words)); n > 0; n-- {
		for start := len(words) - n; start >= 0; start-- {
			if cat, ok := keywords[strings.Join(words[start:start+n], " ")]; ok {
				return cat
			}
		}
	}
	return Other
}

func normalize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
	for i, f := range fields {
		fields[i] = singular(f)
	}
	return fields
}

func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "oes"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}

// keywords maps normalized keyword phrases to categories.
var keywords = func() map[string]string {
	m := make(map[string]string)
	for cat, phrases := range aisles {
		for _, p := range phrases {
			m[strings.Join(normalize(p), " ")] = cat
		}
	}
	return m
}()

var aisles = map[string][]string{
	"Produce": {
		"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato", "potato",
		"sweet potato", "onion", "green onion", "garlic", "lettuce", "romaine",
		"spinach", "kale", "arugula", "broccoli", "cauliflower", "cabbage", "carrot",
		"celery", "cucumber", "bell pepper", "mushroom", "corn", "grape", "berry",
		"strawberry", "blueberry", "raspberry", "melon", "watermelon", "pineapple",
		"mango", "peach", "pear", "cilantro", "basil", "parsley", "ginger",
		"jalapeño", "zucchini", "squash", "asparagus", "green bean", "salad mix",
		"herb", "fruit",
	},
	"Dairy": {
		"milk", "almond milk", "oat milk", "egg", "butter", "cheese", "cream cheese",
		"cottage cheese", "yogurt", "sour cream", "heavy cream", "cream",
		"half and half",
	},
	"Meat & Seafood": {
		"chicken", "beef", "ground beef", "pork", "pork chop", "turkey",
		"ground turkey", "bacon", "sausage", "ham", "steak", "salmon", "shrimp",
		"tuna", "fish", "hot dog", "deli meat", "lamb", "crab", "lobster", "tilapia",
	},
	"Bakery": {
		"bread", "sourdough", "bagel", "tortilla", "roll", "bun", "muffin",
		"croissant", "pita",
	},
	"Pantry": {
		"rice", "pasta", "spaghetti", "noodle", "flour", "sugar", "salt", "pepper",
		"oil", "olive oil", "coconut oil", "vinegar", "soy sauce", "hot sauce",
		"pasta sauce", "tomato sauce", "sauce", "ketchup", "mustard", "mayonnaise",
		"honey", "peanut butter", "jelly", "jam", "cereal", "oatmeal", "granola",
		"bean", "lentil", "soup", "broth", "stock", "nut", "almond", "maple syrup",
		"salsa", "spice", "seasoning",
	},
	"Frozen": {
		"frozen", "ice cream", "frozen pizza", "frozen vegetable", "frozen fruit",
		"frozen waffle", "popsicle",
	},
	"Beverages": {
		"water", "sparkling water", "juice", "coffee", "tea", "soda", "beer", "wine",
		"kombucha", "lemonade", "drink",
	},
	"Snacks": {
		"chip", "cracker", "cookie", "popcorn", "pretzel", "granola bar",
		"trail mix", "candy", "chocolate", "fruit snack", "snack",
	},
	"Household": {
		"paper towel", "toilet paper", "trash bag", "garbage bag", "dish soap",
		"laundry detergent", "detergent", "sponge", "aluminum foil", "foil",
		"plastic wrap", "zip bag", "ziplock bag", "light bulb", "battery", "napkin",
		"cleaning spray", "cleaner", "bleach",
	},
	"Personal Care": {
		"shampoo", "conditioner", "soap", "body wash", "toothpaste", "toothbrush",
		"deodorant", "lotion", "sunscreen", "floss", "razor", "tissue", "band-aid",
	},
}
