package shopping

import "testing"

func TestCategorizeSingleWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"milk", "Dairy"},
		{"Chicken", "Meat & Seafood"},
		{"bread", "Bakery"},
		{"rice", "Pantry"},
		{"coffee", "Beverages"},
		{"chips", "Snacks"},
		{"shampoo", "Personal Care"},
		{"apples", "Produce"},
		{"tomatoes", "Produce"},
		{"strawberries", "Produce"},
		{"batteries", "Household"},
		{"asparagus", "Produce"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizePhrases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ice cream", "Frozen"},
		{"peanut butter", "Pantry"},
		{"paper towels", "Household"},
		{"dish soap refill", "Household"},
		{"boneless chicken thighs", "Meat & Seafood"},
		{"whole wheat bread", "Bakery"},
		{"frozen pizza", "Frozen"},
		{"frozen peas", "Frozen"},
		{"organic baby spinach", "Produce"},
		{"sparkling water bottles", "Beverages"},
		{"canned black beans", "Pantry"},
		{"greek yogurt cups", "Dairy"},
		{"apple juice", "Beverages"},
		{"chicken soup", "Pantry"},
		{"2% milk (1 gal)", "Dairy"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.input); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeFallback(t *testing.T) {
	for _, input := range []string{"", "   ", "widget", "birthday card"} {
		if got := Categorize(input); got != Other {
			t.Errorf("Categorize(%q) = %q, want %q", input, got, Other)
		}
	}
}

func TestSingular(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"berries", "berry"},
		{"potatoes", "potato"},
		{"eggs", "egg"},
		{"glass", "glass"},
		{"tea", "tea"},
		{"bus", "bus"},
	}
	for _, tt := range tests {
		if got := singular(tt.in); got != tt.want {
			t.Errorf("singular(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
