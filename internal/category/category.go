package category

// Category is the closed set of expense categories. The enum is fixed at
// build time; there is no category administration.
type Category struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

const (
	Food      = "food"
	Travel    = "travel"
	Utilities = "utilities"
	Misc      = "misc"
)

var all = []Category{
	{Name: Food, Label: "Food"},
	{Name: Travel, Label: "Travel"},
	{Name: Utilities, Label: "Utilities"},
	{Name: Misc, Label: "Miscellaneous"},
}

// All returns every known category in declaration order.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// IsValid reports whether name is a member of the enum.
func IsValid(name string) bool {
	for _, c := range all {
		if c.Name == name {
			return true
		}
	}
	return false
}
