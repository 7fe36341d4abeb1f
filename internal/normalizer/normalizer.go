// Package normalizer collapses rare category values into the single bucket the
// pricing pipeline was fitted with.
package normalizer

import "github.com/OldStager01/getaround-pricing/pkg/models"

// Others is the bucket every excluded value is rewritten to.
const Others = "others"

type Field string

const (
	FieldModelKey   Field = "model_key"
	FieldFuel       Field = "fuel"
	FieldPaintColor Field = "paint_color"
)

var exclusionLists = map[Field][]string{
	FieldModelKey: {
		"Maserati", "Suzuki", "Porsche", "Ford",
		"KIA Motors", "Alfa Romeo", "Fiat",
		"Lexus", "Lamborghini", "Mini", "Mazda",
		"Honda", "Yamaha", "Other",
	},
	FieldFuel:       {"hybrid_petrol", "electro", "other"},
	FieldPaintColor: {"green", "orange", "other"},
}

var exclusionSets = buildSets(exclusionLists)

func buildSets(lists map[Field][]string) map[Field]map[string]struct{} {
	sets := make(map[Field]map[string]struct{}, len(lists))
	for field, values := range lists {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		sets[field] = set
	}
	return sets
}

// Fields lists the fields that go through an exclusion set.
func Fields() []Field {
	return []Field{FieldModelKey, FieldFuel, FieldPaintColor}
}

// ExclusionSet returns a copy of the values collapsed for field, in declaration order.
func ExclusionSet(field Field) []string {
	values := exclusionLists[field]
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Collapse rewrites value to Others when it belongs to field's exclusion set.
// Matching is exact and case-sensitive; fields without a set pass through.
func Collapse(field Field, value string) string {
	if _, excluded := exclusionSets[field][value]; excluded {
		return Others
	}
	return value
}

// Normalize returns a copy of f with model_key, fuel and paint_color collapsed.
func Normalize(f models.CarFeatures) models.CarFeatures {
	f.ModelKey = Collapse(FieldModelKey, f.ModelKey)
	f.Fuel = Collapse(FieldFuel, f.Fuel)
	f.PaintColor = Collapse(FieldPaintColor, f.PaintColor)
	return f
}
