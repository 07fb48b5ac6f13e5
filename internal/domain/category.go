package domain

// CategoryKind is the closed set of catalog categories the UI knows how to
// decorate. Any other category string maps to CategoryOther.
type CategoryKind int

const (
	CategoryOther CategoryKind = iota
	CategoryCables
	CategoryLighting
	CategorySockets
	CategoryDistribution
	CategoryContainment
	CategoryTools
	CategoryTesting
	CategoryFixings
)

// CategoryCapability describes how a category is presented.
type CategoryCapability struct {
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Colour string `json:"colour"`
}

var categoryLabels = map[string]CategoryKind{
	"Cables & Wires":        CategoryCables,
	"Lighting":              CategoryLighting,
	"Sockets & Switches":    CategorySockets,
	"Distribution Boards":   CategoryDistribution,
	"Cable Management":      CategoryContainment,
	"Tools":                 CategoryTools,
	"Testing Equipment":     CategoryTesting,
	"Fixings & Consumables": CategoryFixings,
}

// CategoryKindOf resolves a catalog category string to its kind.
func CategoryKindOf(category string) CategoryKind {
	if k, ok := categoryLabels[category]; ok {
		return k
	}
	return CategoryOther
}

// Capability returns the presentation attributes of the category kind.
// The switch is exhaustive over CategoryKind.
func (k CategoryKind) Capability() CategoryCapability {
	switch k {
	case CategoryCables:
		return CategoryCapability{Label: "Cables & Wires", Icon: "cable", Colour: "blue"}
	case CategoryLighting:
		return CategoryCapability{Label: "Lighting", Icon: "lightbulb", Colour: "yellow"}
	case CategorySockets:
		return CategoryCapability{Label: "Sockets & Switches", Icon: "plug", Colour: "green"}
	case CategoryDistribution:
		return CategoryCapability{Label: "Distribution Boards", Icon: "circuit-board", Colour: "red"}
	case CategoryContainment:
		return CategoryCapability{Label: "Cable Management", Icon: "layers", Colour: "orange"}
	case CategoryTools:
		return CategoryCapability{Label: "Tools", Icon: "wrench", Colour: "purple"}
	case CategoryTesting:
		return CategoryCapability{Label: "Testing Equipment", Icon: "gauge", Colour: "cyan"}
	case CategoryFixings:
		return CategoryCapability{Label: "Fixings & Consumables", Icon: "package", Colour: "grey"}
	default:
		return CategoryCapability{Label: "Other", Icon: "box", Colour: "grey"}
	}
}
