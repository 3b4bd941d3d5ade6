// Package courses holds the fixed bootcamp course catalog and its laptop requirements.
package courses

// Course is one catalog entry.
type Course struct {
	Name           string `json:"name"`
	RequiresLaptop bool   `json:"requiresLaptop"`
}

var catalog = []Course{
	{Name: "Web Development Basics", RequiresLaptop: true},
	{Name: "BlockChain And Crypto Basics"},
	{Name: "Mobile App Development Basics With Glide", RequiresLaptop: true},
	{Name: "Mobile PhotoGraphy Basics"},
	{Name: "Virtual Assistance Basics", RequiresLaptop: true},
	{Name: "Content Creation Basics"},
}

// All returns a copy of the catalog in display order.
func All() []Course {
	out := make([]Course, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns every course name in display order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		names = append(names, c.Name)
	}
	return names
}

// ForLaptop returns the course names open to a registrant with or without a laptop.
func ForLaptop(hasLaptop bool) []string {
	names := make([]string, 0, len(catalog))
	for _, c := range catalog {
		if hasLaptop || !c.RequiresLaptop {
			names = append(names, c.Name)
		}
	}
	return names
}

// Valid reports whether name is a catalog course.
func Valid(name string) bool {
	for _, c := range catalog {
		if c.Name == name {
			return true
		}
	}
	return false
}
