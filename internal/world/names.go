package world

import "math/rand"

var (
	firstNames = []string{
		"Alex", "Brooke", "Casey", "Dana", "Eli", "Frankie", "Gale", "Harper",
		"Indra", "Jordan", "Kai", "Lee", "Morgan", "Noor", "Oakley", "Parker",
		"Quinn", "Riley", "Sam", "Taylor", "Uma", "Val", "Wren", "Yuki",
	}
	lastNames = []string{
		"Abbott", "Baptiste", "Chen", "Dunmore", "Eriksen", "Fairbanks",
		"Gutierrez", "Hale", "Ito", "Jablonski", "Kowalczyk", "Lindqvist",
		"Moreau", "Nakamura", "Okafor", "Pryce", "Quint", "Ramos",
		"Sandoval", "Thorne", "Ueda", "Vance", "Whitlock", "Zeller",
	}
)

// generateName combines a random first and last name.
func generateName(rng *rand.Rand) string {
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}
