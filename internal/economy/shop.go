package economy

import "fmt"

// Item is something the cafeteria vendor sells.
type Item struct {
	Name        string  `json:"name"`
	Cost        int     `json:"cost"`
	StressDelta float64 `json:"stress_delta"` // Negative relieves stress
	SpeedBoost  bool    `json:"speed_boost"`
}

// DefaultCatalog is the vendor's fixed menu.
func DefaultCatalog() []Item {
	return []Item{
		{Name: "Coffee", Cost: 40, StressDelta: -8},
		{Name: "Glazed Donut", Cost: 25, StressDelta: -5},
		{Name: "Energy Drink", Cost: 90, StressDelta: -4, SpeedBoost: true},
		{Name: "Chair Massage", Cost: 250, StressDelta: -30},
	}
}

// Shop is the cafeteria menu state.
type Shop struct {
	Items    []Item `json:"items"`
	Selected int    `json:"selected"`
	Open     bool   `json:"open"`
}

// NewShop returns a closed shop over the default catalog.
func NewShop() *Shop {
	return &Shop{Items: DefaultCatalog()}
}

// Next moves the selection down, wrapping around.
func (s *Shop) Next() {
	if len(s.Items) == 0 {
		return
	}
	s.Selected = (s.Selected + 1) % len(s.Items)
}

// Prev moves the selection up, wrapping around.
func (s *Shop) Prev() {
	if len(s.Items) == 0 {
		return
	}
	s.Selected = (s.Selected - 1 + len(s.Items)) % len(s.Items)
}

// Current returns the selected item.
func (s *Shop) Current() (Item, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return Item{}, false
	}
	return s.Items[s.Selected], true
}

// Purchase is the outcome of a buy attempt.
type Purchase struct {
	Item     Item
	Accepted bool
	Reason   string // Set when rejected
}

// Message describes the purchase for the player.
func (p Purchase) Message() string {
	if p.Accepted {
		return fmt.Sprintf("Bought %s for %s", p.Item.Name, FormatMoney(p.Item.Cost))
	}
	return p.Reason
}

// Buy purchases the selected item. A purchase the player cannot afford is
// rejected without touching money or stress.
func (s *Shop) Buy(r *Resources, rules Rules) Purchase {
	item, ok := s.Current()
	if !ok {
		return Purchase{Reason: "Nothing selected"}
	}
	if !r.Spend(item.Cost) {
		return Purchase{
			Item:   item,
			Reason: fmt.Sprintf("%s costs %s, you have %s", item.Name, FormatMoney(item.Cost), FormatMoney(r.Money)),
		}
	}
	r.AddStress(item.StressDelta, rules.MaxStress)
	return Purchase{Item: item, Accepted: true}
}
