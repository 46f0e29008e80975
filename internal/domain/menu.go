package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Rating      decimal.Decimal `json:"rating"`
	IsVeg       bool            `json:"is_veg"`
	Available   bool            `json:"available"`
}

// UnmarshalJSON treats a missing "available" as true; backends that do not
// track stock omit the field.
func (m *MenuItem) UnmarshalJSON(b []byte) error {
	type plain MenuItem
	p := plain{Available: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = MenuItem(p)
	return nil
}

type Category struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type Menu struct {
	RestaurantID int64      `json:"id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	Categories   []Category `json:"categories"`
}

func (m Menu) FindItem(id int64) (MenuItem, bool) {
	for _, c := range m.Categories {
		for _, it := range c.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return MenuItem{}, false
}

func (m Menu) ItemCount() int {
	n := 0
	for _, c := range m.Categories {
		n += len(c.Items)
	}
	return n
}
