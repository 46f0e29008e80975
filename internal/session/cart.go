package session

import "restaurant-client/internal/domain"

// AddItem returns a cart with qty more of item: the existing line grows, or a
// new line is appended. The input cart is never modified.
func AddItem(cart domain.Cart, item domain.CartItem, qty int) domain.Cart {
	out := cart.Clone()
	for i := range out {
		if out[i].ID == item.ID {
			out[i].Quantity += qty
			return out
		}
	}
	item.Quantity = qty
	return append(out, item)
}

func RemoveItem(cart domain.Cart, id int64) domain.Cart {
	out := make(domain.Cart, 0, len(cart))
	for _, it := range cart {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// SetQuantity overwrites the line's quantity; below 1 the line is removed.
// Unknown ids leave the cart as is.
func SetQuantity(cart domain.Cart, id int64, qty int) domain.Cart {
	if qty < 1 {
		return RemoveItem(cart, id)
	}
	out := cart.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = qty
		}
	}
	return out
}

// validCart reports whether a decoded cart keeps the line invariants.
func validCart(cart domain.Cart) bool {
	seen := make(map[int64]struct{}, len(cart))
	for _, it := range cart {
		if it.Quantity < 1 || it.Price.IsNegative() {
			return false
		}
		if _, dup := seen[it.ID]; dup {
			return false
		}
		seen[it.ID] = struct{}{}
	}
	return true
}
