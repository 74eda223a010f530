package domain

import "encoding/json"

// CartLine is the compact form persisted per anonymous session. It carries no
// catalog data; product fields are joined in at read time.
type CartLine struct {
	ProductID string `json:"product_id"`
	Container string `json:"container,omitempty"`
	Quantity  int32  `json:"quantity"`
}

// CartKey identifies a cart line. Two lines with the same product in
// different containers are distinct.
type CartKey struct {
	ProductID string
	Container string
}

func (l CartLine) Key() CartKey {
	return CartKey{ProductID: l.ProductID, Container: l.Container}
}

type RawCart struct {
	Items []CartLine `json:"items"`
}

func (c RawCart) Empty() bool { return len(c.Items) == 0 }

// DecodeCart normalizes a stored payload into a RawCart. Absent or corrupted
// input reads as an empty cart rather than an error, so a bad cache entry can
// never fail a request. Lines without a product id are dropped; a missing or
// non-positive quantity defaults to 1.
func DecodeCart(b []byte) RawCart {
	if len(b) == 0 {
		return RawCart{}
	}

	var c RawCart
	if err := json.Unmarshal(b, &c); err != nil {
		return RawCart{}
	}

	items := make([]CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ProductID == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		items = append(items, it)
	}

	return RawCart{Items: items}
}

// Encode writes the canonical {"items":[...]} envelope. Any fields an older
// payload carried beyond the line schema are gone after a decode/encode cycle.
func (c RawCart) Encode() ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []CartLine{}
	}
	return json.Marshal(RawCart{Items: items})
}

// Add merges a line into the cart, accumulating quantity when a line with the
// same key is already present.
func (c RawCart) Add(line CartLine) RawCart {
	for i, it := range c.Items {
		if it.Key() == line.Key() {
			c.Items[i].Quantity += line.Quantity
			return c
		}
	}
	c.Items = append(c.Items, line)
	return c
}

// SetQuantity replaces the quantity of the line with the given key,
// reporting whether such a line exists.
func (c RawCart) SetQuantity(key CartKey, quantity int32) (RawCart, bool) {
	for i, it := range c.Items {
		if it.Key() == key {
			c.Items[i].Quantity = quantity
			return c, true
		}
	}
	return c, false
}

// Remove drops the line with the given key, reporting whether it was present.
func (c RawCart) Remove(key CartKey) (RawCart, bool) {
	for i, it := range c.Items {
		if it.Key() == key {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return c, true
		}
	}
	return c, false
}

// WishlistLine carries only a product reference; wishlists have no quantity
// or variant.
type WishlistLine struct {
	ProductID string `json:"product_id"`
}

type RawWishlist struct {
	Items []WishlistLine `json:"items"`
}

func (w RawWishlist) Empty() bool { return len(w.Items) == 0 }

// DecodeWishlist mirrors DecodeCart's fail-open policy for wishlists.
func DecodeWishlist(b []byte) RawWishlist {
	if len(b) == 0 {
		return RawWishlist{}
	}

	var w RawWishlist
	if err := json.Unmarshal(b, &w); err != nil {
		return RawWishlist{}
	}

	items := make([]WishlistLine, 0, len(w.Items))
	for _, it := range w.Items {
		if it.ProductID == "" {
			continue
		}
		items = append(items, it)
	}

	return RawWishlist{Items: items}
}

func (w RawWishlist) Encode() ([]byte, error) {
	items := w.Items
	if items == nil {
		items = []WishlistLine{}
	}
	return json.Marshal(RawWishlist{Items: items})
}

// Contains reports whether the wishlist already references the product.
func (w RawWishlist) Contains(productID string) bool {
	for _, it := range w.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Add appends the product unless it is already present.
func (w RawWishlist) Add(productID string) RawWishlist {
	if w.Contains(productID) {
		return w
	}
	w.Items = append(w.Items, WishlistLine{ProductID: productID})
	return w
}

// Remove drops the product, reporting whether it was present.
func (w RawWishlist) Remove(productID string) (RawWishlist, bool) {
	for i, it := range w.Items {
		if it.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return w, true
		}
	}
	return w, false
}
