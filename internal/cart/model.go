package cart

import (
	"encoding/json"
	"time"
)

type Item struct {
	ProductID   string `json:"productGUID"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

// Cart is the single cart of one owner. Items are unique by ProductID and every
// stored quantity is at least 1.
type Cart struct {
	ID        string    `json:"cartId"`
	OwnerID   string    `json:"userId"`
	Items     []Item    `json:"items"`
	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TotalItems is the sum of all item quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so stores never share item slices with callers.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	p := plain(c)
	p.Items = items
	return json.Marshal(struct {
		plain
		TotalItems int `json:"totalItems"`
	}{plain: p, TotalItems: c.TotalItems()})
}
