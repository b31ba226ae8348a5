package models

import "github.com/shopspring/decimal"

// Purchase links a buyer to a product. Paid is false while the product sits in the cart.
type Purchase struct {
	ID        int64 `json:"id"`
	BuyerID   int64 `json:"buyer_id"`
	ProductID int64 `json:"product_id"`
	Paid      bool  `json:"paid"`
}

type CartItem struct {
	PurchaseID int64   `json:"purchase_id"`
	Product    Product `json:"product"`
}

type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (c *Cart) Products() []Product {
	products := make([]Product, 0, len(c.Items))
	for _, item := range c.Items {
		products = append(products, item.Product)
	}
	return products
}

func (c *Cart) PurchaseIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.PurchaseID)
	}
	return ids
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
