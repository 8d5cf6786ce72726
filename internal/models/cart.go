package models

// CartItem is a single line in a user's shopping cart. Cart state is held in
// memory for the duration of a session only and is never persisted; a restart
// loses it, which is acceptable for presentation-layer state.
type CartItem struct {
	EbookID         string  `json:"ebook_id" validate:"required"`
	Title           string  `json:"title"`
	CoverImage      string  `json:"cover_image"`
	DiscountedPrice float64 `json:"discounted_price" validate:"gte=0"`
	Quantity        int     `json:"quantity" validate:"gte=1"`
}
