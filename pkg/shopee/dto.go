package shopee

// ==================== 订单接口响应 ====================

// OrderListEntry 订单列表条目
type OrderListEntry struct {
	OrderSN     string `json:"order_sn"`
	OrderStatus string `json:"order_status"`
}

// OrderListResponse /api/v2/order/get_order_list 响应
type OrderListResponse struct {
	OrderList  []OrderListEntry `json:"order_list"`
	More       bool             `json:"more"`
	NextCursor string           `json:"next_cursor"`
}

// RecipientAddress 收件地址
type RecipientAddress struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Town        string `json:"town"`
	District    string `json:"district"`
	City        string `json:"city"`
	State       string `json:"state"`
	Region      string `json:"region"`
	Zipcode     string `json:"zipcode"`
	FullAddress string `json:"full_address"`
}

// OrderDetail /api/v2/order/get_order_detail 单条订单
type OrderDetail struct {
	OrderSN               string            `json:"order_sn"`
	OrderStatus           string            `json:"order_status"`
	Region                string            `json:"region"`
	Currency              string            `json:"currency"`
	COD                   bool              `json:"cod"`
	DaysToShip            int               `json:"days_to_ship"`
	ShipByDate            int64             `json:"ship_by_date"`
	CreateTime            int64             `json:"create_time"`
	UpdateTime            int64             `json:"update_time"`
	BookingSN             string            `json:"booking_sn"`
	AdvancePackage        bool              `json:"advance_package"`
	HotListingOrder       bool              `json:"hot_listing_order"`
	IsBuyerShopCollection bool              `json:"is_buyer_shop_collection"`
	MessageToSeller       string            `json:"message_to_seller"`
	ReverseShippingFee    float64           `json:"reverse_shipping_fee"`
	RecipientAddress      *RecipientAddress `json:"recipient_address"`
}

// OrderDetailResponse /api/v2/order/get_order_detail 响应
type OrderDetailResponse struct {
	OrderList []OrderDetail `json:"order_list"`
}

// ==================== 商品接口响应 ====================

// ItemListEntry 商品列表条目
type ItemListEntry struct {
	ItemID     int64  `json:"item_id"`
	ItemStatus string `json:"item_status"`
	UpdateTime int64  `json:"update_time"`
}

// ItemListResponse /api/v2/product/get_item_list 响应（偏移量分页）
type ItemListResponse struct {
	Item        []ItemListEntry `json:"item"`
	TotalCount  int             `json:"total_count"`
	HasNextPage bool            `json:"has_next_page"`
	NextOffset  int             `json:"next_offset"`
}

// PriceInfo 价格信息
type PriceInfo struct {
	Currency      string  `json:"currency"`
	CurrentPrice  float64 `json:"current_price"`
	OriginalPrice float64 `json:"original_price"`
}

// StockSummaryInfo 库存汇总
type StockSummaryInfo struct {
	TotalReservedStock  int `json:"total_reserved_stock"`
	TotalAvailableStock int `json:"total_available_stock"`
}

// StockInfoV2 库存信息
type StockInfoV2 struct {
	SummaryInfo StockSummaryInfo `json:"summary_info"`
}

// ItemImage 商品图片集合
type ItemImage struct {
	ImageURLList []string `json:"image_url_list"`
	ImageIDList  []string `json:"image_id_list"`
}

// ItemBrand 品牌
type ItemBrand struct {
	BrandID int64  `json:"brand_id"`
	Name    string `json:"name"`
}

// ItemBaseInfo /api/v2/product/get_item_base_info 单条商品
type ItemBaseInfo struct {
	ItemID      int64        `json:"item_id"`
	ItemStatus  string       `json:"item_status"`
	ItemName    string       `json:"item_name"`
	Currency    string       `json:"currency"`
	PriceInfo   []PriceInfo  `json:"price_info"`
	StockInfoV2 *StockInfoV2 `json:"stock_info_v2"`
	Sold        int          `json:"sold"`
	HasModel    bool         `json:"has_model"`
	Brand       *ItemBrand   `json:"brand"`
	CategoryID  int64        `json:"category_id"`
	UpdateTime  int64        `json:"update_time"`
	Image       *ItemImage   `json:"image"`
}

// ItemBaseInfoResponse /api/v2/product/get_item_base_info 响应
type ItemBaseInfoResponse struct {
	ItemList []ItemBaseInfo `json:"item_list"`
}

// ModelInfo 商品变体（model）
type ModelInfo struct {
	ModelID     int64        `json:"model_id"`
	ModelName   string       `json:"model_name"`
	SKU         string       `json:"sku"`
	PriceInfo   []PriceInfo  `json:"price_info"`
	StockInfoV2 *StockInfoV2 `json:"stock_info_v2"`
	Sold        int          `json:"sold"`
}

// ModelListResponse /api/v2/product/get_model_list 响应
type ModelListResponse struct {
	Model []ModelInfo `json:"model"`
}

// ==================== 授权接口响应 ====================

// TokenResponse token 换取/刷新响应
// 授权级接口的载荷在响应体顶层，不在 response 字段内
type TokenResponse struct {
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	ExpireIn        int64  `json:"expire_in"`
	RefreshExpireIn int64  `json:"refresh_expire_in"`
	ShopID          int64  `json:"shop_id"`
	PartnerID       int64  `json:"partner_id"`
}
