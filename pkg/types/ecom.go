package types

// Platform-shaped wire types shared by the calculate-shipping module and the
// fulfillment webhook. Field names follow the e-commerce platform's JSON
// schema for carts, orders and shipping lines.

// Measure is a value with a unit tag (weight: kg/g/mg, length: m/cm/mm).
type Measure struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Dimensions carries the three sides of an item, each optional.
type Dimensions struct {
	Height *Measure `json:"height,omitempty"`
	Width  *Measure `json:"width,omitempty"`
	Length *Measure `json:"length,omitempty"`
}

// CartItem is one line of the cart sent to the calculate-shipping module.
type CartItem struct {
	ProductID  string      `json:"product_id,omitempty"`
	SKU        string      `json:"sku,omitempty"`
	Name       string      `json:"name,omitempty"`
	Quantity   int         `json:"quantity"`
	Price      float64     `json:"price"`
	FinalPrice *float64    `json:"final_price,omitempty"`
	Weight     *Measure    `json:"weight,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// EffectivePrice prefers the item's final (post-promotion) price.
func (i CartItem) EffectivePrice() float64 {
	if i.FinalPrice != nil {
		return *i.FinalPrice
	}
	return i.Price
}

// Address is the platform's postal address shape.
type Address struct {
	Zip          string `json:"zip"`
	Street       string `json:"street,omitempty"`
	Number       int    `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Borough      string `json:"borough,omitempty"`
	City         string `json:"city,omitempty"`
	ProvinceCode string `json:"province_code,omitempty"`
	Name         string `json:"name,omitempty"`
}

// CustomField is an opaque key/value stored on a shipping line.
type CustomField struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type DeliveryTime struct {
	Days        int  `json:"days"`
	WorkingDays bool `json:"working_days"`
}

type PostingDeadline struct {
	Days        int  `json:"days"`
	WorkingDays bool `json:"working_days,omitempty"`
}

type Package struct {
	Weight *Measure `json:"weight,omitempty"`
}

// LineAdditional is an extra charge itemized on a shipping line.
type LineAdditional struct {
	Tag   string  `json:"tag"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Invoice identifies the fiscal document attached to a shipping line.
type Invoice struct {
	Number       string `json:"number,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	AccessKey    string `json:"access_key,omitempty"`
}

type TrackingCode struct {
	Code string `json:"code"`
	Link string `json:"link,omitempty"`
}

// ShippingLineApp records which app priced the line.
type ShippingLineApp struct {
	ID          string `json:"_id,omitempty"`
	Label       string `json:"label,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	ServiceCode string `json:"service_code,omitempty"`
}

// ShippingLine is the order's recorded carrier/service/price choice for one
// shipment, including the side-channel custom fields written at quote time.
type ShippingLine struct {
	ID                   string           `json:"_id,omitempty"`
	From                 *Address         `json:"from,omitempty"`
	To                   *Address         `json:"to,omitempty"`
	Price                float64          `json:"price"`
	TotalPrice           float64          `json:"total_price"`
	Discount             float64          `json:"discount,omitempty"`
	DeliveryTime         *DeliveryTime    `json:"delivery_time,omitempty"`
	DeliveryInstructions string           `json:"delivery_instructions,omitempty"`
	PostingDeadline      *PostingDeadline `json:"posting_deadline,omitempty"`
	Package              *Package         `json:"package,omitempty"`
	OtherAdditionals     []LineAdditional `json:"other_additionals,omitempty"`
	CustomFields         []CustomField    `json:"custom_fields,omitempty"`
	Flags                []string         `json:"flags,omitempty"`
	App                  *ShippingLineApp `json:"app,omitempty"`
	Invoices             []Invoice        `json:"invoices,omitempty"`
	TrackingCodes        []TrackingCode   `json:"tracking_codes,omitempty"`
}

// CustomField returns the value of the named custom field, if set.
func (s ShippingLine) CustomField(field string) (string, bool) {
	for _, cf := range s.CustomFields {
		if cf.Field == field {
			return cf.Value, true
		}
	}
	return "", false
}

type Buyer struct {
	MainEmail   string `json:"main_email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	DocNumber   string `json:"doc_number,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type OrderAmount struct {
	Total float64 `json:"total"`
}

type FulfillmentStatus struct {
	Current string `json:"current,omitempty"`
}

// OrderItem is the order's view of a purchased item; full physical attributes
// live on the product resource and must be resolved separately.
type OrderItem struct {
	ProductID  string   `json:"product_id"`
	SKU        string   `json:"sku,omitempty"`
	Name       string   `json:"name,omitempty"`
	Quantity   int      `json:"quantity"`
	Price      float64  `json:"price"`
	FinalPrice *float64 `json:"final_price,omitempty"`
}

func (i OrderItem) EffectivePrice() float64 {
	if i.FinalPrice != nil {
		return *i.FinalPrice
	}
	return i.Price
}

// Product is the platform product resource with the physical attributes the
// label builder needs.
type Product struct {
	ID         string      `json:"_id"`
	Name       string      `json:"name,omitempty"`
	Price      float64     `json:"price"`
	Weight     *Measure    `json:"weight,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Order is the platform order resource, read via the store API.
type Order struct {
	ID                string             `json:"_id"`
	Number            int                `json:"number,omitempty"`
	Amount            *OrderAmount       `json:"amount,omitempty"`
	Items             []OrderItem        `json:"items,omitempty"`
	Buyers            []Buyer            `json:"buyers,omitempty"`
	ShippingLines     []ShippingLine     `json:"shipping_lines,omitempty"`
	FulfillmentStatus *FulfillmentStatus `json:"fulfillment_status,omitempty"`
}
