package model

import (
	"fmt"
	"strings"
	"time"
)

// 订阅相关模型使用 GORM 管理（与 users/songs 的原生 SQL 并存），
// 记录由支付服务商的 webhook 同步，本服务只读。

// Customer maps a local user to the payment provider's customer object.
type Customer struct {
	UserID           int64     `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	StripeCustomerID string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// Product is a purchasable subscription product.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;size:64"`
	Active      bool      `json:"active" gorm:"index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Image       string    `json:"image,omitempty" gorm:"size:767"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Prices []Price `json:"prices,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// Price is one way to pay for a product.
type Price struct {
	ID            string    `json:"id" gorm:"primaryKey;size:64"`
	ProductID     string    `json:"productId" gorm:"size:64;index;not null"`
	Active        bool      `json:"active"`
	Currency      string    `json:"currency" gorm:"size:3;not null"`
	UnitAmount    int64     `json:"unitAmount"` // 最小货币单位（如美分）
	Interval      string    `json:"interval" gorm:"size:16"` // month, year
	IntervalCount int       `json:"intervalCount" gorm:"default:1"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Price) TableName() string {
	return "prices"
}

// FormatAmount renders the price as a human readable currency string,
// e.g. "$9.99". Only a small currency set needs symbols; everything else
// falls back to the uppercase code prefix.
func (p *Price) FormatAmount() string {
	amount := float64(p.UnitAmount) / 100
	switch strings.ToLower(p.Currency) {
	case "usd":
		return fmt.Sprintf("$%.2f", amount)
	case "eur":
		return fmt.Sprintf("€%.2f", amount)
	case "gbp":
		return fmt.Sprintf("£%.2f", amount)
	case "cny":
		return fmt.Sprintf("¥%.2f", amount)
	default:
		return fmt.Sprintf("%s %.2f", strings.ToUpper(p.Currency), amount)
	}
}

// 订阅状态，与支付服务商的状态字符串一致
const (
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusActive            = "active"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusUnpaid            = "unpaid"
)

// Subscription is a user's paid plan record.
// At most one active record per user; created and updated by payment
// provider webhooks, read-only from this service's perspective.
type Subscription struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:64"`
	UserID             int64      `json:"userId" gorm:"index;not null"`
	Status             string     `json:"status" gorm:"size:32;index"`
	PriceID            string     `json:"priceId" gorm:"size:64"`
	Quantity           int        `json:"quantity" gorm:"default:1"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time  `json:"currentPeriodEnd"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	Price *Price `json:"price,omitempty" gorm:"foreignKey:PriceID"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive reports whether the subscription currently entitles the user.
// Trialing counts as entitled, matching the provider's semantics.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}
