package repository

import (
	"context"

	"EchoFM/model"

	"gorm.io/gorm"
)

// BillingRepository 订阅计费数据访问接口
// 订阅与商品记录由支付服务商的 webhook 写入，此接口对业务侧只读；
// 唯一的写操作是建立用户与服务商客户的映射。
type BillingRepository interface {
	// 客户映射
	GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error)
	CreateCustomer(ctx context.Context, customer *model.Customer) error

	// 订阅查询
	GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error)

	// 商品目录
	GetActiveProductsWithPrices(ctx context.Context) ([]*model.Product, error)
	GetPriceByID(ctx context.Context, priceID string) (*model.Price, error)
}

// gormBillingRepository GORM 实现
type gormBillingRepository struct {
	db *gorm.DB
}

// NewGormBillingRepository 创建 GORM 计费仓库
func NewGormBillingRepository(db *gorm.DB) BillingRepository {
	return &gormBillingRepository{db: db}
}

// GetCustomerByUserID 根据用户ID获取客户映射
func (r *gormBillingRepository) GetCustomerByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer 创建客户映射
func (r *gormBillingRepository) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

// GetActiveSubscription 获取用户当前生效的订阅（active 或 trialing）
// 每个用户至多一条生效记录
func (r *gormBillingRepository) GetActiveSubscription(ctx context.Context, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Preload("Price").
		Where("user_id = ? AND status IN ?", userID,
			[]string{model.SubscriptionStatusActive, model.SubscriptionStatusTrialing}).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetActiveProductsWithPrices 获取上架商品及其价格（订阅弹窗数据源）
func (r *gormBillingRepository) GetActiveProductsWithPrices(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Preload("Prices", "active = ?", true).
		Where("active = ?", true).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// GetPriceByID 根据价格ID获取价格
func (r *gormBillingRepository) GetPriceByID(ctx context.Context, priceID string) (*model.Price, error) {
	var price model.Price
	err := r.db.WithContext(ctx).
		Where("id = ?", priceID).
		First(&price).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}
