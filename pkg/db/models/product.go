package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductImage is a hosted image reference kept alongside the listing.
type ProductImage struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Product is a catalog listing. Stock is the source of truth for
// availability and is only ever decremented with a conditional update.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null"`
	Brand       string          `gorm:"column:brand;not null"`
	Category    string          `gorm:"column:category;not null"`
	PricePaise  int64           `gorm:"column:price_paise;not null"`
	Sizes       pq.StringArray  `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	Colors      pq.StringArray  `gorm:"column:colors;type:text[];not null;default:ARRAY[]::text[]"`
	Images      []ProductImage  `gorm:"column:images;type:jsonb;serializer:json"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Rating      float64         `gorm:"column:rating;not null;default:0"`
	NumReviews  int             `gorm:"column:num_reviews;not null;default:0"`
	Reviews     []ProductReview `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
