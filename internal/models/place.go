package models

import "github.com/shopspring/decimal"

type Place struct {
	ID     uint            `json:"id" gorm:"primaryKey"`
	Type   string          `json:"type" gorm:"size:254;uniqueIndex:idx_place_identity"`
	Name   string          `json:"name" gorm:"size:254;index;uniqueIndex:idx_place_identity"`
	State  string          `json:"state" gorm:"size:254;index;uniqueIndex:idx_place_identity"`
	County string          `json:"county" gorm:"size:254;uniqueIndex:idx_place_identity"`
	Lat    decimal.Decimal `json:"lat" gorm:"type:decimal(10,7)"`
	Lng    decimal.Decimal `json:"lng" gorm:"type:decimal(10,7)"`
}

func (Place) TableName() string {
	return "places"
}
