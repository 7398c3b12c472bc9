// Package models contains the persistence model for the registry,
// configured to work using GORM as the ORM.
package models

// Company represents one company row in the base table. The CIN is the
// primary key; SQLite still assigns an implicit rowid, which the search
// index uses as row identity. All optional source fields are nullable.
type Company struct {
	CIN                      string  `gorm:"column:cin;primaryKey"`
	Name                     string  `gorm:"column:company_name;not null;index"`
	ROCCode                  *string `gorm:"column:roc_code"`
	Category                 *string `gorm:"column:category"`
	SubCategory              *string `gorm:"column:sub_category"`
	Class                    *string `gorm:"column:class"`
	AuthorizedCapital        *string `gorm:"column:authorized_capital"`
	PaidUpCapital            *string `gorm:"column:paid_up_capital"`
	RegistrationDate         *string `gorm:"column:registration_date"`
	Address                  *string `gorm:"column:registered_office_address"`
	ListingStatus            *string `gorm:"column:listing_status"`
	Status                   *string `gorm:"column:status"`
	StateCode                *string `gorm:"column:state_code;index"`
	IndianForeign            *string `gorm:"column:indian_foreign"`
	NICCode                  *string `gorm:"column:nic_code"`
	IndustrialClassification *string `gorm:"column:industrial_classification"`
}

// TableName pins the table name the FTS index DDL refers to.
func (Company) TableName() string {
	return "companies"
}

// IndexCheckpoint stores the search-index watermark: the highest base-table
// rowid already copied into the full-text index. A single row with ID 1.
type IndexCheckpoint struct {
	ID        int   `gorm:"column:id;primaryKey"`
	Watermark int64 `gorm:"column:watermark;not null"`
}

// TableName keeps the checkpoint next to the index it describes.
func (IndexCheckpoint) TableName() string {
	return "search_index_state"
}
