// Package models defines the core domain models for the company registry:
// the CompanyRecord entity, the transient SearchQuery, and the paginated
// SearchResultPage returned by searches.
package models

// CompanyRecord is one registered company as published in the government
// open-data dumps. CIN and Name are always present; every other field is
// optional in the source data and therefore a nullable pointer. Records are
// immutable once ingested.
type CompanyRecord struct {
	// CIN is the unique corporate identification number (primary key).
	CIN string `json:"cin"`
	// Name is the registered display name.
	Name string `json:"companyName"`
	// ROCCode is the registrar-of-companies office code.
	ROCCode *string `json:"rocCode"`
	// Category, SubCategory and Class describe the registration type.
	Category    *string `json:"category"`
	SubCategory *string `json:"subCategory"`
	Class       *string `json:"class"`
	// AuthorizedCapital and PaidUpCapital are kept as raw source strings;
	// the dumps mix formats and values are parsed lazily by consumers.
	AuthorizedCapital *string `json:"authorizedCapital"`
	PaidUpCapital     *string `json:"paidUpCapital"`
	// RegistrationDate is the registration date as published (raw string).
	RegistrationDate *string `json:"registrationDate"`
	// Address is the registered office address.
	Address *string `json:"registeredOfficeAddress"`
	// ListingStatus and Status carry the listing and operational status.
	ListingStatus *string `json:"listingStatus"`
	Status        *string `json:"status"`
	// StateCode is the jurisdiction (state/region) code, when known.
	StateCode *string `json:"stateCode"`
	// IndianForeign flags a domestic vs foreign company.
	IndianForeign *string `json:"indianForeign"`
	// NICCode and IndustrialClassification describe the industry.
	NICCode                  *string `json:"nicCode"`
	IndustrialClassification *string `json:"industrialClassification"`
}

// SearchQuery carries the parameters of one search request. It is transient
// and never persisted.
type SearchQuery struct {
	// Keyword is the free-text company-name fragment.
	Keyword string
	// Country scopes the query; the State filter is only honored for the
	// domestic corpus (country "india").
	Country string
	// State is the optional jurisdiction filter.
	State string
	// CIN, when set, short-circuits keyword and state entirely.
	CIN string
	// Page is 1-based; PerPage is clamped to [1, 100] with default 20.
	Page    int
	PerPage int
}

// SearchResultPage is one page of matching records plus pagination totals.
type SearchResultPage struct {
	TotalRows  int64            `json:"totalRows"`
	TotalPages int64            `json:"totalPages"`
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	Rows       []*CompanyRecord `json:"rows"`
}

// SlimRecord is the reduced row shape returned by the narrow full-text
// endpoint: just the fields needed to render a pick list.
type SlimRecord struct {
	Name      string  `json:"companyName"`
	CIN       string  `json:"cin"`
	StateCode *string `json:"stateCode"`
	Address   *string `json:"registeredOfficeAddress"`
}
