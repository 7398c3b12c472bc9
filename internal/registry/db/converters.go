package db

import (
	dbmodels "github.com/opencorpdata/registry/internal/registry/db/models"
	"github.com/opencorpdata/registry/internal/registry/models"
)

// fromRecord converts a domain record into its persistence row.
func fromRecord(rec *models.CompanyRecord) *dbmodels.Company {
	return &dbmodels.Company{
		CIN:                      rec.CIN,
		Name:                     rec.Name,
		ROCCode:                  rec.ROCCode,
		Category:                 rec.Category,
		SubCategory:              rec.SubCategory,
		Class:                    rec.Class,
		AuthorizedCapital:        rec.AuthorizedCapital,
		PaidUpCapital:            rec.PaidUpCapital,
		RegistrationDate:         rec.RegistrationDate,
		Address:                  rec.Address,
		ListingStatus:            rec.ListingStatus,
		Status:                   rec.Status,
		StateCode:                rec.StateCode,
		IndianForeign:            rec.IndianForeign,
		NICCode:                  rec.NICCode,
		IndustrialClassification: rec.IndustrialClassification,
	}
}

// toRecord converts a persistence row into a domain record.
func toRecord(row *dbmodels.Company) *models.CompanyRecord {
	return &models.CompanyRecord{
		CIN:                      row.CIN,
		Name:                     row.Name,
		ROCCode:                  row.ROCCode,
		Category:                 row.Category,
		SubCategory:              row.SubCategory,
		Class:                    row.Class,
		AuthorizedCapital:        row.AuthorizedCapital,
		PaidUpCapital:            row.PaidUpCapital,
		RegistrationDate:         row.RegistrationDate,
		Address:                  row.Address,
		ListingStatus:            row.ListingStatus,
		Status:                   row.Status,
		StateCode:                row.StateCode,
		IndianForeign:            row.IndianForeign,
		NICCode:                  row.NICCode,
		IndustrialClassification: row.IndustrialClassification,
	}
}

func toRecords(rows []dbmodels.Company) []*models.CompanyRecord {
	records := make([]*models.CompanyRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toRecord(&rows[i]))
	}
	return records
}
