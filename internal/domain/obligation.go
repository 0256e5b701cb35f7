package domain

import "cloud.google.com/go/civil"

// TaxObligation is one tax filing owed by a business. The dispatcher only
// reads obligations; storage and lifecycle belong to the ObligationSource.
type TaxObligation struct {
	ID              string
	BusinessName    string
	TaxID           string
	Name            string
	DueDate         civil.Date
	ClientEmail     string
	ClientPhone     string
	AccountantEmail string
	AccountantPhone string
}

// DaysUntilDue returns the number of calendar days from today to the due date.
func (o TaxObligation) DaysUntilDue(today civil.Date) int {
	return o.DueDate.DaysSince(today)
}
