package models

import "time"

type Customer struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Description string
	Address     *Address
	Balance     int64 // Minor units; negative values are credit
	Created     time.Time
}

type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Empty reports whether no address field is set.
func (a *Address) Empty() bool {
	return a == nil || (a.Line1 == "" && a.Line2 == "" && a.City == "" &&
		a.State == "" && a.PostalCode == "" && a.Country == "")
}

// Price is a catalog price that can be attached to an invoice.
type Price struct {
	ID          string
	Currency    string
	UnitAmount  int64
	Nickname    string
	ProductName string
	Active      bool
}
