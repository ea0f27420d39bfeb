// internal/models/company_types.go
package models

type CompanyType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CompanyTypes is the catalogue of Torn company types (categories).
var CompanyTypes = []CompanyType{
	{1, "Hair Salon"}, {2, "Law Firm"}, {3, "Flower Shop"}, {4, "Car Dealership"},
	{5, "Clothing Store"}, {6, "Gun Shop"}, {7, "Game Shop"}, {8, "Candle Shop"},
	{9, "Toy Shop"}, {10, "Adult Novelties"}, {11, "Cyber Cafe"}, {12, "Grocery Store"},
	{13, "Theater"}, {14, "Sweet Shop"}, {15, "Cruise Line"}, {16, "Television Network"},
	{18, "Zoo"}, {19, "Firework Stand"}, {20, "Property Broker"}, {21, "Furniture Store"},
	{22, "Gas Station"}, {23, "Music Store"}, {24, "Nightclub"}, {25, "Pub"},
	{26, "Gents Strip Club"}, {27, "Restaurant"}, {28, "Oil Rig"}, {29, "Fitness Center"},
	{30, "Mechanic Shop"}, {31, "Amusement Park"}, {32, "Lingerie Store"},
	{33, "Meat Warehouse"}, {34, "Farm"}, {35, "Software Corporation"},
	{36, "Ladies Strip Club"}, {37, "Private Security Firm"}, {38, "Mining Corporation"},
	{39, "Detective Agency"}, {40, "Logistics Management"},
}

// CompanyTypeName returns the display name of a type, or "" when unknown.
func CompanyTypeName(id int) string {
	for _, t := range CompanyTypes {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}
