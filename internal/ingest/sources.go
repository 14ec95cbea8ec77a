package ingest

// F1Sources is the fixed, ordered list of pages the ingestion run scrapes.
// Deliberately hardcoded rather than configurable.
var F1Sources = []string{
	"https://en.wikipedia.org/wiki/Formula_One",
	"https://en.wikipedia.org/wiki/History_of_Formula_One",
	"https://en.wikipedia.org/wiki/List_of_Formula_One_drivers",
	"https://en.wikipedia.org/wiki/List_of_Formula_One_circuits",
	"https://en.wikipedia.org/wiki/List_of_Formula_One_grand_prix_winners",
	"https://en.wikipedia.org/wiki/Formula_One_racing_cars",
	"https://en.wikipedia.org/wiki/Formula_One_teams",
	"https://en.wikipedia.org/wiki/Formula_One_technology",
	"https://en.wikipedia.org/wiki/Formula_One_regulations",
	"https://www.formula1.com/en/latest",
	"https://www.formula1.com/en/results.html",
	"https://www.formula1.com/en/drivers.html",
	"https://www.formula1.com/en/teams.html",
	"https://www.formula1.com/en/drivers",
	"https://www.formula1.com/en/teams",
	"https://www.formula1.com/en/results/2025/races",
}
