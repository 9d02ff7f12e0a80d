package brands

import "sync"

// Philippine merchants seen on receipts
var defaultEntries = []Brand{
	{Name: "MERALCO", Category: CategoryUtilities},
	{Name: "PLDT", Category: CategoryUtilities},
	{Name: "GLOBE", Category: CategoryUtilities},
	{Name: "SMART", Category: CategoryUtilities},
	{Name: "CONVERGE", Category: CategoryUtilities},
	{Name: "MAYNILAD", Category: CategoryUtilities},
	{Name: "MANILA WATER", Category: CategoryUtilities},
	{Name: "SKY", Category: CategoryUtilities},
	{Name: "DITO", Category: CategoryUtilities},

	{Name: "PETRON", Category: CategoryTransportation},
	{Name: "SHELL", Category: CategoryTransportation},
	{Name: "CALTEX", Category: CategoryTransportation},
	{Name: "SEAOIL", Category: CategoryTransportation},
	{Name: "EASYTRIP", Category: CategoryTransportation},
	{Name: "AUTOSWEEP", Category: CategoryTransportation},
	{Name: "GRAB", Category: CategoryTransportation},
	{Name: "ANGKAS", Category: CategoryTransportation},
	{Name: "NLEX", Category: CategoryTransportation},
	{Name: "SLEX", Category: CategoryTransportation},

	{Name: "MERCURY DRUG", Category: CategoryHealth},
	{Name: "WATSONS", Category: CategoryHealth},
	{Name: "SOUTHSTAR", Category: CategoryHealth},
	{Name: "GENERIKA", Category: CategoryHealth},
	{Name: "ROSE PHARMACY", Category: CategoryHealth},
	{Name: "THE GENERICS PHARMACY", Category: CategoryHealth},

	{Name: "SM SUPERMARKET", Category: CategoryGroceries},
	{Name: "SM HYPERMARKET", Category: CategoryGroceries},
	{Name: "PUREGOLD", Category: CategoryGroceries},
	{Name: "ROBINSONS SUPERMARKET", Category: CategoryGroceries},
	{Name: "WALTERMART", Category: CategoryGroceries},
	{Name: "LANDERS", Category: CategoryGroceries},
	{Name: "S&R", Category: CategoryGroceries},
	{Name: "GMALL", Category: CategoryGroceries},
	{Name: "GRANDMALL", Category: CategoryGroceries},

	{Name: "JOLLIBEE", Category: CategoryFood},
	{Name: "MCDONALD", Category: CategoryFood},
	{Name: "MCDONALD'S", Category: CategoryFood, Aliases: []string{
		"GOLDEN ARCHES",
		"GOLDEN ARCHES FOOD CORPORATION",
		"GIANT ARCHES",
		"GIANT ARCHES FOOD CORPORATION",
	}},
	{Name: "KFC", Category: CategoryFood},
	{Name: "CHOWKING", Category: CategoryFood},
	{Name: "GREENWICH", Category: CategoryFood},
	{Name: "MANG INASAL", Category: CategoryFood},
	{Name: "SHAKEY'S", Category: CategoryFood},
	{Name: "BONCHON", Category: CategoryFood},
	{Name: "STARBUCKS", Category: CategoryFood},
	{Name: "GONG CHA", Category: CategoryFood},
	{Name: "CHATIME", Category: CategoryFood},
	{Name: "7-ELEVEN", Category: CategoryFood, Aliases: []string{"BDA ENTERPRISES"}},
	{Name: "MINISTOP", Category: CategoryFood},
	{Name: "FAMILYMART", Category: CategoryFood},
}

var defaultKeywords = map[string][]string{
	CategoryUtilities: {
		"kwh", "kilowatt", "meter", "account no", "service period", "due date", "statement",
		"internet", "fiber", "dsl", "postpaid", "prepaid load", "load", "data pack", "billing",
	},
	CategoryTransportation: {
		"diesel", "unleaded", "gasoline", "pump", "liter", "litre", "toll", "rfid",
		"easytrip", "autosweep", "plate", "odometer", "grab", "angkas",
	},
	CategoryHealth: {
		"pharmacy", "rx", "tablet", "capsule", "mg", "ml", "clinic", "dental", "optical",
		"laboratory", "prescription",
	},
	CategoryGroceries: {
		"grocery", "supermarket", "hypermarket", "market", "minimart", "convenience",
	},
	CategoryFood: {
		"meal", "combo", "burger", "fries", "chicken", "rice", "drink", "beverage", "snack",
		"dine", "take out",
	},
}

var defaultDictionary = sync.OnceValue(func() *Dictionary {
	d, err := NewDictionary(defaultEntries, defaultKeywords)
	if err != nil {
		panic("brands: invalid built-in dictionary: " + err.Error())
	}
	return d
})

// DefaultDictionary returns the built-in dictionary
func DefaultDictionary() *Dictionary {
	return defaultDictionary()
}
