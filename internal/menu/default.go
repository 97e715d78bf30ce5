package menu

import "github.com/shopspring/decimal"

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Default returns the house menu
func Default() *Catalog {
	c := NewCatalog()
	for _, item := range []Item{
		NewAppetizer("Buffalo Wings", "Crispy wings tossed in buffalo sauce", price("12.99"), WithSpice(3)),
		NewAppetizer("Mozzarella Sticks", "Breaded mozzarella with marinara", price("8.99")),
		NewAppetizer("Loaded Nachos", "Tortilla chips with cheese, jalapenos and salsa", price("10.99"), WithSpice(2)),
		NewAppetizer("Calamari Rings", "Fried squid rings with lemon aioli", price("11.99")),

		NewMainCourse("Grilled Salmon", "Atlantic salmon with seasonal vegetables", price("24.99"), WithCookingMethod("grilled")),
		NewMainCourse("Ribeye Steak", "12oz ribeye with garlic butter", price("32.99"), WithCookingMethod("grilled")),
		NewMainCourse("Chicken Parmesan", "Breaded chicken with marinara and mozzarella", price("18.99"), WithCookingMethod("fried")),
		NewMainCourse("Vegetarian Pasta", "Penne with roasted vegetables", price("16.99"), WithCookingMethod("steamed")),
		NewMainCourse("BBQ Ribs", "Slow braised pork ribs with house BBQ sauce", price("26.99"), WithCookingMethod("braised"), WithSpice(2)),

		NewDessert("Chocolate Cake", "Triple layer chocolate cake", price("7.99")),
		NewDessert("Cheesecake", "New York style cheesecake", price("6.99")),
		NewDessert("Ice Cream Sundae", "Vanilla ice cream with hot fudge", price("5.99"), WithTemperature("frozen")),
		NewDessert("Tiramisu", "Espresso soaked ladyfingers with mascarpone", price("8.99")),

		NewBeverage("Craft Beer", "Rotating local draft", price("4.99"), WithBeverageType("beer")),
		NewBeverage("House Wine", "Red or white by the glass", price("6.99"), WithBeverageType("wine")),
		NewBeverage("Fresh Lemonade", "Squeezed to order", price("3.99"), WithBeverageType("juice")),
		NewBeverage("Coffee", "Fresh brewed coffee", price("2.99"), WithBeverageType("coffee")),
		NewBeverage("Soft Drinks", "Coke, Sprite or Dr Pepper", price("2.49"), WithBeverageType("soda")),
	} {
		// seed data is static; a failure here is a programming error
		if err := c.Add(item); err != nil {
			panic(err)
		}
	}
	return c
}
