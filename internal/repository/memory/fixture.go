package memory

import (
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func offer(vendorID, vendorName string, price float64, inStock bool, updated string) models.VendorPrice {
	return models.VendorPrice{
		VendorID:    vendorID,
		VendorName:  vendorName,
		Price:       decimal.NewFromFloat(price),
		InStock:     inStock,
		LastUpdated: day(updated),
		URL:         "#",
	}
}

func sale(vp models.VendorPrice, original, discount float64) models.VendorPrice {
	vp.OriginalPrice = decimal.NewNullDecimal(decimal.NewFromFloat(original))
	vp.Discount = decimal.NewNullDecimal(decimal.NewFromFloat(discount))
	return vp
}

// Fixture returns the built-in catalog: three laptops and three groceries.
func Fixture() []models.Product {
	return []models.Product{
		models.NewDurable(models.Product{
			ID:          "laptop-1",
			Name:        `MacBook Pro 16"`,
			Description: "Apple M2 Pro chip, 16GB RAM, 512GB SSD, 16-inch Liquid Retina XDR display",
			ImageURL:    "https://images.unsplash.com/photo-1517336714731-489689fd1ca8",
			Category:    models.CategoryLaptop,
			Brand:       "Apple",
			CreatedAt:   day("2023-01-10"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("apple", "Apple", 2499, true, "2023-08-15"),
				sale(offer("amazon", "Amazon", 2399, true, "2023-08-17"), 2499, 100),
				sale(offer("bestbuy", "Best Buy", 2449, true, "2023-08-16"), 2499, 50),
			},
		}, models.DurableSpec{
			Processor: "Apple M2 Pro",
			Memory:    "16GB",
			Storage:   "512GB SSD",
			Display:   "16-inch Liquid Retina XDR",
			Graphics:  "Integrated",
		}),
		models.NewDurable(models.Product{
			ID:          "laptop-2",
			Name:        "Dell XPS 15",
			Description: "Intel Core i7, 32GB RAM, 1TB SSD, 15.6-inch 4K OLED display, NVIDIA GeForce RTX 3050 Ti",
			ImageURL:    "https://images.unsplash.com/photo-1593642632823-8f785ba67e45",
			Category:    models.CategoryLaptop,
			Brand:       "Dell",
			CreatedAt:   day("2023-02-15"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("dell", "Dell", 2199, true, "2023-08-14"),
				sale(offer("amazon", "Amazon", 2099, true, "2023-08-17"), 2199, 100),
				sale(offer("bestbuy", "Best Buy", 2149, false, "2023-08-16"), 2199, 50),
			},
		}, models.DurableSpec{
			Processor: "Intel Core i7-12700H",
			Memory:    "32GB",
			Storage:   "1TB SSD",
			Display:   "15.6-inch 4K OLED",
			Graphics:  "NVIDIA GeForce RTX 3050 Ti",
		}),
		models.NewDurable(models.Product{
			ID:          "laptop-3",
			Name:        "Lenovo ThinkPad X1 Carbon",
			Description: "Intel Core i5, 16GB RAM, 512GB SSD, 14-inch FHD display",
			ImageURL:    "https://images.unsplash.com/photo-1496181133206-80ce9b88a853",
			Category:    models.CategoryLaptop,
			Brand:       "Lenovo",
			CreatedAt:   day("2023-03-20"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("lenovo", "Lenovo", 1599, true, "2023-08-15"),
				sale(offer("amazon", "Amazon", 1499, true, "2023-08-17"), 1599, 100),
			},
		}, models.DurableSpec{
			Processor: "Intel Core i5-1135G7",
			Memory:    "16GB",
			Storage:   "512GB SSD",
			Display:   "14-inch FHD",
			Graphics:  "Intel Iris Xe",
		}),
		models.NewPerishable(models.Product{
			ID:          "grocery-1",
			Name:        "Organic Bananas",
			Description: "Fresh organic bananas, bundle of 5",
			ImageURL:    "https://images.unsplash.com/photo-1603833665858-e61d17a86224",
			Category:    models.CategoryGrocery,
			Brand:       "Organic Harvest",
			CreatedAt:   day("2023-07-01"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("wholefoods", "Whole Foods", 3.99, true, "2023-08-17"),
				offer("walmart", "Walmart", 2.99, true, "2023-08-17"),
				offer("target", "Target", 3.49, true, "2023-08-16"),
			},
		}, models.PerishableSpec{Weight: "2 lbs", Organic: true}),
		models.NewPerishable(models.Product{
			ID:          "grocery-2",
			Name:        "Almond Milk",
			Description: "Unsweetened almond milk, dairy-free",
			ImageURL:    "https://images.unsplash.com/photo-1608512532288-8f650eeab7c2",
			Category:    models.CategoryGrocery,
			Brand:       "Blue Diamond",
			CreatedAt:   day("2023-07-10"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("wholefoods", "Whole Foods", 4.99, true, "2023-08-17"),
				sale(offer("walmart", "Walmart", 3.99, true, "2023-08-17"), 4.49, 0.50),
			},
		}, models.PerishableSpec{Weight: "32 fl oz", NutritionInfo: "Calcium, Vitamin D, E"}),
		models.NewPerishable(models.Product{
			ID:          "grocery-3",
			Name:        "Organic Spinach",
			Description: "Fresh organic baby spinach",
			ImageURL:    "https://images.unsplash.com/photo-1576045057995-568f588f82fb",
			Category:    models.CategoryGrocery,
			Brand:       "Earthbound Farm",
			CreatedAt:   day("2023-07-15"),
			UpdatedAt:   day("2023-08-17"),
			Prices: []models.VendorPrice{
				offer("wholefoods", "Whole Foods", 3.99, true, "2023-08-17"),
				offer("target", "Target", 3.49, true, "2023-08-16"),
			},
		}, models.PerishableSpec{Weight: "5 oz", NutritionInfo: "Vitamin K, A, C, Iron", Organic: true}),
	}
}
