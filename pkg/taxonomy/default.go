package taxonomy

// Default returns the production tourism taxonomy with its worked examples.
func Default() Taxonomy {
	positive := []Bucket{
		{BucketMeal, "Restaurants, cafes, pubs/bars serving full meals (breakfast/lunch/dinner)."},
		{BucketAccommodation, "Hotels, hostels, homestays, resorts, inns, lodges, guest houses."},
		{BucketFoodCulinary, "Desserts, snacks, drinks only (ice cream, tea, boba, juice, chocolatier). NOT full meals."},
		{BucketAdventure, "Thrill activities: zipline, ATV, go-kart, bungee, rafting, diving, paragliding, rock climbing, caves."},
		{BucketArtMuseums, "Museums, art galleries, handicraft/batik/pottery workshops, artisan studios."},
		{BucketFamily, "Theme parks, water parks, zoos, kid activities."},
		{BucketCulturalHistory, "Museums, heritage sites, forts, monuments, palaces, street art, theatres."},
		{BucketNature, "Parks, gardens, forests, waterfalls, mountains, beaches, islands, lakes, trails."},
		{BucketNightlife, "Bars, pubs, nightclubs, karaoke, lounges, live music, cocktail bars, rooftops."},
		{BucketRelax, "Spas, wellness centers, massage, sauna, hot springs, baths."},
		{BucketReligiousSites, "Temples, mosques, churches, shrines, pagodas, monasteries."},
		{BucketShopping, "Malls, markets, bazaars, outlets, boutiques, night markets."},
	}

	reserved := []Bucket{
		{GroupUnique, "Niche tourist interests not in main buckets (bookstores, record shops, vintage stores, thrift shops, antique stores). Some tourists seek these for authentic local experiences."},
		{GroupExclude, "Completely non-tourism: offices, embassies, banks, ATMs, schools, universities, hospitals, clinics, dentists, pharmacies, warehouses, factories, logistics, banquet halls, event venues, corporate services, repair shops, auto parts."},
	}

	examples := []Example{
		{"banquet hall", []BucketKey{GroupExclude}},
		{"event venue", []BucketKey{GroupExclude}},
		{"warehouse", []BucketKey{GroupExclude}},
		{"barbecue area", []BucketKey{GroupExclude}},
		{"pub", []BucketKey{BucketMeal, BucketNightlife}},
		{"adventure sports center", []BucketKey{BucketAdventure}},
		{"supermarket", []BucketKey{GroupExclude}},
		{"wet market", []BucketKey{GroupExclude}},
		{"coffee shop", []BucketKey{BucketMeal}},
		{"dessert shop", []BucketKey{BucketFoodCulinary}},
		{"temple", []BucketKey{BucketReligiousSites}},
		{"mall", []BucketKey{BucketShopping}},
		{"bookstore", []BucketKey{GroupUnique}},
		{"record shop", []BucketKey{GroupUnique}},
		{"vintage clothing store", []BucketKey{GroupUnique}},
		{"laundromat", []BucketKey{GroupExclude}},
		{"antique store", []BucketKey{GroupUnique}},
		{"wildlife sanctuary", []BucketKey{GroupUnique}},
		{"tourist attraction", []BucketKey{GroupUnique}},
		{"3d printing service", []BucketKey{GroupExclude}},
		{"lottery retailer", []BucketKey{GroupExclude}},
	}

	return New(positive, reserved, examples)
}
