package policy

import "github.com/fika/fika-prep/pkg/taxonomy"

// DefaultConfig returns the policy written when no policy file exists yet.
func DefaultConfig() Config {
	return Config{
		Defaults: Defaults{
			IncludeBuckets: []taxonomy.BucketKey{
				taxonomy.BucketMeal,
				taxonomy.BucketAccommodation,
				taxonomy.BucketFoodCulinary,
				taxonomy.BucketAdventure,
				taxonomy.BucketArtMuseums,
				taxonomy.BucketFamily,
				taxonomy.BucketCulturalHistory,
				taxonomy.BucketNature,
				taxonomy.BucketNightlife,
				taxonomy.BucketRelax,
				taxonomy.BucketReligiousSites,
				taxonomy.BucketShopping,
			},
			ExcludeGroups: []taxonomy.BucketKey{taxonomy.GroupUnique, taxonomy.GroupExclude},
			BlockTerms: []string{
				`\bwholesale\b`,
				`\bindustrial\b`,
				`\brepair\b`,
				`\bservice\s*center\b`,
				`\bservicing\b`,
				`\bworkshop\b`,
			},
		},
		Themes: Themes{
			{Name: "shopping", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketShopping},
				ExtraBlockTerms: []string{
					`\bsupply\b`,
					`\bsupplies\b`,
					`\bspare\b`,
					`\bauto\s*part(s)?\b`,
					`\bhardware\b`,
					`\belectronic(s)?\s*(shop|store)\b`,
					`\bpharmacy\b`,
					`\bconvenience\s*store\b`,
					`\bsupermarket\b`,
					`\bwet\s*market\b`,
					`\bhypermarket\b`,
					`\bgeneral\s+store\b`,
					`\bwedding\b`,
					`\bdepartment\s+store\b`,
					`\bstate\s+liquor\b`,
					`\bbaby\b`,
					`\bchildren\b`,
					`\byouth\s+clothing\b`,
					`\bsport(ing)?\s+goods\b`,
					`\bsportswear\b`,
					`\btextile\s+merchant\b`,
				},
			}},
			{Name: "food_tour", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketMeal, taxonomy.BucketFoodCulinary},
			}},
			{Name: "culture", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketCulturalHistory, taxonomy.BucketReligiousSites},
			}},
			{Name: "nature", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketNature},
			}},
			{Name: "adventure", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketAdventure},
			}},
			{Name: "nightlife", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketNightlife},
			}},
			{Name: "relax", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketRelax},
			}},
			{Name: "family", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketFamily},
			}},
			{Name: "stay", Override: ThemeOverride{
				IncludeOnlyBuckets: []taxonomy.BucketKey{taxonomy.BucketAccommodation},
			}},
		},
	}
}
