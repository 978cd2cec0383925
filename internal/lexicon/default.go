package lexicon

// DefaultDefinition returns the built-in product-review lexicon.
// Word lists and constants are tuning values, not invariants.
func DefaultDefinition() Definition {
	return Definition{
		Aspects: []Aspect{
			{Name: "Battery Life", Keywords: []string{"battery", "charge", "charging", "power", "lasting"}},
			{Name: "Performance", Keywords: []string{"fast", "slow", "speed", "performance", "lag", "smooth", "responsive"}},
			{Name: "Shipping", Keywords: []string{"shipping", "delivery", "arrived", "package", "delayed"}},
			{Name: "Build Quality", Keywords: []string{"quality", "build", "sturdy", "durable", "broken", "solid", "plasticky", "flimsy"}},
			{Name: "Value for Money", Keywords: []string{"price", "worth", "value", "expensive", "cheap", "affordable", "paid"}},
			{Name: "Customer Service", Keywords: []string{"service", "support", "help", "response", "customer", "helpful", "unhelpful"}},
			{Name: "Design", Keywords: []string{"design", "look", "aesthetic", "style", "beautiful", "ugly"}},
			{Name: "Ease of Use", Keywords: []string{"easy", "simple", "intuitive", "complicated", "user-friendly"}},
		},
		Tiers: []Tier{
			{
				Name: TierStrongNegative,
				Words: []string{
					"terrible", "horrible", "awful", "nightmare", "useless",
					"broken", "failed", "worst", "hate", "pathetic", "garbage",
					"completely", "totally", "barely", "hardly", "scarcely",
				},
				Score: 0.1,
			},
			{
				Name: TierNegative,
				Words: []string{
					"weak", "poor", "mediocre", "subpar", "struggled", "issues",
					"problems", "unhelpful", "cheap", "flimsy", "disappointing",
				},
				Score: 0.35,
			},
			{
				Name: TierNeutral,
				Words: []string{
					"okay", "fine", "decent", "average", "acceptable", "standard",
					"adequate", "fair", "alright",
				},
				Score: 0.5,
			},
			{
				Name: TierPositive,
				Words: []string{
					"good", "nice", "solid", "reliable", "helpful", "pleased",
					"satisfied", "works", "clear", "bright", "recommend",
				},
				Score: 0.7,
			},
			{
				Name: TierStrongPositive,
				Words: []string{
					"excellent", "amazing", "incredible", "perfect", "outstanding",
					"love", "exceeded", "fantastic", "brilliant", "phenomenal", "superb",
				},
				Score: 0.95,
			},
		},
		Negations:  []string{"not", "no", "never", "neither", "nor", "none", "n't"},
		Qualifiers: []string{"but", "though", "however", "although", "yet", "still", "questionable", "just"},
		Dampening:  Dampening{Positive: 0.15, Negative: 0.05},
	}
}
