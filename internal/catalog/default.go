package catalog

// defaultUpgrades is the built-in upgrade table.
var defaultUpgrades = []Upgrade{
	{
		ID:            "market_stall",
		Name:          "Market Stall",
		Description:   "A small stall to sell local goods.",
		Cost:          Cost{Gold: 500, Supplies: 50},
		BuildTimeDays: 1,
		Effects:       []Effect{{Type: EffectIncomeBonus, Value: 15}},
	},
	{
		ID:              "marketplace",
		Name:            "Marketplace",
		Description:     "A bustling hub of trade.",
		Cost:            Cost{Gold: 2000, Supplies: 200},
		BuildTimeDays:   5,
		MaintenanceCost: 10,
		Prerequisites:   []string{"market_stall"},
		Effects: []Effect{
			{Type: EffectIncomeBonus, Value: 50},
			{Type: EffectInfluenceBonus, Value: 1},
		},
	},
	{
		ID:              "guard_tower",
		Name:            "Guard Tower",
		Description:     "Watch over the surrounding lands.",
		Cost:            Cost{Gold: 800, Supplies: 150},
		BuildTimeDays:   3,
		MaintenanceCost: 5,
		Effects:         []Effect{{Type: EffectDefenseBonus, Value: 5}},
	},
	{
		ID:              "barracks",
		Name:            "Barracks",
		Description:     "House more guards and train them better.",
		Cost:            Cost{Gold: 2500, Supplies: 400},
		BuildTimeDays:   7,
		MaintenanceCost: 20,
		Prerequisites:   []string{"guard_tower"},
		Effects: []Effect{
			{Type: EffectDefenseBonus, Value: 15},
			{Type: EffectInfluenceBonus, Value: 2},
		},
	},
	{
		ID:              "fortified_walls",
		Name:            "Fortified Walls",
		Description:     "Stone curtain walls around the keep.",
		Cost:            Cost{Gold: 4000, Supplies: 600},
		BuildTimeDays:   10,
		MaintenanceCost: 25,
		AllowedTypes:    []string{"castle", "tower"},
		RequiredLevel:   2,
		Prerequisites:   []string{"guard_tower"},
		Effects:         []Effect{{Type: EffectDefenseBonus, Value: 20}},
	},
	{
		ID:              "library",
		Name:            "Library",
		Description:     "A collection of knowledge and history.",
		Cost:            Cost{Gold: 1200, Supplies: 100},
		BuildTimeDays:   4,
		MaintenanceCost: 5,
		Effects:         []Effect{{Type: EffectIntelBonus, Value: 1}},
	},
	{
		ID:              "spy_network",
		Name:            "Spy Network",
		Description:     "A hidden room for managing informants.",
		Cost:            Cost{Gold: 3000, Supplies: 300},
		BuildTimeDays:   6,
		MaintenanceCost: 15,
		Prerequisites:   []string{"library"},
		Effects: []Effect{
			{Type: EffectIntelBonus, Value: 5},
			{Type: EffectInfluenceBonus, Value: 1},
		},
	},
	{
		ID:              "counting_house",
		Name:            "Counting House",
		Description:     "Clerks who keep the payroll lean.",
		Cost:            Cost{Gold: 1500, Supplies: 100},
		BuildTimeDays:   4,
		MaintenanceCost: 8,
		Effects:         []Effect{{Type: EffectWageReduction, Value: 10}},
	},
	{
		ID:              "shrine",
		Name:            "Small Shrine",
		Description:     "A place for quiet contemplation.",
		Cost:            Cost{Gold: 600, Supplies: 50},
		BuildTimeDays:   2,
		MaintenanceCost: 2,
		Effects:         []Effect{{Type: EffectMoraleBoost, Value: 2}},
	},
	{
		ID:              "high_altar",
		Name:            "High Altar",
		Description:     "Pilgrims bring offerings and good cheer.",
		Cost:            Cost{Gold: 1000, Supplies: 80},
		BuildTimeDays:   3,
		MaintenanceCost: 5,
		AllowedTypes:    []string{"temple"},
		Effects: []Effect{
			{Type: EffectMoraleBoost, Value: 3},
			{Type: EffectInfluenceBonus, Value: 1},
		},
	},
	{
		ID:              "caravanserai",
		Name:            "Caravanserai",
		Description:     "Lodging for passing merchant caravans.",
		Cost:            Cost{Gold: 1800, Supplies: 150},
		BuildTimeDays:   5,
		MaintenanceCost: 10,
		AllowedTypes:    []string{"trading_post", "guild_hall"},
		Effects:         []Effect{{Type: EffectIncomeBonus, Value: 30}},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultUpgrades...)
	if err != nil {
		panic("catalog: invalid built-in table: " + err.Error())
	}
	return c
}
