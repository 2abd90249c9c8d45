package world

type LocationID string

const (
	LocationTown   LocationID = "town"
	LocationForest LocationID = "forest"
	LocationCavern LocationID = "cavern"
)

// MarketLocation is where sell orders clear against the world market.
const MarketLocation = LocationTown

// locationGraph is the fixed connectivity graph: town - forest - cavern.
var locationGraph = map[LocationID][]LocationID{
	LocationTown:   {LocationForest},
	LocationForest: {LocationTown, LocationCavern},
	LocationCavern: {LocationForest},
}

func Locations() []LocationID {
	return []LocationID{LocationTown, LocationForest, LocationCavern}
}

func KnownLocation(id LocationID) bool {
	_, ok := locationGraph[id]
	return ok
}

// Adjacent returns the locations reachable in one move from from.
func Adjacent(from LocationID) []LocationID {
	return locationGraph[from]
}

// CanMove reports whether to is adjacent to from.
func CanMove(from, to LocationID) bool {
	for _, adj := range locationGraph[from] {
		if adj == to {
			return true
		}
	}
	return false
}

// NextHopToward returns the adjacent location that moves one step closer to
// target on the town-forest-cavern line. Returns from when already there.
func NextHopToward(from, target LocationID) LocationID {
	if from == target {
		return from
	}
	if CanMove(from, target) {
		return target
	}
	// The graph is a line, so the forest is always the middle hop.
	return LocationForest
}

// GatherYield is the location-specific loot table for one gather action.
func GatherYield(loc LocationID) map[string]int {
	switch loc {
	case LocationForest:
		return map[string]int{"wood": 2, "herb": 1}
	case LocationCavern:
		return map[string]int{"ore": 2, "crystal": 1}
	default:
		return map[string]int{"coin": 1}
	}
}
