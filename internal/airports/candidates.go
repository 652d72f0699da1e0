package airports

// Sacrifice destinations are the ticketed endpoints used for hidden-city
// searches: large markets with dense connecting traffic through the
// traveler's real destination.
var sacrificeDestinations = map[Region][]string{
	RegionChina: {
		"PEK", "PKX", "PVG", "SHA", "CAN", "SZX", "CTU", "CKG", "XIY",
		"KMG", "WUH", "CSX", "NKG", "HGH", "XMN", "TSN", "TAO", "DLC", "SHE",
	},
	RegionAsia:         {"HKG", "TPE", "NRT", "ICN", "SIN", "BKK", "KUL", "MNL"},
	RegionEurope:       {"FRA", "AMS", "CDG", "LHR", "FCO", "VIE", "ZUR"},
	RegionNorthAmerica: {"LAX", "SFO", "JFK", "ORD", "DFW", "YVR", "YYZ"},
}

// Hub describes a transit airport candidate for probe searches.
type Hub struct {
	IATA string
	Name string
	City string
}

var hubsByRegion = map[Region][]Hub{
	RegionChina: {
		{IATA: "PEK", Name: "Beijing Capital International", City: "Beijing"},
		{IATA: "PVG", Name: "Shanghai Pudong International", City: "Shanghai"},
		{IATA: "CAN", Name: "Guangzhou Baiyun International", City: "Guangzhou"},
		{IATA: "SZX", Name: "Shenzhen Bao'an International", City: "Shenzhen"},
		{IATA: "CTU", Name: "Chengdu Tianfu International", City: "Chengdu"},
		{IATA: "WUH", Name: "Wuhan Tianhe International", City: "Wuhan"},
		{IATA: "XMN", Name: "Xiamen Gaoqi International", City: "Xiamen"},
	},
	RegionAsia: {
		{IATA: "HKG", Name: "Hong Kong International", City: "Hong Kong"},
		{IATA: "NRT", Name: "Tokyo Narita International", City: "Tokyo"},
		{IATA: "ICN", Name: "Seoul Incheon International", City: "Seoul"},
		{IATA: "SIN", Name: "Singapore Changi", City: "Singapore"},
		{IATA: "BKK", Name: "Bangkok Suvarnabhumi", City: "Bangkok"},
		{IATA: "DXB", Name: "Dubai International", City: "Dubai"},
	},
	RegionEurope: {
		{IATA: "FRA", Name: "Frankfurt Airport", City: "Frankfurt"},
		{IATA: "AMS", Name: "Amsterdam Schiphol", City: "Amsterdam"},
		{IATA: "LHR", Name: "London Heathrow", City: "London"},
		{IATA: "CDG", Name: "Paris Charles de Gaulle", City: "Paris"},
		{IATA: "VIE", Name: "Vienna International", City: "Vienna"},
	},
	RegionNorthAmerica: {
		{IATA: "LAX", Name: "Los Angeles International", City: "Los Angeles"},
		{IATA: "SFO", Name: "San Francisco International", City: "San Francisco"},
		{IATA: "JFK", Name: "New York John F. Kennedy", City: "New York"},
		{IATA: "ORD", Name: "Chicago O'Hare International", City: "Chicago"},
		{IATA: "YVR", Name: "Vancouver International", City: "Vancouver"},
	},
}

// SacrificeDestinations returns up to max ticketed-endpoint candidates for a
// hidden-city search to destination, excluding the searched pair itself.
// Domestic Chinese destinations prefer domestic hubs with a few regional
// spillovers; unknown regions get a mixed set.
func SacrificeDestinations(origin, destination string, max int) []string {
	o, d := Normalize(origin), Normalize(destination)

	var pool []string
	switch RegionOf(d) {
	case RegionChina:
		pool = append(pool, sacrificeDestinations[RegionChina]...)
		pool = append(pool, sacrificeDestinations[RegionAsia][:3]...)
	case RegionAsia:
		pool = append(pool, sacrificeDestinations[RegionAsia]...)
	case RegionEurope:
		pool = append(pool, sacrificeDestinations[RegionEurope]...)
	case RegionNorthAmerica:
		pool = append(pool, sacrificeDestinations[RegionNorthAmerica]...)
	default:
		pool = append(pool, sacrificeDestinations[RegionAsia][:3]...)
		pool = append(pool, sacrificeDestinations[RegionEurope][:3]...)
		pool = append(pool, sacrificeDestinations[RegionNorthAmerica][:3]...)
	}

	out := make([]string, 0, max)
	for _, c := range pool {
		if c == o || c == d {
			continue
		}
		out = append(out, c)
		if len(out) == max {
			break
		}
	}
	return out
}

// HubCandidates returns up to max transit hubs near the destination's region,
// excluding the searched pair itself.
func HubCandidates(origin, destination string, max int) []Hub {
	o, d := Normalize(origin), Normalize(destination)

	var pool []Hub
	switch RegionOf(d) {
	case RegionChina:
		pool = append(pool, hubsByRegion[RegionChina]...)
		pool = append(pool, hubsByRegion[RegionAsia][:3]...)
	case RegionAsia:
		pool = append(pool, hubsByRegion[RegionAsia]...)
		pool = append(pool, hubsByRegion[RegionChina][:3]...)
	case RegionEurope:
		pool = append(pool, hubsByRegion[RegionEurope]...)
	case RegionNorthAmerica:
		pool = append(pool, hubsByRegion[RegionNorthAmerica]...)
	default:
		pool = append(pool, hubsByRegion[RegionAsia][:2]...)
		pool = append(pool, hubsByRegion[RegionEurope][:2]...)
		pool = append(pool, hubsByRegion[RegionNorthAmerica][:2]...)
	}

	out := make([]Hub, 0, max)
	for _, h := range pool {
		if h.IATA == o || h.IATA == d {
			continue
		}
		out = append(out, h)
		if len(out) == max {
			break
		}
	}
	return out
}
