package airports

import "strings"

// Region buckets drive sacrifice-destination and hub selection. The tables
// cover the airports the engine actually probes; anything unknown falls into
// RegionOther and gets a mixed candidate set.
type Region string

const (
	RegionChina        Region = "china"
	RegionAsia         Region = "asia"
	RegionEurope       Region = "europe"
	RegionNorthAmerica Region = "north_america"
	RegionOther        Region = "other"
)

var chinaAirports = map[string]bool{
	"PEK": true, "PKX": true, // Beijing
	"PVG": true, "SHA": true, // Shanghai
	"CAN": true, // Guangzhou
	"SZX": true, // Shenzhen
	"CTU": true, // Chengdu
	"CKG": true, // Chongqing
	"XIY": true, // Xi'an
	"KMG": true, // Kunming
	"WUH": true, // Wuhan
	"CSX": true, // Changsha
	"NKG": true, // Nanjing
	"HGH": true, // Hangzhou
	"XMN": true, // Xiamen
	"FOC": true, // Fuzhou
	"TSN": true, // Tianjin
	"SHE": true, // Shenyang
	"HRB": true, // Harbin
	"DLC": true, // Dalian
	"TAO": true, // Qingdao
	"CGO": true, // Zhengzhou
	"HFE": true, // Hefei
	"TYN": true, // Taiyuan
	"KWE": true, // Guiyang
	"NNG": true, // Nanning
	"URC": true, // Urumqi
	"SYX": true, // Sanya
	"HAK": true, // Haikou
}

var asiaAirports = map[string]bool{
	"HKG": true, "TPE": true, "NRT": true, "HND": true, "ICN": true,
	"SIN": true, "BKK": true, "KUL": true, "MNL": true, "CGK": true,
	"DEL": true, "BOM": true, "DXB": true, "DOH": true,
}

var europeAirports = map[string]bool{
	"LHR": true, "CDG": true, "FRA": true, "AMS": true, "FCO": true,
	"MAD": true, "BCN": true, "VIE": true, "ZUR": true, "MUC": true,
	"CPH": true, "ARN": true, "HEL": true,
}

var northAmericaAirports = map[string]bool{
	"LAX": true, "SFO": true, "JFK": true, "LGA": true, "ORD": true,
	"DFW": true, "ATL": true, "SEA": true, "YVR": true, "YYZ": true,
	"DEN": true, "LAS": true, "MIA": true,
}

// Normalize strips a provider station prefix ("Station:airport:PEK") and
// upper-cases the IATA code.
func Normalize(code string) string {
	c := strings.ToUpper(code)
	if i := strings.LastIndex(c, ":"); i >= 0 {
		c = c[i+1:]
	}
	return c
}

func RegionOf(code string) Region {
	c := Normalize(code)
	switch {
	case chinaAirports[c]:
		return RegionChina
	case asiaAirports[c]:
		return RegionAsia
	case europeAirports[c]:
		return RegionEurope
	case northAmericaAirports[c]:
		return RegionNorthAmerica
	}
	return RegionOther
}

func IsDomesticChina(code string) bool {
	return RegionOf(code) == RegionChina
}
