package perception

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Location maps a lower-case place name found in user text to the canonical
// name used in the dataset.
type Location struct {
	Key       string
	Canonical string
}

// IsCity reports whether the canonical name denotes a city, in which case the
// municipality predicate is set as well as the province.
func (l Location) IsCity() bool {
	switch l.Canonical {
	case "QUEZON", "PASIG", "MANILA":
		return true
	}
	return strings.Contains(l.Canonical, "CITY")
}

// Gazetteer is the fixed place-name table. Order is irrelevant; matching is
// longest key first.
var Gazetteer = []Location{
	// Luzon provinces
	{"bulacan", "BULACAN"}, {"isabela", "ISABELA"}, {"pangasinan", "PANGASINAN"},
	{"pampanga", "PAMPANGA"}, {"albay", "ALBAY"}, {"tarlac", "TARLAC"},
	{"camarines sur", "CAMARINES SUR"}, {"camarines norte", "CAMARINES NORTE"},
	{"ilocos norte", "ILOCOS NORTE"}, {"ilocos sur", "ILOCOS SUR"},
	{"cavite", "CAVITE"}, {"batangas", "BATANGAS"}, {"rizal", "RIZAL"},
	{"cagayan", "CAGAYAN"}, {"la union", "LA UNION"}, {"nueva ecija", "NUEVA ECIJA"},
	{"laguna", "LAGUNA"}, {"quezon", "QUEZON"}, {"sorsogon", "SORSOGON"},
	{"abra", "ABRA"}, {"bataan", "BATAAN"}, {"palawan", "PALAWAN"},
	{"oriental mindoro", "ORIENTAL MINDORO"}, {"occidental mindoro", "OCCIDENTAL MINDORO"},
	{"nueva vizcaya", "NUEVA VIZCAYA"}, {"benguet", "BENGUET"}, {"kalinga", "KALINGA"},
	{"mountain province", "MOUNTAIN PROVINCE"}, {"apayao", "APAYAO"}, {"ifugao", "IFUGAO"},
	{"aurora", "AURORA"}, {"zambales", "ZAMBALES"}, {"marinduque", "MARINDUQUE"},
	{"catanduanes", "CATANDUANES"}, {"batanes", "BATANES"}, {"quirino", "QUIRINO"},
	{"romblon", "ROMBLON"}, {"masbate", "MASBATE"},

	// Metro Manila
	{"manila", "CITY OF MANILA"}, {"quezon city", "QUEZON CITY"},
	{"caloocan", "CALOOCAN CITY"}, {"pasig", "PASIG CITY"}, {"taguig", "TAGUIG CITY"},
	{"malabon", "MALABON CITY"}, {"navotas", "NAVOTAS CITY"}, {"valenzuela", "VALENZUELA CITY"},
	{"marikina", "MARIKINA CITY"}, {"makati", "MAKATI CITY"}, {"parañaque", "PARAÑAQUE CITY"},
	{"las piñas", "LAS PIÑAS CITY"}, {"pasay", "PASAY CITY"}, {"pateros", "PATEROS"},
	{"muntinlupa", "MUNTINLUPA CITY"}, {"san juan", "SAN JUAN CITY"},
	{"mandaluyong", "MANDALUYONG CITY"},

	// Visayas
	{"cebu", "CEBU"}, {"leyte", "LEYTE"}, {"negros occidental", "NEGROS OCCIDENTAL"},
	{"negros oriental", "NEGROS ORIENTAL"}, {"iloilo", "ILOILO"}, {"bohol", "BOHOL"},
	{"biliran", "BILIRAN"}, {"samar", "SAMAR (WESTERN SAMAR)"}, {"southern leyte", "SOUTHERN LEYTE"},
	{"northern samar", "NORTHERN SAMAR"}, {"eastern samar", "EASTERN SAMAR"},
	{"aklan", "AKLAN"}, {"antique", "ANTIQUE"}, {"capiz", "CAPIZ"},
	{"guimaras", "GUIMARAS"}, {"siquijor", "SIQUIJOR"},

	// Mindanao
	{"davao del sur", "DAVAO DEL SUR"}, {"davao del norte", "DAVAO DEL NORTE"},
	{"davao oriental", "DAVAO ORIENTAL"}, {"davao occidental", "DAVAO OCCIDENTAL"},
	{"davao de oro", "DAVAO DE ORO"}, {"bukidnon", "BUKIDNON"},
	{"misamis oriental", "MISAMIS ORIENTAL"}, {"misamis occidental", "MISAMIS OCCIDENTAL"},
	{"agusan del norte", "AGUSAN DEL NORTE"}, {"agusan del sur", "AGUSAN DEL SUR"},
	{"south cotabato", "SOUTH COTABATO"}, {"sultan kudarat", "SULTAN KUDARAT"},
	{"cotabato", "COTABATO (NORTH COTABATO)"}, {"lanao del norte", "LANAO DEL NORTE"},
	{"lanao del sur", "LANAO DEL SUR"}, {"zamboanga del sur", "ZAMBOANGA DEL SUR"},
	{"zamboanga del norte", "ZAMBOANGA DEL NORTE"}, {"zamboanga sibugay", "ZAMBOANGA SIBUGAY"},
	{"surigao del norte", "SURIGAO DEL NORTE"}, {"surigao del sur", "SURIGAO DEL SUR"},
	{"maguindanao", "MAGUINDANAO DEL SUR"}, {"basilan", "BASILAN"},
	{"dinagat islands", "DINAGAT ISLANDS"}, {"camiguin", "CAMIGUIN"},
	{"sarangani", "SARANGANI"}, {"sulu", "SULU"},
}

// PlaceKeywords mark a turn as needing data even when the place has no
// canonical mapping ("davao", "region").
var PlaceKeywords = []string{"davao", "region", "city", "metro"}

// QueryKeywords are verbs and interrogatives that signal a data lookup.
var QueryKeywords = []string{
	"show", "find", "projects", "contractor", "budget", "total",
	"how many", "which", "what", "where", "about", "in", "at", "for",
}

// FollowUpIndicators mark a turn as continuing the previous lookup.
var FollowUpIndicators = []string{
	"more", "also", "what about", "how about", "tell me about",
	"largest", "smallest", "top",
}

// ContractorAlias maps a whole-word token to a contractor-name substring.
type ContractorAlias struct {
	Token     string
	Canonical string
}

// ContractorAliases are checked in order; the first whole-word hit wins.
var ContractorAliases = []ContractorAlias{
	{"azarraga", "AZARRAGA"},
	{"ged", "GED"},
}

// YearCandidates are checked in order; the first literal hit wins.
var YearCandidates = []int{2024, 2025, 2023, 2022}

// byLongestKey returns the gazetteer ordered for longest-match-first scanning.
// Equal lengths fall back to key order so resolution is deterministic.
func byLongestKey(locs []Location) []Location {
	out := slices.Clone(locs)
	slices.SortStableFunc(out, func(a, b Location) int {
		if la, lb := utf8.RuneCountInString(a.Key), utf8.RuneCountInString(b.Key); la != lb {
			return lb - la
		}
		return strings.Compare(a.Key, b.Key)
	})
	return out
}
