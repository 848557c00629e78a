package utils

import "fmt"

// provinceNames maps PSGC province codes to display names.  Only the
// provinces appearing in the survey extract are listed; unknown codes
// fall back to a numeric label.
var provinceNames = map[uint16]string{
	1028: "Ilocos Norte",
	1029: "Ilocos Sur",
	1033: "La Union",
	1055: "Pangasinan",
	2009: "Batanes",
	2015: "Cagayan",
	2031: "Isabela",
	2050: "Nueva Vizcaya",
	2057: "Quirino",
	3008: "Bataan",
	3014: "Bulacan",
	3049: "Nueva Ecija",
	3054: "Pampanga",
	3069: "Tarlac",
	3071: "Zambales",
	3077: "Aurora",
	4010: "Batangas",
	4021: "Cavite",
	4034: "Laguna",
	4056: "Quezon",
	4058: "Rizal",
	4117: "Oriental Mindoro",
	4140: "Palawan",
	5005: "Albay",
	5016: "Camarines Norte",
	5017: "Camarines Sur",
	5020: "Catanduanes",
	5041: "Masbate",
	5062: "Sorsogon",
	6004: "Aklan",
	6006: "Antique",
	6019: "Capiz",
	6030: "Iloilo",
	6045: "Negros Occidental",
	7012: "Bohol",
	7022: "Cebu",
	7046: "Negros Oriental",
	7061: "Siquijor",
	8026: "Eastern Samar",
	8037: "Leyte",
	8048: "Northern Samar",
	8060: "Samar",
	8064: "Southern Leyte",
	9072: "Zamboanga del Norte",
	9073: "Zamboanga del Sur",
	10013: "Bukidnon",
	10018: "Camiguin",
	10035: "Lanao del Norte",
	10042: "Misamis Occidental",
	10043: "Misamis Oriental",
	11023: "Davao del Norte",
	11024: "Davao del Sur",
	11025: "Davao Oriental",
	12047: "Cotabato",
	12063: "South Cotabato",
	12065: "Sultan Kudarat",
	12080: "Sarangani",
	13039: "Metro Manila",
	14001: "Abra",
	14011: "Benguet",
	14027: "Ifugao",
	14032: "Kalinga",
	14044: "Mountain Province",
	15036: "Lanao del Sur",
	15038: "Maguindanao",
	15066: "Sulu",
	15070: "Tawi-Tawi",
	16002: "Agusan del Norte",
	16003: "Agusan del Sur",
	16067: "Surigao del Norte",
	16068: "Surigao del Sur",
}

// ProvinceName returns the display name for a PSGC province code.
func ProvinceName(code uint16) string {
	if name, ok := provinceNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Province %d", code)
}
