package places

// Emergency numbers by ISO code, ordered the way the emergency API reports
// them: 112 first for member countries, then dispatch, then police.
var emergencyNumbers = map[string][]string{
	"AE": {"999", "998"},
	"AR": {"911", "101"},
	"AT": {"112", "133"},
	"AU": {"000", "112"},
	"BE": {"112", "101"},
	"BR": {"190", "192", "193"},
	"CA": {"911"},
	"CH": {"112", "117"},
	"CL": {"133", "131"},
	"CN": {"110", "120", "119"},
	"CO": {"123"},
	"CR": {"911"},
	"CZ": {"112", "158"},
	"DE": {"112", "110"},
	"DK": {"112", "114"},
	"EG": {"122", "123"},
	"ES": {"112", "091"},
	"FI": {"112"},
	"FR": {"112", "15", "17", "18"},
	"GB": {"112", "999"},
	"GH": {"112", "191"},
	"GR": {"112", "100"},
	"HK": {"999"},
	"HR": {"112", "192"},
	"HU": {"112", "107"},
	"ID": {"112", "110"},
	"IE": {"112", "999"},
	"IL": {"100", "101", "102"},
	"IN": {"112", "100"},
	"IQ": {"104", "122"},
	"IR": {"110", "115"},
	"IS": {"112"},
	"IT": {"112", "113"},
	"JO": {"911"},
	"JP": {"110", "119"},
	"KE": {"999", "112"},
	"KR": {"112", "119"},
	"LB": {"112", "140"},
	"MA": {"19", "15"},
	"MX": {"911"},
	"MY": {"999"},
	"NG": {"112", "199"},
	"NL": {"112"},
	"NO": {"112", "113"},
	"NZ": {"111"},
	"PE": {"105", "116"},
	"PH": {"911"},
	"PL": {"112", "997"},
	"PT": {"112"},
	"QA": {"999"},
	"RU": {"112", "102"},
	"SA": {"911", "999"},
	"SE": {"112"},
	"SG": {"999", "995"},
	"TH": {"191", "1669"},
	"TR": {"112"},
	"TZ": {"112"},
	"US": {"911"},
	"VE": {"911"},
	"VN": {"113", "115"},
	"ZA": {"10111", "10177", "112"},
}

// EmergencyNumbers returns the built-in numbers for an ISO code, or nil when
// the code is unknown. The returned slice is a copy.
func EmergencyNumbers(code string) []string {
	nums, ok := emergencyNumbers[code]
	if !ok {
		return nil
	}
	out := make([]string, len(nums))
	copy(out, nums)
	return out
}
