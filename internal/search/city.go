// Package search implements the fare search capability: it drives a result
// page per query mode, collects fares through the incremental collector, and
// renders the human-facing view tables.
package search

import "strings"

// mainlandCity maps mainland IATA codes to the city names the fare site's
// domestic URLs expect. The values are URL payload, not prose.
var mainlandCity = map[string]string{
	"SZX": "深圳", "CKG": "重庆", "PEK": "北京", "PKX": "北京",
	"SHA": "上海", "PVG": "上海", "CAN": "广州", "CTU": "成都",
	"XIY": "西安", "WUH": "武汉", "CSX": "长沙", "KMG": "昆明",
	"NKG": "南京", "HGH": "杭州", "XMN": "厦门", "TSN": "天津",
	"DLC": "大连", "TAO": "青岛", "SHE": "沈阳", "HRB": "哈尔滨",
	"URC": "乌鲁木齐", "KWE": "贵阳", "NNG": "南宁", "HAK": "海口",
	"SYX": "三亚", "LHW": "兰州", "TNA": "济南",
}

var intlCity = map[string]string{
	"HKG": "中国香港", "MFM": "中国澳门", "TPE": "中国台北",
}

// IsMainland reports whether the code is a known mainland airport.
func IsMainland(code string) bool {
	_, ok := mainlandCity[strings.ToUpper(code)]
	return ok
}

// IsIntlRoute reports whether either endpoint leaves the mainland fare site's
// domestic inventory.
func IsIntlRoute(depart, arrive string) bool {
	return !IsMainland(depart) || !IsMainland(arrive)
}

// CityLabel returns the display name for a code, falling back to the code
// itself.
func CityLabel(code string) string {
	up := strings.ToUpper(code)
	if name, ok := mainlandCity[up]; ok {
		return name
	}
	if name, ok := intlCity[up]; ok {
		return name
	}
	return code
}
