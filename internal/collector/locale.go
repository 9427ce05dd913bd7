package collector

import "time"

// wmoEntry WMO 天气代码对应的文案与图标
type wmoEntry struct {
	Desc string
	Icon string
}

// WMO Weather interpretation codes (WW)，中文文案
var wmoMappingCN = map[int]wmoEntry{
	0: {"晴朗", "01d"}, 1: {"多云", "02d"}, 2: {"多云", "02d"}, 3: {"阴天", "04d"},
	45: {"有雾", "50d"}, 48: {"有雾", "50d"},
	51: {"毛毛雨", "09d"}, 53: {"毛毛雨", "09d"}, 55: {"毛毛雨", "09d"},
	56: {"冻雨", "13d"}, 57: {"冻雨", "13d"},
	61: {"小雨", "10d"}, 63: {"中雨", "10d"}, 65: {"大雨", "10d"},
	66: {"冻雨", "13d"}, 67: {"冻雨", "13d"},
	71: {"小雪", "13d"}, 73: {"中雪", "13d"}, 75: {"大雪", "13d"},
	77: {"雪粒", "13d"},
	80: {"阵雨", "09d"}, 81: {"阵雨", "09d"}, 82: {"暴雨", "09d"},
	85: {"阵雪", "13d"}, 86: {"阵雪", "13d"},
	95: {"雷雨", "11d"}, 96: {"雷雨", "11d"}, 99: {"雷雨", "11d"},
}

// 英文文案（受限于墨水屏宽度，部分做了缩写）
var wmoMappingEN = map[int]wmoEntry{
	0: {"Clear", "01d"}, 1: {"Cloudy", "02d"}, 2: {"Cloudy", "02d"}, 3: {"Overcast", "04d"},
	45: {"Fog", "50d"}, 48: {"Fog", "50d"},
	51: {"Drizzle", "09d"}, 53: {"Drizzle", "09d"}, 55: {"Drizzle", "09d"},
	56: {"Frz Driz", "13d"}, 57: {"Frz Driz", "13d"},
	61: {"Rain", "10d"}, 63: {"Rain", "10d"}, 65: {"Hvy Rain", "10d"},
	66: {"Frz Rain", "13d"}, 67: {"Frz Rain", "13d"},
	71: {"Snow", "13d"}, 73: {"Snow", "13d"}, 75: {"Hvy Snow", "13d"},
	77: {"Snow Grn", "13d"},
	80: {"Showers", "09d"}, 81: {"Showers", "09d"}, 82: {"Violent", "09d"},
	85: {"Snow Shw", "13d"}, 86: {"Snow Shw", "13d"},
	95: {"T-Storm", "11d"}, 96: {"Hail", "11d"}, 99: {"Hail", "11d"},
}

// mapWMOToText 将 WMO 天气代码映射为文案和图标，未知代码给兜底值
func mapWMOToText(code int, lang string) (string, string) {
	if lang == "EN" {
		if e, ok := wmoMappingEN[code]; ok {
			return e.Desc, e.Icon
		}
		return "Unknown", "02d"
	}
	if e, ok := wmoMappingCN[code]; ok {
		return e.Desc, e.Icon
	}
	return "未知", "02d"
}

// aqiLevel 按美国 EPA 的六档标准把 US AQI 数值映射为等级文案
func aqiLevel(usAQI int, lang string) string {
	if lang == "EN" {
		switch {
		case usAQI <= 50:
			return "Good"
		case usAQI <= 100:
			return "Fair"
		case usAQI <= 150:
			return "Light"
		case usAQI <= 200:
			return "Mid"
		case usAQI <= 300:
			return "Bad"
		default:
			return "Hazard"
		}
	}
	switch {
	case usAQI <= 50:
		return "优"
	case usAQI <= 100:
		return "良"
	case usAQI <= 150:
		return "轻度"
	case usAQI <= 200:
		return "中度"
	case usAQI <= 300:
		return "重度"
	default:
		return "严重"
	}
}

// aqiUnknown AQI 不可用时的占位等级
func aqiUnknown(lang string) string {
	if lang == "EN" {
		return "Unknown"
	}
	return "未知"
}

var weekdaysCN = map[time.Weekday]string{
	time.Monday:    "星期一",
	time.Tuesday:   "星期二",
	time.Wednesday: "星期三",
	time.Thursday:  "星期四",
	time.Friday:    "星期五",
	time.Saturday:  "星期六",
	time.Sunday:    "星期日",
}

// weekdayName 今日星期的展示文案
func weekdayName(d time.Weekday, lang string) string {
	if lang == "EN" {
		return d.String()
	}
	return weekdaysCN[d]
}

// labelTomorrow 明日预报的标签
func labelTomorrow(lang string) string {
	if lang == "EN" {
		return "Tomorrow"
	}
	return "明天"
}
