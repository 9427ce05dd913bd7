package collector

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/LJTian/InkDash/internal/cache"
)

const (
	openMeteoForecastURL   = "https://api.open-meteo.com/v1/forecast"
	openMeteoAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"

	weatherMaxResponseBytes = 1 << 20 // 1MB
	weatherClientTimeout    = 10 * time.Second

	// 向后扫描的逐小时预报窗口，用于生成临近天气提醒
	alertScanHours = 48
	// 提醒最多保留的后续事件条数
	maxUpcomingAlerts = 5
)

// Open-Meteo 的逐小时时间戳格式（本地时区、无秒）
const openMeteoTimeLayout = "2006-01-02T15:04"

// WeatherData 天气域的展示结构。字段都是可直接渲染的字符串，
// 降级时由 FallbackWeather 给出同形状的占位值，展示层不需要判空。
type WeatherData struct {
	Location Location         `json:"location"`
	Current  CurrentWeather   `json:"current"`
	Forecast []ForecastSlot   `json:"forecast"`
	Tomorrow TomorrowForecast `json:"tomorrow"`
}

type Location struct {
	Name string `json:"name"`
}

type CurrentWeather struct {
	Temp       string `json:"temp"`
	Humidity   string `json:"humidity"`
	Desc       string `json:"desc"`
	Icon       string `json:"icon"`
	RainChance string `json:"rain_chance"`
	UV         string `json:"uv"`
	AQI        string `json:"aqi"`
	AQILevel   string `json:"aqi_level"`
	HighLow    string `json:"high_low"`
	Alert      string `json:"alert"`
	HasWarning bool   `json:"has_warning"`

	UpcomingAlerts []UpcomingAlert `json:"upcoming_alerts"`
}

// UpcomingAlert 未来若干小时内的一次降水 / 降雪 / 雷雨事件
type UpcomingAlert struct {
	HoursFromNow int       `json:"hours_from_now"`
	Type         string    `json:"type"`
	At           time.Time `json:"at"`
}

// ForecastSlot 一个逐小时预报槽位
type ForecastSlot struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Temp  string `json:"temp"`
	Desc  string `json:"desc"`
}

type TomorrowForecast struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Temp  string `json:"temp"`
	Desc  string `json:"desc"`
}

// WeatherFetcher 合并 Open-Meteo 的天气预报与空气质量两个独立接口。
// 空气质量失败只降级 AQI 子字段，不影响整体结果。
type WeatherFetcher struct {
	Cache *cache.Cache[WeatherData]

	Latitude  float64
	Longitude float64
	CityName  string
	Timezone  string
	Language  string

	// 通勤时段边界，第三个预报槽位会向前吸附到这两个整点
	WorkStartHour int
	WorkEndHour   int

	// 测试时可指向 httptest server
	ForecastURL   string
	AirQualityURL string

	Client *http.Client
	Log    zerolog.Logger
}

func NewWeatherFetcher(c *cache.Cache[WeatherData], lat, lon float64, city, tz, lang string, workStart, workEnd int, log zerolog.Logger) *WeatherFetcher {
	return &WeatherFetcher{
		Cache:         c,
		Latitude:      lat,
		Longitude:     lon,
		CityName:      city,
		Timezone:      tz,
		Language:      lang,
		WorkStartHour: workStart,
		WorkEndHour:   workEnd,
		ForecastURL:   openMeteoForecastURL,
		AirQualityURL: openMeteoAirQualityURL,
		Client:        &http.Client{Timeout: weatherClientTimeout},
		Log:           log.With().Str("fetcher", "weather").Logger(),
	}
}

func (w *WeatherFetcher) Name() string {
	return "weather"
}

// FallbackWeather 天气域的固定降级值：温度等字段用 "--" 占位，城市名仍然展示
func FallbackWeather(city, lang string) WeatherData {
	return WeatherData{
		Location: Location{Name: city},
		Current: CurrentWeather{
			Temp:       "--",
			Humidity:   "--",
			Desc:       "N/A",
			Icon:       "",
			RainChance: "--",
			UV:         "--",
			AQI:        "--",
			AQILevel:   aqiUnknown(lang),
		},
		Forecast: []ForecastSlot{},
	}
}

// Open-Meteo forecast 响应中实际用到的字段
type openMeteoResp struct {
	Current struct {
		Time               string  `json:"time"`
		Temperature2m      float64 `json:"temperature_2m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
		WeatherCode        int     `json:"weather_code"`
		UVIndex            float64 `json:"uv_index"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature2m            []float64 `json:"temperature_2m"`
		WeatherCode              []int     `json:"weather_code"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weather_code"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

type airQualityResp struct {
	Current struct {
		USAQI float64 `json:"us_aqi"`
	} `json:"current"`
}

func (w *WeatherFetcher) Fetch() Result[WeatherData] {
	key := fmt.Sprintf("weather_data_%v_%v", w.Latitude, w.Longitude)
	if v, ok := w.Cache.Get(key); ok {
		return Ok(v)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(w.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(w.Longitude, 'f', -1, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,weather_code,uv_index")
	params.Set("hourly", "temperature_2m,weather_code,precipitation_probability")
	params.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,uv_index_max")
	params.Set("timezone", w.Timezone)

	var resp openMeteoResp
	if err := getJSON(w.Client, w.ForecastURL+"?"+params.Encode(), weatherMaxResponseBytes, &resp); err != nil {
		w.Log.Warn().Err(err).Msg("fetch forecast failed")
		return Failed[WeatherData]()
	}

	nowDT, err := time.Parse(openMeteoTimeLayout, resp.Current.Time)
	if err != nil {
		w.Log.Warn().Err(err).Str("time", resp.Current.Time).Msg("parse current time failed")
		return Failed[WeatherData]()
	}

	data := FallbackWeather(w.CityName, w.Language)

	// 1. 当前天气
	desc, icon := mapWMOToText(resp.Current.WeatherCode, w.Language)
	data.Current.Temp = strconv.Itoa(int(math.Round(resp.Current.Temperature2m)))
	data.Current.Humidity = strconv.Itoa(int(resp.Current.RelativeHumidity2m)) + "%"
	data.Current.Desc = desc
	data.Current.Icon = icon
	if resp.Current.UVIndex != 0 {
		data.Current.UV = strconv.FormatFloat(math.Round(resp.Current.UVIndex*10)/10, 'f', -1, 64)
	} else {
		data.Current.UV = "0"
	}

	// 2. 空气质量：独立接口，失败只降级 AQI 字段
	w.fillAirQuality(&data)

	// 当前降雨概率取逐小时序列的首个值
	if len(resp.Hourly.PrecipitationProbability) > 0 {
		data.Current.RainChance = strconv.Itoa(int(resp.Hourly.PrecipitationProbability[0])) + "%"
	} else {
		data.Current.RainChance = "0%"
	}

	// 3. 三个预报槽位：+1h、+2h，以及吸附到通勤时段边界的 +3h
	data.Forecast = w.buildForecastSlots(nowDT, resp)

	// 4. 今日最高最低 + 明日预报
	if len(resp.Daily.Time) >= 1 {
		data.Current.HighLow = fmt.Sprintf("%d° / %d°",
			int(math.Round(resp.Daily.Temperature2mMax[0])),
			int(math.Round(resp.Daily.Temperature2mMin[0])))
	} else {
		data.Current.HighLow = ""
	}
	if len(resp.Daily.Time) >= 2 {
		dDesc, dIcon := mapWMOToText(resp.Daily.WeatherCode[1], w.Language)
		data.Tomorrow = TomorrowForecast{
			Label: labelTomorrow(w.Language),
			Icon:  dIcon,
			Temp: fmt.Sprintf("%d/%d°",
				int(math.Round(resp.Daily.Temperature2mMax[1])),
				int(math.Round(resp.Daily.Temperature2mMin[1]))),
			Desc: dDesc,
		}
	}

	// 5. 临近天气提醒
	alerts := scanUpcomingAlerts(nowDT, resp.Hourly.Time, resp.Hourly.WeatherCode, w.Language)
	data.Current.Alert = phraseAlert(alerts, nowDT, w.Language)
	data.Current.HasWarning = data.Current.Alert != ""
	if len(alerts) > maxUpcomingAlerts {
		alerts = alerts[:maxUpcomingAlerts]
	}
	data.Current.UpcomingAlerts = alerts

	w.Cache.Set(key, data)
	return Ok(data)
}

func (w *WeatherFetcher) fillAirQuality(data *WeatherData) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(w.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(w.Longitude, 'f', -1, 64))
	params.Set("current", "pm2_5,pm10,us_aqi")
	params.Set("timezone", w.Timezone)

	var resp airQualityResp
	if err := getJSON(w.Client, w.AirQualityURL+"?"+params.Encode(), weatherMaxResponseBytes, &resp); err != nil {
		w.Log.Warn().Err(err).Msg("fetch air quality failed, degrading AQI fields")
		return
	}

	usAQI := int(resp.Current.USAQI)
	if usAQI == 0 {
		return
	}
	data.Current.AQI = strconv.Itoa(usAQI)
	data.Current.AQILevel = aqiLevel(usAQI, w.Language)
}

// buildForecastSlots 选出三个“聪明”的预报槽位：
// +1h、+2h 取整点；+3h 若落在上班前则吸附到上班时间，落在工作时段内则吸附到下班时间
func (w *WeatherFetcher) buildForecastSlots(nowDT time.Time, resp openMeteoResp) []ForecastSlot {
	t1 := nowDT.Add(1 * time.Hour).Truncate(time.Hour)
	t2 := nowDT.Add(2 * time.Hour).Truncate(time.Hour)

	t3 := nowDT.Add(3 * time.Hour).Truncate(time.Hour)
	workStart := time.Date(t3.Year(), t3.Month(), t3.Day(), w.WorkStartHour, 0, 0, 0, t3.Location())
	workEnd := time.Date(t3.Year(), t3.Month(), t3.Day(), w.WorkEndHour, 0, 0, 0, t3.Location())
	switch {
	case t3.Before(workStart):
		t3 = workStart
	case t3.Before(workEnd):
		t3 = workEnd
	}

	slots := make([]ForecastSlot, 0, 3)
	for _, tgt := range []time.Time{t1, t2, t3} {
		idx := findHourIndex(resp.Hourly.Time, tgt)
		if idx < 0 || idx >= len(resp.Hourly.Temperature2m) || idx >= len(resp.Hourly.WeatherCode) {
			// 目标小时不在预报序列里，给占位槽位
			slots = append(slots, ForecastSlot{
				Label: tgt.Format("15:00"),
				Icon:  "02d",
				Temp:  "--",
				Desc:  "N/A",
			})
			continue
		}
		desc, icon := mapWMOToText(resp.Hourly.WeatherCode[idx], w.Language)
		slots = append(slots, ForecastSlot{
			Label: tgt.Format("15:00"),
			Icon:  icon,
			Temp:  strconv.Itoa(int(math.Round(resp.Hourly.Temperature2m[idx]))),
			Desc:  desc,
		})
	}
	return slots
}

// findHourIndex 在逐小时时间序列里按 年/月/日/时 找目标时刻，找不到返回 -1
func findHourIndex(times []string, target time.Time) int {
	for i, s := range times {
		t, err := time.Parse(openMeteoTimeLayout, s)
		if err != nil {
			continue
		}
		if t.Year() == target.Year() && t.Month() == target.Month() &&
			t.Day() == target.Day() && t.Hour() == target.Hour() {
			return i
		}
	}
	return -1
}

// 会触发提醒的 WMO 代码分组
var (
	alertRainCodes    = map[int]bool{61: true, 63: true, 65: true, 80: true, 81: true, 82: true, 66: true, 67: true}
	alertSnowCodes    = map[int]bool{71: true, 73: true, 75: true, 85: true, 86: true, 77: true}
	alertThunderCodes = map[int]bool{95: true, 96: true, 99: true}
	alertDrizzleCodes = map[int]bool{51: true, 53: true, 55: true}
)

func alertType(code int, lang string) string {
	en := lang == "EN"
	switch {
	case alertRainCodes[code]:
		if en {
			return "Rain"
		}
		return "雨"
	case alertSnowCodes[code]:
		if en {
			return "Snow"
		}
		return "雪"
	case alertThunderCodes[code]:
		if en {
			return "T-Storm"
		}
		return "雷雨"
	case alertDrizzleCodes[code]:
		if en {
			return "Drizzle"
		}
		return "小雨"
	}
	return ""
}

// scanUpcomingAlerts 从当前小时向后扫描最多 48 个小时的天气代码，
// 收集所有会触发提醒的事件（按时间顺序）
func scanUpcomingAlerts(nowDT time.Time, times []string, codes []int, lang string) []UpcomingAlert {
	nowIdx := -1
	for i, s := range times {
		t, err := time.Parse(openMeteoTimeLayout, s)
		if err != nil {
			continue
		}
		if t.Hour() == nowDT.Hour() && t.Day() == nowDT.Day() {
			nowIdx = i
			break
		}
	}
	if nowIdx < 0 {
		return nil
	}

	maxIdx := nowIdx + alertScanHours + 1
	if maxIdx > len(times) {
		maxIdx = len(times)
	}
	if maxIdx > len(codes) {
		maxIdx = len(codes)
	}

	var out []UpcomingAlert
	for i := nowIdx + 1; i < maxIdx; i++ {
		wtype := alertType(codes[i], lang)
		if wtype == "" {
			continue
		}
		t, err := time.Parse(openMeteoTimeLayout, times[i])
		if err != nil {
			continue
		}
		out = append(out, UpcomingAlert{
			HoursFromNow: i - nowIdx,
			Type:         wtype,
			At:           t,
		})
	}
	return out
}

// phraseAlert 取最近的一个事件生成提醒文案。三小时内 / 今天晚些时候 / 明天
// 用不同的措辞；跨到后天及以上退回“N 小时后”的写法。
func phraseAlert(alerts []UpcomingAlert, nowDT time.Time, lang string) string {
	if len(alerts) == 0 {
		return ""
	}
	first := alerts[0]
	hours := first.HoursFromNow
	wtype := first.Type
	en := lang == "EN"

	switch {
	case hours <= 3:
		if en {
			return fmt.Sprintf("%s in %dh", wtype, hours)
		}
		return fmt.Sprintf("%dH后有%s", hours, wtype)
	case first.At.Day() == nowDT.Day():
		if en {
			return fmt.Sprintf("%s at %d:00", wtype, first.At.Hour())
		}
		return fmt.Sprintf("今天%d点有%s", first.At.Hour(), wtype)
	case first.At.Day() == nowDT.Day()+1:
		if en {
			return fmt.Sprintf("%s tom. at %d:00", wtype, first.At.Hour())
		}
		return fmt.Sprintf("明天%d点有%s", first.At.Hour(), wtype)
	default:
		if en {
			return fmt.Sprintf("%s in %dh", wtype, hours)
		}
		return fmt.Sprintf("%dH后有%s", hours, wtype)
	}
}
