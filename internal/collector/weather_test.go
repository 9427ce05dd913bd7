package collector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/InkDash/internal/cache"
)

// 生成从 start 开始的 n 小时逐小时序列，代码默认晴（1），codeAt 指定例外
func hourlySeries(start time.Time, n int, codeAt map[int]int) ([]string, []float64, []int, []float64) {
	times := make([]string, n)
	temps := make([]float64, n)
	codes := make([]int, n)
	precip := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = start.Add(time.Duration(i) * time.Hour).Format(openMeteoTimeLayout)
		temps[i] = 28.0
		codes[i] = 1
		precip[i] = 10
	}
	for idx, code := range codeAt {
		if idx < n {
			codes[idx] = code
		}
	}
	return times, temps, codes, precip
}

func forecastPayload(current time.Time, codeAt map[int]int) map[string]any {
	times, temps, codes, precip := hourlySeries(current.Truncate(time.Hour).Add(-time.Duration(current.Hour())*time.Hour), 72, codeAt)
	day0 := current.Format("2006-01-02")
	day1 := current.AddDate(0, 0, 1).Format("2006-01-02")
	return map[string]any{
		"current": map[string]any{
			"time":                 current.Format(openMeteoTimeLayout),
			"temperature_2m":       29.6,
			"relative_humidity_2m": 70.0,
			"weather_code":         1,
			"uv_index":             5.2,
		},
		"hourly": map[string]any{
			"time":                      times,
			"temperature_2m":            temps,
			"weather_code":              codes,
			"precipitation_probability": precip,
		},
		"daily": map[string]any{
			"time":               []string{day0, day1},
			"weather_code":       []int{1, 61},
			"temperature_2m_max": []float64{30.4, 31.0},
			"temperature_2m_min": []float64{25.0, 26.0},
		},
	}
}

func newWeatherTestServer(t *testing.T, forecast map[string]any, aqi float64, aqiFail bool) (*httptest.Server, *int, *int) {
	t.Helper()
	forecastHits := 0
	aqiHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		forecastHits++
		json.NewEncoder(w).Encode(forecast)
	})
	mux.HandleFunc("/aqi", func(w http.ResponseWriter, r *http.Request) {
		aqiHits++
		if aqiFail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"current":{"us_aqi":%v}}`, aqi)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &forecastHits, &aqiHits
}

func newTestWeatherFetcher(ts *httptest.Server, lang string) *WeatherFetcher {
	w := NewWeatherFetcher(cache.New[WeatherData](10*time.Minute), 1.2771, 103.8461, "Singapore", "Asia/Singapore", lang, 10, 18, zerolog.Nop())
	w.ForecastURL = ts.URL + "/forecast"
	w.AirQualityURL = ts.URL + "/aqi"
	return w
}

func TestWeatherFetchHappyPath(t *testing.T) {
	// 当前 08:30，+2 小时（10:00）有小雨（61）
	current := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ts, _, _ := newWeatherTestServer(t, forecastPayload(current, map[int]int{10: 61}), 55, false)
	w := newTestWeatherFetcher(ts, "EN")

	res := w.Fetch()
	require.Equal(t, StatusOk, res.Status)
	d := res.Value

	assert.Equal(t, "Singapore", d.Location.Name)
	assert.Equal(t, "30", d.Current.Temp) // 29.6 四舍五入
	assert.Equal(t, "70%", d.Current.Humidity)
	assert.Equal(t, "5.2", d.Current.UV)
	assert.Equal(t, "10%", d.Current.RainChance)
	assert.Equal(t, "55", d.Current.AQI)
	assert.Equal(t, "Fair", d.Current.AQILevel)
	assert.Equal(t, "30° / 25°", d.Current.HighLow)

	// 预报槽位：+1h=09:00、+2h=10:00、+3h=11:00 落在工作时段内，吸附到 18:00
	require.Len(t, d.Forecast, 3)
	assert.Equal(t, "09:00", d.Forecast[0].Label)
	assert.Equal(t, "10:00", d.Forecast[1].Label)
	assert.Equal(t, "18:00", d.Forecast[2].Label)
	assert.Equal(t, "Rain", d.Forecast[1].Desc)

	// 明日预报
	assert.Equal(t, "Tomorrow", d.Tomorrow.Label)
	assert.Equal(t, "31/26°", d.Tomorrow.Temp)

	// 三小时内的降雨提醒
	assert.Equal(t, "Rain in 2h", d.Current.Alert)
	assert.True(t, d.Current.HasWarning)
	require.NotEmpty(t, d.Current.UpcomingAlerts)
	assert.Equal(t, 2, d.Current.UpcomingAlerts[0].HoursFromNow)
}

func TestWeatherAQIDegradesIndependently(t *testing.T) {
	current := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ts, _, _ := newWeatherTestServer(t, forecastPayload(current, nil), 0, true)
	w := newTestWeatherFetcher(ts, "CN")

	res := w.Fetch()
	require.Equal(t, StatusOk, res.Status)
	// 空气质量接口挂了，只降级 AQI 字段，其余照常
	assert.Equal(t, "--", res.Value.Current.AQI)
	assert.Equal(t, "未知", res.Value.Current.AQILevel)
	assert.Equal(t, "30", res.Value.Current.Temp)
}

func TestWeatherForecastFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()
	w := newTestWeatherFetcher(ts, "EN")
	w.ForecastURL = ts.URL
	w.AirQualityURL = ts.URL

	res := w.Fetch()
	assert.Equal(t, StatusFailed, res.Status)
}

func TestWeatherCacheHitSkipsNetwork(t *testing.T) {
	current := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ts, forecastHits, _ := newWeatherTestServer(t, forecastPayload(current, nil), 55, false)
	w := newTestWeatherFetcher(ts, "EN")

	require.Equal(t, StatusOk, w.Fetch().Status)
	require.Equal(t, StatusOk, w.Fetch().Status)
	assert.Equal(t, 1, *forecastHits)
}

func TestBuildForecastSlotsSnapping(t *testing.T) {
	w := &WeatherFetcher{WorkStartHour: 10, WorkEndHour: 18, Language: "EN"}

	var resp openMeteoResp
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	resp.Hourly.Time, resp.Hourly.Temperature2m, resp.Hourly.WeatherCode, _ = hourlySeries(start, 48, nil)

	labels := func(now time.Time) []string {
		slots := w.buildForecastSlots(now, resp)
		out := make([]string, len(slots))
		for i, s := range slots {
			out[i] = s.Label
		}
		return out
	}

	// 清晨：+3h 在上班前，吸附到上班时间
	assert.Equal(t, []string{"07:00", "08:00", "10:00"},
		labels(time.Date(2024, 6, 1, 6, 30, 0, 0, time.UTC)))
	// 工作时段：+3h 吸附到下班时间
	assert.Equal(t, []string{"09:00", "10:00", "18:00"},
		labels(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)))
	// 晚间：+3h 已过下班时间，保持原样
	assert.Equal(t, []string{"21:00", "22:00", "23:00"},
		labels(time.Date(2024, 6, 1, 20, 30, 0, 0, time.UTC)))
}

func TestPhraseAlertTiers(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	at := func(h int) time.Time { return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC) }

	// 三小时内
	a := []UpcomingAlert{{HoursFromNow: 2, Type: "Rain", At: at(10)}}
	assert.Equal(t, "Rain in 2h", phraseAlert(a, now, "EN"))
	a[0].Type = "雨"
	assert.Equal(t, "2H后有雨", phraseAlert(a, now, "CN"))

	// 今天晚些时候
	a = []UpcomingAlert{{HoursFromNow: 7, Type: "T-Storm", At: at(15)}}
	assert.Equal(t, "T-Storm at 15:00", phraseAlert(a, now, "EN"))
	a[0].Type = "雷雨"
	assert.Equal(t, "今天15点有雷雨", phraseAlert(a, now, "CN"))

	// 明天
	tom := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	a = []UpcomingAlert{{HoursFromNow: 25, Type: "Rain", At: tom}}
	assert.Equal(t, "Rain tom. at 9:00", phraseAlert(a, now, "EN"))
	a[0].Type = "雨"
	assert.Equal(t, "明天9点有雨", phraseAlert(a, now, "CN"))

	// 无事件
	assert.Equal(t, "", phraseAlert(nil, now, "EN"))
}
