package collector

import (
	"fmt"
	"time"

	lunarcal "github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/sg"
	"github.com/rickar/cal/v2/us"
	"github.com/rs/zerolog"
)

// 向后查找下一个休息日的最大天数
const nextBreakScanDays = 30

// CalendarInfo 日历域结果：公历 / 农历 / 今日节假日 / 下一个休息日
type CalendarInfo struct {
	DateStr string `json:"date_str"`
	Weekday string `json:"weekday"`
	Lunar   string `json:"lunar"`
	Holiday string `json:"holiday"`

	NextNonWorking *NextBreak `json:"next_non_working"`
}

// NextBreak 下一个非工作日（周末或节假日）
type NextBreak struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	DaysAway int    `json:"days_away"`
}

// CalendarFetcher 纯本地计算 + 节假日表查询，足够便宜，不走缓存
type CalendarFetcher struct {
	Timezone string
	Language string

	holidays *cal.BusinessCalendar

	// now 可注入的时钟，测试用
	now func() time.Time

	Log zerolog.Logger
}

func NewCalendarFetcher(tz, lang, country string, log zerolog.Logger) *CalendarFetcher {
	return &CalendarFetcher{
		Timezone: tz,
		Language: lang,
		holidays: holidayCalendar(country),
		now:      time.Now,
		Log:      log.With().Str("fetcher", "calendar").Logger(),
	}
}

// holidayCalendar 按国家代码构建节假日表；未收录的代码退回新加坡
func holidayCalendar(country string) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	switch country {
	case "US":
		c.AddHoliday(us.Holidays...)
	case "GB":
		c.AddHoliday(gb.Holidays...)
	case "JP":
		c.AddHoliday(jp.Holidays...)
	default:
		c.AddHoliday(sg.Holidays...)
	}
	return c
}

func (f *CalendarFetcher) Name() string {
	return "calendar"
}

// FallbackCalendar 日历域的固定降级值
func FallbackCalendar() CalendarInfo {
	return CalendarInfo{
		DateStr: "--",
		Weekday: "--",
		Lunar:   "--",
	}
}

func (f *CalendarFetcher) Fetch() Result[CalendarInfo] {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		f.Log.Warn().Err(err).Str("timezone", f.Timezone).Msg("load timezone failed")
		return Failed[CalendarInfo]()
	}
	now := f.now().In(loc)

	info := CalendarInfo{
		DateStr: now.Format("2006-01-02"),
		Weekday: weekdayName(now.Weekday(), f.Language),
		Lunar:   f.lunarLabel(now),
	}

	if name, ok := f.holidayName(now); ok {
		info.Holiday = name
	}
	info.NextNonWorking = f.nextNonWorking(now)

	return Ok(info)
}

func (f *CalendarFetcher) lunarLabel(now time.Time) string {
	lunar := lunarcal.NewSolarFromDate(now).GetLunar()
	if f.Language == "EN" {
		return fmt.Sprintf("Lunar %d/%d", lunar.GetMonth(), lunar.GetDay())
	}
	return fmt.Sprintf("农历 %d月%d日", lunar.GetMonth(), lunar.GetDay())
}

func (f *CalendarFetcher) holidayName(d time.Time) (string, bool) {
	actual, observed, h := f.holidays.IsHoliday(d)
	if (actual || observed) && h != nil {
		return h.Name, true
	}
	return "", false
}

// nextNonWorking 从明天起逐日扫描（最多 30 天），返回第一个周末或节假日
func (f *CalendarFetcher) nextNonWorking(now time.Time) *NextBreak {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := 1; i <= nextBreakScanDays; i++ {
		d := today.AddDate(0, 0, i)
		isWeekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		holiday, isHoliday := f.holidayName(d)

		if !isWeekend && !isHoliday {
			continue
		}

		label := holiday
		if label == "" {
			// 普通周末：节假日名称缺省时按星期文案展示
			if f.Language == "EN" {
				label = d.Weekday().String()
			} else if d.Weekday() == time.Saturday {
				label = "周六"
			} else {
				label = "周日"
			}
		}

		return &NextBreak{
			Date:     d.Format("01-02"),
			Name:     label,
			DaysAway: i,
		}
	}
	return nil
}
