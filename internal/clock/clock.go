// Package clock 提供固定时区的注入式时钟，业务时间一律取项目所在地时区。
package clock

import "time"

// Clock 当前时间来源
type Clock interface {
	Now() time.Time
}

type zoneClock struct {
	loc *time.Location
}

func (c zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// In 返回指定时区的时钟
func In(loc *time.Location) Clock {
	return zoneClock{loc: loc}
}

// Default 项目所在地时区（UTC+7），时区库缺失时退化为固定偏移
func Default() Clock {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*3600)
	}
	return zoneClock{loc: loc}
}

// Fixed 固定返回同一时刻，测试用
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time {
	return c.t
}
