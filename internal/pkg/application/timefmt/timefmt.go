// Package timefmt renders timestamps the way the dashboard shows them, in one
// of the supported locales.
package timefmt

import (
	"time"

	"golang.org/x/text/language"
)

var (
	EnglishUS          = language.AmericanEnglish
	TraditionalChinese = language.MustParse("zh-TW")

	supported = []language.Tag{EnglishUS, TraditionalChinese}
	matcher   = language.NewMatcher(supported)
)

// Match picks the best supported locale for an Accept-Language header or a
// single tag. Anything unparseable falls back to en-US.
func Match(preferred string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(preferred)
	if err != nil || len(tags) == 0 {
		return EnglishUS
	}

	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return EnglishUS
	}

	return supported[idx]
}

type Formatter struct {
	tag      language.Tag
	location *time.Location
}

func New(tag language.Tag, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.Local
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		idx = 0
	}
	return Formatter{tag: supported[idx], location: loc}
}

func (f Formatter) Tag() language.Tag {
	return f.tag
}

func (f Formatter) Location() *time.Location {
	return f.location
}

func (f Formatter) zh() bool {
	return f.tag == TraditionalChinese
}

// Short renders hour and minute, e.g. "03:04 PM" or "下午03:04".
func (f Formatter) Short(t time.Time) string {
	t = t.In(f.location)
	if f.zh() {
		return meridiem(t) + t.Format("03:04")
	}
	return t.Format("03:04 PM")
}

// Long renders the full date and time including seconds.
func (f Formatter) Long(t time.Time) string {
	t = t.In(f.location)
	if f.zh() {
		return t.Format("2006/01/02 ") + meridiem(t) + t.Format("03:04:05")
	}
	return t.Format("01/02/2006, 03:04:05 PM")
}

// Clock renders the header clock.
func (f Formatter) Clock(t time.Time) string {
	t = t.In(f.location)
	if f.zh() {
		return meridiem(t) + t.Format("03:04:05")
	}
	return t.Format("03:04:05 PM")
}

// IsCurrentHour reports whether t falls within the same calendar hour as now.
func (f Formatter) IsCurrentHour(t, now time.Time) bool {
	t, now = t.In(f.location), now.In(f.location)
	return t.Year() == now.Year() &&
		t.YearDay() == now.YearDay() &&
		t.Hour() == now.Hour()
}

func meridiem(t time.Time) string {
	if t.Hour() < 12 {
		return "上午"
	}
	return "下午"
}
