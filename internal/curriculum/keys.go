package curriculum

import (
	"fmt"
	"strconv"
	"strings"
)

// ActivityKey addresses one activity by 0-based position. Its text form is
// "week.module.lesson.activity", which makes it usable as a JSON map key and
// as a URL path segment.
type ActivityKey struct {
	Week     int
	Module   int
	Lesson   int
	Activity int
}

type LessonKey struct {
	Week   int
	Module int
	Lesson int
}

type ModuleKey struct {
	Week   int
	Module int
}

type WeekKey struct {
	Week int
}

func (k ActivityKey) LessonKey() LessonKey {
	return LessonKey{Week: k.Week, Module: k.Module, Lesson: k.Lesson}
}

func (k LessonKey) ModuleKey() ModuleKey { return ModuleKey{Week: k.Week, Module: k.Module} }

func (k ModuleKey) WeekKey() WeekKey { return WeekKey{Week: k.Week} }

func (k ActivityKey) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", k.Week, k.Module, k.Lesson, k.Activity)
}

func (k LessonKey) String() string { return fmt.Sprintf("%d.%d.%d", k.Week, k.Module, k.Lesson) }

func (k ModuleKey) String() string { return fmt.Sprintf("%d.%d", k.Week, k.Module) }

func (k WeekKey) String() string { return strconv.Itoa(k.Week) }

func (k ActivityKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k LessonKey) MarshalText() ([]byte, error)   { return []byte(k.String()), nil }
func (k ModuleKey) MarshalText() ([]byte, error)   { return []byte(k.String()), nil }
func (k WeekKey) MarshalText() ([]byte, error)     { return []byte(k.String()), nil }

func (k *ActivityKey) UnmarshalText(b []byte) error {
	v, err := parseKey(string(b), 4)
	if err != nil {
		return err
	}
	*k = ActivityKey{Week: v[0], Module: v[1], Lesson: v[2], Activity: v[3]}
	return nil
}

func (k *LessonKey) UnmarshalText(b []byte) error {
	v, err := parseKey(string(b), 3)
	if err != nil {
		return err
	}
	*k = LessonKey{Week: v[0], Module: v[1], Lesson: v[2]}
	return nil
}

func (k *ModuleKey) UnmarshalText(b []byte) error {
	v, err := parseKey(string(b), 2)
	if err != nil {
		return err
	}
	*k = ModuleKey{Week: v[0], Module: v[1]}
	return nil
}

func (k *WeekKey) UnmarshalText(b []byte) error {
	v, err := parseKey(string(b), 1)
	if err != nil {
		return err
	}
	*k = WeekKey{Week: v[0]}
	return nil
}

// ParseActivityKey parses the "w.m.l.a" text form.
func ParseActivityKey(s string) (ActivityKey, error) {
	var k ActivityKey
	err := k.UnmarshalText([]byte(s))
	return k, err
}

func parseKey(s string, parts int) ([]int, error) {
	fields := strings.Split(s, ".")
	if len(fields) != parts {
		return nil, fmt.Errorf("key %q: want %d dot-separated indexes, got %d", s, parts, len(fields))
	}
	out := make([]int, parts)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("key %q: index %q is not a non-negative integer", s, f)
		}
		out[i] = n
	}
	return out, nil
}
