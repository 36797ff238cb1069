package query

import (
	"math"
	"time"
)

// Minutes per relative date unit.
var unitMinutes = map[byte]int64{
	'm': 1,
	'h': 60,
	'd': 1440,
	'w': 10080,
	'y': 525600,
}

// Range parses "[bound] .. [bound]". The lower bound is optional; once it
// is present the upper bound becomes optional too. A bare ".." fails
// recoverably.
func Range(kind RangeKind, bound Parser[Bound]) Parser[RangeFilter] {
	bound = withText(bound)
	return func(in Input) Result[RangeFilter] {
		lo := Optional(bound)(in)
		if !lo.OK() {
			return propagate[RangeFilter](in, lo)
		}
		cur := lo.Rest
		if lo.Value.Ok {
			cur = cur.withState(cur.state.With(FlagBounded))
		}

		sep := Literal("..")(cur)
		if !sep.OK() {
			return propagate[RangeFilter](in, sep)
		}
		cur = sep.Rest

		hi := Optional(bound)(cur)
		if !hi.OK() {
			return propagate[RangeFilter](in, hi)
		}
		if !hi.Value.Ok && !cur.state.Has(FlagBounded) {
			return recoverable[RangeFilter](in, "range bound")
		}

		rf := RangeFilter{Kind: kind}
		if lo.Value.Ok {
			b := lo.Value.Value
			rf.Min = &b
		}
		if hi.Value.Ok {
			b := hi.Value.Value
			rf.Max = &b
		}
		return success(rf, hi.Rest.withState(in.state))
	}
}

// NumberBound parses a bare integer.
func NumberBound(in Input) Result[Bound] {
	return Map[int64, Bound](Int, func(n int64) Bound { return Bound{Value: n} })(in)
}

// DurationBound parses two or three colon-separated integers, most
// significant first, into seconds. A single integer is rejected so that
// plain numbers are not mistaken for durations.
func DurationBound(in Input) Result[Bound] {
	first := Int(in)
	if !first.OK() {
		return propagate[Bound](in, first)
	}
	parts := []int64{first.Value}
	cur := first.Rest
	part := Optional(Soft(Right[string, int64](Literal(":"), Int)))
	for len(parts) < 3 {
		r := part(cur)
		if !r.OK() {
			return propagate[Bound](in, r)
		}
		if !r.Value.Ok {
			break
		}
		parts = append(parts, r.Value.Value)
		cur = r.Rest
	}
	if len(parts) < 2 {
		return recoverable[Bound](in, "duration (m:ss or h:mm:ss)")
	}

	var secs int64
	for _, p := range parts {
		if secs > (math.MaxInt64-p)/60 {
			return Result[Bound]{Rest: in, Status: Fatal, Failure: Failure{Pos: in.pos, Expected: "duration in range"}}
		}
		secs = secs*60 + p
	}
	return success(Bound{Value: secs}, cur)
}

// DateBound parses a relative offset "[-]N{m|h|d|w|y}" or an absolute
// date "YYYY[-MM[-DD]]" interpreted in loc.
func DateBound(loc *time.Location) Parser[Bound] {
	return Alt(Soft[Bound](relativeDate), absoluteDate(loc))
}

func relativeDate(in Input) Result[Bound] {
	sign := Optional(Literal("-"))(in)
	if !sign.OK() {
		return propagate[Bound](in, sign)
	}
	amount := Int(sign.Rest)
	if !amount.OK() {
		return propagate[Bound](in, amount)
	}
	unit := OneOf("mhdwy")(amount.Rest)
	if !unit.OK() {
		return propagate[Bound](in, unit)
	}

	mult := unitMinutes[unit.Value] * 60
	if amount.Value > math.MaxInt64/mult {
		return Result[Bound]{Rest: in, Status: Fatal, Failure: Failure{Pos: in.pos, Expected: "offset in range"}}
	}
	secs := amount.Value * mult
	if sign.Value.Ok {
		secs = -secs
	}
	return success(Bound{Value: secs, Relative: true}, unit.Rest)
}

// Years are unbounded above except by what time.Date can represent.
var (
	yearPart  = Filter[int64](Int, between(1, math.MaxInt32), "year")
	monthPart = Right[string, int64](Literal("-"), Filter[int64](Int, between(1, 12), "month"))
	dayPart   = Right[string, int64](Literal("-"), Filter[int64](Int, between(1, 31), "day"))
)

func absoluteDate(loc *time.Location) Parser[Bound] {
	return func(in Input) Result[Bound] {
		year := yearPart(in)
		if !year.OK() {
			return propagate[Bound](in, year)
		}
		month, day := int64(1), int64(1)
		cur := year.Rest

		m := Optional(Soft(monthPart))(cur)
		if m.OK() && m.Value.Ok {
			month = m.Value.Value
			cur = m.Rest

			d := Optional(Soft(dayPart))(cur)
			if d.OK() && d.Value.Ok {
				day = d.Value.Value
				cur = d.Rest
			}
		}

		// Days past the end of the month roll over: 2021-02-31 is March 3.
		t := time.Date(int(year.Value), time.Month(month), int(day), 0, 0, 0, 0, loc)
		return success(Bound{Value: t.Unix()}, cur)
	}
}

// withText records the consumed literal on the parsed bound.
func withText(p Parser[Bound]) Parser[Bound] {
	return func(in Input) Result[Bound] {
		r := p(in)
		if r.OK() {
			r.Value.Text = in.src[in.pos:r.Rest.pos]
		}
		return r
	}
}

func between(lo, hi int64) func(int64) bool {
	return func(n int64) bool { return n >= lo && n <= hi }
}

// ReadBound parses text as one bound of the given kind. The whole text
// must be consumed.
func ReadBound(kind RangeKind, text string, loc *time.Location) (Bound, bool) {
	var p Parser[Bound]
	switch kind {
	case RangeNumber:
		p = NumberBound
	case RangeDuration:
		p = DurationBound
	case RangeDate:
		p = DateBound(loc)
	default:
		return Bound{}, false
	}
	r := Left[Bound, struct{}](withText(p), EndOfInput)(NewInput(text))
	if !r.OK() {
		return Bound{}, false
	}
	return r.Value, true
}
