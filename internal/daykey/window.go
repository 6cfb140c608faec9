package daykey

// Window is the canonical 7-day scoring period containing a given day.
type Window struct {
	Start Key
	End   Key
	Days  []Key
}

// WindowContaining computes the week window containing k for a household
// whose weeks begin on weekStartDay (0=Sunday .. 6=Saturday). Start is the
// most recent day on or before k whose weekday equals weekStartDay; End is
// six days later. Pure modular arithmetic on weekdays.
func WindowContaining(k Key, weekStartDay int) Window {
	offset := (k.Weekday() - weekStartDay + 7) % 7
	start := k.AddDays(-offset)
	end := start.AddDays(6)
	return Window{
		Start: start,
		End:   end,
		Days:  Range(start, end),
	}
}

// Contains reports whether k falls inside the window.
func (w Window) Contains(k Key) bool {
	return k >= w.Start && k <= w.End
}
