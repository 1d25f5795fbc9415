package engine

// ExpandIntervals converts interval-shaped absence records into per-day
// presence facts clipped to the window.
//
// Records missing an identifier or either bound are dropped, as are records
// whose range does not overlap the window (including reversed ranges, where
// end < start). Surviving ranges are clipped to the window and materialized
// one fact per day, both ends inclusive. The per-day materialization is
// deliberate: windows are a month or less and head counts a few thousand,
// and day-level facts keep every downstream join trivial.
func ExpandIntervals(records []IntervalRecord, w Window) FactSet {
	facts := make(FactSet)
	for _, r := range records {
		if r.ID == "" || r.Start == nil || r.End == nil {
			continue
		}
		if r.End.Before(w.Start) || r.Start.After(w.End) || r.End.Before(*r.Start) {
			continue
		}
		start, end := *r.Start, *r.End
		if start.Before(w.Start) {
			start = w.Start
		}
		if end.After(w.End) {
			end = w.End
		}
		for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
			facts.Add(r.ID, d)
		}
	}
	return facts
}
