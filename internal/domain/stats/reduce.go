package stats

// ReduceAllMaps folds every per-map row of a payload into one view.
// Counting metrics are summed. ADR and Rating2 are weighted averages with
// weight = played rounds; a map with unknown rounds contributes with unit
// weight rather than dropping out, so a single such map can never zero the
// denominator. Payloads without map rows fall back to the pre-aggregated
// legacy view, and a fully empty payload reduces to zero counts and nil
// averages (no data, not zero data).
func ReduceAllMaps(payload StatPayload) AggregatedView {
	if len(payload.Maps) == 0 {
		if payload.Flat != nil {
			return *payload.Flat
		}
		return AggregatedView{}
	}

	var view AggregatedView
	var adrWeighted, adrWeight float64
	var ratingWeighted, ratingWeight float64
	breakdowns := make([]Breakdown, 0, len(payload.Maps))

	for _, entry := range payload.Maps {
		st := entry.Stats
		view.Kills += st.Kills
		view.Deaths += st.Deaths
		view.Assists += st.Assists
		view.HS += st.HS
		view.OpeningKills += st.OpeningKills
		view.OpeningDeaths += st.OpeningDeaths
		view.FlashAssists += st.FlashAssists
		view.CL1v2 += st.CL1v2
		view.CL1v3 += st.CL1v3
		view.CL1v4 += st.CL1v4
		view.CL1v5 += st.CL1v5
		view.MK3K += st.MK3K
		view.MK4K += st.MK4K
		view.MK5K += st.MK5K
		view.UtilityDmg += st.UtilityDmg
		view.TotalPoints += entry.Points
		view.MapsCounted++

		weight := 1.0
		if entry.PlayedRounds != nil && *entry.PlayedRounds > 0 {
			weight = float64(*entry.PlayedRounds)
			view.PlayedRounds += *entry.PlayedRounds
		}
		if st.ADR != nil {
			adrWeighted += *st.ADR * weight
			adrWeight += weight
		}
		if st.Rating2 != nil {
			ratingWeighted += *st.Rating2 * weight
			ratingWeight += weight
		}

		if len(entry.Breakdown) > 0 {
			breakdowns = append(breakdowns, entry.Breakdown)
		}
	}

	if adrWeight > 0 {
		avg := adrWeighted / adrWeight
		view.ADRAvg = &avg
	}
	if ratingWeight > 0 {
		avg := ratingWeighted / ratingWeight
		view.Rating2Avg = &avg
	}
	if len(breakdowns) > 0 {
		view.Breakdown = MergeBreakdowns(breakdowns...)
	}

	return view
}

// SingleMapView projects one map row into the aggregate shape without any
// reduction, for callers narrowing to a specific map.
func SingleMapView(entry MapEntry) AggregatedView {
	st := entry.Stats
	view := AggregatedView{
		Kills:         st.Kills,
		Deaths:        st.Deaths,
		Assists:       st.Assists,
		HS:            st.HS,
		OpeningKills:  st.OpeningKills,
		OpeningDeaths: st.OpeningDeaths,
		FlashAssists:  st.FlashAssists,
		CL1v2:         st.CL1v2,
		CL1v3:         st.CL1v3,
		CL1v4:         st.CL1v4,
		CL1v5:         st.CL1v5,
		MK3K:          st.MK3K,
		MK4K:          st.MK4K,
		MK5K:          st.MK5K,
		UtilityDmg:    st.UtilityDmg,
		ADRAvg:        st.ADR,
		Rating2Avg:    st.Rating2,
		TotalPoints:   entry.Points,
		MapsCounted:   1,
		Breakdown:     entry.Breakdown,
	}
	if entry.PlayedRounds != nil && *entry.PlayedRounds > 0 {
		view.PlayedRounds = *entry.PlayedRounds
	}
	return view
}

// Summarize builds the compact player summary from a payload. KD stays nil
// with zero deaths, and the fantasy aggregates stay nil until at least one
// map has been scored.
func Summarize(payload StatPayload) PlayerSummary {
	view := ReduceAllMaps(payload)

	summary := PlayerSummary{
		Maps:   view.MapsCounted,
		Kills:  view.Kills,
		Deaths: view.Deaths,
	}
	if view.Deaths > 0 {
		kd := float64(view.Kills) / float64(view.Deaths)
		summary.KD = &kd
	}

	scored := 0
	for _, entry := range payload.Maps {
		if entry.Scored {
			scored++
		}
	}
	if scored > 0 {
		total := view.TotalPoints
		fppg := total / float64(scored)
		summary.FantasyPts = &total
		summary.FPPG = &fppg
	}

	return summary
}
