package smartcover

import (
	"net/url"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format SmartCover expects for start_time
// and end_time parameters (yyyy-MM-dd HH:mm).
const TimeLayout = "2006-01-02 15:04"

// DefaultLiveWindowMinutes is the live data window when none is requested.
const DefaultLiveWindowMinutes = 15

// MaxLiveWindowMinutes caps the live data window at one day.
const MaxLiveWindowMinutes = 1440

// MaxDataWindow is the largest historical range SmartCover serves per request.
const MaxDataWindow = 31 * 24 * time.Hour

// DataQuery describes one historical data request.
// Extra carries already-validated optional parameters (distance_style,
// timezone, date_format, epoch_time, long_filter, resample_interval,
// resample_gaps) plus anything unrecognised, forwarded unchanged.
type DataQuery struct {
	Location  int
	DataType  int
	StartTime string // TimeLayout
	EndTime   string // TimeLayout
	Extra     url.Values
}

// Values renders the query as upstream request parameters.
func (q DataQuery) Values() url.Values {
	params := cloneValues(q.Extra)
	params.Set("location", strconv.Itoa(q.Location))
	params.Set("data_type", strconv.Itoa(q.DataType))
	params.Set("start_time", q.StartTime)
	params.Set("end_time", q.EndTime)
	return params
}

// LiveQuery describes one live data request. The time window is computed
// server-side: [now - WindowMinutes, now] in UTC.
type LiveQuery struct {
	Location      int
	DataType      int
	WindowMinutes int
	Extra         url.Values
}

// Values renders the query as upstream request parameters, anchoring the
// window at the given end time.
func (q LiveQuery) Values(end time.Time) url.Values {
	window := q.WindowMinutes
	if window <= 0 {
		window = DefaultLiveWindowMinutes
	}
	start := end.Add(-time.Duration(window) * time.Minute)

	params := cloneValues(q.Extra)
	params.Set("location", strconv.Itoa(q.Location))
	params.Set("data_type", strconv.Itoa(q.DataType))
	params.Set("start_time", start.Format(TimeLayout))
	params.Set("end_time", end.Format(TimeLayout))
	return params
}

// cloneValues copies url.Values so query structs never mutate caller state.
func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+4)
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}
