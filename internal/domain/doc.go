// Package domain models the reservoir savings data published by the Athens
// water utility (EYDAP) and turns it into a weekly chart series.
//
// # Data Source
//
// The open-data API exposes one dataset per year:
//
//	GET {base}/Year/{DD-MM-YYYY}
//
// The response is either a single JSON object or an array of objects, one per
// reporting day. The anchor date in the path selects the dataset; the service
// asks for today, today minus one year, and so on.
//
// # Record Conventions
//
// Date field:
//
//	Stored under "date" or "Date". Both "YYYY-MM-DD" and "DD-MM-YYYY" occur,
//	sometimes with "/" separators. YYYY-MM-DD is always tried first, so an
//	ambiguous string such as "2024-05-06" is read as 6 May 2024.
//
// Reading fields (cubic metres), one per reservoir:
//
//	Mornos      Mornos, mornos
//	Eyinos      Eyinos, eyinos, Evinos, evinos
//	Yliko       Yliko, yliko, Yliki, yliki
//	Marathonas  Marathonas, marathonas, Marathon, marathon
//
//	Values arrive as JSON numbers or strings. Missing, null, empty or
//	unparsable values read as 0, which the forward-fill stage treats as
//	"not reported".
//
// # Processing Stages
//
//	ParseRecord   raw record -> Observation (or dropped)
//	ForwardFill   zero readings -> last positive reading of that reservoir
//	SampleWeekly  keep Fridays plus the newest observation, one point per day
//
// BuildSeries chains them. The order matters: filling runs before sampling so
// that a Friday with a missing reading still shows the last known level.
package domain
