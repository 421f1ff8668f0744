package chapters

// Exports for testing.

type TimedTitle = timedTitle

var (
	ExtractJSONArray = extractJSONArray
	ParseTimedTitles = parseTimedTitles
	FromTimedTitles  = fromTimedTitles
	CleanTitle       = cleanTitle
)
