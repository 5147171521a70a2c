package markethours

import "time"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, IST) }

// NSE trading holidays for 2026 (NSE circular; tentative dates included).
var nseHolidays = []time.Time{
	day(2026, time.January, 26),  // Republic Day
	day(2026, time.February, 17), // Mahashivratri
	day(2026, time.March, 14),    // Holi
	day(2026, time.March, 31),    // Id-ul-Fitr
	day(2026, time.April, 2),     // Ram Navami
	day(2026, time.April, 6),     // Mahavir Jayanti
	day(2026, time.April, 10),    // Good Friday
	day(2026, time.April, 14),    // Dr. Ambedkar Jayanti
	day(2026, time.May, 1),       // Maharashtra Day
	day(2026, time.June, 7),      // Bakrid
	day(2026, time.July, 6),      // Muharram
	day(2026, time.August, 15),   // Independence Day
	day(2026, time.August, 16),   // Janmashtami
	day(2026, time.September, 5), // Milad-un-Nabi
	day(2026, time.October, 2),   // Mahatma Gandhi Jayanti
	day(2026, time.October, 20),  // Dussehra
	day(2026, time.October, 21),  // Dussehra
	day(2026, time.November, 5),  // Diwali
	day(2026, time.November, 6),  // Diwali Balipratipada
	day(2026, time.November, 7),  // Bhai Dooj
	day(2026, time.November, 19), // Guru Nanak Jayanti
	day(2026, time.December, 25), // Christmas
}
