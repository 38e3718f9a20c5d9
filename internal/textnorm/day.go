package textnorm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDay is returned when a label does not name one of the seven weekdays.
var ErrUnknownDay = errors.New("unknown weekday")

// Day is a canonical weekday. The zero value is Monday; the numeric value is
// the offset from the start of an ISO week.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Week lists the canonical days in order.
var Week = [7]Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Turkish display names, shown next to the English ones in plan previews.
var dayNamesTR = [7]string{"Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi", "Pazar"}

var dayLabels = map[string]Day{
	"pazartesi": Monday, "pzt": Monday, "monday": Monday, "mon": Monday,
	"sali": Tuesday, "sal": Tuesday, "tuesday": Tuesday, "tue": Tuesday, "tues": Tuesday,
	"carsamba": Wednesday, "car": Wednesday, "crs": Wednesday, "wednesday": Wednesday, "wed": Wednesday,
	"persembe": Thursday, "per": Thursday, "prs": Thursday, "thursday": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday,
	"cuma": Friday, "cum": Friday, "friday": Friday, "fri": Friday,
	"cumartesi": Saturday, "cmt": Saturday, "saturday": Saturday, "sat": Saturday,
	"pazar": Sunday, "paz": Sunday, "sunday": Sunday, "sun": Sunday,
}

func (d Day) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Key is the lowercase identifier used in stored and exchanged documents.
func (d Day) Key() string {
	return strings.ToLower(d.String())
}

// Turkish returns the Turkish weekday name.
func (d Day) Turkish() string {
	if d < Monday || d > Sunday {
		return d.String()
	}
	return dayNamesTR[d]
}

// ParseDay maps a weekday label in Turkish or English, any case, with or
// without diacritics, to its canonical Day. There is no fallback: anything
// else is ErrUnknownDay.
func ParseDay(label string) (Day, error) {
	key := strings.Trim(Fold(label), " .,:;-")
	if d, ok := dayLabels[key]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDay, label)
}
