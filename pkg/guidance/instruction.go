package guidance

import (
	"fmt"
	"strings"

	"pathsync/pkg/datastructure"
	"pathsync/pkg/util"
)

const (
	U_TURN_UNKNOWN     = -999
	TURN_SHARP_LEFT    = -3
	TURN_LEFT          = -2
	TURN_SLIGHT_LEFT   = -1
	CONTINUE_ON_STREET = 0
	TURN_SLIGHT_RIGHT  = 1
	TURN_RIGHT         = 2
	TURN_SHARP_RIGHT   = 3
	FINISH             = 4
	START              = 101
)

// Leg is one traversed edge of a route.
type Leg struct {
	EdgeID string
	Name   string
	From   datastructure.Coordinate
	To     datastructure.Coordinate
	Length float64
	Time   float64
}

type DrivingInstruction struct {
	Instruction string                   `json:"instruction"`
	Sign        int                      `json:"sign"`
	Street      string                   `json:"street_name,omitempty"`
	Point       datastructure.Coordinate `json:"point"`
	Distance    float64                  `json:"distance"`
	ETA         float64                  `json:"eta"`
}

func isEmpty(str string) bool {
	return strings.TrimSpace(str) == ""
}

func isSameName(name1, name2 string) bool {
	if isEmpty(name1) || isEmpty(name2) {
		// unnamed SUMO edges are not treated as one street
		return false
	}
	return name1 == name2
}

func directionDescription(sign int) string {
	switch sign {
	case U_TURN_UNKNOWN:
		return "Make a U-turn"
	case TURN_SHARP_LEFT:
		return "Turn sharp left"
	case TURN_LEFT:
		return "Turn left"
	case TURN_SLIGHT_LEFT:
		return "Turn slight left"
	case TURN_SLIGHT_RIGHT:
		return "Turn slight right"
	case TURN_RIGHT:
		return "Turn right"
	case TURN_SHARP_RIGHT:
		return "Turn sharp right"
	default:
		return "Continue"
	}
}

func describe(sign int, street string, heading float64) string {
	switch sign {
	case START:
		if isEmpty(street) {
			return fmt.Sprintf("Head %s", azimuthToCompass(azimuth(heading)))
		}
		return fmt.Sprintf("Head %s on %s", azimuthToCompass(azimuth(heading)), street)
	case FINISH:
		return "You have arrived at your destination"
	default:
		dir := directionDescription(sign)
		if isEmpty(street) {
			return dir
		}
		return fmt.Sprintf("%s onto %s", dir, street)
	}
}

// GetDrivingInstructions turns the legs of a route into turn-by-turn instructions. Consecutive legs
// with no turn between them are merged when they belong to the same (or an unnamed) street.
func GetDrivingInstructions(legs []Leg) []DrivingInstruction {
	if len(legs) == 0 {
		return []DrivingInstruction{}
	}

	first := legs[0]
	heading := BearingTo(first.From.Lat, first.From.Lon, first.To.Lat, first.To.Lon)
	instructions := []DrivingInstruction{{
		Instruction: describe(START, first.Name, heading),
		Sign:        START,
		Street:      first.Name,
		Point:       first.From,
		Distance:    first.Length,
		ETA:         first.Time,
	}}
	prevOrientation := calcOrientation(first.From.Lat, first.From.Lon, first.To.Lat, first.To.Lon)
	prevName := first.Name

	for _, leg := range legs[1:] {
		orientation := calcOrientation(leg.From.Lat, leg.From.Lon, leg.To.Lat, leg.To.Lon)
		sign := turnSign(prevOrientation, orientation)
		prevOrientation = orientation

		cur := &instructions[len(instructions)-1]
		if sign == CONTINUE_ON_STREET && (isSameName(prevName, leg.Name) || isEmpty(leg.Name)) {
			cur.Distance += leg.Length
			cur.ETA += leg.Time
			continue
		}
		prevName = leg.Name
		instructions = append(instructions, DrivingInstruction{
			Instruction: describe(sign, leg.Name, 0),
			Sign:        sign,
			Street:      leg.Name,
			Point:       leg.From,
			Distance:    leg.Length,
			ETA:         leg.Time,
		})
	}

	last := legs[len(legs)-1]
	instructions = append(instructions, DrivingInstruction{
		Instruction: describe(FINISH, "", 0),
		Sign:        FINISH,
		Point:       last.To,
	})
	for i := range instructions {
		instructions[i].Distance = util.RoundFloat(instructions[i].Distance, 2)
		instructions[i].ETA = util.RoundFloat(instructions[i].ETA, 2)
	}
	return instructions
}
