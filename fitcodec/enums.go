package fitcodec

import (
	"strconv"
	"strings"
)

// enumTables maps a table name to its code -> lowercase name entries.
var enumTables = map[string]map[uint16]string{
	"file": {
		1: "device", 2: "settings", 3: "sport", 4: "activity", 5: "workout",
		6: "course", 7: "schedules", 9: "weight", 10: "totals", 11: "goals",
		14: "blood_pressure", 15: "monitoring_a", 20: "activity_summary",
		28: "monitoring_daily", 32: "monitoring_b", 34: "segment",
		35: "segment_list", 40: "exd_configuration",
	},
	"manufacturer": {
		1: "garmin", 2: "garmin_fr405_antfs", 3: "zephyr", 4: "dayton",
		5: "idt", 6: "srm", 7: "quarq", 8: "ibike", 9: "saris",
		10: "spark_hk", 11: "tanita", 12: "echowell", 13: "dynastream_oem",
		14: "nautilus", 15: "dynastream", 16: "timex", 17: "metrigear",
		18: "xelic", 19: "beurer", 20: "cardiosport", 21: "a_and_d",
		22: "hmm", 23: "suunto", 32: "wahoo_fitness", 38: "osynce",
		40: "concept2", 41: "shimano", 63: "specialized", 69: "stages_cycling",
		255: "development", 260: "zwift", 263: "favero_electronics",
		265: "strava", 289: "hammerhead", 294: "coros", 310: "polar_electro",
	},
	"activity": {
		0: "manual", 1: "auto_multi_sport",
	},
	"event": {
		0: "timer", 3: "workout", 4: "workout_step", 5: "power_down",
		6: "power_up", 7: "off_course", 8: "session", 9: "lap",
		10: "course_point", 11: "battery", 12: "virtual_partner_pace",
		13: "hr_high_alert", 14: "hr_low_alert", 15: "speed_high_alert",
		16: "speed_low_alert", 17: "cad_high_alert", 18: "cad_low_alert",
		19: "power_high_alert", 20: "power_low_alert", 21: "recovery_hr",
		22: "battery_low", 23: "time_duration_alert", 24: "distance_duration_alert",
		25: "calorie_duration_alert", 26: "activity", 27: "fitness_equipment",
		28: "length", 32: "user_marker", 33: "sport_point", 36: "calibration",
		42: "front_gear_change", 43: "rear_gear_change", 44: "rider_position_change",
		45: "elev_high_alert", 46: "elev_low_alert", 47: "comm_timeout",
	},
	"event_type": {
		0: "start", 1: "stop", 2: "consecutive_depreciated", 3: "marker",
		4: "stop_all", 5: "begin_depreciated", 6: "end_depreciated",
		7: "end_all_depreciated", 8: "stop_disable", 9: "stop_disable_all",
	},
	"sport": {
		0: "generic", 1: "running", 2: "cycling", 3: "transition",
		4: "fitness_equipment", 5: "swimming", 6: "basketball", 7: "soccer",
		8: "tennis", 9: "american_football", 10: "training", 11: "walking",
		12: "cross_country_skiing", 13: "alpine_skiing", 14: "snowboarding",
		15: "rowing", 16: "mountaineering", 17: "hiking", 18: "multisport",
		19: "paddling", 254: "all",
	},
	"sub_sport": {
		0: "generic", 1: "treadmill", 2: "street", 3: "trail", 4: "track",
		5: "spin", 6: "indoor_cycling", 7: "road", 8: "mountain",
		9: "downhill", 10: "recumbent", 11: "cyclocross", 12: "hand_cycling",
		13: "track_cycling", 14: "indoor_rowing", 15: "elliptical",
		16: "stair_climbing", 17: "lap_swimming", 18: "open_water",
		19: "flexibility_training", 20: "strength_training", 254: "all",
	},
	"swim_stroke": {
		0: "freestyle", 1: "backstroke", 2: "breaststroke", 3: "butterfly",
		4: "drill", 5: "mixed", 6: "im",
	},
	"length_type": {
		0: "idle", 1: "active",
	},
	"lap_trigger": {
		0: "manual", 1: "time", 2: "distance", 3: "position_start",
		4: "position_lap", 5: "position_waypoint", 6: "position_marked",
		7: "session_end", 8: "fitness_equipment",
	},
	"session_trigger": {
		0: "activity_end", 1: "manual", 2: "auto_multi_sport", 3: "fitness_equipment",
	},
	"display_measure": {
		0: "metric", 1: "statute", 2: "nautical",
	},
}

// enumCodes is the reverse of enumTables, keyed by uppercase name.
var enumCodes = func() map[string]map[string]uint16 {
	out := make(map[string]map[string]uint16, len(enumTables))
	for table, entries := range enumTables {
		codes := make(map[string]uint16, len(entries))
		for code, name := range entries {
			codes[strings.ToUpper(name)] = code
		}
		out[table] = codes
	}
	return out
}()

// ResolveEnum maps a symbolic name from table to its code. Names match
// case-insensitively; a decimal string is accepted as a literal code so
// values decoded from newer profiles survive a round trip.
func ResolveEnum(table, name string) (uint16, error) {
	codes, ok := enumCodes[table]
	if !ok {
		return 0, &EnumError{Field: table, Value: name}
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if code, ok := codes[key]; ok {
		return code, nil
	}
	if n, err := strconv.ParseUint(key, 10, 16); err == nil {
		return uint16(n), nil
	}
	return 0, &EnumError{Field: table, Value: name}
}

// EnumName returns the lowercase name of code in table, or the decimal code
// when the table has no entry for it.
func EnumName(table string, code uint16) string {
	if name, ok := enumTables[table][code]; ok {
		return name
	}
	return strconv.FormatUint(uint64(code), 10)
}
