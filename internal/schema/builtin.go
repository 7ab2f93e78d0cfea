package schema

const (
	Excel11     = "excel11"
	Attendance4 = "attendance4"
	Flight13    = "flight13"
)

// Builtin returns the three historical form layouts, oldest first.
func Builtin() []Schema {
	return []Schema{excel11(), attendance4(), flight13()}
}

func excel11() Schema {
	return Schema{
		Name:        Excel11,
		Description: "11-section Excel export: staff, executives, alpha-delta per flight, zulu",
		Sections: []string{
			"Staff",
			"Executives & Seniors",
			"Alpha 1", "Bravo 1", "Charlie 1", "Delta 1",
			"Alpha 2", "Bravo 2", "Charlie 2", "Delta 2",
			"Zulu",
		},
		Grammar:          GrammarSurnameOnly,
		StaffSection:     "Staff",
		ExecutiveSection: "Executives & Seniors",
		OverflowSection:  "Zulu",
		Groups: []Group{
			{Name: "Flight 1", Sections: []string{"Alpha 1", "Bravo 1", "Charlie 1", "Delta 1"}},
			{Name: "Flight 2", Sections: []string{"Alpha 2", "Bravo 2", "Charlie 2", "Delta 2"}},
			{Name: "Zulu", Sections: []string{"Zulu"}},
		},
		Layout: Layout{TimestampColumn: "C", FirstSectionColumn: "K"},
	}
}

func attendance4() Schema {
	return Schema{
		Name:        Attendance4,
		Description: "4-bucket attendance form: staff and executives together, two flights, unlisted",
		Sections: []string{
			"Staff & Executives",
			"Flight 1",
			"Flight 2",
			"Unlisted",
		},
		Grammar:         GrammarFirstnameSurname,
		MergedSection:   "Staff & Executives",
		OverflowSection: "Unlisted",
		CommaSection:    "Unlisted",
		Groups: []Group{
			{Name: "Flight 1", Sections: []string{"Flight 1"}},
			{Name: "Flight 2", Sections: []string{"Flight 2"}},
			{Name: "Unlisted", Sections: []string{"Unlisted"}},
		},
		Layout: Layout{TimestampColumn: "A", FirstSectionColumn: "B"},
	}
}

func flight13() Schema {
	return Schema{
		Name:        Flight13,
		Description: "13-section flight form: three flights split into alpha/bravo style sections",
		Sections: []string{
			"Staff",
			"Executives & Seniors",
			"Flight 1 Alpha", "Flight 1 Bravo", "Flight 1 Charlie", "Flight 1 Delta",
			"Flight 2 Alpha", "Flight 2 Bravo", "Flight 2 Charlie", "Flight 2 Delta",
			"Flight 3 Alpha", "Flight 3 Bravo",
			"Unlisted",
		},
		Grammar:          GrammarSurnameOnly,
		StaffSection:     "Staff",
		ExecutiveSection: "Executives & Seniors",
		OverflowSection:  "Unlisted",
		Groups: []Group{
			{Name: "Flight 1", Sections: []string{"Flight 1 Alpha", "Flight 1 Bravo", "Flight 1 Charlie", "Flight 1 Delta"}},
			{Name: "Flight 2", Sections: []string{"Flight 2 Alpha", "Flight 2 Bravo", "Flight 2 Charlie", "Flight 2 Delta"}},
			{Name: "Flight 3", Sections: []string{"Flight 3 Alpha", "Flight 3 Bravo"}},
			{Name: "Unlisted", Sections: []string{"Unlisted"}},
		},
		Layout: Layout{TimestampColumn: "A", FirstSectionColumn: "B"},
	}
}
