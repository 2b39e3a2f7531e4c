package config

// Canonical column names and outcome list of the ARROW dashboard export.
// A config file may override any of these; ApplyDefaults fills in whatever
// it leaves out.
var (
	defaultImpute = []string{"sex_dashboard", "graft_dashboard2", "prior_aclr"}

	defaultVariables = []string{
		"insurance_dashboard_use", "ikdc", "pedi_ikdc", "marx", "pedi_fabs",
		"koos_pain", "koos_sx", "koos_adl", "koos_sport", "koos_qol",
		"acl_rsi", "tsk", "rsi_score", "rsi_emo", "rsi_con",
		"sh_lsi", "th_lsi", "ch_lsi",
		"lsi_ext_mvic_90", "lsi_ext_mvic_60", "lsi_flex_mvic_60",
		"lsi_ext_isok_60", "lsi_flex_isok_60", "lsi_ext_isok_90",
		"lsi_flex_isok_90", "lsi_ext_isok_180", "lsi_flex_isok_180",
		"rts", "reinjury",
	}

	defaultFilters = []Filter{
		{
			Label:   "Participant Sex",
			Column:  "sex_dashboard",
			Choices: []string{"Female", "Male"},
		},
		{
			Label:   "Graft Type",
			Column:  "graft_dashboard2",
			Choices: []string{"Allograft", "BTB autograft", "HS autograft", "Other", "QT autograft"},
		},
		{
			Label:   "Prior ACL?",
			Column:  "prior_aclr",
			Choices: []string{"Yes", "No"},
			Values:  map[string]any{"Yes": 1, "No": 0},
		},
	}

	// The "+1" on each upper bound turns the inclusive month label into a
	// half-open [lo, hi) test, so continuous values floor into the right
	// bucket (7.5 -> "5-7 months").
	defaultBuckets = []Bucket{
		{Label: "3-4 months", Lo: 3, Hi: 5},
		{Label: "5-7 months", Lo: 5, Hi: 8},
		{Label: "8-12 months", Lo: 8, Hi: 13},
		{Label: "13-24 months", Lo: 13, Hi: 25},
	}
)

// ApplyDefaults fills unset fields with the canonical ARROW dashboard
// values. It mutates a in place and returns it for chaining.
func (a *App) ApplyDefaults() *App {
	if a.Columns.RecordID == "" {
		a.Columns.RecordID = "record_id"
	}
	if a.Columns.Age == "" {
		a.Columns.Age = "age"
	}
	if a.Columns.TimeSince == "" {
		a.Columns.TimeSince = "tss"
	}
	if a.Columns.LongTermMarker == "" {
		a.Columns.LongTermMarker = "long_term_outcomes_complete"
	}
	if len(a.Columns.Impute) == 0 {
		a.Columns.Impute = append([]string(nil), defaultImpute...)
	}
	if len(a.Variables) == 0 {
		a.Variables = append([]string(nil), defaultVariables...)
	}
	if len(a.Filters) == 0 {
		a.Filters = append([]Filter(nil), defaultFilters...)
	}
	if len(a.Buckets) == 0 {
		a.Buckets = append([]Bucket(nil), defaultBuckets...)
	}
	if a.Server.Addr == "" {
		a.Server.Addr = ":8080"
	}
	if a.Server.PasswordEnv == "" {
		a.Server.PasswordEnv = "PASSWORD"
	}
	return a
}
