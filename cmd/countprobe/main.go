// Command countprobe runs one filter-and-count query from the command line
// and prints the per-variable non-missing counts, without the web UI or the
// password gate in the way. Handy for checking a dataset export before
// publishing it to analysts.
//
// Example:
//
//	countprobe -config=configs/arrowdash.json -set sex_dashboard=Female,Male \
//	    -age=18:30 -tss=3:24 -long-term -longitudinal
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"arrowdash/internal/config"
	"arrowdash/internal/datasource"
	"arrowdash/internal/filter"
	"arrowdash/internal/report"
)

// setFlags collects repeated -set column=v1,v2 arguments.
type setFlags map[string][]string

func (s setFlags) String() string { return fmt.Sprint(map[string][]string(s)) }

func (s setFlags) Set(arg string) error {
	col, vals, ok := strings.Cut(arg, "=")
	if !ok || col == "" {
		return fmt.Errorf("want column=v1,v2, got %q", arg)
	}
	s[col] = append(s[col], strings.Split(vals, ",")...)
	return nil
}

func main() {
	sets := setFlags{}
	var (
		cfgPath      string
		ageRange     string
		tssRange     string
		longTerm     bool
		longitudinal bool
	)
	flag.StringVar(&cfgPath, "config", "configs/arrowdash.json", "app config JSON path")
	flag.Var(sets, "set", "categorical predicate column=v1,v2 (repeatable; display choices are mapped)")
	flag.StringVar(&ageRange, "age", "", "inclusive age range lo:hi")
	flag.StringVar(&tssRange, "tss", "", "inclusive time-since-surgery range lo:hi (months)")
	flag.BoolVar(&longTerm, "long-term", false, "only subjects with a long-term outcome")
	flag.BoolVar(&longitudinal, "longitudinal", false, "also print counts per time bucket")
	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	var app config.App
	err = json.NewDecoder(f).Decode(&app)
	f.Close()
	if err != nil {
		fatalf("decode config: %v", err)
	}
	app.ApplyDefaults()

	preds := filter.PredicateSet{}
	for col, vals := range sets {
		preds[col] = filter.Set{Values: mapChoices(app.Filters, col, vals)}
	}
	if ageRange != "" {
		rng, err := parseRange(ageRange)
		if err != nil {
			fatalf("-age: %v", err)
		}
		preds[app.Columns.Age] = rng
	}
	if tssRange != "" {
		rng, err := parseRange(tssRange)
		if err != nil {
			fatalf("-tss: %v", err)
		}
		preds[app.Columns.TimeSince] = rng
	}

	ctx := context.Background()
	src, closeSrc, err := datasource.FromConfig(ctx, app.Dataset)
	if err != nil {
		fatalf("datasource: %v", err)
	}
	defer closeSrc()

	eng := report.NewEngine(src, app)
	res, err := eng.Run(ctx, report.Query{
		Predicates:   preds,
		OnlyLongTerm: longTerm,
		Longitudinal: longitudinal,
	})
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("%d rows match\n", res.FilteredRows)
	for _, v := range eng.Variables() {
		fmt.Printf("%s: %d\n", v, res.Counts[v])
	}
	if longitudinal {
		fmt.Println()
		for _, b := range eng.Buckets() {
			fmt.Printf("[%s]\n", b.Label)
			for _, v := range eng.Variables() {
				fmt.Printf("  %s: %d\n", v, res.Buckets[b.Label][v])
			}
		}
	}
}

// mapChoices translates display choices (e.g. "Yes") to stored values via
// the configured filter, falling back to the raw string for columns without
// a declared filter.
func mapChoices(filters []config.Filter, col string, vals []string) []any {
	var decl *config.Filter
	for i := range filters {
		if filters[i].Column == col {
			decl = &filters[i]
			break
		}
	}
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		if decl != nil {
			out = append(out, decl.Value(v))
		} else {
			out = append(out, v)
		}
	}
	return out
}

func parseRange(s string) (filter.Range, error) {
	loStr, hiStr, ok := strings.Cut(s, ":")
	if !ok {
		return filter.Range{}, fmt.Errorf("want lo:hi, got %q", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(loStr), 64)
	if err != nil {
		return filter.Range{}, fmt.Errorf("bad lower bound %q", loStr)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(hiStr), 64)
	if err != nil {
		return filter.Range{}, fmt.Errorf("bad upper bound %q", hiStr)
	}
	return filter.Range{Lo: lo, Hi: hi}, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
