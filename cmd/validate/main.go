// Command validate performs integrity checks over a snapshot tree written
// by a previous ETL run: JSON well-formedness, required fields, and
// cross-dataset consistency between the geography config and the
// per-county documents.
//
// Usage:
//
//	go run ./cmd/validate -dir data/hna
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var failures int

func fail(format string, args ...any) {
	failures++
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
}

func main() {
	dir := flag.String("dir", filepath.Join("data", "hna"), "snapshot tree root")
	flag.Parse()

	counties := checkGeoConfig(filepath.Join(*dir, "geo-config.json"))
	checkCountyDocs(filepath.Join(*dir, "lehd"), counties, []string{"countyFips", "within", "inflow", "outflow"})
	checkCountyDocs(filepath.Join(*dir, "projections"), counties, []string{"countyFips", "baseYear", "years", "housing_need"})
	checkCountyDocs(filepath.Join(*dir, "dola_sya"), nil, []string{"countyFips", "pyramidYear", "ages", "male", "female"})
	checkSummaries(filepath.Join(*dir, "summary"))
	checkDerived(filepath.Join(*dir, "derived", "geo-derived.json"))

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("all checks passed")
}

func readDoc(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		fail("read %s: %v", path, err)
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		fail("parse %s: %v", path, err)
		return nil
	}
	return doc
}

func requireKeys(path string, doc map[string]any, keys []string) {
	for _, k := range keys {
		if _, ok := doc[k]; !ok {
			fail("%s: missing field %q", path, k)
		}
	}
}

// checkGeoConfig validates the geography config and returns the county
// GEOID set for cross-checking the per-county datasets.
func checkGeoConfig(path string) map[string]bool {
	doc := readDoc(path)
	if doc == nil {
		return nil
	}
	requireKeys(path, doc, []string{"updated", "featured", "counties", "places", "cdps"})

	counties := make(map[string]bool)
	list, _ := doc["counties"].([]any)
	for _, entry := range list {
		m, _ := entry.(map[string]any)
		geoid, _ := m["geoid"].(string)
		if len(geoid) != 5 {
			fail("%s: county geoid %q is not 5 digits", path, geoid)
			continue
		}
		counties[geoid] = true
	}
	if len(counties) == 0 {
		fail("%s: no counties listed", path)
	}
	return counties
}

// checkCountyDocs validates every per-county document in dir. When a
// county set is given, each file name must be a known county GEOID.
func checkCountyDocs(dir string, counties map[string]bool, keys []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fail("read dir %s: %v", dir, err)
		return
	}
	seen := 0
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		seen++
		path := filepath.Join(dir, e.Name())
		geoid := strings.TrimSuffix(e.Name(), ".json")
		if counties != nil && !counties[geoid] {
			fail("%s: not in geo-config county list", path)
		}
		doc := readDoc(path)
		if doc == nil {
			continue
		}
		requireKeys(path, doc, append([]string{"updated", "source"}, keys...))
		if cf, _ := doc["countyFips"].(string); cf != geoid {
			fail("%s: countyFips %q does not match file name", path, cf)
		}
	}
	if seen == 0 {
		fail("%s: no documents found", dir)
	}
}

func checkSummaries(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fail("read dir %s: %v", dir, err)
		return
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		doc := readDoc(path)
		if doc == nil {
			continue
		}
		requireKeys(path, doc, []string{"updated", "geo", "acsProfile", "acsS0801", "source"})
		if doc["acsProfile"] == nil && doc["acsS0801"] == nil {
			fail("%s: both ACS blocks are null; document should not have been written", path)
		}
	}
}

func checkDerived(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Derived builder may be disabled; absence alone is not a failure.
		return
	}
	doc := readDoc(path)
	if doc == nil {
		return
	}
	requireKeys(path, doc, []string{"updated", "acs5_years", "geos"})
}
