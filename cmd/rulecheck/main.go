package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"alarmcheck-backend/internal/checklist"
	"alarmcheck-backend/internal/rules"
)

func main() {
	rulesDir := flag.String("rules", "./rules", "Path to the rules directory")
	profilePath := flag.String("profile", "", "Path to a profile JSON file to plan against (optional)")
	flag.Parse()

	fsys := os.DirFS(*rulesDir)
	store := rules.NewStore(fsys)

	ids, err := documentIDs(fsys)
	if err != nil {
		exitErr(fmt.Sprintf("scan rules dir: %v", err))
	}
	if len(ids) == 0 {
		exitErr("no rule documents found")
	}

	failed := false
	for _, id := range ids {
		doc, err := store.Load(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", id, err)
			failed = true
			continue
		}
		if parent := doc.Meta.Inherits; parent != "" {
			if _, err := store.Load(parent); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: inherits %s: %v\n", id, parent, err)
				failed = true
				continue
			}
		}
		fmt.Printf("OK   %s (%d rules, version %s)\n", id, len(doc.Rules), doc.Meta.Version)
	}
	if failed {
		os.Exit(1)
	}

	if strings.TrimSpace(*profilePath) == "" {
		return
	}

	data, err := os.ReadFile(*profilePath)
	if err != nil {
		exitErr(fmt.Sprintf("read profile: %v", err))
	}
	var req checklist.Request
	if err := json.Unmarshal(data, &req); err != nil {
		exitErr(fmt.Sprintf("decode profile: %v", err))
	}
	profile, err := req.Profile()
	if err != nil {
		exitErr(fmt.Sprintf("invalid profile: %v", err))
	}

	plan, err := checklist.NewPlanner(store).Plan(profile)
	if err != nil {
		exitErr(fmt.Sprintf("build plan: %v", err))
	}
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("encode plan: %v", err))
	}
	fmt.Println(string(out))
}

// documentIDs walks the rules filesystem and returns jurisdiction ids for
// every .json/.yaml document found, e.g. "US/common" or "US/CA/common".
func documentIDs(fsys fs.FS) ([]string, error) {
	var ids []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range []string{".json", ".yaml"} {
			if strings.HasSuffix(path, ext) {
				ids = append(ids, strings.TrimSuffix(path, ext))
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
