package main

import (
	"flag"
	"log"

	"github.com/danmuck/msgsink/internal/config"
)

func main() {
	kind := flag.String("kind", "toml", "profile kind: toml|yaml")
	output := flag.String("output", "", "output path for profile template")
	validate := flag.Bool("validate", false, "validate an existing profile file")
	input := flag.String("input", "", "profile path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing profile file")
	flag.Parse()

	if _, err := config.Template(*kind); err != nil {
		log.Fatal(err)
	}

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		p, err := config.LoadProfile(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg, err := p.StreamConfig()
		if err != nil {
			log.Fatal(err)
		}
		log.Printf(
			"Validated profile %q at %s (capacity=%d max_messages=%d terminators=%d sequences=%d)",
			p.Name,
			path,
			cfg.Capacity,
			cfg.MaxMessages,
			len(cfg.Terminators),
			len(cfg.Sequences),
		)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s profile template to %s", *kind, target)
}

func defaultPath(kind string) string {
	if kind == "yaml" || kind == "yml" {
		return "profile.yaml"
	}
	return "profile.toml"
}
